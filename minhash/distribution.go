package minhash

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus vectors are package-level and registered once in init(),
// observed from call sites rather than threaded through as parameters.
func init() {
	prometheus.MustRegister(metricsComponentActiveKeys)
	prometheus.MustRegister(metricsActiveKeysMean)
	prometheus.MustRegister(metricsActiveKeysVariance)
	prometheus.MustRegister(metricsActiveKeysHistogram)
	prometheus.MustRegister(metricsPruneEvents)
}

var metricsComponentActiveKeys = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "minhash_component_active_keys",
		Help: "Active (present, non-empty) posting-list keys per inverse-index component",
	},
	[]string{"component"},
)

var metricsActiveKeysMean = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "minhash_active_keys_mean",
		Help: "Mean active-key count across all inverse-index components",
	},
)

var metricsActiveKeysVariance = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "minhash_active_keys_variance",
		Help: "Variance of active-key count across all inverse-index components",
	},
)

var metricsActiveKeysHistogram = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "minhash_active_keys_histogram",
		Help:    "Distribution of per-component active-key counts",
		Buckets: prometheus.DefBuckets,
	},
)

var metricsPruneEvents = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "minhash_prune_events_total",
		Help: "Number of Prune passes run by MinHashBase (post-fit and explicit Prune calls)",
	},
)

// ComponentStats summarizes one component's active-key count.
type ComponentStats struct {
	Component int
	Size      int
}

// Distribution is the summary statistics the original exposes through its
// getDistribution-style helpers: per-component sizes, plus their
// min/max/mean/variance.
type Distribution struct {
	PerComponent []ComponentStats
	Min, Max     int
	Mean         float64
	Variance     float64
}

// DistributionReporter snapshots InverseIndex.ComponentSizes into a
// Distribution and publishes it as Prometheus gauges/histograms.
type DistributionReporter struct{}

func NewDistributionReporter() *DistributionReporter {
	return &DistributionReporter{}
}

// Snapshot computes summary statistics over sizes (one entry per
// component) and records them to the package's Prometheus vectors.
func (r *DistributionReporter) Snapshot(sizes []int) Distribution {
	d := Distribution{PerComponent: make([]ComponentStats, len(sizes))}
	if len(sizes) == 0 {
		return d
	}

	d.Min, d.Max = sizes[0], sizes[0]
	sum := 0.0
	for j, s := range sizes {
		d.PerComponent[j] = ComponentStats{Component: j, Size: s}
		if s < d.Min {
			d.Min = s
		}
		if s > d.Max {
			d.Max = s
		}
		sum += float64(s)
		metricsComponentActiveKeys.WithLabelValues(fmt.Sprintf("%d", j)).Set(float64(s))
		metricsActiveKeysHistogram.Observe(float64(s))
	}
	d.Mean = sum / float64(len(sizes))

	variance := 0.0
	for _, s := range sizes {
		diff := float64(s) - d.Mean
		variance += diff * diff
	}
	d.Variance = variance / float64(len(sizes))

	metricsActiveKeysMean.Set(d.Mean)
	metricsActiveKeysVariance.Set(d.Variance)
	return d
}

// stddev is a small helper used by commitFit's fit-complete log line.
func stddev(variance float64) float64 {
	return math.Sqrt(variance)
}
