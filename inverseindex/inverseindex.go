// Package inverseindex implements the core locality-sensitive inverted
// index: per-hash-function posting lists keyed by MinHash signature
// components, fit in parallel and queried by collision-count voting.
package inverseindex

import (
	"context"
	"fmt"
	"math"
	"sync"

	concurrently "github.com/tejzpr/ordered-concurrently/v3"
	"golang.org/x/sync/semaphore"
	"k8s.io/klog/v2"

	"github.com/faithful-index/minhash-neighbors/mhash"
	"github.com/faithful-index/minhash-neighbors/sparsematrix"
)

// Config bundles every constructor parameter the original estimator
// exposes.
type Config struct {
	NumHashFunctions              uint64
	BlockSize                     uint64
	NumberOfCores                 int
	// ChunkSize is the static partition granularity used to split a fit
	// or query batch across the worker pool: instances are grouped into
	// runs of ChunkSize before being handed to a worker, rather than
	// submitted one at a time. <= 0 auto-derives it as ceil(N/cores) for
	// the batch currently being processed.
	ChunkSize                     int
	MaxBinSize                    int
	SizeOfNeighborhood            int
	MinimalBlocksInCommon         int
	ExcessFactor                  int
	MaximalNumberOfHashCollisions int

	// UseBloomierStorage selects the Bloomier-filter-backed storage
	// variant over the default map-backed one.
	UseBloomierStorage bool

	// PruneAfterFraction triggers a mid-fit prune checkpoint once this
	// fraction of the corpus has been committed. Zero disables it.
	PruneAfterFraction float64
	// PruneThreshold is the threshold passed to the mid-fit checkpoint's
	// Prune call.
	PruneThreshold int

	// LSBMaskBits zeroes this many low-order bits of every signature
	// component before it is used as an index key, collapsing
	// near-duplicate values onto the same cell. Zero disables it.
	LSBMaskBits uint
}

func (c Config) hashParams() mhash.Params {
	return mhash.Params{NumHashFunctions: c.NumHashFunctions, BlockSize: c.BlockSize}
}

type sigEntry struct {
	ids       []uint64
	signature []uint64
}

// InverseIndex is the fitted index: a SignatureStorage map plus B
// per-component posting-list storages.
type InverseIndex struct {
	cfg     Config
	storage Storage
	// inflight bounds the number of submitted-but-not-yet-run work items
	// to numberOfCores, independent of ordered-concurrently's own pool
	// size and output buffering.
	inflight *semaphore.Weighted

	mu                  sync.Mutex
	signatureStorage    map[uint64]*sigEntry
	disabledComponents  map[int]bool
	doubleElementsFit   int
	doubleElementsQuery int
	instancesSincePrune int
	totalFitInstances   int
}

// New constructs an empty InverseIndex over cfg.SignatureLength()
// components, backed by either the map or Bloomier storage variant.
func New(cfg Config) *InverseIndex {
	numComponents := cfg.hashParams().SignatureLength()
	var storage Storage
	if cfg.UseBloomierStorage {
		storage = newBloomierStorage(numComponents, cfg.MaxBinSize)
	} else {
		storage = newMapStorage(numComponents, cfg.MaxBinSize)
	}
	numWorkers := cfg.NumberOfCores
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return &InverseIndex{
		cfg:                cfg,
		storage:            storage,
		inflight:           semaphore.NewWeighted(int64(numWorkers)),
		signatureStorage:   make(map[uint64]*sigEntry),
		disabledComponents: make(map[int]bool),
	}
}

func (idx *InverseIndex) numWorkers() int {
	if idx.cfg.NumberOfCores <= 0 {
		return 1
	}
	return idx.cfg.NumberOfCores
}

// chunkSize returns the partition granularity for a batch of n
// instances: cfg.ChunkSize if set, otherwise ceil(n/numWorkers) so the
// batch splits evenly across the pool.
func (idx *InverseIndex) chunkSize(n int) int {
	if idx.cfg.ChunkSize > 0 {
		return idx.cfg.ChunkSize
	}
	size := int(math.Ceil(float64(n) / float64(idx.numWorkers())))
	if size < 1 {
		size = 1
	}
	return size
}

// partitionRows splits ids into chunkSize(len(ids))-sized runs of
// signatureWorkItem, fetching each instance's row from m and skipping
// any id m doesn't have.
func partitionRows(ids []uint64, m *sparsematrix.Matrix, chunk int) [][]signatureWorkItem {
	var chunks [][]signatureWorkItem
	var current []signatureWorkItem
	for _, id := range ids {
		row, ok := m.Row(id)
		if !ok {
			continue
		}
		current = append(current, signatureWorkItem{instanceID: id, features: row.Features})
		if len(current) >= chunk {
			chunks = append(chunks, current)
			current = nil
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// Fit ingests corpus: instances are partitioned into ChunkSize-sized
// runs and each run's signatures are computed by one worker; then, under
// the single per-instance critical section, commit the SignatureStorage
// entry and update every component's posting list.
func (idx *InverseIndex) Fit(ctx context.Context, corpus *sparsematrix.Matrix) error {
	ids := corpus.InstanceIDs()
	idx.totalFitInstances = len(ids)
	idx.instancesSincePrune = 0

	numWorkers := idx.numWorkers()
	workerInputChan := make(chan concurrently.WorkFunction, numWorkers)
	waitExecuted := new(sync.WaitGroup)

	outputChan := concurrently.Process(ctx, workerInputChan, &concurrently.Options{
		PoolSize: numWorkers, OutChannelBuffer: numWorkers,
	})

	go func() {
		for result := range outputChan {
			results, ok := result.Value.([]signatureResult)
			if !ok {
				klog.Errorf("inverseindex: unexpected fit worker result type %T", result.Value)
				continue
			}
			for _, res := range results {
				idx.commitFit(res)
			}
			waitExecuted.Done()
		}
	}()

	params := idx.cfg.hashParams()
	chunks := partitionRows(ids, corpus, idx.chunkSize(len(ids)))
	for _, chunk := range chunks {
		if err := idx.inflight.Acquire(ctx, 1); err != nil {
			break
		}
		waitExecuted.Add(1)
		workerInputChan <- newSignatureWorker(chunk, params, idx.cfg.LSBMaskBits, func() { idx.inflight.Release(1) })
	}
	close(workerInputChan)
	waitExecuted.Wait()

	klog.Infof("inverseindex: fit complete over %d instances (%d duplicate signatures)", len(ids), idx.doubleElementsFit)
	return nil
}

// commitFit applies one instance's signature under the write lock,
// matching the original's single `#pragma omp critical` section per
// instance.
func (idx *InverseIndex) commitFit(res signatureResult) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if entry, ok := idx.signatureStorage[res.sid]; ok {
		entry.ids = append(entry.ids, res.instanceID)
		idx.doubleElementsFit++
	} else {
		idx.signatureStorage[res.sid] = &sigEntry{ids: []uint64{res.instanceID}, signature: res.signature}
		for j, component := range res.signature {
			idx.storage.Insert(j, component, res.instanceID)
		}
	}

	idx.instancesSincePrune++
	idx.maybeCheckpointPrune()
}

// maybeCheckpointPrune implements the mid-fit pruning trigger: once
// PruneAfterFraction of the corpus has been committed since the last
// checkpoint, run Prune(PruneThreshold) before continuing. Caller must
// hold idx.mu.
func (idx *InverseIndex) maybeCheckpointPrune() {
	if idx.cfg.PruneAfterFraction <= 0 || idx.totalFitInstances == 0 {
		return
	}
	checkpoint := int(math.Ceil(idx.cfg.PruneAfterFraction * float64(idx.totalFitInstances)))
	if checkpoint <= 0 {
		return
	}
	if idx.instancesSincePrune >= checkpoint {
		klog.Infof("inverseindex: mid-fit prune checkpoint at %d instances (threshold=%d)", idx.instancesSincePrune, idx.cfg.PruneThreshold)
		idx.storage.Prune(idx.cfg.PruneThreshold)
		idx.instancesSincePrune = 0
	}
}

// ComputeSignatureMap computes (and dedups against the existing
// SignatureStorage) the signatures for a batch of query instances, in
// parallel, matching the original's `computeSignatureMap`. Instances are
// partitioned into ChunkSize-sized runs the same way Fit does.
func (idx *InverseIndex) ComputeSignatureMap(ctx context.Context, queries *sparsematrix.Matrix) map[uint64]*sigEntry {
	ids := queries.InstanceIDs()
	numWorkers := idx.numWorkers()
	workerInputChan := make(chan concurrently.WorkFunction, numWorkers)
	waitExecuted := new(sync.WaitGroup)

	out := make(map[uint64]*sigEntry, len(ids))
	var mu sync.Mutex

	outputChan := concurrently.Process(ctx, workerInputChan, &concurrently.Options{
		PoolSize: numWorkers, OutChannelBuffer: numWorkers,
	})

	go func() {
		for result := range outputChan {
			results, ok := result.Value.([]signatureResult)
			if !ok {
				klog.Errorf("inverseindex: unexpected query worker result type %T", result.Value)
				continue
			}
			for _, res := range results {
				mu.Lock()
				if existing, found := out[res.sid]; found {
					existing.ids = append(existing.ids, res.instanceID)
					idx.mu.Lock()
					idx.doubleElementsQuery++
					idx.mu.Unlock()
				} else if stored, found := idx.signatureStorage[res.sid]; found {
					out[res.sid] = &sigEntry{ids: append([]uint64{res.instanceID}, stored.ids...), signature: stored.signature}
				} else {
					out[res.sid] = &sigEntry{ids: []uint64{res.instanceID}, signature: res.signature}
				}
				mu.Unlock()
			}
			waitExecuted.Done()
		}
	}()

	params := idx.cfg.hashParams()
	chunks := partitionRows(ids, queries, idx.chunkSize(len(ids)))
	for _, chunk := range chunks {
		if err := idx.inflight.Acquire(ctx, 1); err != nil {
			break
		}
		waitExecuted.Add(1)
		workerInputChan <- newSignatureWorker(chunk, params, idx.cfg.LSBMaskBits, func() { idx.inflight.Release(1) })
	}
	close(workerInputChan)
	waitExecuted.Wait()

	return out
}

// KNeighbors scores every query signature against the fitted index and
// replicates the result to every original instance id sharing that sid.
func (idx *InverseIndex) KNeighbors(ctx context.Context, signaturesMap map[uint64]*sigEntry) (neighbors map[uint64][]uint64, distances map[uint64][]float64) {
	neighbors = make(map[uint64][]uint64, len(signaturesMap))
	distances = make(map[uint64][]float64, len(signaturesMap))

	numWorkers := idx.numWorkers()
	workerInputChan := make(chan concurrently.WorkFunction, numWorkers)
	waitExecuted := new(sync.WaitGroup)
	var mu sync.Mutex

	outputChan := concurrently.Process(ctx, workerInputChan, &concurrently.Options{
		PoolSize: numWorkers, OutChannelBuffer: numWorkers,
	})

	go func() {
		for result := range outputChan {
			res, ok := result.Value.(scoreResult)
			if !ok {
				klog.Errorf("inverseindex: unexpected score worker result type %T", result.Value)
				continue
			}
			mu.Lock()
			for _, id := range res.queryIDs {
				neighbors[id] = res.neighbors
				distances[id] = res.distances
			}
			mu.Unlock()
			waitExecuted.Done()
		}
	}()

	for _, entry := range signaturesMap {
		if err := idx.inflight.Acquire(ctx, 1); err != nil {
			break
		}
		waitExecuted.Add(1)
		workerInputChan <- newScoreWorker(idx, entry.ids, entry.signature, func() { idx.inflight.Release(1) })
	}
	close(workerInputChan)
	waitExecuted.Wait()

	return neighbors, distances
}

// Prune drops cells (in every component) whose posting list has
// <= threshold entries.
func (idx *InverseIndex) Prune(threshold int) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.storage.Prune(threshold)
}

// RemoveHashFunctionsBelow disables components whose active-key count
// falls below a threshold: if threshold == 0, the threshold is the
// corpus's mean + standard deviation of per-component sizes; otherwise
// it is used directly.
func (idx *InverseIndex) RemoveHashFunctionsBelow(threshold int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	n := idx.storage.NumComponents()
	sizes := make([]float64, n)
	for j := 0; j < n; j++ {
		sizes[j] = float64(idx.storage.Size(j))
	}

	effective := float64(threshold)
	if threshold == 0 {
		mean := 0.0
		for _, s := range sizes {
			mean += s
		}
		mean /= float64(n)

		variance := 0.0
		for _, s := range sizes {
			variance += (s - mean) * (s - mean)
		}
		variance /= float64(n)
		stddev := math.Sqrt(variance)
		effective = mean + stddev
	}

	dropped := 0
	for j, s := range sizes {
		if s < effective {
			idx.disabledComponents[j] = true
			dropped++
		}
	}
	klog.Infof("inverseindex: removeHashFunctionsBelow(%d) disabled %d/%d components (effective threshold %.2f)", threshold, dropped, n, effective)
	if dropped == n {
		return fmt.Errorf("inverseindex: removeHashFunctionsBelow(%d) would disable all %d components", threshold, n)
	}
	return nil
}

// ComponentSizes returns the active-key count of every component, in
// order, for use by distribution reporting.
func (idx *InverseIndex) ComponentSizes() []int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	n := idx.storage.NumComponents()
	sizes := make([]int, n)
	for j := 0; j < n; j++ {
		sizes[j] = idx.storage.Size(j)
	}
	return sizes
}

func (idx *InverseIndex) isComponentDisabled(j int) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.disabledComponents[j]
}
