package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/faithful-index/minhash-neighbors/minhash"
)

func newCmd_Query() *cli.Command {
	var in indexFlags
	var corpusPath, queriesPath string
	var k int
	var radius float64
	var useRadius bool
	return &cli.Command{
		Name:        "query",
		Usage:       "Fit a corpus, then run kneighbors or radius queries against it.",
		Description: "Fit a corpus, then run kneighbors (default) or, with --radius set, radius queries against it.",
		ArgsUsage:   "<corpus.json> <queries.json>",
		Flags: append(in.flags(),
			&cli.IntFlag{Name: "neighbors", Aliases: []string{"n"}, Usage: "override k for this query (0 uses the fit-time default)", Destination: &k},
			&cli.Float64Flag{Name: "radius", Usage: "run a radius query instead of kneighbors", Destination: &radius,
				Action: func(cctx *cli.Context, v float64) error {
					useRadius = true
					return nil
				},
			},
		),
		Before: func(c *cli.Context) error {
			corpusPath = c.Args().First()
			queriesPath = c.Args().Get(1)
			if corpusPath == "" || queriesPath == "" {
				return fmt.Errorf("query: expected <corpus.json> <queries.json>")
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			corpus, err := loadCorpus(corpusPath)
			if err != nil {
				return err
			}
			queries, err := loadCorpus(queriesPath)
			if err != nil {
				return err
			}

			mb := minhash.New(in.options()...)
			if err := mb.Fit(c.Context, corpus); err != nil {
				return fmt.Errorf("query: fit: %w", err)
			}
			klog.Infof("query: fitted %s instances, querying %s",
				humanize.Comma(int64(corpus.Matrix.NumInstances())), humanize.Comma(int64(queries.Matrix.NumInstances())))

			var neighbors map[uint64][]uint64
			var distances map[uint64][]float64
			if useRadius {
				neighbors, distances, err = mb.RadiusNeighbors(c.Context, queries, radius)
			} else {
				neighbors, distances, err = mb.KNeighbors(c.Context, queries, k)
			}
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			return printNeighborhood(neighbors, distances)
		},
	}
}
