package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/faithful-index/minhash-neighbors/minhash"
)

func newCmd_Prune() *cli.Command {
	var in indexFlags
	var corpusPath string
	var threshold int
	return &cli.Command{
		Name:        "prune",
		Usage:       "Fit a corpus, then drop posting-list cells with <= threshold entries and print the distribution before/after.",
		ArgsUsage:   "<corpus.json>",
		Flags: append(in.flags(),
			&cli.IntFlag{Name: "threshold", Usage: "prune cells with <= threshold entries", Required: true, Destination: &threshold},
		),
		Before: func(c *cli.Context) error {
			corpusPath = c.Args().First()
			if corpusPath == "" {
				return fmt.Errorf("prune: missing <corpus.json> argument")
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			corpus, err := loadCorpus(corpusPath)
			if err != nil {
				return err
			}
			mb := minhash.New(in.options()...)
			if err := mb.Fit(c.Context, corpus); err != nil {
				return fmt.Errorf("prune: fit: %w", err)
			}

			before := mb.Distribution()
			klog.Infof("prune: before threshold=%d: mean=%.2f variance=%.2f", threshold, before.Mean, before.Variance)

			mb.Prune(threshold)

			after := mb.Distribution()
			klog.Infof("prune: after threshold=%d: mean=%.2f variance=%.2f", threshold, after.Mean, after.Variance)
			fmt.Printf("active_keys before: min=%d max=%d mean=%.2f\n", before.Min, before.Max, before.Mean)
			fmt.Printf("active_keys after:  min=%d max=%d mean=%.2f\n", after.Min, after.Max, after.Mean)
			return nil
		},
	}
}
