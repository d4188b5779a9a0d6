package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"

	"github.com/faithful-index/minhash-neighbors/minhash"
)

func newCmd_Fit() *cli.Command {
	var in indexFlags
	var corpusPath string
	return &cli.Command{
		Name:        "fit",
		Usage:       "Fit a MinHash neighbor index from a corpus file and print a summary.",
		Description: "Fit a MinHash neighbor index from a corpus file and print a summary. Persistence is out of scope; the index only lives for this invocation.",
		ArgsUsage:   "<corpus.json>",
		Flags:       in.flags(),
		Before: func(c *cli.Context) error {
			corpusPath = c.Args().First()
			if corpusPath == "" {
				return fmt.Errorf("fit: missing <corpus.json> argument")
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return runFit(c.Context, corpusPath, &in)
		},
	}
}

func runFit(ctx context.Context, corpusPath string, in *indexFlags) error {
	corpus, err := loadCorpus(corpusPath)
	if err != nil {
		return err
	}
	klog.Infof("fit: loaded %s instances from %s", humanize.Comma(int64(corpus.Matrix.NumInstances())), corpusPath)

	mb := minhash.New(in.options()...)
	if err := mb.Fit(ctx, corpus); err != nil {
		return fmt.Errorf("fit: %w", err)
	}

	dist := mb.Distribution()
	klog.Infof("fit: %s components, active-key mean=%.2f variance=%.2f (min=%d max=%d)",
		humanize.Comma(int64(len(dist.PerComponent))), dist.Mean, dist.Variance, dist.Min, dist.Max)

	digest, _ := mb.Meta().BuildDigest()
	fmt.Printf("fit complete: %s instances, build digest %x\n", humanize.Comma(int64(corpus.Matrix.NumInstances())), digest)
	return nil
}
