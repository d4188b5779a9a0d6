package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/faithful-index/minhash-neighbors/minhash"
)

func newCmd_Describe() *cli.Command {
	var in indexFlags
	var corpusPath string
	return &cli.Command{
		Name:        "describe",
		Usage:       "Fit a corpus and print its index-build annotations and distribution summary.",
		ArgsUsage:   "<corpus.json>",
		Flags:       in.flags(),
		Before: func(c *cli.Context) error {
			corpusPath = c.Args().First()
			if corpusPath == "" {
				return fmt.Errorf("describe: missing <corpus.json> argument")
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
				return fmt.Errorf("describe: %w", err)
			}

			m := mb.Meta()
			h, _ := m.NumHashFunctions()
			b, _ := m.BlockSize()
			kind, _ := m.StorageKind()
			digest, _ := m.BuildDigest()
			fmt.Printf("num_hash_functions: %d\n", h)
			fmt.Printf("block_size: %d\n", b)
			fmt.Printf("storage_kind: %s\n", kind)
			fmt.Printf("build_digest: %x\n", digest)

			dist := mb.Distribution()
			fmt.Printf("components: %d\n", len(dist.PerComponent))
			fmt.Printf("active_keys: min=%d max=%d mean=%.2f variance=%.2f\n", dist.Min, dist.Max, dist.Mean, dist.Variance)
			return nil
		},
	}
}
