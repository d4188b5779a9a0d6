package main

import (
	"github.com/urfave/cli/v2"

	"github.com/faithful-index/minhash-neighbors/minhash"
)

// indexFlags bundles a Config's worth of constructor parameters as CLI
// flags, and is shared by every subcommand that fits an index, following
// the pattern of declaring a command's flag-bound variables alongside
// the flags themselves (cmd-x-index-gsfa.go's newCmd_Index_gsfa).
type indexFlags struct {
	numHashFunctions    uint64
	blockSize           uint64
	numberOfCores       int
	chunkSize           int
	maxBinSize          int
	nNeighbors          int
	minimalBlocksCommon int
	excessFactor        int
	maxHashCollisions   int
	fast                bool
	similarity          bool
	bloomierFilter      bool
	pruneThreshold      int
	pruneAfterFraction  float64
	removeBelowEnabled  bool
	removeBelow         int
	lsbMaskBits         uint
}

func (f *indexFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.Uint64Flag{Name: "hash-functions", Usage: "number of MinHash functions before block reduction", Value: 400, Destination: &f.numHashFunctions},
		&cli.Uint64Flag{Name: "block-size", Usage: "signature block-collapse factor", Value: 4, Destination: &f.blockSize},
		&cli.IntFlag{Name: "cores", Usage: "number of parallel workers", Value: 1, Destination: &f.numberOfCores},
		&cli.IntFlag{Name: "chunk-size", Usage: "instances per worker submission (<=0 auto-derives ceil(N/cores))", Destination: &f.chunkSize},
		&cli.IntFlag{Name: "max-bin-size", Usage: "posting-list admission cap before a cell is disabled", Value: 50, Destination: &f.maxBinSize},
		&cli.IntFlag{Name: "k", Usage: "default number of neighbors", Value: 5, Destination: &f.nNeighbors},
		&cli.IntFlag{Name: "minimal-blocks-in-common", Usage: "minimum collision count for a candidate to survive", Value: 1, Destination: &f.minimalBlocksCommon},
		&cli.IntFlag{Name: "excess-factor", Usage: "multiplier on k when selecting the candidate pool", Value: 2, Destination: &f.excessFactor},
		&cli.IntFlag{Name: "max-hash-collisions", Usage: "divisor in the distance proxy", Value: 50, Destination: &f.maxHashCollisions},
		&cli.BoolFlag{Name: "fast", Usage: "skip exact refinement of candidates", Value: true, Destination: &f.fast},
		&cli.BoolFlag{Name: "similarity", Usage: "use cosine-like refinement instead of Euclidean (only when --fast=false)", Destination: &f.similarity},
		&cli.BoolFlag{Name: "bloomier-filter", Usage: "use Bloomier-filter-backed storage instead of hash maps", Destination: &f.bloomierFilter},
		&cli.IntFlag{Name: "prune-inverse-index", Usage: "post-fit pruning threshold (<=0 disables)", Destination: &f.pruneThreshold},
		&cli.Float64Flag{Name: "prune-inverse-index-after-instance", Usage: "trigger a mid-fit prune checkpoint after this fraction of instances (<=0 disables)", Destination: &f.pruneAfterFraction},
		&cli.IntFlag{Name: "remove-hash-function-with-less-entries-as", Usage: "drop components below this active-key count after fit (0 = mean+stddev rule); implies enabling the removal pass", Destination: &f.removeBelow,
			Action: func(cctx *cli.Context, v int) error {
				f.removeBelowEnabled = true
				return nil
			},
		},
		&cli.UintFlag{Name: "remove-value-with-least-significant-bit", Usage: "zero this many low-order signature bits before indexing", Destination: &f.lsbMaskBits},
	}
}

func (f *indexFlags) options() []minhash.Option {
	opts := []minhash.Option{
		minhash.WithNumHashFunctions(f.numHashFunctions),
		minhash.WithBlockSize(f.blockSize),
		minhash.WithNumberOfCores(f.numberOfCores),
		minhash.WithChunkSize(f.chunkSize),
		minhash.WithMaxBinSize(f.maxBinSize),
		minhash.WithNNeighbors(f.nNeighbors),
		minhash.WithMinimalBlocksInCommon(f.minimalBlocksCommon),
		minhash.WithExcessFactor(f.excessFactor),
		minhash.WithMaximalNumberOfHashCollisions(f.maxHashCollisions),
		minhash.WithFast(f.fast),
		minhash.WithSimilarity(f.similarity),
		minhash.WithBloomierFilter(f.bloomierFilter),
		minhash.WithPruneInverseIndex(f.pruneThreshold),
		minhash.WithPruneInverseIndexAfterInstance(f.pruneAfterFraction),
		minhash.WithRemoveValueWithLeastSignificantBit(f.lsbMaskBits),
	}
	if f.removeBelowEnabled {
		opts = append(opts, minhash.WithRemoveHashFunctionWithLessEntriesAs(f.removeBelow))
	}
	return opts
}
