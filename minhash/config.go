package minhash

// Config bundles every constructor parameter the original estimator
// exposes, defaulted the way its CLI flags default and built through
// functional options.
type Config struct {
	NumHashFunctions              uint64
	BlockSize                     uint64
	NumberOfCores int
	// ChunkSize is the number of instances grouped into one worker
	// submission during fit and query; <= 0 auto-derives it as
	// ceil(N/NumberOfCores).
	ChunkSize  int
	MaxBinSize int
	NNeighbors                    int
	MinimalBlocksInCommon         int
	ExcessFactor                  int
	MaximalNumberOfHashCollisions int

	// Fast, if true, skips exact refinement and returns the approximate
	// LSH candidates as-is. If false, candidates are re-ranked by an
	// exact distance over their sparse feature vectors.
	Fast bool
	// Similarity selects cosine-like refinement over Euclidean when Fast
	// is false.
	Similarity bool

	// BloomierFilter selects the Bloomier-backed InverseIndexStorage
	// variant over the default hash-map one.
	BloomierFilter bool

	// PruneInverseIndex is a post-fit pruning threshold; <= 0 disables
	// the post-fit prune.
	PruneInverseIndex int
	// PruneInverseIndexAfterInstance triggers a mid-fit prune checkpoint
	// once this fraction of the corpus has been committed; <= 0 disables
	// it.
	PruneInverseIndexAfterInstance float64

	// RemoveHashFunctionsEnabled runs removeHashFunctionsBelow once
	// after fit, using RemoveHashFunctionWithLessEntriesAs as threshold
	// (0 means the mean+stddev rule).
	RemoveHashFunctionsEnabled          bool
	RemoveHashFunctionWithLessEntriesAs int

	// RemoveValueWithLeastSignificantBit zeroes this many low-order bits
	// of every signature component before indexing, collapsing
	// near-duplicate values onto the same cell.
	RemoveValueWithLeastSignificantBit uint
}

// DefaultConfig mirrors the original's constructor defaults, scaled down
// to sane values for a library caller that supplies no options.
func DefaultConfig() Config {
	return Config{
		NumHashFunctions:              400,
		BlockSize:                     4,
		NumberOfCores:                 1,
		MaxBinSize:                    50,
		NNeighbors:                    5,
		MinimalBlocksInCommon:         1,
		ExcessFactor:                  2,
		MaximalNumberOfHashCollisions: 50,
		Fast:                          true,
	}
}

// Option configures a Config; apply with New.
type Option func(*Config)

func WithNumHashFunctions(h uint64) Option {
	return func(c *Config) { c.NumHashFunctions = h }
}

func WithBlockSize(b uint64) Option {
	return func(c *Config) { c.BlockSize = b }
}

func WithNumberOfCores(n int) Option {
	return func(c *Config) { c.NumberOfCores = n }
}

func WithChunkSize(n int) Option {
	return func(c *Config) { c.ChunkSize = n }
}

func WithMaxBinSize(n int) Option {
	return func(c *Config) { c.MaxBinSize = n }
}

func WithNNeighbors(k int) Option {
	return func(c *Config) { c.NNeighbors = k }
}

func WithMinimalBlocksInCommon(n int) Option {
	return func(c *Config) { c.MinimalBlocksInCommon = n }
}

func WithExcessFactor(n int) Option {
	return func(c *Config) { c.ExcessFactor = n }
}

func WithMaximalNumberOfHashCollisions(n int) Option {
	return func(c *Config) { c.MaximalNumberOfHashCollisions = n }
}

func WithFast(fast bool) Option {
	return func(c *Config) { c.Fast = fast }
}

func WithSimilarity(similarity bool) Option {
	return func(c *Config) { c.Similarity = similarity }
}

// WithBloomierFilter selects the Bloomier-backed storage variant.
func WithBloomierFilter(enabled bool) Option {
	return func(c *Config) { c.BloomierFilter = enabled }
}

func WithPruneInverseIndex(threshold int) Option {
	return func(c *Config) { c.PruneInverseIndex = threshold }
}

func WithPruneInverseIndexAfterInstance(fraction float64) Option {
	return func(c *Config) { c.PruneInverseIndexAfterInstance = fraction }
}

func WithRemoveHashFunctionWithLessEntriesAs(threshold int) Option {
	return func(c *Config) {
		c.RemoveHashFunctionsEnabled = true
		c.RemoveHashFunctionWithLessEntriesAs = threshold
	}
}

func WithRemoveValueWithLeastSignificantBit(bits uint) Option {
	return func(c *Config) { c.RemoveValueWithLeastSignificantBit = bits }
}
