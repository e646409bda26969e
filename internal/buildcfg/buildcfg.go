// Package buildcfg holds builder-wide options threaded through a Dag at
// construction time, modeled on the teacher's internal/buildutil role of
// carrying project-wide settings separate from any one compilation unit.
package buildcfg

import "mapsir/internal/irtype"

// Config bundles the options a Dag needs at construction time.
type Config struct {
	// HashConsEnabled gates structural deduplication; with it off, every
	// hash-consed factory call allocates a fresh node.
	HashConsEnabled bool

	// DefaultMemOrder/DefaultBlockSize seed factories that only take a
	// DataShape (no explicit order/block); Empty is the one such factory.
	DefaultMemOrder  irtype.MemOrder
	DefaultBlockSize irtype.BlockSize

	// CheckpointDir is the directory Checkpoint nodes create their
	// transient .raw temp files in. Empty means os.TempDir().
	CheckpointDir string
}

// Default returns the configuration every production Dag should start
// from: hash-consing on, row-major traversal, no implicit blocking.
func Default() Config {
	return Config{
		HashConsEnabled:  true,
		DefaultMemOrder:  irtype.RowMajorPos,
		DefaultBlockSize: irtype.BlockSize{},
	}
}
