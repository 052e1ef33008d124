package ikdtree

import (
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Config controls Tree behavior. Start with DefaultConfig and override the
// fields you need, following the same pattern as this package's spatial
// building blocks in the wider corpus (hdbscan.Config / DefaultConfig).
type Config struct {
	// DeleteCriterionParam is the fraction of invalid (lazily deleted)
	// nodes in a subtree that triggers a rebuild of that subtree.
	// Must be in (0, 1]. Default: 0.5.
	DeleteCriterionParam float64

	// BalanceCriterionParam is the child-size fraction that triggers a
	// rebuild when exceeded (or when its complement is exceeded on the
	// other side). Must be in [0.5, 1). Default: 0.7.
	BalanceCriterionParam float64

	// DownsampleSize is the edge length of the voxel grid used by
	// AddPoints when downsampling is requested. Must be > 0. Default: 0.2.
	DownsampleSize float64

	// MaxQueueLen bounds the background rebuild's operation log. Exceeding
	// it is fatal (see ErrQueueOverflow) since it means mutation is
	// outrunning rebuild bandwidth. Default: 1,000,000.
	MaxQueueLen int

	// RebuildThreshold is the subtree size above which a rebuild is
	// dispatched to the background goroutine instead of running inline.
	// Default: 1500.
	RebuildThreshold int

	// MinUnbalSize is the subtree size at or below which the balance
	// monitor does not check the subtree at all. Default: 10.
	MinUnbalSize int

	// EPS is the coordinate-equality tolerance used by point deletion and
	// lookup. It is an absolute tolerance, not scaled by coordinate
	// magnitude (see the design notes' open question on this). Default:
	// 1e-6.
	EPS float64

	// OnFatal is invoked for unrecoverable conditions (operation-log
	// overflow, inconsistent parent pointer at swap). If nil, the tree
	// panics instead. Set this to convert fatal conditions into a
	// controlled shutdown in a host application.
	OnFatal func(error)

	// Logger receives structured trace events from the background rebuild
	// goroutine (rebuild started/finished, log replay progress). Defaults
	// to a no-op logger so a Tree stays silent unless a caller opts in.
	Logger log.Logger

	// Registerer, if non-nil, registers this package's Prometheus
	// collectors (operation-log high-water mark, rebuild counters) on
	// construction. Left nil, a Tree still keeps the counters internally
	// but does not expose them.
	Registerer prometheus.Registerer
}

// DefaultConfig returns a Config with the parameter values from the
// package's design notes.
func DefaultConfig() Config {
	return Config{
		DeleteCriterionParam:  0.5,
		BalanceCriterionParam: 0.7,
		DownsampleSize:        0.2,
		MaxQueueLen:           1_000_000,
		RebuildThreshold:      1500,
		MinUnbalSize:          10,
		EPS:                   1e-6,
		Logger:                log.NewNopLogger(),
	}
}

// validateConfig checks that cfg's fields are usable and fills in any
// zero-valued field with its DefaultConfig counterpart, mirroring the
// teacher's validateConfig-plus-fallback pattern.
func validateConfig(cfg *Config) error {
	def := DefaultConfig()

	if cfg.DeleteCriterionParam == 0 {
		cfg.DeleteCriterionParam = def.DeleteCriterionParam
	}
	if cfg.DeleteCriterionParam <= 0 || cfg.DeleteCriterionParam > 1 {
		return errors.Newf("ikdtree: DeleteCriterionParam must be in (0, 1], got %f", cfg.DeleteCriterionParam)
	}

	if cfg.BalanceCriterionParam == 0 {
		cfg.BalanceCriterionParam = def.BalanceCriterionParam
	}
	if cfg.BalanceCriterionParam < 0.5 || cfg.BalanceCriterionParam >= 1 {
		return errors.Newf("ikdtree: BalanceCriterionParam must be in [0.5, 1), got %f", cfg.BalanceCriterionParam)
	}

	if cfg.DownsampleSize == 0 {
		cfg.DownsampleSize = def.DownsampleSize
	}
	if cfg.DownsampleSize <= 0 {
		return errors.Newf("ikdtree: DownsampleSize must be > 0, got %f", cfg.DownsampleSize)
	}

	if cfg.MaxQueueLen == 0 {
		cfg.MaxQueueLen = def.MaxQueueLen
	}
	if cfg.MaxQueueLen < 1 {
		return errors.Newf("ikdtree: MaxQueueLen must be >= 1, got %d", cfg.MaxQueueLen)
	}

	if cfg.RebuildThreshold == 0 {
		cfg.RebuildThreshold = def.RebuildThreshold
	}
	if cfg.RebuildThreshold < 1 {
		return errors.Newf("ikdtree: RebuildThreshold must be >= 1, got %d", cfg.RebuildThreshold)
	}

	if cfg.MinUnbalSize == 0 {
		cfg.MinUnbalSize = def.MinUnbalSize
	}
	if cfg.MinUnbalSize < 0 {
		return errors.Newf("ikdtree: MinUnbalSize must be >= 0, got %d", cfg.MinUnbalSize)
	}

	if cfg.EPS == 0 {
		cfg.EPS = def.EPS
	}
	if cfg.EPS < 0 {
		return errors.Newf("ikdtree: EPS must be >= 0, got %f", cfg.EPS)
	}

	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}

	return nil
}
