package testsupport

import (
	"path/filepath"
	"testing"

	"cratechef/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.Database = filepath.Join(base, "data", "tracks.db")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMinFileBytes overrides the scanner's placeholder size threshold.
func WithMinFileBytes(n int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.MinFileBytes = n
	}
}

// WithBadSampleLimit overrides how many bad scanner paths are kept.
func WithBadSampleLimit(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.BadSampleLimit = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
