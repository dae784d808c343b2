package gpufreq

import (
	"context"

	"codeberg.org/mutker/gpufreq/internal/catalog"
	"codeberg.org/mutker/gpufreq/internal/clock"
	"codeberg.org/mutker/gpufreq/internal/logger"
	"codeberg.org/mutker/gpufreq/internal/vendor"
	"codeberg.org/mutker/gpufreq/internal/vfs"
)

// Fallback reads the GPU clock from the few locations some kernels leave
// world-readable. It never goes through the privileged executor and
// leaves the optional sample fields empty.
type Fallback struct {
	fs      vfs.FS
	catalog *catalog.Catalog
	clock   clock.Clock
	log     logger.Logger
}

func NewFallback(fs vfs.FS, cat *catalog.Catalog, c clock.Clock, log logger.Logger) *Fallback {
	if c == nil {
		c = clock.Real()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Fallback{fs: fs, catalog: cat, clock: c, log: log}
}

func (f *Fallback) TryWithoutPrivilege(ctx context.Context) (Sample, bool) {
	for _, candidate := range f.catalog.Unprivileged() {
		if ctx.Err() != nil {
			return Sample{}, false
		}
		if !f.fs.Exists(ctx, candidate.Path) {
			continue
		}
		content, err := f.fs.ReadFile(ctx, candidate.Path)
		if err != nil {
			f.log.Debug().Err(err).Str("path", candidate.Path).Msg("Unprivileged read failed")
			continue
		}
		mhz := ParseFrequency(content)
		if mhz <= 0 {
			continue
		}

		v := candidate.Hint
		if v == vendor.Unknown {
			v = f.detectVendor(ctx)
		}
		return Sample{
			CurrentMHz: mhz,
			Vendor:     v,
			SourcePath: candidate.Path,
			Timestamp:  f.clock.Now(),
		}, true
	}
	return Sample{}, false
}

func (f *Fallback) detectVendor(ctx context.Context) vendor.Vendor {
	for _, path := range f.catalog.HintFiles() {
		content, err := f.fs.ReadFile(ctx, path)
		if err != nil {
			continue
		}
		if v := vendor.MatchKeywords(content); v != vendor.Unknown {
			return v
		}
	}
	return vendor.Unknown
}
