package gpufreq

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/mutker/gpufreq/internal/cache"
	"codeberg.org/mutker/gpufreq/internal/catalog"
	"codeberg.org/mutker/gpufreq/internal/clock"
	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/logger"
	"codeberg.org/mutker/gpufreq/internal/shell"
	"codeberg.org/mutker/gpufreq/internal/vendor"
)

// Reader discovers and reads the GPU clock through the privileged
// executor. Candidates are always tried one at a time in catalog order.
type Reader struct {
	exec       shell.Executor
	classifier Classifier
	catalog    *catalog.Catalog
	resolver   *catalog.Resolver
	cache      *cache.Cache
	fallback   *Fallback
	clock      clock.Clock
	log        logger.Logger
}

type Option func(*Reader)

func WithClock(c clock.Clock) Option {
	return func(r *Reader) {
		r.clock = c
	}
}

func WithLogger(log logger.Logger) Option {
	return func(r *Reader) {
		r.log = log
	}
}

// NewReader wires a reader. fallback may be nil, in which case an
// unprivileged device always reports RequiresPrivilege.
func NewReader(exec shell.Executor, classifier Classifier, cat *catalog.Catalog,
	c *cache.Cache, fallback *Fallback, opts ...Option,
) *Reader {
	r := &Reader{
		exec:       exec,
		classifier: classifier,
		catalog:    cat,
		cache:      c,
		fallback:   fallback,
		clock:      clock.Real(),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resolver = catalog.NewResolver(exec, r.log)
	return r
}

// ClearCache forgets every cached path, vendor and value.
func (r *Reader) ClearCache() {
	r.cache.Clear()
}

func (r *Reader) Read(ctx context.Context) (state State) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Interface("panic", p).Msg("Frequency read failed unexpectedly")
			state = Error{Message: fmt.Sprintf("unexpected failure: %v", p)}
		}
	}()

	if ctx.Err() != nil {
		return r.canceled(ctx)
	}

	if !r.exec.HasPrivilege(ctx) {
		if ctx.Err() != nil {
			return r.canceled(ctx)
		}
		return r.readWithoutPrivilege(ctx)
	}

	if s, ok := r.readLastPath(ctx); ok {
		return Available{Sample: s}
	}

	if s, ok := r.readFastPath(ctx); ok {
		return Available{Sample: s}
	}
	if ctx.Err() != nil {
		return r.canceled(ctx)
	}

	v := r.resolveVendor(ctx)

	templates := r.catalog.Paths(v, catalog.Current)
	if len(templates) == 0 {
		r.log.Debug().Str("vendor", v.String()).Msg("No current-frequency candidates")
		return NotSupported{}
	}

	path, mhz, ok := r.firstMatch(ctx, templates, func(content string) (int, bool) {
		mhz := ParseFrequency(content)
		return mhz, mhz > 0
	})
	if !ok {
		if ctx.Err() != nil {
			return r.canceled(ctx)
		}
		err := errors.New().WithData(errors.ErrExhausted, v.String())
		r.log.ErrorWithCode(err).Int("candidates", len(templates)).Msg("No candidate produced a frequency")
		return Error{Message: fmt.Sprintf("all %d current-frequency candidates for vendor %s exhausted", len(templates), v)}
	}

	r.cache.SetLastPath(path)
	return Available{Sample: r.enrich(ctx, r.newSample(v, path, mhz))}
}

// canceled reports a read cut short by the caller. It is never a
// discovery outcome, so nothing is cached.
func (r *Reader) canceled(ctx context.Context) State {
	err := errors.New().Wrap(errors.ErrCanceled, ctx.Err())
	r.log.Debug().Str("error_code", string(err.Code())).Err(ctx.Err()).Msg("Frequency read canceled")
	return Error{Message: CanceledMessage}
}

func (r *Reader) readWithoutPrivilege(ctx context.Context) State {
	r.log.Debug().Msg("No privileged access, trying unprivileged locations")
	if r.fallback == nil {
		return RequiresPrivilege{}
	}
	s, ok := r.fallback.TryWithoutPrivilege(ctx)
	if !ok {
		if ctx.Err() != nil {
			return r.canceled(ctx)
		}
		return RequiresPrivilege{}
	}
	return Available{Sample: s}
}

// readLastPath re-reads the location that succeeded last time, as long
// as the vendor it was found under is still cached.
func (r *Reader) readLastPath(ctx context.Context) (Sample, bool) {
	v, ok := r.cache.Vendor()
	if !ok {
		return Sample{}, false
	}
	path, ok := r.cache.LastPath()
	if !ok {
		return Sample{}, false
	}

	mhz, ok := r.readFrequencyAt(ctx, path)
	if !ok {
		return Sample{}, false
	}
	return r.enrich(ctx, r.newSample(v, path, mhz)), true
}

// readFastPath tries the common vendor-agnostic locations before
// classification. Hits report an Unknown vendor and are not enriched.
func (r *Reader) readFastPath(ctx context.Context) (Sample, bool) {
	for _, path := range r.catalog.FastPaths() {
		if ctx.Err() != nil {
			return Sample{}, false
		}
		mhz, ok := r.readFrequencyAt(ctx, path)
		if !ok {
			continue
		}
		r.log.Debug().Str("path", path).Int("mhz", mhz).Msg("Fast path hit")
		return r.newSample(vendor.Unknown, path, mhz), true
	}
	return Sample{}, false
}

func (r *Reader) readFrequencyAt(ctx context.Context, path string) (int, bool) {
	if !r.exec.FileExists(ctx, path) {
		return 0, false
	}
	content, ok := r.content(ctx, path)
	if !ok {
		return 0, false
	}
	mhz := ParseFrequency(content)
	if mhz <= 0 {
		r.log.Debug().Str("path", path).Str("content", content).Msg("Content is not a frequency")
		return 0, false
	}
	return mhz, true
}

func (r *Reader) resolveVendor(ctx context.Context) vendor.Vendor {
	if v, ok := r.cache.Vendor(); ok {
		return v
	}
	v := r.classifier.Detect(ctx)
	if v != vendor.Unknown {
		r.cache.SetVendor(v)
	}
	r.log.Debug().Str("vendor", v.String()).Msg("Vendor classified")
	return v
}

// firstMatch walks templates in order and returns the first existing
// concrete path whose content parse accepts.
func (r *Reader) firstMatch(ctx context.Context, templates []string,
	parse func(content string) (int, bool),
) (string, int, bool) {
	for _, template := range templates {
		for _, path := range r.resolver.Resolve(ctx, template) {
			if ctx.Err() != nil {
				return "", 0, false
			}
			if !r.exec.FileExists(ctx, path) {
				continue
			}
			content, ok := r.content(ctx, path)
			if !ok {
				continue
			}
			if v, ok := parse(content); ok {
				return path, v, true
			}
			r.log.Debug().Str("path", path).Msg("Candidate skipped")
		}
	}
	return "", 0, false
}

func (r *Reader) content(ctx context.Context, path string) (string, bool) {
	if c, ok := r.cache.FileContent(path); ok {
		return c, true
	}
	c, ok := r.exec.ReadFile(ctx, path)
	if !ok {
		r.log.Debug().Str("path", path).Msg("Candidate not readable")
		return "", false
	}
	r.cache.SetFileContent(path, c)
	return c, true
}

func (r *Reader) newSample(v vendor.Vendor, path string, mhz int) Sample {
	return Sample{
		CurrentMHz: mhz,
		Vendor:     v,
		SourcePath: path,
		Timestamp:  r.clock.Now(),
	}
}

// enrich fills the optional fields. Missing values leave them empty.
func (r *Reader) enrich(ctx context.Context, s Sample) Sample {
	positive := func(content string) (int, bool) {
		mhz := ParseFrequency(content)
		return mhz, mhz > 0
	}

	if mhz, ok := r.cache.MaxFrequency(); ok {
		s.MaxMHz = mhz
	} else if _, mhz, ok := r.firstMatch(ctx, r.catalog.Paths(s.Vendor, catalog.Max), positive); ok {
		r.cache.SetMaxFrequency(mhz)
		s.MaxMHz = mhz
	}

	if mhz, ok := r.cache.MinFrequency(); ok {
		s.MinMHz = mhz
	} else if _, mhz, ok := r.firstMatch(ctx, r.catalog.Paths(s.Vendor, catalog.Min), positive); ok {
		r.cache.SetMinFrequency(mhz)
		s.MinMHz = mhz
	}

	if list, ok := r.cache.AvailableFrequencies(); ok {
		s.AvailableMHz = list
	} else {
		var list []int
		_, _, ok := r.firstMatch(ctx, r.catalog.Paths(s.Vendor, catalog.Available), func(content string) (int, bool) {
			list = ParseAvailable(content)
			return len(list), len(list) > 0
		})
		if ok {
			r.cache.SetAvailableFrequencies(list)
			s.AvailableMHz = list
		}
	}

	var governor string
	_, _, ok := r.firstMatch(ctx, r.catalog.Paths(s.Vendor, catalog.Governor), func(content string) (int, bool) {
		governor = strings.TrimSpace(content)
		return 0, governor != ""
	})
	if ok {
		s.Governor = governor
	}

	return s
}
