package catalog

import (
	"context"
	"regexp"
	"strings"

	"codeberg.org/mutker/gpufreq/internal/logger"
)

// MaxMatches bounds how many entries a single wildcard segment may expand
// to, which bounds the privileged calls one template can cost.
const MaxMatches = 16

// Lister is the subset of the privileged executor the resolver needs.
type Lister interface {
	ListDirectory(ctx context.Context, path string) ([]string, bool)
	FileExists(ctx context.Context, path string) bool
}

// Resolver expands wildcard templates segment by segment, left to right.
type Resolver struct {
	lister Lister
	log    logger.Logger
}

func NewResolver(lister Lister, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{lister: lister, log: log}
}

// Resolve returns the concrete paths template expands to. A template
// without wildcards resolves to itself. When the final segment carries a
// wildcard only existing paths are returned; directory-only wildcards
// leave the existence check to the caller. Listing failures yield an
// empty result.
func (r *Resolver) Resolve(ctx context.Context, template string) []string {
	if !strings.Contains(template, "*") {
		return []string{template}
	}

	segments := strings.Split(strings.Trim(template, "/"), "/")
	prefixes := []string{""}

	for _, seg := range segments {
		if !strings.Contains(seg, "*") {
			for i := range prefixes {
				prefixes[i] += "/" + seg
			}
			continue
		}

		pattern := globPattern(seg)
		var next []string
		for _, prefix := range prefixes {
			dir := prefix
			if dir == "" {
				dir = "/"
			}
			entries, ok := r.lister.ListDirectory(ctx, dir)
			if !ok {
				r.log.Debug().Str("dir", dir).Msg("Wildcard parent not listable")
				continue
			}
			for _, entry := range entries {
				if !pattern.MatchString(entry) {
					continue
				}
				if len(next) == MaxMatches {
					r.log.Debug().Str("template", template).Int("limit", MaxMatches).Msg("Wildcard expansion truncated")
					break
				}
				next = append(next, prefix+"/"+entry)
			}
		}
		if len(next) == 0 {
			return nil
		}
		prefixes = next
	}

	if !strings.Contains(segments[len(segments)-1], "*") {
		return prefixes
	}

	existing := prefixes[:0]
	for _, p := range prefixes {
		if r.lister.FileExists(ctx, p) {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return existing
}

// globPattern translates a single-segment glob where only * is special.
func globPattern(seg string) *regexp.Regexp {
	parts := strings.Split(seg, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
