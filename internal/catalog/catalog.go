// Package catalog holds the candidate sysfs/procfs locations that expose
// GPU clock information, per vendor family and category, and expands
// wildcard templates against the live filesystem.
package catalog

import (
	"fmt"
	"strings"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/vendor"
)

// Category is the kind of value a path exposes.
type Category int

const (
	Current Category = iota
	Max
	Min
	Available
	Governor
)

// Categories lists every category in lookup order.
var Categories = []Category{Current, Max, Min, Available, Governor}

func (c Category) String() string {
	switch c {
	case Current:
		return "current"
	case Max:
		return "max"
	case Min:
		return "min"
	case Available:
		return "available"
	case Governor:
		return "governor"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// ParseCategory maps a name produced by String back to a Category.
func ParseCategory(name string) (Category, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, c := range Categories {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// Table maps vendor and category to an ordered list of path templates.
type Table map[vendor.Vendor]map[Category][]string

// Candidate is a location that is sometimes world-readable. Hint is the
// vendor the location implies, or Unknown.
type Candidate struct {
	Path string
	Hint vendor.Vendor
}

// Catalog is immutable once built.
type Catalog struct {
	paths        Table
	fast         []string
	unprivileged []Candidate
	hintFiles    []string
}

type Option func(*Catalog)

// WithFastPaths sets the vendor-agnostic paths tried before classification.
func WithFastPaths(paths ...string) Option {
	return func(c *Catalog) {
		c.fast = append([]string(nil), paths...)
	}
}

// WithUnprivileged sets the locations the fallback reader tries.
func WithUnprivileged(candidates ...Candidate) Option {
	return func(c *Catalog) {
		c.unprivileged = append([]Candidate(nil), candidates...)
	}
}

// WithHintFiles sets world-readable files scanned for vendor keywords
// when an unprivileged candidate carries no hint.
func WithHintFiles(paths ...string) Option {
	return func(c *Catalog) {
		c.hintFiles = append([]string(nil), paths...)
	}
}

// New builds a catalog from paths. The table is copied.
func New(paths Table, opts ...Option) *Catalog {
	c := &Catalog{paths: copyTable(paths)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(builtin,
		WithFastPaths(fastPaths...),
		WithUnprivileged(unprivileged...),
		WithHintFiles(hintFiles...),
	)
}

// Paths returns the templates for v and cat, most likely first.
func (c *Catalog) Paths(v vendor.Vendor, cat Category) []string {
	return append([]string(nil), c.paths[v][cat]...)
}

func (c *Catalog) FastPaths() []string {
	return append([]string(nil), c.fast...)
}

func (c *Catalog) Unprivileged() []Candidate {
	return append([]Candidate(nil), c.unprivileged...)
}

func (c *Catalog) HintFiles() []string {
	return append([]string(nil), c.hintFiles...)
}

// Extend returns a copy of c with extra templates appended after the
// built-in ones. extra is keyed by vendor name, then category name.
func (c *Catalog) Extend(extra map[string]map[string][]string) (*Catalog, error) {
	out := &Catalog{
		paths:        copyTable(c.paths),
		fast:         c.FastPaths(),
		unprivileged: c.Unprivileged(),
		hintFiles:    c.HintFiles(),
	}

	for vendorName, categories := range extra {
		v, ok := vendor.Parse(vendorName)
		if !ok {
			return nil, errors.New().WithMessage(errors.ErrInvalidConfig,
				fmt.Sprintf("unknown vendor %q in catalog extension", vendorName))
		}
		for categoryName, paths := range categories {
			cat, ok := ParseCategory(categoryName)
			if !ok {
				return nil, errors.New().WithMessage(errors.ErrInvalidConfig,
					fmt.Sprintf("unknown category %q in catalog extension", categoryName))
			}
			for _, p := range paths {
				if !strings.HasPrefix(p, "/") {
					return nil, errors.New().WithMessage(errors.ErrInvalidConfig,
						fmt.Sprintf("catalog path %q is not absolute", p))
				}
			}
			if out.paths[v] == nil {
				out.paths[v] = make(map[Category][]string)
			}
			out.paths[v][cat] = append(out.paths[v][cat], paths...)
		}
	}

	return out, nil
}

func copyTable(t Table) Table {
	out := make(Table, len(t))
	for v, categories := range t {
		m := make(map[Category][]string, len(categories))
		for cat, paths := range categories {
			m[cat] = append([]string(nil), paths...)
		}
		out[v] = m
	}
	return out
}
