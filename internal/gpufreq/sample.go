package gpufreq

import (
	"time"

	"codeberg.org/mutker/gpufreq/internal/vendor"
)

// Sample is one successful frequency reading. Zero values mark optional
// fields the device did not expose.
type Sample struct {
	CurrentMHz   int
	MaxMHz       int
	MinMHz       int
	AvailableMHz []int
	Governor     string
	Vendor       vendor.Vendor
	SourcePath   string
	Timestamp    time.Time
}

func (s Sample) TimestampMillis() int64 {
	return s.Timestamp.UnixMilli()
}

func (s Sample) HasMax() bool       { return s.MaxMHz > 0 }
func (s Sample) HasMin() bool       { return s.MinMHz > 0 }
func (s Sample) HasAvailable() bool { return s.AvailableMHz != nil }
func (s Sample) HasGovernor() bool  { return s.Governor != "" }
