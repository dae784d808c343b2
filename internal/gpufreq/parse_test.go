package gpufreq_test

import (
	"strconv"
	"testing"

	"codeberg.org/mutker/gpufreq/internal/gpufreq"
	"github.com/stretchr/testify/assert"
)

func TestParseFrequencyMagnitude(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"585", 585},
		{"10000", 10000},
		{"10001", 10},
		{"6000000", 6000},
		{"10000000", 10000},
		{"10000001", 10},
		{"19200000", 19},
		{"800000000", 800},
		{" 315000000\n", 315},
		{"0", 0},
		{"999", 999},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, gpufreq.ParseFrequency(tt.in))
		})
	}
}

func TestParseFrequencyMatchesThresholdsForAllMagnitudes(t *testing.T) {
	for _, h := range []int64{1, 9_999, 10_000, 10_001, 500_000, 9_999_999, 10_000_000, 10_000_001, 1_000_000_000} {
		var want int64
		switch {
		case h > 10_000_000:
			want = h / 1_000_000
		case h > 10_000:
			want = h / 1_000
		default:
			want = h
		}
		assert.Equal(t, int(want), gpufreq.ParseFrequency(strconv.FormatInt(h, 10)), "h=%d", h)
	}
}

func TestParseFrequencySuffix(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"500MHz", 500},
		{"500 mhz", 500},
		{"500KHz", 0},
		{"1500KHz", 1},
		{"1500 khz", 1},
		{"GPU: 700 MHz", 700},
		{"MHz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, gpufreq.ParseFrequency(tt.in))
		})
	}
}

func TestParseFrequencyRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "n/a", "-300", "3.5", "simple_ondemand", "99999999999999999999999"} {
		assert.Zero(t, gpufreq.ParseFrequency(in), "%q", in)
	}
}

func TestParseAvailable(t *testing.T) {
	assert.Equal(t,
		[]int{151, 302, 848},
		gpufreq.ParseAvailable("151000000 302000000 848000000\n"))

	assert.Equal(t,
		[]int{585, 499, 427, 345, 257},
		gpufreq.ParseAvailable("585000000,499200000, 427000000\t345000000 257000000"))

	assert.Equal(t,
		[]int{300, 300},
		gpufreq.ParseAvailable("300 garbage 300"),
		"order is kept and duplicates are not removed")

	assert.Nil(t, gpufreq.ParseAvailable(""))
	assert.Nil(t, gpufreq.ParseAvailable("0 , n/a"))
}
