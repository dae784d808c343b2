package gpufreq

import (
	"strconv"
	"strings"
	"unicode"
)

const (
	hzThreshold  = 10_000_000
	khzThreshold = 10_000
)

// ParseFrequency converts raw attribute content to MHz. Bare numbers are
// scaled by magnitude: above 10,000,000 they are Hz, above 10,000 kHz,
// otherwise MHz. Content mentioning MHz or KHz has its digits taken as
// that unit. Zero means the content is not a frequency.
func ParseFrequency(content string) int {
	s := strings.TrimSpace(content)
	if s == "" {
		return 0
	}

	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0
		}
		switch {
		case n > hzThreshold:
			return positive(n / 1_000_000)
		case n > khzThreshold:
			return positive(n / 1_000)
		default:
			return positive(n)
		}
	}

	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "mhz"):
		return positive(digitsOnly(s))
	case strings.Contains(lower, "khz"):
		return positive(digitsOnly(s) / 1_000)
	default:
		return 0
	}
}

// ParseAvailable parses a whitespace or comma separated frequency list.
// Order is kept and entries that do not parse are dropped. A list with
// no valid entries is nil.
func ParseAvailable(content string) []int {
	tokens := strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	var out []int
	for _, tok := range tokens {
		if mhz := ParseFrequency(tok); mhz > 0 {
			out = append(out, mhz)
		}
	}
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func digitsOnly(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func positive(n int64) int {
	if n <= 0 || n > int64(^uint32(0)>>1) {
		return 0
	}
	return int(n)
}
