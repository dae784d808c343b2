package gpufreq

import (
	"context"

	"codeberg.org/mutker/gpufreq/internal/vendor"
)

// FrequencyReader performs one discovery-and-read pass. Read always
// returns within the executor's timeouts and never panics.
type FrequencyReader interface {
	Read(ctx context.Context) State
	ClearCache()
}

// Classifier names the GPU family of the device.
type Classifier interface {
	Detect(ctx context.Context) vendor.Vendor
}
