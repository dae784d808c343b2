package catalog

import "codeberg.org/mutker/gpufreq/internal/vendor"

const (
	kgsl      = "/sys/class/kgsl/kgsl-3d0"
	kernelGPU = "/sys/kernel/gpu"
)

var fastPaths = []string{
	kgsl + "/gpuclk",
	kernelGPU + "/gpu_clock",
	kgsl + "/devfreq/cur_freq",
}

var builtin = Table{
	vendor.Adreno: {
		Current: {
			kgsl + "/gpuclk",
			kgsl + "/devfreq/cur_freq",
			kgsl + "/clock_mhz",
			kernelGPU + "/gpu_clock",
			"/sys/class/devfreq/*kgsl-3d0/cur_freq",
		},
		Max: {
			kgsl + "/max_gpuclk",
			kgsl + "/devfreq/max_freq",
			kgsl + "/max_clock_mhz",
			kernelGPU + "/gpu_max_clock",
		},
		Min: {
			kgsl + "/devfreq/min_freq",
			kgsl + "/min_clock_mhz",
			kernelGPU + "/gpu_min_clock",
		},
		Available: {
			kgsl + "/gpu_available_frequencies",
			kgsl + "/devfreq/available_frequencies",
			kernelGPU + "/gpu_freq_table",
		},
		Governor: {
			kgsl + "/devfreq/governor",
			kernelGPU + "/gpu_governor",
		},
	},
	vendor.Mali: {
		Current: {
			"/sys/devices/platform/*.mali/devfreq/*.mali/cur_freq",
			"/sys/class/devfreq/*.mali/cur_freq",
			"/sys/class/misc/mali0/device/clock",
			kernelGPU + "/gpu_clock",
			"/sys/kernel/ged/hal/current_freqency",
			"/sys/devices/platform/mali.0/clock",
		},
		Max: {
			"/sys/devices/platform/*.mali/devfreq/*.mali/max_freq",
			"/sys/class/devfreq/*.mali/max_freq",
			kernelGPU + "/gpu_max_clock",
			"/sys/class/misc/mali0/device/max_clock",
		},
		Min: {
			"/sys/devices/platform/*.mali/devfreq/*.mali/min_freq",
			"/sys/class/devfreq/*.mali/min_freq",
			kernelGPU + "/gpu_min_clock",
			"/sys/class/misc/mali0/device/min_clock",
		},
		Available: {
			"/sys/devices/platform/*.mali/devfreq/*.mali/available_frequencies",
			"/sys/class/devfreq/*.mali/available_frequencies",
			kernelGPU + "/gpu_freq_table",
			"/sys/class/misc/mali0/device/dvfs_table",
		},
		Governor: {
			"/sys/devices/platform/*.mali/devfreq/*.mali/governor",
			"/sys/class/devfreq/*.mali/governor",
			kernelGPU + "/gpu_governor",
		},
	},
	vendor.PowerVR: {
		Current: {
			"/sys/devices/platform/*.pvrsrvkm/devfreq/*.pvrsrvkm/cur_freq",
			"/sys/class/devfreq/*.gpu/cur_freq",
			"/sys/class/devfreq/*pvr*/cur_freq",
			kernelGPU + "/gpu_clock",
		},
		Max: {
			"/sys/devices/platform/*.pvrsrvkm/devfreq/*.pvrsrvkm/max_freq",
			"/sys/class/devfreq/*.gpu/max_freq",
			kernelGPU + "/gpu_max_clock",
		},
		Min: {
			"/sys/devices/platform/*.pvrsrvkm/devfreq/*.pvrsrvkm/min_freq",
			"/sys/class/devfreq/*.gpu/min_freq",
			kernelGPU + "/gpu_min_clock",
		},
		Available: {
			"/sys/devices/platform/*.pvrsrvkm/devfreq/*.pvrsrvkm/available_frequencies",
			"/sys/class/devfreq/*.gpu/available_frequencies",
			kernelGPU + "/gpu_freq_table",
		},
		Governor: {
			"/sys/devices/platform/*.pvrsrvkm/devfreq/*.pvrsrvkm/governor",
			"/sys/class/devfreq/*.gpu/governor",
		},
	},
	vendor.Tegra: {
		Current: {
			"/sys/devices/gpu.0/devfreq/*/cur_freq",
			"/sys/devices/*.gpu/devfreq/*.gpu/cur_freq",
			"/sys/devices/*.gv11b/devfreq/*.gv11b/cur_freq",
			"/sys/devices/platform/gpu.0/devfreq/*/cur_freq",
			"/sys/kernel/debug/clk/gbus/clk_rate",
		},
		Max: {
			"/sys/devices/gpu.0/devfreq/*/max_freq",
			"/sys/devices/*.gpu/devfreq/*.gpu/max_freq",
			"/sys/devices/*.gv11b/devfreq/*.gv11b/max_freq",
			"/sys/kernel/debug/clk/gbus/clk_max_rate",
		},
		Min: {
			"/sys/devices/gpu.0/devfreq/*/min_freq",
			"/sys/devices/*.gpu/devfreq/*.gpu/min_freq",
			"/sys/devices/*.gv11b/devfreq/*.gv11b/min_freq",
			"/sys/kernel/debug/clk/gbus/clk_min_rate",
		},
		Available: {
			"/sys/devices/gpu.0/devfreq/*/available_frequencies",
			"/sys/devices/*.gpu/devfreq/*.gpu/available_frequencies",
			"/sys/devices/*.gv11b/devfreq/*.gv11b/available_frequencies",
		},
		Governor: {
			"/sys/devices/gpu.0/devfreq/*/governor",
			"/sys/devices/*.gpu/devfreq/*.gpu/governor",
			"/sys/devices/*.gv11b/devfreq/*.gv11b/governor",
		},
	},
	// Generic sweep for families the classifier could not name.
	vendor.Unknown: {
		Current: {
			kernelGPU + "/gpu_clock",
			"/sys/class/devfreq/*gpu*/cur_freq",
			"/sys/class/devfreq/*.mali/cur_freq",
			"/sys/class/devfreq/*kgsl*/cur_freq",
			"/sys/class/misc/mali0/device/clock",
			kgsl + "/gpuclk",
		},
		Max: {
			kernelGPU + "/gpu_max_clock",
			"/sys/class/devfreq/*gpu*/max_freq",
			"/sys/class/devfreq/*.mali/max_freq",
			kgsl + "/max_gpuclk",
		},
		Min: {
			kernelGPU + "/gpu_min_clock",
			"/sys/class/devfreq/*gpu*/min_freq",
			"/sys/class/devfreq/*.mali/min_freq",
		},
		Available: {
			kernelGPU + "/gpu_freq_table",
			"/sys/class/devfreq/*gpu*/available_frequencies",
			"/sys/class/devfreq/*.mali/available_frequencies",
		},
		Governor: {
			kernelGPU + "/gpu_governor",
			"/sys/class/devfreq/*gpu*/governor",
			"/sys/class/devfreq/*.mali/governor",
		},
	},
}

// Locations some kernels leave world-readable.
var unprivileged = []Candidate{
	{Path: kgsl + "/gpuclk", Hint: vendor.Adreno},
	{Path: kgsl + "/devfreq/cur_freq", Hint: vendor.Adreno},
	{Path: "/sys/class/misc/mali0/device/clock", Hint: vendor.Mali},
	{Path: "/sys/kernel/ged/hal/current_freqency", Hint: vendor.Mali},
	{Path: kernelGPU + "/gpu_clock", Hint: vendor.Unknown},
}

var hintFiles = []string{
	kernelGPU + "/gpu_model",
	"/sys/devices/soc0/family",
	"/proc/cpuinfo",
}
