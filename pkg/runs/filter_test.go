package runs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weird-bench/site/pkg/models"
)

var (
	testCPU = models.HardwareDevice{
		ID:   "amd-ryzen-9-5950x",
		Name: "AMD Ryzen 9 5950X",
		Type: models.HardwareTypeCPU,
	}
	testGPU = models.HardwareDevice{
		ID:   "nvidia-geforce-rtx-3090",
		Name: "NVIDIA GeForce RTX 3090",
		Type: models.HardwareTypeGPU,
	}
)

func payload(bt models.BenchmarkType, data map[string]any) models.RawBenchmarkPayload {
	return models.RawBenchmarkPayload{BenchmarkType: bt, Data: data}
}

func TestFilterLlamaCPU(t *testing.T) {
	f := NewFilter(nil)
	p := payload(models.BenchmarkLlama, map[string]any{
		"compile_time": 42.0,
		"cpu_benchmark": map[string]any{
			"generation_speed": 194.5,
			"prompt_speed":     810.0,
			"model":            "llama-7b",
			"threads":          16.0,
		},
		"gpu_benchmarks": []any{
			map[string]any{"device_name": "NVIDIA GeForce RTX 3090", "generation_speed": 2400.0},
		},
	})

	records := f.Filter(p, testCPU)
	require.Len(t, records, 1)
	assert.Equal(t, models.HardwareTypeCPU, records[0].DeviceClass)
	assert.Equal(t, 194.5, records[0].Metrics["tokens_per_second"])
	assert.Equal(t, 810.0, records[0].Metrics["prompt_tokens_per_second"])
	assert.Equal(t, 42.0, records[0].Metrics["compile_time_seconds"])
	assert.Equal(t, "llama-7b", records[0].Model)
}

func TestFilterLlamaGPU(t *testing.T) {
	f := NewFilter(nil)
	p := payload(models.BenchmarkLlama, map[string]any{
		"cpu_benchmark": map[string]any{"generation_speed": 194.5},
		"gpu_benchmarks": []any{
			map[string]any{"device_name": "NVIDIA GeForce RTX 3090", "generation_speed": 2400.0},
			map[string]any{"device_name": "AMD Radeon RX 6800 XT", "generation_speed": 1700.0},
			// No slug and no name: unattributable, never counted.
			map[string]any{"generation_speed": 9999.0},
		},
	})

	records := f.Filter(p, testGPU)
	require.Len(t, records, 1)
	assert.Equal(t, 2400.0, records[0].Metrics["tokens_per_second"])
}

// A stored slug wins over the name and pins the run to exactly one device.
func TestFilterLlamaGPUSlugAttribution(t *testing.T) {
	f := NewFilter(nil)
	p := payload(models.BenchmarkLlama, map[string]any{
		"gpu_benchmarks": []any{
			map[string]any{
				"device_slug":      "nvidia-geforce-rtx-3090",
				"device_name":      "Generic Graphics",
				"generation_speed": 2400.0,
			},
			map[string]any{
				"device_slug":      "amd-radeon-rx-6800-xt",
				"device_name":      "NVIDIA GeForce RTX 3090",
				"generation_speed": 1700.0,
			},
		},
	})

	records := f.Filter(p, testGPU)
	require.Len(t, records, 1)
	assert.Equal(t, 2400.0, records[0].Metrics["tokens_per_second"])
}

func TestFilterReversan(t *testing.T) {
	f := NewFilter(nil)
	p := payload(models.BenchmarkReversan, map[string]any{
		"depth_benchmarks": []any{
			map[string]any{"depth": 8.0, "time_seconds": 1.25, "memory_kb": 5000.0},
			map[string]any{"time_seconds": 0.5}, // no depth key: dropped
		},
		"thread_benchmarks": []any{
			map[string]any{"threads": 4.0, "time_seconds": 0.8},
		},
	})

	records := f.Filter(p, testCPU)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].Depth)
	assert.Equal(t, 8, *records[0].Depth)
	assert.Equal(t, 1.25, records[0].Metrics["elapsed_seconds"])
	assert.Equal(t, 5000.0, records[0].Metrics["memory_kb"])
	require.NotNil(t, records[1].Threads)
	assert.Equal(t, 4, *records[1].Threads)

	// CPU-only tool: a GPU device gets nothing.
	assert.Empty(t, f.Filter(p, testGPU))
}

func TestFilterSevenZip(t *testing.T) {
	f := NewFilter(nil)
	p := payload(models.BenchmarkSevenZip, map[string]any{
		"usage_percent": 780.0,
		"ru_mips":       6200.0,
		"total_mips":    48000.0,
		"runs": []any{
			map[string]any{"threads": 16.0, "compression_speed_mb_s": 95.5},
		},
	})

	records := f.Filter(p, testCPU)
	require.Len(t, records, 2)

	// Machine-level MIPS figures surface as a single-thread record.
	require.NotNil(t, records[0].Threads)
	assert.Equal(t, 1, *records[0].Threads)
	assert.Equal(t, 48000.0, records[0].Metrics["total_mips"])

	require.NotNil(t, records[1].Threads)
	assert.Equal(t, 16, *records[1].Threads)
	assert.Equal(t, 95.5, records[1].Metrics["compression_speed_mb_s"])

	assert.Empty(t, f.Filter(p, testGPU))
}

func TestFilterBlender(t *testing.T) {
	f := NewFilter(nil)
	p := payload(models.BenchmarkBlender, map[string]any{
		"cpu": map[string]any{"classroom": 88.0, "junkshop": 110.0},
		"gpus": []any{
			map[string]any{
				"device_name": "NVIDIA GeForce RTX 3090",
				"scenes":      map[string]any{"monster": 2000.0},
			},
			map[string]any{
				"device_name": "AMD Radeon RX 6800 XT",
				"scenes":      map[string]any{"monster": 1500.0},
			},
		},
	})

	cpuRecords := f.Filter(p, testCPU)
	require.Len(t, cpuRecords, 2)
	scenes := map[string]float64{}
	for _, rec := range cpuRecords {
		scenes[rec.Scene] = rec.Metrics["samples_per_minute"]
	}
	assert.Equal(t, 88.0, scenes["classroom"])
	assert.Equal(t, 110.0, scenes["junkshop"])

	gpuRecords := f.Filter(p, testGPU)
	require.Len(t, gpuRecords, 1)
	assert.Equal(t, "monster", gpuRecords[0].Scene)
	assert.Equal(t, 2000.0, gpuRecords[0].Metrics["samples_per_minute"])
}
