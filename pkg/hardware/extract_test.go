package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weird-bench/site/pkg/models"
	"github.com/weird-bench/site/pkg/schema"
)

func parseUpload(t *testing.T, doc map[string]any) *schema.Upload {
	t.Helper()
	return schema.ParseUpload(doc)
}

func TestExtractFromInventory(t *testing.T) {
	e := NewExtractor()
	up := parseUpload(t, map[string]any{
		"meta": map[string]any{
			"hardware": map[string]any{
				"cpu-0": map[string]any{
					"name": "AMD Ryzen 9 5950X", "type": "cpu",
					"cores": 16.0, "threads": 32.0,
				},
				"gpu-0": map[string]any{
					"name": "NVIDIA GeForce RTX 3090", "type": "gpu", "framework": "CUDA",
				},
			},
		},
		"llama": map[string]any{
			"cpu_benchmark": map[string]any{"generation_speed": 194.5},
			"gpu_benchmarks": []any{
				map[string]any{"hw_id": "gpu-0", "generation_speed": 2400.0},
			},
		},
	})

	devices, err := e.Extract(up, "")
	require.NoError(t, err)
	require.Len(t, devices, 2)

	cpu, gpu := devices[0], devices[1]
	assert.Equal(t, "amd-ryzen-9-5950x", cpu.ID)
	assert.Equal(t, models.HardwareTypeCPU, cpu.Type)
	require.NotNil(t, cpu.Cores)
	assert.Equal(t, 16, *cpu.Cores)

	assert.Equal(t, "nvidia-geforce-rtx-3090", gpu.ID)
	assert.Equal(t, models.HardwareTypeGPU, gpu.Type)
	assert.Equal(t, "CUDA", gpu.Framework)
}

// The same GPU advertised generically by the inventory and concretely by a
// benchmark run collapses into one device under the more specific name.
func TestExtractConsolidatesGPUNames(t *testing.T) {
	e := NewExtractor()
	up := parseUpload(t, map[string]any{
		"meta": map[string]any{
			"hardware": map[string]any{
				"cpu-0": map[string]any{"name": "AMD Ryzen 7 8845HS", "type": "cpu"},
				"gpu-0": map[string]any{"name": "AMD Radeon Graphics", "type": "gpu", "framework": "VULKAN"},
			},
		},
		"llama": map[string]any{
			"cpu_benchmark": map[string]any{"generation_speed": 100.0},
			"gpu_benchmarks": []any{
				map[string]any{"hw_id": "gpu-0", "device_name": "AMD Radeon 880M", "generation_speed": 500.0},
			},
		},
	})

	devices, err := e.Extract(up, "")
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "AMD Radeon 880M", devices[1].Name)
	assert.Equal(t, "amd-radeon-880m", devices[1].ID)
	assert.Equal(t, "VULKAN", devices[1].Framework)
}

func TestExtractHintFallback(t *testing.T) {
	e := NewExtractor()
	up := parseUpload(t, map[string]any{
		"reversan": map[string]any{
			"depth_benchmarks": []any{map[string]any{"depth": 8.0, "time_seconds": 1.0}},
		},
	})

	devices, err := e.Extract(up, "Intel Core i7-10700K")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, models.HardwareTypeCPU, devices[0].Type)
	assert.Equal(t, "intel-core-i7-10700k", devices[0].ID)
}

func TestExtractNoDevices(t *testing.T) {
	e := NewExtractor()
	up := parseUpload(t, map[string]any{
		"reversan": map[string]any{
			"depth_benchmarks": []any{map[string]any{"depth": 8.0, "time_seconds": 1.0}},
		},
	})

	_, err := e.Extract(up, "")
	assert.ErrorIs(t, err, ErrNoDevices)
}

func TestAugmentDeviceRefs(t *testing.T) {
	e := NewExtractor()
	doc := map[string]any{
		"meta": map[string]any{
			"hardware": map[string]any{
				"cpu-0": map[string]any{"name": "AMD Ryzen 7 8845HS", "type": "cpu"},
				"gpu-0": map[string]any{"name": "AMD Radeon Graphics", "type": "gpu"},
			},
		},
		"llama": map[string]any{
			"cpu_benchmark": map[string]any{"generation_speed": 100.0},
			"gpu_benchmarks": []any{
				map[string]any{"hw_id": "gpu-0", "device_name": "AMD Radeon 880M", "generation_speed": 500.0},
			},
		},
	}
	up := parseUpload(t, doc)

	devices, err := e.Extract(up, "")
	require.NoError(t, err)
	e.AugmentDeviceRefs(up, devices)

	// The stored payload now carries the canonical name and slug of the
	// consolidated device, even though the inventory only knew the generic
	// placeholder name.
	gpuRuns := up.Payloads[models.BenchmarkLlama]["gpu_benchmarks"].([]any)
	entry := gpuRuns[0].(map[string]any)
	assert.Equal(t, "AMD Radeon 880M", entry["device_name"])
	assert.Equal(t, "amd-radeon-880m", entry["device_slug"])
}
