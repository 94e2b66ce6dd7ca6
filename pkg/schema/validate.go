package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/weird-bench/site/pkg/models"
)

// Validate checks a unified result document for structural completeness and
// the business rules a well-formed upload must satisfy. It returns every
// problem found rather than stopping at the first one.
func Validate(doc map[string]any) []string {
	var errs []string

	up := ParseUpload(doc)
	if len(up.Payloads) == 0 {
		errs = append(errs, "no benchmark results found - at least one benchmark must be present")
		return errs
	}
	if up.Meta == nil {
		errs = append(errs, "missing meta block with hardware inventory")
		return errs
	}

	cpu := up.Meta.CPUDevice()
	gpus := up.Meta.GPUDevices()
	if cpu == nil {
		errs = append(errs, "no CPU device found in hardware list")
	}

	llamaDoc := up.Payloads[models.BenchmarkLlama]
	blenderDoc := up.Payloads[models.BenchmarkBlender]

	if up.Meta.CPUOnly {
		errs = append(errs, checkGPUBenchmarksAbsent(llamaDoc, blenderDoc)...)
	} else {
		if len(gpus) == 0 {
			errs = append(errs, "cpu_only is false but no GPU devices found in hardware list")
		} else {
			errs = append(errs, checkGPUBenchmarksComplete(llamaDoc, blenderDoc, gpus)...)
		}
	}
	errs = append(errs, checkCPUBenchmarksPresent(llamaDoc, blenderDoc, cpu, up.Meta.CPUOnly)...)

	return errs
}

func checkGPUBenchmarksAbsent(llamaDoc, blenderDoc map[string]any) []string {
	var errs []string
	if llamaDoc != nil && len(ParseLlama(llamaDoc).GPUs) > 0 {
		errs = append(errs, "cpu_only mode but llama GPU benchmarks are present")
	}
	if blenderDoc != nil {
		for _, dev := range ParseBlender(blenderDoc).Devices {
			if !dev.IsCPU {
				errs = append(errs, "cpu_only mode but blender GPU benchmarks are present")
				break
			}
		}
	}
	return errs
}

func checkGPUBenchmarksComplete(llamaDoc, blenderDoc map[string]any, gpus []Device) []string {
	var errs []string
	gpuIDs := map[string]bool{}
	for _, g := range gpus {
		gpuIDs[g.HWID] = true
	}

	if llamaDoc == nil {
		errs = append(errs, "llama benchmark is missing but GPUs are available (cpu_only is false)")
	} else {
		llama := ParseLlama(llamaDoc)
		if len(llama.GPUs) == 0 {
			errs = append(errs, "llama benchmark missing GPU results despite available GPUs")
		} else if missing := missingIDs(gpuIDs, llamaRunIDs(llama.GPUs)); len(missing) > 0 {
			errs = append(errs, fmt.Sprintf("llama benchmark missing GPU results for: %s", strings.Join(missing, ", ")))
		}
	}

	if blenderDoc == nil {
		errs = append(errs, "blender benchmark is missing but GPUs are available (cpu_only is false)")
	} else {
		blender := ParseBlender(blenderDoc)
		seen := map[string]bool{}
		gpuRuns := 0
		for _, dev := range blender.Devices {
			if dev.IsCPU {
				continue
			}
			gpuRuns++
			if dev.HWID != "" {
				seen[dev.HWID] = true
			}
		}
		if gpuRuns == 0 {
			errs = append(errs, "blender benchmark missing GPU results despite available GPUs")
		} else if missing := missingIDs(gpuIDs, seen); len(missing) > 0 {
			errs = append(errs, fmt.Sprintf("blender benchmark missing GPU results for: %s", strings.Join(missing, ", ")))
		}
	}
	return errs
}

func checkCPUBenchmarksPresent(llamaDoc, blenderDoc map[string]any, cpu *Device, cpuOnly bool) []string {
	var errs []string
	if cpu == nil {
		return errs // already reported
	}
	if llamaDoc == nil {
		if cpuOnly {
			errs = append(errs, "llama benchmark is missing in cpu_only mode")
		}
	} else if ParseLlama(llamaDoc).CPU == nil {
		errs = append(errs, "llama benchmark missing CPU results")
	}
	if blenderDoc == nil {
		if cpuOnly {
			errs = append(errs, "blender benchmark is missing in cpu_only mode")
		}
	} else {
		hasCPU := false
		for _, dev := range ParseBlender(blenderDoc).Devices {
			if dev.IsCPU {
				hasCPU = true
				break
			}
		}
		if !hasCPU {
			errs = append(errs, "blender benchmark missing CPU results")
		}
	}
	return errs
}

func llamaRunIDs(runs []LlamaRun) map[string]bool {
	ids := map[string]bool{}
	for _, r := range runs {
		if r.HWID != "" {
			ids[r.HWID] = true
		}
	}
	return ids
}

func missingIDs(want, got map[string]bool) []string {
	var missing []string
	for id := range want {
		if !got[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	return missing
}
