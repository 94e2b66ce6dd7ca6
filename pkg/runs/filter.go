// Package runs extracts the run records of one hardware device from stored
// benchmark payloads. Payloads interleave CPU and multiple GPU runs, so the
// filter re-derives the per-device view on every query; stored payloads are
// append-only history and never rewritten.
package runs

import (
	"github.com/weird-bench/site/pkg/hardware"
	"github.com/weird-bench/site/pkg/models"
	"github.com/weird-bench/site/pkg/schema"
)

// Filter selects the run records of a target device from raw payloads.
type Filter struct {
	matcher *hardware.Matcher
}

// NewFilter builds a Filter using the given name matcher, normally the same
// one extraction used to build the device list.
func NewFilter(m *hardware.Matcher) *Filter {
	if m == nil {
		m = hardware.NewMatcher()
	}
	return &Filter{matcher: m}
}

// Filter returns the subset of a payload's run records that belong to the
// device. CPU devices receive every CPU-tagged run (CPU-only tools
// contribute all their runs); GPU devices receive only runs whose device
// reference passes the fuzzy name match, and runs with no identifying field
// are dropped rather than attributed to an arbitrary GPU.
func (f *Filter) Filter(p models.RawBenchmarkPayload, device models.HardwareDevice) []models.RunRecord {
	switch p.BenchmarkType {
	case models.BenchmarkLlama:
		return f.filterLlama(p.Data, device)
	case models.BenchmarkReversan:
		return f.filterReversan(p.Data, device)
	case models.BenchmarkSevenZip:
		return f.filterSevenZip(p.Data, device)
	case models.BenchmarkBlender:
		return f.filterBlender(p.Data, device)
	}
	return nil
}

// gpuRunMatches decides device attribution for one GPU-tagged run: stored
// slug first, then fuzzy name match. No reference at all means the run is
// unattributable and excluded.
func (f *Filter) gpuRunMatches(slug, name string, device models.HardwareDevice) bool {
	if slug != "" {
		return slug == device.ID
	}
	if name != "" {
		return f.matcher.Matches(name, device.Name)
	}
	return false
}

func (f *Filter) filterLlama(doc map[string]any, device models.HardwareDevice) []models.RunRecord {
	llama := schema.ParseLlama(doc)
	var records []models.RunRecord

	if device.Type == models.HardwareTypeCPU {
		if llama.CPU == nil {
			return nil
		}
		rec := llamaRecord(*llama.CPU, models.HardwareTypeCPU)
		// Build time is measured on the CPU doing the compile.
		if llama.CompileTime != nil {
			rec.Metrics["compile_time_seconds"] = *llama.CompileTime
		}
		if len(rec.Metrics) == 0 {
			return nil
		}
		return []models.RunRecord{rec}
	}

	for _, run := range llama.GPUs {
		if !f.gpuRunMatches(run.DeviceSlug, run.DeviceName, device) {
			continue
		}
		rec := llamaRecord(run, models.HardwareTypeGPU)
		if len(rec.Metrics) > 0 {
			records = append(records, rec)
		}
	}
	return records
}

func llamaRecord(run schema.LlamaRun, class models.HardwareType) models.RunRecord {
	rec := models.RunRecord{
		BenchmarkType: models.BenchmarkLlama,
		DeviceClass:   class,
		DeviceName:    run.DeviceName,
		DeviceSlug:    run.DeviceSlug,
		Model:         run.Model,
		Threads:       run.Threads,
		Metrics:       map[string]float64{},
	}
	if run.GenerationSpeed != nil {
		rec.Metrics["tokens_per_second"] = *run.GenerationSpeed
	}
	if run.PromptSpeed != nil {
		rec.Metrics["prompt_tokens_per_second"] = *run.PromptSpeed
	}
	return rec
}

func (f *Filter) filterReversan(doc map[string]any, device models.HardwareDevice) []models.RunRecord {
	// Reversan is CPU-only: no device tagging, all runs belong to the CPU.
	if device.Type != models.HardwareTypeCPU {
		return nil
	}
	rev := schema.ParseReversan(doc)
	var records []models.RunRecord
	if rev.CompileTime != nil {
		records = append(records, models.RunRecord{
			BenchmarkType: models.BenchmarkReversan,
			DeviceClass:   models.HardwareTypeCPU,
			Metrics:       map[string]float64{"compile_time_seconds": *rev.CompileTime},
		})
	}
	for _, run := range rev.DepthRuns {
		if rec, ok := reversanRecord(run); ok && rec.Depth != nil {
			records = append(records, rec)
		}
	}
	for _, run := range rev.ThreadRuns {
		if rec, ok := reversanRecord(run); ok && rec.Threads != nil {
			records = append(records, rec)
		}
	}
	return records
}

func reversanRecord(run schema.ReversanRun) (models.RunRecord, bool) {
	rec := models.RunRecord{
		BenchmarkType: models.BenchmarkReversan,
		DeviceClass:   models.HardwareTypeCPU,
		Depth:         run.Depth,
		Threads:       run.Threads,
		Metrics:       map[string]float64{},
	}
	if run.TimeSeconds != nil {
		rec.Metrics["elapsed_seconds"] = *run.TimeSeconds
	}
	if run.MemoryKB != nil {
		rec.Metrics["memory_kb"] = *run.MemoryKB
	}
	return rec, len(rec.Metrics) > 0
}

func (f *Filter) filterSevenZip(doc map[string]any, device models.HardwareDevice) []models.RunRecord {
	// 7zip's internal benchmark is CPU-only.
	if device.Type != models.HardwareTypeCPU {
		return nil
	}
	zip := schema.ParseSevenZip(doc)
	var records []models.RunRecord

	// Machine-level MIPS figures become one single-thread record so they
	// median across uploads like any other metric.
	machine := models.RunRecord{
		BenchmarkType: models.BenchmarkSevenZip,
		DeviceClass:   models.HardwareTypeCPU,
		Threads:       intPtr(1),
		Metrics:       map[string]float64{},
	}
	if zip.UsagePercent != nil {
		machine.Metrics["usage_percent"] = *zip.UsagePercent
	}
	if zip.RUMips != nil {
		machine.Metrics["ru_mips"] = *zip.RUMips
	}
	if zip.TotalMips != nil {
		machine.Metrics["total_mips"] = *zip.TotalMips
	}
	if len(machine.Metrics) > 0 {
		records = append(records, machine)
	}

	for _, run := range zip.Runs {
		rec := models.RunRecord{
			BenchmarkType: models.BenchmarkSevenZip,
			DeviceClass:   models.HardwareTypeCPU,
			Threads:       run.Threads,
			Metrics:       map[string]float64{},
		}
		if rec.Threads == nil {
			rec.Threads = intPtr(1)
		}
		if run.CompressionSpeedMB != nil {
			rec.Metrics["compression_speed_mb_s"] = *run.CompressionSpeedMB
		}
		if run.ElapsedSeconds != nil {
			rec.Metrics["elapsed_seconds"] = *run.ElapsedSeconds
		}
		if len(rec.Metrics) > 0 {
			records = append(records, rec)
		}
	}
	return records
}

func (f *Filter) filterBlender(doc map[string]any, device models.HardwareDevice) []models.RunRecord {
	blender := schema.ParseBlender(doc)
	var records []models.RunRecord
	for _, dev := range blender.Devices {
		if device.Type == models.HardwareTypeCPU {
			if !dev.IsCPU {
				continue
			}
		} else {
			if dev.IsCPU || !f.gpuRunMatches(dev.DeviceSlug, dev.DeviceName, device) {
				continue
			}
		}
		for scene, spm := range dev.Scenes {
			records = append(records, models.RunRecord{
				BenchmarkType: models.BenchmarkBlender,
				DeviceClass:   device.Type,
				DeviceName:    dev.DeviceName,
				DeviceSlug:    dev.DeviceSlug,
				Scene:         scene,
				Metrics:       map[string]float64{"samples_per_minute": spm},
			})
		}
	}
	return records
}

func intPtr(n int) *int { return &n }
