package schema

// LlamaRun is one inference trial: prompt processing and token generation
// speeds for one device.
type LlamaRun struct {
	HWID       string
	DeviceName string
	DeviceSlug string

	PromptSpeed     *float64 // tokens/s
	GenerationSpeed *float64 // tokens/s

	Model   string
	Threads *int
}

// LlamaPayload is the canonical view of a llama benchmark document.
type LlamaPayload struct {
	Meta        *Meta
	CompileTime *float64
	CPU         *LlamaRun
	GPUs        []LlamaRun
}

// ParseLlama projects a llama payload in either the unified shape
// (cpu_benchmark / gpu_benchmarks) or the legacy shape
// (results.runs_cpu / results.runs_gpu) onto LlamaPayload. Fields that are
// missing or of the wrong type are absent in the view, never an error.
func ParseLlama(doc map[string]any) *LlamaPayload {
	doc = Unwrap(doc)
	out := &LlamaPayload{}
	if doc == nil {
		return out
	}
	if m, ok := asMap(doc["meta"]); ok {
		out.Meta = ParseMeta(m)
	}
	out.CompileTime = compileTime(doc)

	if cpu, ok := asMap(doc["cpu_benchmark"]); ok {
		run := unifiedLlamaRun(cpu)
		out.CPU = &run
	}
	if gpus, ok := asSlice(doc["gpu_benchmarks"]); ok {
		for _, raw := range gpus {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			out.GPUs = append(out.GPUs, unifiedLlamaRun(entry))
		}
	}
	if out.CPU != nil || len(out.GPUs) > 0 {
		return out
	}

	// Legacy shape: per-run metrics blocks under runs_cpu / runs_gpu.
	if runs, ok := asSlice(doc["runs_cpu"]); ok {
		for _, raw := range runs {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			run := legacyLlamaRun(entry)
			out.CPU = &run
			break // legacy uploads carry at most one CPU run block
		}
	}
	if runs, ok := asSlice(doc["runs_gpu"]); ok {
		for _, raw := range runs {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			out.GPUs = append(out.GPUs, legacyLlamaRun(entry))
		}
	}
	return out
}

func unifiedLlamaRun(entry map[string]any) LlamaRun {
	return LlamaRun{
		HWID:            stringField(entry, "hw_id"),
		DeviceName:      stringField(entry, "device_name"),
		DeviceSlug:      stringField(entry, "device_slug"),
		PromptSpeed:     floatField(entry, "prompt_speed"),
		GenerationSpeed: floatField(entry, "generation_speed"),
		Model:           stringField(entry, "model"),
		Threads:         intField(entry, "threads"),
	}
}

func legacyLlamaRun(entry map[string]any) LlamaRun {
	run := LlamaRun{
		HWID:        stringField(entry, "hw_id"),
		DeviceName:  stringField(entry, "gpu_device", "name"),
		DeviceSlug:  stringField(entry, "device_slug"),
		PromptSpeed: floatField(entry, "metrics", "prompt_processing", "avg_tokens_per_sec"),
		Model:       stringField(entry, "model"),
		Threads:     intField(entry, "threads"),
	}
	if gen := floatField(entry, "metrics", "generation", "avg_tokens_per_sec"); gen != nil {
		run.GenerationSpeed = gen
	} else {
		// Legacy GPU runs often report a single combined rate.
		run.GenerationSpeed = floatField(entry, "metrics", "tokens_per_second")
	}
	return run
}

// compileTime tolerates both the unified scalar and the legacy build block.
// Non-positive values mean "not measured" and are treated as absent.
func compileTime(doc map[string]any) *float64 {
	ct := floatField(doc, "compile_time")
	if ct == nil {
		ct = floatField(doc, "cpu_build_timing", "build_time_seconds")
	}
	if ct == nil || *ct <= 0 {
		return nil
	}
	return ct
}
