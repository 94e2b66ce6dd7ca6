package schema

// ReversanRun is one search trial, keyed by either depth or thread count.
type ReversanRun struct {
	Depth       *int
	Threads     *int
	TimeSeconds *float64
	MemoryKB    *float64
}

// ReversanPayload is the canonical view of a reversan benchmark document.
// The tool is CPU-only; depth and thread series are two independent
// dimensions and stay separate.
type ReversanPayload struct {
	Meta        *Meta
	CompileTime *float64
	DepthRuns   []ReversanRun
	ThreadRuns  []ReversanRun
}

// ParseReversan projects a reversan payload in the unified shape
// (depth_benchmarks / thread_benchmarks) or the legacy shape
// (results.runs_depth / results.runs_threads with nested metrics).
func ParseReversan(doc map[string]any) *ReversanPayload {
	doc = Unwrap(doc)
	out := &ReversanPayload{}
	if doc == nil {
		return out
	}
	if m, ok := asMap(doc["meta"]); ok {
		out.Meta = ParseMeta(m)
	}
	out.CompileTime = compileTimeReversan(doc)

	out.DepthRuns = reversanSeries(doc, "depth_benchmarks", "runs_depth")
	out.ThreadRuns = reversanSeries(doc, "thread_benchmarks", "runs_threads")
	return out
}

func reversanSeries(doc map[string]any, unifiedKey, legacyKey string) []ReversanRun {
	var runs []ReversanRun
	if series, ok := asSlice(doc[unifiedKey]); ok {
		for _, raw := range series {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			runs = append(runs, ReversanRun{
				Depth:       intField(entry, "depth"),
				Threads:     intField(entry, "threads"),
				TimeSeconds: floatField(entry, "time_seconds"),
				MemoryKB:    floatField(entry, "memory_kb"),
			})
		}
		return runs
	}
	if series, ok := asSlice(doc[legacyKey]); ok {
		for _, raw := range series {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			runs = append(runs, ReversanRun{
				Depth:       intField(entry, "depth"),
				Threads:     intField(entry, "threads"),
				TimeSeconds: floatField(entry, "metrics", "elapsed_seconds"),
				MemoryKB:    floatField(entry, "metrics", "max_rss_kb"),
			})
		}
	}
	return runs
}

func compileTimeReversan(doc map[string]any) *float64 {
	ct := floatField(doc, "compile_time")
	if ct == nil {
		ct = floatField(doc, "build", "build_time_seconds")
	}
	if ct == nil || *ct <= 0 {
		return nil
	}
	return ct
}
