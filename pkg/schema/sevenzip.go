package schema

// SevenZipRun is one compression pass.
type SevenZipRun struct {
	Threads            *int
	CompressionSpeedMB *float64
	ElapsedSeconds     *float64
}

// SevenZipPayload is the canonical view of a 7zip benchmark document.
// The tool's internal benchmark reports machine-level MIPS figures; older
// uploads additionally carry per-thread-count compression passes.
type SevenZipPayload struct {
	Meta         *Meta
	UsagePercent *float64
	RUMips       *float64
	TotalMips    *float64
	Runs         []SevenZipRun
}

// ParseSevenZip projects a 7zip payload onto SevenZipPayload. Both the flat
// unified fields and the legacy results envelope unwrap to the same keys.
func ParseSevenZip(doc map[string]any) *SevenZipPayload {
	doc = Unwrap(doc)
	out := &SevenZipPayload{}
	if doc == nil {
		return out
	}
	if m, ok := asMap(doc["meta"]); ok {
		out.Meta = ParseMeta(m)
	}
	out.UsagePercent = floatField(doc, "usage_percent")
	out.RUMips = floatField(doc, "ru_mips")
	out.TotalMips = floatField(doc, "total_mips")

	if runs, ok := asSlice(doc["runs"]); ok {
		for _, raw := range runs {
			entry, ok := asMap(raw)
			if !ok {
				continue
			}
			out.Runs = append(out.Runs, SevenZipRun{
				Threads:            intField(entry, "threads"),
				CompressionSpeedMB: floatField(entry, "compression_speed_mb_s"),
				ElapsedSeconds:     floatField(entry, "elapsed_seconds"),
			})
		}
	}
	return out
}
