// Package schema turns raw benchmark payloads in any of their historical
// shapes into one canonical in-memory view per benchmark type. Everything
// here is a projection over the received document; the stored original is
// never mutated.
package schema

// Unwrap projects a payload onto its canonical shape: legacy uploads nest
// the actual document under a "results" key, newer ones are flat. Nested
// envelopes are followed to a fixed point, so Unwrap(Unwrap(p)) == Unwrap(p).
// Applied before any field access so downstream code sees one shape.
func Unwrap(doc map[string]any) map[string]any {
	for doc != nil {
		inner, ok := asMap(doc["results"])
		if !ok {
			break
		}
		doc = inner
	}
	return doc
}

// asMap returns v as a string-keyed map, tolerating both JSON and YAML
// decoder output.
func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asFloat accepts any numeric type a decoder may produce. Everything else,
// including nil, is reported as absent.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// field walks a nested path of map keys, returning the value at the end or
// nil if any hop is missing or not a map. Absence is data here, not an
// error: a malformed field contributes nothing and processing continues.
func field(doc map[string]any, path ...string) any {
	var cur any = doc
	for _, key := range path {
		m, ok := asMap(cur)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

func floatField(doc map[string]any, path ...string) *float64 {
	if f, ok := asFloat(field(doc, path...)); ok {
		return &f
	}
	return nil
}

func intField(doc map[string]any, path ...string) *int {
	if n, ok := asInt(field(doc, path...)); ok {
		return &n
	}
	return nil
}

func stringField(doc map[string]any, path ...string) string {
	s, _ := asString(field(doc, path...))
	return s
}
