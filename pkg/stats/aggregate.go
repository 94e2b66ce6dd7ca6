// Package stats computes per-device, per-parameter aggregated statistics
// over filtered run records. Everything here is pure: aggregation is
// recomputed from raw payload history on every read and depends only on
// the multiset of contributed values, never on file arrival order.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/weird-bench/site/pkg/models"
)

// Median returns the median of the numeric values, ignoring NaN and
// infinities. The second return is false when no valid values remain, which
// callers must keep distinct from a measured zero.
func Median(values []float64) (float64, bool) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		clean = append(clean, v)
	}
	if len(clean) == 0 {
		return 0, false
	}
	sort.Float64s(clean)
	n := len(clean)
	if n%2 == 1 {
		return clean[n/2], true
	}
	return (clean[n/2-1] + clean[n/2]) / 2, true
}

// Aggregate groups a device's run records by the benchmark type's fixed
// parameter key and reports per-group medians with the raw value lists
// backing them. Groups with no valid numeric samples are omitted entirely,
// so an absent statistic is never confused with a measured zero. The result
// is sorted by group key and independent of input order.
func Aggregate(benchType models.BenchmarkType, device models.HardwareDevice, records []models.RunRecord) []models.AggregatedGroup {
	buckets := map[string]*models.AggregatedGroup{}
	for _, rec := range records {
		key := groupKey(benchType, rec)
		group, ok := buckets[key]
		if !ok {
			group = &models.AggregatedGroup{
				GroupKey: key,
				Medians:  map[string]float64{},
				Values:   map[string][]float64{},
			}
			buckets[key] = group
		}
		group.RunCount++
		for metric, value := range rec.Metrics {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				continue
			}
			group.Values[metric] = append(group.Values[metric], value)
		}
	}

	var groups []models.AggregatedGroup
	for _, group := range buckets {
		for metric, values := range group.Values {
			// Value order must not leak arrival order into the output.
			sort.Float64s(values)
			if med, ok := Median(values); ok {
				group.Medians[metric] = med
			}
		}
		if len(group.Medians) == 0 {
			continue
		}
		groups = append(groups, *group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].GroupKey < groups[j].GroupKey })
	return groups
}

// groupKey is the fixed, benchmark-type-specific grouping parameter:
// inference by model bucket and thread count, search by depth or thread
// count (two independent series), compression by thread count, rendering by
// scene (the device dimension is the call itself).
func groupKey(benchType models.BenchmarkType, rec models.RunRecord) string {
	switch benchType {
	case models.BenchmarkLlama:
		model := rec.Model
		if model == "" {
			model = "default"
		}
		if rec.Threads != nil {
			return fmt.Sprintf("%s/threads-%d", model, *rec.Threads)
		}
		return model
	case models.BenchmarkReversan:
		if rec.Depth != nil {
			return fmt.Sprintf("depth-%d", *rec.Depth)
		}
		if rec.Threads != nil {
			return fmt.Sprintf("threads-%d", *rec.Threads)
		}
		return "unkeyed"
	case models.BenchmarkSevenZip:
		threads := 1
		if rec.Threads != nil {
			threads = *rec.Threads
		}
		return fmt.Sprintf("threads-%d", threads)
	case models.BenchmarkBlender:
		if rec.Scene != "" {
			return rec.Scene
		}
		return "unkeyed"
	}
	return "unkeyed"
}
