package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/weird-bench/site/pkg/models"
	"github.com/weird-bench/site/pkg/store"
)

// HardwareSummary is one device in the listing, with per-benchmark payload
// counts and the timestamp of its most recent run.
type HardwareSummary struct {
	models.HardwareDevice
	Benchmarks map[models.BenchmarkType]int `json:"benchmarks"`
	LastRun    *time.Time                   `json:"last_run,omitempty"`
}

// ListHardware returns every known device with its benchmark counts.
func (h *Handlers) ListHardware(c *fiber.Ctx) error {
	devices, err := h.store.ListHardware()
	if err != nil {
		log.Printf("[Hardware] Error listing devices: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Failed to list hardware", nil)
	}

	summaries := make([]HardwareSummary, 0, len(devices))
	for _, dev := range devices {
		counts, latest, err := h.store.BenchmarkCounts(dev.ID)
		if err != nil {
			log.Printf("[Hardware] Error counting benchmarks for %s: %v", dev.ID, err)
			return fail(c, fiber.StatusInternalServerError, "Failed to list hardware", nil)
		}
		summary := HardwareSummary{HardwareDevice: dev, Benchmarks: counts}
		if !latest.IsZero() {
			summary.LastRun = &latest
		}
		summaries = append(summaries, summary)
	}
	return ok(c, "", summaries)
}

// DetailSummary is the per-device result view: group medians per benchmark
// type, without the raw value lists.
type DetailSummary struct {
	Hardware models.HardwareDevice                  `json:"hardware"`
	Results  map[models.BenchmarkType][]DetailGroup `json:"results"`
}

// DetailGroup is one parameter group with its medians.
type DetailGroup struct {
	GroupKey string             `json:"group_key"`
	RunCount int                `json:"run_count"`
	Medians  map[string]float64 `json:"medians"`
}

func (h *Handlers) lookupDevice(c *fiber.Ctx) (*models.HardwareDevice, error) {
	id := c.Query("id")
	if id == "" {
		return nil, fail(c, fiber.StatusBadRequest, "Missing id parameter", nil)
	}
	dev, err := h.store.GetHardware(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fail(c, fiber.StatusNotFound, "Hardware not found", nil)
	}
	if err != nil {
		log.Printf("[Hardware] Error loading %s: %v", id, err)
		return nil, fail(c, fiber.StatusInternalServerError, "Failed to load hardware", nil)
	}
	if t := c.Query("type"); t != "" && t != string(dev.Type) {
		return nil, fail(c, fiber.StatusNotFound, "Hardware not found", nil)
	}
	return dev, nil
}

// HardwareDetail returns one device and the median statistics of every
// benchmark group it has results for. Statistics are recomputed from the
// stored payload history on every call.
func (h *Handlers) HardwareDetail(c *fiber.Ctx) error {
	dev, errResp := h.lookupDevice(c)
	if dev == nil {
		return errResp
	}

	aggregated, err := h.aggregateDevice(*dev)
	if err != nil {
		log.Printf("[Hardware] Error aggregating %s: %v", dev.ID, err)
		return fail(c, fiber.StatusInternalServerError, "Failed to aggregate results", nil)
	}

	detail := DetailSummary{Hardware: *dev, Results: map[models.BenchmarkType][]DetailGroup{}}
	for bt, groups := range aggregated {
		out := make([]DetailGroup, 0, len(groups))
		for _, g := range groups {
			out = append(out, DetailGroup{GroupKey: g.GroupKey, RunCount: g.RunCount, Medians: g.Medians})
		}
		detail.Results[bt] = out
	}
	return ok(c, "", detail)
}

// ProcessedData is the full aggregation view, including the raw value lists
// behind each median.
type ProcessedData struct {
	Hardware models.HardwareDevice                             `json:"hardware"`
	Results  map[models.BenchmarkType][]models.AggregatedGroup `json:"results"`
}

// HardwareProcessedData returns the complete aggregated groups for one
// device.
func (h *Handlers) HardwareProcessedData(c *fiber.Ctx) error {
	dev, errResp := h.lookupDevice(c)
	if dev == nil {
		return errResp
	}

	aggregated, err := h.aggregateDevice(*dev)
	if err != nil {
		log.Printf("[Hardware] Error aggregating %s: %v", dev.ID, err)
		return fail(c, fiber.StatusInternalServerError, "Failed to aggregate results", nil)
	}
	return ok(c, "", ProcessedData{Hardware: *dev, Results: aggregated})
}
