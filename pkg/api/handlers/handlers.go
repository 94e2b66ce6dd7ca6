// Package handlers implements the HTTP endpoints of the benchmark site.
package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/weird-bench/site/pkg/ingest"
	"github.com/weird-bench/site/pkg/models"
	"github.com/weird-bench/site/pkg/runs"
	"github.com/weird-bench/site/pkg/stats"
	"github.com/weird-bench/site/pkg/store"
)

// Handlers carries the dependencies shared by all endpoints.
type Handlers struct {
	store     *store.Store
	processor *ingest.Processor
	filter    *runs.Filter
	started   time.Time
}

// New wires the handlers against a store and upload processor.
func New(st *store.Store, p *ingest.Processor) *Handlers {
	return &Handlers{
		store:     st,
		processor: p,
		filter:    runs.NewFilter(nil),
		started:   time.Now().UTC(),
	}
}

// response is the common envelope for every API reply.
type response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

func ok(c *fiber.Ctx, message string, data any) error {
	return c.JSON(response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func fail(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(response{
		Success:   false,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// aggregateDevice recomputes the grouped statistics for one device from its
// stored payload history, per benchmark type.
func (h *Handlers) aggregateDevice(device models.HardwareDevice) (map[models.BenchmarkType][]models.AggregatedGroup, error) {
	out := map[models.BenchmarkType][]models.AggregatedGroup{}
	for _, bt := range models.AllBenchmarkTypes {
		payloads, err := h.store.ListPayloads(device.ID, bt)
		if err != nil {
			return nil, err
		}
		var records []models.RunRecord
		for _, p := range payloads {
			records = append(records, h.filter.Filter(p, device)...)
		}
		if groups := stats.Aggregate(bt, device, records); len(groups) > 0 {
			out[bt] = groups
		}
	}
	return out, nil
}
