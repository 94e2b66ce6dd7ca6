package models

import "time"

// HardwareType represents the class of a hardware device
type HardwareType string

const (
	HardwareTypeCPU HardwareType = "cpu"
	HardwareTypeGPU HardwareType = "gpu"
)

// BenchmarkType identifies one of the supported benchmark tools
type BenchmarkType string

const (
	BenchmarkLlama    BenchmarkType = "llama"
	BenchmarkReversan BenchmarkType = "reversan"
	BenchmarkSevenZip BenchmarkType = "7zip"
	BenchmarkBlender  BenchmarkType = "blender"
)

// AllBenchmarkTypes lists the supported benchmark types in a stable order.
var AllBenchmarkTypes = []BenchmarkType{
	BenchmarkLlama,
	BenchmarkReversan,
	BenchmarkSevenZip,
	BenchmarkBlender,
}

// ManufacturerUnknown is used when no vendor pattern matches a device name.
const ManufacturerUnknown = "Unknown"

// HardwareDevice is the canonical entity for one physical CPU or GPU.
// The ID is a slug derived deterministically from the normalized name,
// so recomputing it from the same name always yields the same value.
type HardwareDevice struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         HardwareType `json:"type"`
	Manufacturer string       `json:"manufacturer"`
	Cores        *int         `json:"cores,omitempty"`     // CPU only
	Threads      *int         `json:"threads,omitempty"`   // CPU only
	Framework    string       `json:"framework,omitempty"` // GPU only: compute backend
	CreatedAt    time.Time    `json:"created_at,omitempty"`
	UpdatedAt    *time.Time   `json:"updated_at,omitempty"`
}

// BenchmarkRun is one stored upload for a device.
type BenchmarkRun struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	HardwareID string    `json:"hardware_id"`
	RunNumber  int       `json:"run_number"`
	Timestamp  time.Time `json:"timestamp"`
}

// RawBenchmarkPayload is one per-benchmark-type JSON document as received.
// Immutable once stored; filtering and normalization always produce derived
// views and never touch the stored copy.
type RawBenchmarkPayload struct {
	ID            int64          `json:"id"`
	RunID         int64          `json:"run_id"`
	BenchmarkType BenchmarkType  `json:"benchmark_type"`
	Data          map[string]any `json:"data"`
	CreatedAt     time.Time      `json:"created_at,omitempty"`
}

// RunRecord is one measured trial extracted from a payload: one generation
// pass, one depth search, one compression pass, or one render of one scene.
type RunRecord struct {
	BenchmarkType BenchmarkType `json:"benchmark_type"`
	DeviceClass   HardwareType  `json:"device_class"`
	DeviceName    string        `json:"device_name,omitempty"`
	DeviceSlug    string        `json:"device_slug,omitempty"`

	// Grouping parameters; present depending on benchmark type.
	Threads *int   `json:"threads,omitempty"`
	Depth   *int   `json:"depth,omitempty"`
	Model   string `json:"model,omitempty"`
	Scene   string `json:"scene,omitempty"`

	// Numeric measurements keyed by metric name.
	Metrics map[string]float64 `json:"metrics"`
}

// AggregatedGroup is the derived per-group statistic. It is recomputed on
// every query and never persisted. A metric with no valid samples is absent
// from Medians rather than reported as zero.
type AggregatedGroup struct {
	GroupKey string               `json:"group_key"`
	RunCount int                  `json:"run_count"`
	Medians  map[string]float64   `json:"medians"`
	Values   map[string][]float64 `json:"values"`
}

// UploadResult summarizes a processed upload.
type UploadResult struct {
	RunID            string   `json:"run_id"`
	HardwareIDs      []string `json:"hardware_ids"`
	StoredBenchmarks []string `json:"stored_benchmarks"`
}
