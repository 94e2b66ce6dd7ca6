package schema

import (
	"sort"

	"github.com/weird-bench/site/pkg/models"
)

// Device is one entry of an upload's hardware inventory.
type Device struct {
	HWID         string
	Name         string
	Type         string
	Manufacturer string
	Cores        *int
	Threads      *int
	Framework    string
}

// Meta is the system-info block of a unified upload: platform, host and the
// hardware inventory keyed by hw_id (cpu-0, gpu-0, gpu-1, ...).
type Meta struct {
	Platform  string
	Host      string
	Timestamp float64
	CPUOnly   bool
	Devices   []Device
}

// Upload is a parsed unified result file: the meta block plus the raw
// per-benchmark-type sub-documents.
type Upload struct {
	Meta     *Meta
	Payloads map[models.BenchmarkType]map[string]any
}

// CPUDevice returns the first CPU in the inventory, if any.
func (m *Meta) CPUDevice() *Device {
	for i := range m.Devices {
		if m.Devices[i].Type == string(models.HardwareTypeCPU) {
			return &m.Devices[i]
		}
	}
	return nil
}

// GPUDevices returns all GPUs in the inventory.
func (m *Meta) GPUDevices() []Device {
	var gpus []Device
	for _, d := range m.Devices {
		if d.Type == string(models.HardwareTypeGPU) {
			gpus = append(gpus, d)
		}
	}
	return gpus
}

// DeviceByID looks a device up by its upload-local hw_id.
func (m *Meta) DeviceByID(hwID string) *Device {
	for i := range m.Devices {
		if m.Devices[i].HWID == hwID {
			return &m.Devices[i]
		}
	}
	return nil
}

// ParseMeta reads the hardware inventory out of a meta/system-info block.
// Devices without a name are kept (extraction decides what to drop); blocks
// that are structurally wrong simply yield an empty inventory.
func ParseMeta(doc map[string]any) *Meta {
	if doc == nil {
		return nil
	}
	meta := &Meta{
		Platform: stringField(doc, "platform"),
		Host:     stringField(doc, "host"),
	}
	if ts, ok := asFloat(doc["timestamp"]); ok {
		meta.Timestamp = ts
	}
	if b, ok := asBool(doc["cpu_only"]); ok {
		meta.CPUOnly = b
	}
	hw, ok := asMap(doc["hardware"])
	if !ok {
		return meta
	}
	for hwID, raw := range hw {
		entry, ok := asMap(raw)
		if !ok {
			continue
		}
		meta.Devices = append(meta.Devices, Device{
			HWID:         hwID,
			Name:         stringField(entry, "name"),
			Type:         stringField(entry, "type"),
			Manufacturer: stringField(entry, "manufacturer"),
			Cores:        intField(entry, "cores"),
			Threads:      intField(entry, "threads"),
			Framework:    stringField(entry, "framework"),
		})
	}
	// Map iteration order is random; keep the inventory stable by hw_id.
	sort.Slice(meta.Devices, func(i, j int) bool {
		return meta.Devices[i].HWID < meta.Devices[j].HWID
	})
	return meta
}

// ParseUpload splits a unified result document into its meta block and the
// per-benchmark-type sub-documents. Unknown top-level keys are ignored.
func ParseUpload(doc map[string]any) *Upload {
	up := &Upload{Payloads: map[models.BenchmarkType]map[string]any{}}
	if m, ok := asMap(doc["meta"]); ok {
		up.Meta = ParseMeta(m)
	}
	for _, bt := range models.AllBenchmarkTypes {
		key := string(bt)
		if bt == models.BenchmarkSevenZip {
			// Both spellings occur in the wild.
			if sub, ok := asMap(doc["sevenzip"]); ok {
				up.Payloads[bt] = sub
				continue
			}
		}
		if sub, ok := asMap(doc[key]); ok {
			up.Payloads[bt] = sub
		}
	}
	return up
}
