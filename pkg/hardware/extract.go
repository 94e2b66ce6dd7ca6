package hardware

import (
	"errors"

	"github.com/weird-bench/site/pkg/models"
	"github.com/weird-bench/site/pkg/schema"
)

// ErrNoDevices is returned when extraction finds zero CPU and zero GPU
// candidates across every payload and no hint was supplied. This is the
// only hard failure in extraction; individual malformed payloads just
// contribute nothing.
var ErrNoDevices = errors.New("hardware: no device could be determined from any payload")

// Extractor discovers the canonical hardware devices described by an
// upload's benchmark payloads.
type Extractor struct {
	classifier *Classifier
	matcher    *Matcher
}

// NewExtractor builds an Extractor with the default classifier and matcher
// tables.
func NewExtractor() *Extractor {
	return &Extractor{classifier: NewClassifier(), matcher: NewMatcher()}
}

// Matcher exposes the extractor's name matcher so run filtering uses the
// same fuzzy rules that built the device list.
func (e *Extractor) Matcher() *Matcher { return e.matcher }

// Extract consumes one parsed upload plus an optional free-text hardware
// hint and returns the canonical device records to persist. Candidates come
// from the upload's hardware inventory, from legacy per-payload meta blocks
// and from each benchmark's device-describing fields. GPUs are consolidated
// fuzzily, CPUs deduplicated by exact normalized name, and unnamed or
// composite-only GPU entries are dropped rather than guessed at.
func (e *Extractor) Extract(up *schema.Upload, hint string) ([]models.HardwareDevice, error) {
	var cpus, gpus []Candidate
	gpuNeeded := false

	if up.Meta != nil {
		cpus, gpus = e.candidatesFromInventory(up.Meta)
	}

	for bt, doc := range up.Payloads {
		if doc == nil {
			continue
		}
		doc = schema.Unwrap(doc)
		c, g := e.candidatesFromMeta(doc)
		cpus = append(cpus, c...)
		gpus = append(gpus, g...)

		switch bt {
		case models.BenchmarkLlama:
			llama := schema.ParseLlama(doc)
			if len(llama.GPUs) > 0 {
				gpuNeeded = true
			}
			for _, run := range llama.GPUs {
				if run.DeviceName == "" {
					continue
				}
				man, isCPU := e.classifier.Classify(run.DeviceName, "gpu")
				if !isCPU {
					gpus = append(gpus, Candidate{Name: Normalize(run.DeviceName), Manufacturer: man})
				}
			}
		case models.BenchmarkBlender:
			blender := schema.ParseBlender(doc)
			for _, dev := range blender.Devices {
				if !dev.IsCPU {
					gpuNeeded = true
				}
				if dev.DeviceName == "" {
					continue
				}
				if dev.IsCPU {
					man, _ := e.classifier.Classify(dev.DeviceName, "cpu")
					cpus = append(cpus, Candidate{Name: Normalize(dev.DeviceName), Manufacturer: man})
				} else {
					man, isCPU := e.classifier.Classify(dev.DeviceName, dev.Framework)
					cand := Candidate{Name: Normalize(dev.DeviceName), Manufacturer: man, Framework: dev.Framework}
					if isCPU {
						// A CPU model string in a GPU selection list is the
						// integrated GPU advertised under its host CPU name.
						cand.Manufacturer, _ = e.classifier.Classify(dev.DeviceName, "gpu")
					}
					gpus = append(gpus, cand)
				}
			}
		}
	}

	cpus = dedupeCPUs(cpus)
	gpus = e.matcher.Consolidate(dropUnnamed(gpus))

	// Hint fallback: only consulted when a needed class is missing.
	if hint != "" {
		man, isCPU := e.classifier.Classify(hint, "")
		switch {
		case isCPU && len(cpus) == 0:
			cpus = append(cpus, Candidate{Name: Normalize(hint), Manufacturer: man})
		case !isCPU && len(gpus) == 0 && (gpuNeeded || len(cpus) == 0):
			gpus = append(gpus, Candidate{Name: Normalize(hint), Manufacturer: man})
		}
	}

	if len(cpus) == 0 && len(gpus) == 0 {
		return nil, ErrNoDevices
	}

	var devices []models.HardwareDevice
	for _, c := range cpus {
		devices = append(devices, models.HardwareDevice{
			ID:           Slugify(c.Name),
			Name:         c.Name,
			Type:         models.HardwareTypeCPU,
			Manufacturer: c.Manufacturer,
			Cores:        c.Cores,
			Threads:      c.Threads,
		})
	}
	for _, g := range gpus {
		devices = append(devices, models.HardwareDevice{
			ID:           Slugify(g.Name),
			Name:         g.Name,
			Type:         models.HardwareTypeGPU,
			Manufacturer: g.Manufacturer,
			Framework:    g.Framework,
		})
	}
	return devices, nil
}

// candidatesFromMeta pulls a legacy payload's own meta block, when it
// carries one, into provisional candidate lists.
func (e *Extractor) candidatesFromMeta(doc map[string]any) (cpus, gpus []Candidate) {
	m, ok := doc["meta"].(map[string]any)
	if !ok {
		return nil, nil
	}
	meta := schema.ParseMeta(m)
	if meta == nil {
		return nil, nil
	}
	return e.candidatesFromInventory(meta)
}

// candidatesFromInventory converts a hardware inventory into provisional
// candidates, classifying entries the inventory does not type itself.
func (e *Extractor) candidatesFromInventory(meta *schema.Meta) (cpus, gpus []Candidate) {
	for _, dev := range meta.Devices {
		cand := Candidate{
			Name:      Normalize(dev.Name),
			Cores:     dev.Cores,
			Threads:   dev.Threads,
			Framework: dev.Framework,
		}
		isCPU := dev.Type == string(models.HardwareTypeCPU)
		if dev.Type == "" {
			_, isCPU = e.classifier.Classify(dev.Name, dev.Framework)
		}
		if dev.Manufacturer != "" {
			cand.Manufacturer = dev.Manufacturer
		} else if isCPU {
			cand.Manufacturer, _ = e.classifier.Classify(dev.Name, "cpu")
		} else {
			cand.Manufacturer, _ = e.classifier.Classify(dev.Name, "gpu")
		}
		if isCPU {
			cpus = append(cpus, cand)
		} else {
			gpus = append(gpus, cand)
		}
	}
	return cpus, gpus
}

// dedupeCPUs collapses CPU candidates by exact normalized-name identity.
// CPUs are assumed singular per machine, so no fuzzy matching applies.
func dedupeCPUs(cands []Candidate) []Candidate {
	var kept []Candidate
	seen := map[string]int{}
	for _, c := range cands {
		if c.Name == "" {
			continue
		}
		slug := Slugify(c.Name)
		if i, ok := seen[slug]; ok {
			mergeFields(&kept[i], c)
			continue
		}
		seen[slug] = len(kept)
		kept = append(kept, c)
	}
	return kept
}

// dropUnnamed removes GPU candidates with no usable name; an unnamed or
// placeholder entry cannot anchor a device identity.
func dropUnnamed(cands []Candidate) []Candidate {
	var kept []Candidate
	for _, c := range cands {
		if c.Name == "" || Slugify(c.Name) == "unknown" {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// AugmentDeviceRefs rewrites the upload's llama gpu_benchmarks and blender
// gpus entries in place with the resolved device_name and device_slug of
// the extracted device their hw_id points at. Stored payloads then carry
// stable device references, so read-time filtering survives later renames
// of the hardware inventory.
func (e *Extractor) AugmentDeviceRefs(up *schema.Upload, devices []models.HardwareDevice) {
	if up == nil || up.Meta == nil {
		return
	}
	resolve := func(hwID string) *models.HardwareDevice {
		dev := up.Meta.DeviceByID(hwID)
		if dev == nil || dev.Name == "" {
			return nil
		}
		for i := range devices {
			if devices[i].Type == models.HardwareTypeGPU && e.matcher.Matches(devices[i].Name, dev.Name) {
				return &devices[i]
			}
		}
		return nil
	}

	if llamaDoc := up.Payloads[models.BenchmarkLlama]; llamaDoc != nil {
		augmentRunList(schema.Unwrap(llamaDoc), "gpu_benchmarks", resolve)
	}
	if blenderDoc := up.Payloads[models.BenchmarkBlender]; blenderDoc != nil {
		augmentRunList(schema.Unwrap(blenderDoc), "gpus", resolve)
	}
}

func augmentRunList(doc map[string]any, key string, resolve func(string) *models.HardwareDevice) {
	list, ok := doc[key].([]any)
	if !ok {
		return
	}
	for _, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		hwID, _ := entry["hw_id"].(string)
		if hwID == "" {
			continue
		}
		if dev := resolve(hwID); dev != nil {
			entry["device_name"] = dev.Name
			entry["device_slug"] = dev.ID
		}
	}
}
