// Package ingest implements the upload pipeline: decode, validate, extract
// hardware, augment device references and persist. The same pipeline serves
// HTTP uploads and the drop-directory watcher.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/weird-bench/site/pkg/hardware"
	"github.com/weird-bench/site/pkg/metrics"
	"github.com/weird-bench/site/pkg/models"
	"github.com/weird-bench/site/pkg/schema"
	"github.com/weird-bench/site/pkg/store"
)

// ValidationError carries the business-rule violations of a rejected upload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "upload rejected: " + strings.Join(e.Problems, "; ")
}

// ErrUndecodable is returned when the uploaded bytes are neither valid JSON
// nor valid YAML.
var ErrUndecodable = errors.New("ingest: document is not valid JSON or YAML")

// Processor runs uploads through the pipeline.
type Processor struct {
	store     *store.Store
	extractor *hardware.Extractor
}

// NewProcessor wires the pipeline against a store.
func NewProcessor(st *store.Store) *Processor {
	return &Processor{store: st, extractor: hardware.NewExtractor()}
}

// relevantFor reports whether a benchmark type contributes results for a
// device class. CPU-only benchmarks are never attributed to GPUs.
func relevantFor(bt models.BenchmarkType, class models.HardwareType) bool {
	switch bt {
	case models.BenchmarkReversan, models.BenchmarkSevenZip:
		return class == models.HardwareTypeCPU
	default:
		return true
	}
}

// Decode parses an uploaded result file. JSON is tried first, then YAML.
func Decode(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil && doc != nil {
		return doc, nil
	}
	return nil, ErrUndecodable
}

// Process runs one uploaded document through the full pipeline. The hint is
// used to name devices when the document carries no usable inventory,
// typically the upload filename. Returns a ValidationError when the document
// violates the acceptance rules.
func (p *Processor) Process(data []byte, hint string) (*models.UploadResult, error) {
	started := time.Now()

	doc, err := Decode(data)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	doc = schema.Unwrap(doc)

	if problems := schema.Validate(doc); len(problems) > 0 {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, &ValidationError{Problems: problems}
	}

	up := schema.ParseUpload(doc)
	devices, err := p.extractor.Extract(up, hint)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("extracting hardware: %w", err)
	}
	p.extractor.AugmentDeviceRefs(up, devices)

	runID := uuid.New().String()
	ts := uploadTimestamp(up)
	result := &models.UploadResult{RunID: runID}

	for _, dev := range devices {
		stored, err := p.store.UpsertHardware(dev)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("storing device %s: %w", dev.ID, err)
		}
		if stored.CreatedAt.After(started) || stored.CreatedAt.Equal(started) {
			metrics.DevicesCreated.WithLabelValues(string(stored.Type)).Inc()
		}

		run, err := p.store.CreateRun(runID, stored.ID, ts)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("creating run for %s: %w", stored.ID, err)
		}

		for _, bt := range models.AllBenchmarkTypes {
			payload, ok := up.Payloads[bt]
			if !ok || !relevantFor(bt, stored.Type) {
				continue
			}
			if err := p.store.AddPayload(run.ID, bt, payload); err != nil {
				metrics.UploadsTotal.WithLabelValues("error").Inc()
				return nil, fmt.Errorf("storing %s payload for %s: %w", bt, stored.ID, err)
			}
			metrics.PayloadsStored.WithLabelValues(string(bt)).Inc()
			result.StoredBenchmarks = appendUnique(result.StoredBenchmarks, string(bt))
		}
		result.HardwareIDs = append(result.HardwareIDs, stored.ID)
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	metrics.UploadDuration.Observe(time.Since(started).Seconds())
	log.Printf("[Ingest] Accepted run %s: %d device(s), benchmarks %v",
		runID, len(result.HardwareIDs), result.StoredBenchmarks)
	return result, nil
}

func uploadTimestamp(up *schema.Upload) time.Time {
	if up.Meta != nil && up.Meta.Timestamp > 0 {
		return time.Unix(int64(up.Meta.Timestamp), 0).UTC()
	}
	return time.Now().UTC()
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
