package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weird-bench/site/pkg/ingest"
	"github.com/weird-bench/site/pkg/store"
)

type testEnv struct {
	App   *fiber.App
	Store *store.Store
}

// setupTestEnv creates a fresh Fiber app over a temporary database with all
// routes registered.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := New(st, ingest.NewProcessor(st))

	app := fiber.New()
	app.Post("/api/upload", h.Upload)
	app.Get("/api/hardware", h.ListHardware)
	app.Get("/api/hardware-detail", h.HardwareDetail)
	app.Get("/api/hardware-processed-data", h.HardwareProcessedData)
	app.Get("/api/health", h.Health)
	app.Get("/api/stats", h.Stats)

	return &testEnv{App: app, Store: st}
}

// uploadDoc posts a result document as a multipart file upload.
func uploadDoc(t *testing.T, app *fiber.App, doc map[string]any) *http.Response {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "bench-01.json")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest("POST", "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func validDoc(generationSpeed float64) map[string]any {
	return map[string]any{
		"meta": map[string]any{
			"platform": "Linux",
			"cpu_only": false,
			"hardware": map[string]any{
				"cpu-0": map[string]any{"name": "AMD Ryzen 9 5950X", "type": "cpu", "cores": 16},
				"gpu-0": map[string]any{"name": "NVIDIA GeForce RTX 3090", "type": "gpu", "framework": "CUDA"},
			},
		},
		"llama": map[string]any{
			"cpu_benchmark": map[string]any{"generation_speed": generationSpeed, "threads": 16},
			"gpu_benchmarks": []any{
				map[string]any{"hw_id": "gpu-0", "generation_speed": 2400.0},
			},
		},
		"blender": map[string]any{
			"cpu": map[string]any{"classroom": 88.0},
			"gpus": []any{
				map[string]any{"hw_id": "gpu-0", "scenes": map[string]any{"monster": 2000.0}},
			},
		},
	}
}

func decodeEnvelope(t *testing.T, resp *http.Response) (bool, json.RawMessage) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Success, envelope.Data
}

func TestUploadEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	resp := uploadDoc(t, env.App, validDoc(194.5))
	assert.Equal(t, 200, resp.StatusCode)

	success, data := decodeEnvelope(t, resp)
	assert.True(t, success)

	var result struct {
		RunID       string   `json:"run_id"`
		HardwareIDs []string `json:"hardware_ids"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.NotEmpty(t, result.RunID)
	assert.ElementsMatch(t, []string{"amd-ryzen-9-5950x", "nvidia-geforce-rtx-3090"}, result.HardwareIDs)
}

func TestUploadEndpointRejectsInvalid(t *testing.T) {
	env := setupTestEnv(t)

	resp := uploadDoc(t, env.App, map[string]any{"meta": map[string]any{}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	success, _ := decodeEnvelope(t, resp)
	assert.False(t, success)
}

func TestUploadEndpointRejectsGarbage(t *testing.T) {
	env := setupTestEnv(t)

	req, _ := http.NewRequest("POST", "/api/upload", bytes.NewBufferString("{nope"))
	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListHardwareEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	uploadDoc(t, env.App, validDoc(194.5))

	req, _ := http.NewRequest("GET", "/api/hardware", nil)
	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	_, data := decodeEnvelope(t, resp)
	var summaries []HardwareSummary
	require.NoError(t, json.Unmarshal(data, &summaries))
	require.Len(t, summaries, 2)

	for _, s := range summaries {
		assert.NotEmpty(t, s.Benchmarks)
		assert.NotNil(t, s.LastRun)
	}
}

func TestHardwareDetailEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	uploadDoc(t, env.App, validDoc(194.5))
	uploadDoc(t, env.App, validDoc(200.0))

	req, _ := http.NewRequest("GET", "/api/hardware-detail?id=amd-ryzen-9-5950x", nil)
	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	_, data := decodeEnvelope(t, resp)
	var detail DetailSummary
	require.NoError(t, json.Unmarshal(data, &detail))
	assert.Equal(t, "amd-ryzen-9-5950x", detail.Hardware.ID)

	llama := detail.Results["llama"]
	require.Len(t, llama, 1)
	assert.Equal(t, 2, llama[0].RunCount)
	assert.Equal(t, 197.25, llama[0].Medians["tokens_per_second"])
}

func TestHardwareDetailNotFound(t *testing.T) {
	env := setupTestEnv(t)

	req, _ := http.NewRequest("GET", "/api/hardware-detail?id=nope", nil)
	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req, _ = http.NewRequest("GET", "/api/hardware-detail", nil)
	resp, err = env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHardwareProcessedDataEndpoint(t *testing.T) {
	env := setupTestEnv(t)
	uploadDoc(t, env.App, validDoc(194.5))

	req, _ := http.NewRequest("GET", "/api/hardware-processed-data?id=nvidia-geforce-rtx-3090&type=gpu", nil)
	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	_, data := decodeEnvelope(t, resp)
	var processed ProcessedData
	require.NoError(t, json.Unmarshal(data, &processed))

	blender := processed.Results["blender"]
	require.Len(t, blender, 1)
	assert.Equal(t, "monster", blender[0].GroupKey)
	assert.Equal(t, []float64{2000.0}, blender[0].Values["samples_per_minute"])

	// Wrong type filter misses.
	req, _ = http.NewRequest("GET", "/api/hardware-processed-data?id=nvidia-geforce-rtx-3090&type=cpu", nil)
	resp, err = env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestHealthAndStatsEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	uploadDoc(t, env.App, validDoc(194.5))

	req, _ := http.NewRequest("GET", "/api/health", nil)
	resp, err := env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	req, _ = http.NewRequest("GET", "/api/stats", nil)
	resp, err = env.App.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	_, data := decodeEnvelope(t, resp)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 1, stats.CPUs)
	assert.Equal(t, 1, stats.GPUs)
	assert.Equal(t, 2, stats.TotalRuns)
}
