package handlers

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/weird-bench/site/pkg/ingest"
)

// Upload accepts one unified benchmark result file, either as a multipart
// form field named "file" or as the raw request body, in JSON or YAML.
func (h *Handlers) Upload(c *fiber.Ctx) error {
	data, hint, err := readUpload(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err.Error(), nil)
	}
	if len(data) == 0 {
		return fail(c, fiber.StatusBadRequest, "Empty upload", nil)
	}

	result, err := h.processor.Process(data, hint)
	if err != nil {
		var verr *ingest.ValidationError
		switch {
		case errors.As(err, &verr):
			return fail(c, fiber.StatusUnprocessableEntity, "Upload failed validation", verr.Problems)
		case errors.Is(err, ingest.ErrUndecodable):
			return fail(c, fiber.StatusBadRequest, "File is not valid JSON or YAML", nil)
		default:
			log.Printf("[Upload] Error: %v", err)
			return fail(c, fiber.StatusInternalServerError, "Failed to process upload", nil)
		}
	}

	return ok(c, "Upload processed", result)
}

func readUpload(c *fiber.Ctx) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		// Not a multipart request; take the raw body.
		return c.Body(), "", nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.New("Could not open uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", errors.New("Could not read uploaded file")
	}
	hint := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	return data, hint, nil
}
