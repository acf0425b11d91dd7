package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}
	return payload
}

func TestResponseEnvelopes(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, fiber.Map{"value": "data"})
	})
	app.Get("/fail", func(c *fiber.Ctx) error {
		return Error(c, fiber.StatusNotFound, "thing not found")
	})

	t.Run("success envelope carries data", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
		}

		body := decodeBody(t, resp)
		if success, _ := body["success"].(bool); !success {
			t.Fatalf("expected success=true, got %v", body["success"])
		}
		data, ok := body["data"].(map[string]any)
		if !ok || data["value"] != "data" {
			t.Fatalf("expected data.value %q, got %v", "data", body["data"])
		}
	})

	t.Run("error envelope carries message", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
		}

		body := decodeBody(t, resp)
		if success, _ := body["success"].(bool); success {
			t.Fatalf("expected success=false, got %v", body["success"])
		}
		if body["error"] != "thing not found" {
			t.Fatalf("expected error %q, got %v", "thing not found", body["error"])
		}
	})
}
