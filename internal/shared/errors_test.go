package shared

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestNewAPIError(t *testing.T) {
	err := NewAPIError("test_code", "test message")
	if err.Code != "test_code" {
		t.Errorf("expected code 'test_code', got '%s'", err.Code)
	}
	if err.Message != "test message" {
		t.Errorf("expected message 'test message', got '%s'", err.Message)
	}
	if err.Details != nil {
		t.Errorf("expected nil details, got %v", err.Details)
	}
}

func TestAPIError_WithDetails(t *testing.T) {
	err := NewAPIError("invalid_settings", "interval not allowed").
		WithDetails(map[string][]int{"allowed_ms": {1000, 2000}})

	d, ok := err.Details.(map[string][]int)
	if !ok {
		t.Fatal("expected details to be map[string][]int")
	}
	if len(d["allowed_ms"]) != 2 {
		t.Errorf("expected 2 allowed intervals, got %d", len(d["allowed_ms"]))
	}
}

func TestAPIError_ToHTTP(t *testing.T) {
	httpErr := NewAPIError("code", "message").ToHTTP(http.StatusTeapot)
	if httpErr.Code != http.StatusTeapot {
		t.Errorf("expected status %d, got %d", http.StatusTeapot, httpErr.Code)
	}
	if _, ok := httpErr.Message.(*APIError); !ok {
		t.Fatal("expected message to be *APIError")
	}
}

func TestBadRequest(t *testing.T) {
	assertHTTPError(t, BadRequest("bad", "bad request"), http.StatusBadRequest, "bad", "bad request")
}

func TestNotFound(t *testing.T) {
	assertHTTPError(t, NotFound("notfound", "not found"), http.StatusNotFound, "notfound", "not found")
}

func TestConflict(t *testing.T) {
	assertHTTPError(t, Conflict("already_running", "monitor is running"), http.StatusConflict, "already_running", "monitor is running")
}

func TestServiceUnavailable(t *testing.T) {
	assertHTTPError(t, ServiceUnavailable("no_frame_source", "no frame"), http.StatusServiceUnavailable, "no_frame_source", "no frame")
}

func TestInternalError(t *testing.T) {
	assertHTTPError(t, InternalError("internal", "internal error"), http.StatusInternalServerError, "internal", "internal error")
}

func assertHTTPError(t *testing.T, err *echo.HTTPError, expectedStatus int, expectedCode, expectedMessage string) {
	t.Helper()
	if err.Code != expectedStatus {
		t.Errorf("expected status %d, got %d", expectedStatus, err.Code)
	}
	apiErr, ok := err.Message.(*APIError)
	if !ok {
		t.Fatal("expected message to be *APIError")
	}
	if apiErr.Code != expectedCode {
		t.Errorf("expected code '%s', got '%s'", expectedCode, apiErr.Code)
	}
	if apiErr.Message != expectedMessage {
		t.Errorf("expected message '%s', got '%s'", expectedMessage, apiErr.Message)
	}
}
