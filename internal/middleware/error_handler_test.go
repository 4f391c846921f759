package middleware_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	appError "github.com/calhub/calendar-service-go/internal/app_error"
	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/middleware"
)

func TestErrorHandlerReturnsAppErrorPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "conflict", err: appError.NewConflict("already friends"), expected: http.StatusConflict},
		{name: "not found", err: appError.NewNotFound("connection not found"), expected: http.StatusNotFound},
		{name: "bad request", err: appError.NewBadRequest("cannot add yourself as a friend"), expected: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.ErrorHandler())
			r.GET("/err", func(c *gin.Context) {
				_ = c.Error(tc.err)
			})

			req := httptest.NewRequest(http.MethodGet, "/err", nil)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != tc.expected {
				t.Fatalf("expected status %d, got %d", tc.expected, resp.Code)
			}

			var body map[string]string
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["error"] != tc.err.Error() {
				t.Fatalf("unexpected error payload: %v", body)
			}
		})
	}
}

func TestErrorHandlerHidesUnexpectedErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/unknown", func(c *gin.Context) {
		_ = c.Error(errors.New("database is locked"))
	})

	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d body=%s", resp.Code, resp.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["error"] != "Internal Server Error" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}

func TestValidationMiddlewareReturnsValidationErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dto.InitValidator()

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.ValidateBody[dto.CreateFriendRequest]())
	r.POST("/validate", func(c *gin.Context) {
		// Should not reach when validation fails
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewBufferString(`{"friendEmail":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d body=%s", resp.Code, resp.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	errorsField, ok := body["error"].([]any)
	if !ok || len(errorsField) != 1 {
		t.Fatalf("expected validation errors array, got %v", body)
	}
}

func TestPanicHandlerReturnsJSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.PanicHandler())
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d body=%s", resp.Code, resp.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["error"] != "Internal Server Error" {
		t.Fatalf("unexpected error payload: %v", body)
	}
}
