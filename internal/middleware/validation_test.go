package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/calhub/calendar-service-go/internal/dto"
	"github.com/calhub/calendar-service-go/internal/middleware"
	"github.com/calhub/calendar-service-go/internal/testutil"
)

type testPayload struct {
	Name string `json:"name" validate:"required"`
}

func TestValidateBody(t *testing.T) {
	dto.InitValidator()

	testCases := []struct {
		name           string
		payload        string
		expectedStatus int
	}{
		{name: "success", payload: `{"name":"ok"}`, expectedStatus: 200},
		{name: "validation error", payload: `{}`, expectedStatus: 400},
		{name: "invalid json", payload: `{`, expectedStatus: 400},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := testutil.NewMiddlewareTestRouter(
				middleware.ValidateBody[testPayload](),
				middleware.ErrorHandler(),
			)

			reqBody := strings.NewReader(tc.payload)
			req, _ := http.NewRequest(http.MethodPost, "/middleware-test", reqBody)
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Fatalf("expected: %d, got: %d", tc.expectedStatus, w.Code)
			}
		})
	}
}

func TestValidateBodyStoresNormalizedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dto.InitValidator()

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/friends", middleware.ValidateBody[dto.CreateFriendRequest](), func(c *gin.Context) {
		body := c.MustGet(middleware.ContextValidatedBody).(dto.CreateFriendRequest)
		c.JSON(http.StatusOK, gin.H{"friendEmail": body.FriendEmail})
	})

	req := httptest.NewRequest(http.MethodPost, "/friends", strings.NewReader(`{"friendEmail":"  Bob@Example.COM "}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", resp.Code, resp.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["friendEmail"] != "bob@example.com" {
		t.Fatalf("expected normalized email, got %q", body["friendEmail"])
	}
}
