package endpoint

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/fluxkit/component"
)

func init() { gin.SetMode(gin.TestMode) }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		components []component.Health
		wantStatus component.HealthStatus
		wantCode   int
	}{
		{name: "no checker", wantStatus: component.StatusHealthy, wantCode: http.StatusOK},
		{
			name:       "all healthy",
			components: []component.Health{{Name: "a", Status: component.StatusHealthy}},
			wantStatus: component.StatusHealthy,
			wantCode:   http.StatusOK,
		},
		{
			name: "degraded",
			components: []component.Health{
				{Name: "a", Status: component.StatusHealthy},
				{Name: "b", Status: component.StatusDegraded},
			},
			wantStatus: component.StatusDegraded,
			wantCode:   http.StatusOK,
		},
		{
			name: "unhealthy wins",
			components: []component.Health{
				{Name: "a", Status: component.StatusDegraded},
				{Name: "b", Status: component.StatusUnhealthy},
			},
			wantStatus: component.StatusUnhealthy,
			wantCode:   http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checker HealthChecker
			if tt.components != nil {
				checker = func(context.Context) []component.Health { return tt.components }
			}
			r := gin.New()
			r.GET("/health", Health("svc", checker))

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tt.wantCode {
				t.Fatalf("status code = %d, want %d", rr.Code, tt.wantCode)
			}
			var resp HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", resp.Status, tt.wantStatus)
			}
			if resp.Service != "svc" {
				t.Errorf("service = %q", resp.Service)
			}
			if len(resp.Components) != len(tt.components) {
				t.Errorf("components = %d, want %d", len(resp.Components), len(tt.components))
			}
		})
	}
}

func TestInfo(t *testing.T) {
	r := gin.New()
	r.GET("/info", Info("svc"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/info", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d", rr.Code)
	}
	var resp InfoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Service != "svc" || resp.Build == nil || resp.Build.Version == "" {
		t.Errorf("unexpected info: %+v", resp)
	}
}
