package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/handlers"
	"github.com/GregMSThompson/agent-dashboard/internal/middleware"
	"github.com/GregMSThompson/agent-dashboard/internal/response"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

type stubRender struct{}

func (stubRender) Render(_ context.Context, req dto.RenderRequest) (dto.RenderResponse, error) {
	return dto.RenderResponse{Source: dto.SourceSample, IsSample: true}, nil
}

func (stubRender) Available(_ context.Context) ([]string, error) {
	return []string{"example.json"}, nil
}

type stubProperties struct{}

func (stubProperties) List(_ context.Context, _ bool) (dto.PropertyList, error) {
	return dto.PropertyList{}, nil
}

type stubAsk struct{}

func (stubAsk) Ask(_ context.Context, req dto.AskRequest, _ string) (dto.RenderResponse, error) {
	return dto.RenderResponse{Answer: req.Question}, nil
}

func newTestRouter(renderKey string) http.Handler {
	log := logger.New("error", logger.NewTestHandler)
	deps := &handlers.Deps{
		Log:             log,
		ResponseHandler: response.New(log),
		RenderSvc:       stubRender{},
		PropertySvc:     stubProperties{},
		AskSvc:          stubAsk{},
		Selection:       handlers.SelectionCookie{Name: "ga_property"},
	}
	return NewRouter(deps, middleware.NewMiddleware(nil, renderKey))
}

func TestRouter_PingIsPublic(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter("s3cret").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "OK ") {
		t.Fatalf("unexpected ping response %d %q", rr.Code, rr.Body.String())
	}
}

func TestRouter_MetricsIsPublic(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter("s3cret").ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestRouter_RenderRequiresKey(t *testing.T) {
	r := newTestRouter("s3cret")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RenderKeyHeader, "s3cret")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rr.Code)
	}

	var env struct {
		Success bool               `json:"success"`
		Data    dto.RenderResponse `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || !env.Data.IsSample {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestRouter_AskRoute(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"why"}`))
	newTestRouter("").ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"answer":"why"`) {
		t.Errorf("unexpected body %s", rr.Body.String())
	}
}

func TestRouter_DashboardSubroutes(t *testing.T) {
	r := newTestRouter("")
	for _, path := range []string{"/properties", "/dashboards"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
		}
	}
}
