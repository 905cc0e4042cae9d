package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/errs"
)

// --- Stub services ---

type stubRenderService struct {
	resp    dto.RenderResponse
	err     error
	names   []string
	called  bool
	lastReq dto.RenderRequest
}

func (s *stubRenderService) Render(_ context.Context, req dto.RenderRequest) (dto.RenderResponse, error) {
	s.called = true
	s.lastReq = req
	return s.resp, s.err
}

func (s *stubRenderService) Available(_ context.Context) ([]string, error) {
	return s.names, s.err
}

type stubPropertyService struct {
	list        dto.PropertyList
	err         error
	lastRefresh bool
}

func (s *stubPropertyService) List(_ context.Context, refresh bool) (dto.PropertyList, error) {
	s.lastRefresh = refresh
	return s.list, s.err
}

func newDashboardFixture() (*dashboardHandlers, *stubRenderService, *stubPropertyService, *stubResponseHandler) {
	rs := &stubRenderService{}
	ps := &stubPropertyService{}
	resp := &stubResponseHandler{}
	h := NewDashboardHandlers(&Deps{
		ResponseHandler: resp,
		RenderSvc:       rs,
		PropertySvc:     ps,
		Selection:       testSelection,
	})
	return h, rs, ps, resp
}

// --- Tests ---

func TestRender_QueryInputs(t *testing.T) {
	h, rs, _, resp := newDashboardFixture()

	req := httptest.NewRequest(http.MethodGet, "/?file=dash.json&json=%7B%7D&refresh=1", nil)
	req.AddCookie(&http.Cookie{Name: testSelection.Name, Value: "properties/7"})
	rr := httptest.NewRecorder()
	h.Render(rr, req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusOK {
		t.Fatalf("expected WriteSuccess with 200, got called=%v status=%d", resp.writeSuccessCalled, resp.writeSuccessStatus)
	}
	got := rs.lastReq
	if got.FileName != "dash.json" || got.JSONParam != "{}" || !got.Refresh || got.PersistedSelection != "properties/7" {
		t.Errorf("unexpected render request %+v", got)
	}
	if selectionCookie(rr) != nil {
		t.Error("cookie should not be rewritten without a selection change")
	}
}

func TestRender_RawBody(t *testing.T) {
	h, rs, _, _ := newDashboardFixture()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"version":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	h.Render(httptest.NewRecorder(), req)

	if string(rs.lastReq.Body) != `{"version":"1"}` {
		t.Errorf("expected body to be forwarded, got %q", rs.lastReq.Body)
	}
}

func TestRender_FormParam(t *testing.T) {
	h, rs, _, _ := newDashboardFixture()

	form := url.Values{"json": {`{"cards":[]}`}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Render(httptest.NewRecorder(), req)

	if rs.lastReq.JSONParam != `{"cards":[]}` || len(rs.lastReq.Body) != 0 {
		t.Errorf("unexpected render request %+v", rs.lastReq)
	}
}

func TestRender_MultipartUpload(t *testing.T) {
	h, rs, _, _ := newDashboardFixture()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	empty, _ := mw.CreateFormFile("file", "empty.json")
	empty.Write([]byte("   "))
	fw, _ := mw.CreateFormFile("jsonfile", "dash.json")
	fw.Write([]byte(`{"version":"up"}`))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h.Render(httptest.NewRecorder(), req)

	if string(rs.lastReq.Upload) != `{"version":"up"}` {
		t.Errorf("expected jsonfile upload, got %q", rs.lastReq.Upload)
	}
}

func TestRender_SelectionWriteThrough(t *testing.T) {
	h, rs, _, _ := newDashboardFixture()
	rs.resp = dto.RenderResponse{Selected: "properties/9", SelectionChanged: true}

	rr := httptest.NewRecorder()
	h.Render(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	c := selectionCookie(rr)
	if c == nil || c.Value != "properties/9" {
		t.Fatalf("expected selection cookie, got %+v", c)
	}
}

func TestRender_ServiceError(t *testing.T) {
	h, rs, _, resp := newDashboardFixture()
	rs.err = errs.NewSchemaError("Invalid dashboard JSON: missing version or cards[]")

	h.Render(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !resp.handleErrorCalled {
		t.Fatal("expected HandleError to be called")
	}
	var se *errs.SchemaError
	if !errors.As(resp.handleError, &se) {
		t.Errorf("expected SchemaError, got %T", resp.handleError)
	}
	if resp.writeSuccessCalled {
		t.Error("WriteSuccess should not be called on service error")
	}
}

func TestRender_BadMultipart(t *testing.T) {
	h, rs, _, resp := newDashboardFixture()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("garbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	h.Render(httptest.NewRecorder(), req)

	if rs.called {
		t.Error("service should not be called for an unreadable form")
	}
	var ve *errs.ValidationError
	if !errors.As(resp.handleError, &ve) {
		t.Errorf("expected ValidationError, got %T", resp.handleError)
	}
}

func TestSelectProperty_Form(t *testing.T) {
	h, _, _, _ := newDashboardFixture()

	form := url.Values{"property": {"properties%2F123"}}
	req := httptest.NewRequest(http.MethodPost, "/property", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.SelectProperty(rr, req)

	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/" {
		t.Fatalf("expected 303 to /, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	c := selectionCookie(rr)
	if c == nil || c.Value != "properties/123" {
		t.Fatalf("expected decoded selection cookie, got %+v", c)
	}
}

func TestSelectProperty_JSON(t *testing.T) {
	h, _, _, _ := newDashboardFixture()

	req := httptest.NewRequest(http.MethodPost, "/property", strings.NewReader(`{"property":"properties/5"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.SelectProperty(rr, req)

	c := selectionCookie(rr)
	if c == nil || c.Value != "properties/5" {
		t.Fatalf("expected selection cookie, got %+v", c)
	}
}

func TestSelectProperty_InvalidJSON(t *testing.T) {
	h, _, _, resp := newDashboardFixture()

	req := httptest.NewRequest(http.MethodPost, "/property", strings.NewReader("not-json"))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.SelectProperty(rr, req)

	if !resp.handleErrorCalled {
		t.Fatal("expected HandleError on invalid JSON")
	}
	if selectionCookie(rr) != nil {
		t.Error("no cookie should be set on invalid JSON")
	}
}

func TestListProperties(t *testing.T) {
	h, _, ps, resp := newDashboardFixture()
	ps.list = dto.PropertyList{Message: "OK", Refreshed: true}

	h.ListProperties(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/properties?refresh=1", nil))

	if !ps.lastRefresh {
		t.Error("expected refresh flag to reach the service")
	}
	list, ok := resp.writeSuccessData.(dto.PropertyList)
	if !ok || list.Message != "OK" {
		t.Errorf("unexpected response data %#v", resp.writeSuccessData)
	}
}

func TestListDashboards(t *testing.T) {
	h, rs, _, resp := newDashboardFixture()
	rs.names = []string{"a.json", "b.json"}

	h.ListDashboards(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboards", nil))

	names, ok := resp.writeSuccessData.([]string)
	if !ok || len(names) != 2 {
		t.Errorf("unexpected response data %#v", resp.writeSuccessData)
	}
}
