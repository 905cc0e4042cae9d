package handlers

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/internal/response"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

const (
	maxUploadBytes = 16 << 20
	maxBodyBytes   = 16 << 20
)

var uploadFields = []string{"file", "jsonfile"}

type RenderService interface {
	Render(ctx context.Context, req dto.RenderRequest) (dto.RenderResponse, error)
	Available(ctx context.Context) ([]string, error)
}

type PropertyService interface {
	List(ctx context.Context, refresh bool) (dto.PropertyList, error)
}

type dashboardHandlers struct {
	ResponseHandler response.ResponseHandler
	RenderSvc       RenderService
	PropertySvc     PropertyService
	Selection       SelectionCookie
}

func NewDashboardHandlers(deps *Deps) *dashboardHandlers {
	return &dashboardHandlers{
		ResponseHandler: deps.ResponseHandler,
		RenderSvc:       deps.RenderSvc,
		PropertySvc:     deps.PropertySvc,
		Selection:       deps.Selection,
	}
}

func (h *dashboardHandlers) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Render)
	r.Post("/", h.Render)
	r.Post("/property", h.SelectProperty)
	r.Get("/properties", h.ListProperties)
	r.Get("/dashboards", h.ListDashboards)
	return r
}

// Render turns whichever dashboard input the request carries into a render model.
func (h *dashboardHandlers) Render(w http.ResponseWriter, r *http.Request) {
	req, err := h.renderRequest(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.RenderSvc.Render(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if resp.SelectionChanged {
		h.Selection.write(w, resp.Selected)
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}

func (h *dashboardHandlers) renderRequest(r *http.Request) (dto.RenderRequest, error) {
	q := r.URL.Query()
	req := dto.RenderRequest{
		FileName:           q.Get("file"),
		JSONParam:          q.Get("json"),
		PersistedSelection: h.Selection.read(r),
		Refresh:            q.Get("refresh") == "1",
	}
	if r.Method != http.MethodPost {
		return req, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return req, errs.NewValidationError("Invalid multipart body.")
		}
		req.Upload = readUpload(r)
		if v := r.PostFormValue("json"); v != "" {
			req.JSONParam = v
		}
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, errs.NewValidationError("Invalid form body.")
		}
		if v := r.PostForm.Get("json"); v != "" {
			req.JSONParam = v
		}
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			return req, err
		}
		req.Body = body
	}
	return req, nil
}

func readUpload(r *http.Request) []byte {
	for _, field := range uploadFields {
		f, _, err := r.FormFile(field)
		if err != nil {
			continue
		}
		b, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		f.Close()
		if err != nil {
			logger.FromContext(r.Context()).Warn("upload unreadable", "field", field, "error", err)
			continue
		}
		if strings.TrimSpace(string(b)) != "" {
			return b
		}
	}
	return nil
}

// SelectProperty persists the posted property token and sends the browser back
// to the dashboard.
func (h *dashboardHandlers) SelectProperty(w http.ResponseWriter, r *http.Request) {
	var raw string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var form dto.PropertyForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationError("Invalid JSON body."))
			return
		}
		raw = form.Property
	} else {
		raw = r.FormValue("property")
	}

	token := raw
	if decoded, err := url.PathUnescape(raw); err == nil {
		token = decoded
	}
	token = strings.TrimSpace(token)

	logger.FromContext(r.Context()).Info("property selected", "property", token)
	h.Selection.write(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *dashboardHandlers) ListProperties(w http.ResponseWriter, r *http.Request) {
	list, err := h.PropertySvc.List(r.Context(), r.URL.Query().Get("refresh") == "1")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, list)
}

func (h *dashboardHandlers) ListDashboards(w http.ResponseWriter, r *http.Request) {
	names, err := h.RenderSvc.Available(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, names)
}
