package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/response"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

type AskService interface {
	Ask(ctx context.Context, req dto.AskRequest, persisted string) (dto.RenderResponse, error)
}

type askHandlers struct {
	ResponseHandler response.ResponseHandler
	AskSvc          AskService
	Selection       SelectionCookie
}

func NewAskHandlers(deps *Deps) *askHandlers {
	return &askHandlers{
		ResponseHandler: deps.ResponseHandler,
		AskSvc:          deps.AskSvc,
		Selection:       deps.Selection,
	}
}

func (h *askHandlers) AskRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Ask)
	return r
}

// Ask forwards a question to the agent and renders the dashboard it answers with.
// An unreadable body is treated as an empty question.
func (h *askHandlers) Ask(w http.ResponseWriter, r *http.Request) {
	var req dto.AskRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		logger.FromContext(r.Context()).Warn("ask body not decodable", "error", err)
		req = dto.AskRequest{}
	}

	resp, err := h.AskSvc.Ask(r.Context(), req, h.Selection.read(r))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if resp.SelectionChanged {
		h.Selection.write(w, resp.Selected)
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, resp)
}
