package handlers

import (
	"log/slog"

	"github.com/GregMSThompson/agent-dashboard/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	RenderSvc       RenderService
	PropertySvc     PropertyService
	AskSvc          AskService
	Selection       SelectionCookie
}
