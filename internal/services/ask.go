package services

import (
	"context"
	"strings"
	"time"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/internal/metrics"
	"github.com/GregMSThompson/agent-dashboard/internal/properties"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

// Agent reply errors.
const (
	MsgMissingQuestion = "Missing 'question' in JSON body."
	MsgAgentNotJSON    = "Webhook returned non-JSON / invalid JSON."
	MsgAgentMissingKey = "Webhook JSON missing 'json' (dashboard)."
)

// agentClient sends a question to the agent backend and returns its raw reply.
type agentClient interface {
	Ask(ctx context.Context, req dto.AgentRequest) ([]byte, error)
}

type payloadRenderer interface {
	RenderPayload(ctx context.Context, payload any, persisted string) (dto.RenderResponse, error)
}

type askService struct {
	agent    agentClient
	renderer payloadRenderer
	backend  string
}

func NewAskService(agent agentClient, renderer payloadRenderer, backend string) *askService {
	return &askService{agent: agent, renderer: renderer, backend: backend}
}

// Ask forwards the question with its property context to the agent and renders
// the wrapper it returns. persisted is the caller's stored selection token.
func (s *askService) Ask(ctx context.Context, req dto.AskRequest, persisted string) (dto.RenderResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return dto.RenderResponse{}, errs.NewValidationError(MsgMissingQuestion)
	}

	persisted = properties.Canonicalize(persisted)
	agentReq := dto.AgentRequest{
		Question:     question,
		Dashboard:    req.Dashboard,
		PropertyID:   propertyContext(req, persisted),
		PropertyFull: helpers.FirstNonEmpty(req.PropertyFull, persisted),
	}
	log, ctx := logger.With(ctx, "backend", s.backend, "property_id", agentReq.PropertyID)

	started := time.Now()
	body, err := s.agent.Ask(ctx, agentReq)
	if err != nil {
		metrics.RecordAsk(s.backend, "agent_error", started)
		return dto.RenderResponse{}, err
	}

	wrapper, err := parseAgentReply(body)
	if err != nil {
		log.Warn("agent reply rejected", "error", err, "body_head", helpers.Head(body, 300))
		metrics.RecordAsk(s.backend, "bad_reply", started)
		return dto.RenderResponse{}, err
	}
	metrics.RecordAsk(s.backend, "ok", started)

	return s.renderer.RenderPayload(ctx, wrapper, persisted)
}

// propertyContext picks the numeric property id: explicit, then derived from the
// full token, then from the stored selection.
func propertyContext(req dto.AskRequest, persisted string) string {
	if id := strings.TrimSpace(req.PropertyID); id != "" {
		return id
	}
	if req.PropertyFull != "" {
		return properties.NumericID(req.PropertyFull)
	}
	return properties.NumericID(persisted)
}

// parseAgentReply accepts a wrapper object carrying "json", the same object
// inside a list, a {"body": "<json text>"} envelope or an {"items": [{"json": …}]}
// envelope.
func parseAgentReply(body []byte) (map[string]any, error) {
	v, ok := helpers.DecodeLoose(body)
	if !ok {
		return nil, errs.NewExternalServiceError("agent", MsgAgentNotJSON, false, nil)
	}

	var candidate map[string]any
	switch x := v.(type) {
	case map[string]any:
		candidate = x
	case []any:
		if len(x) > 0 {
			candidate, _ = x[0].(map[string]any)
		}
	}
	if candidate == nil {
		return nil, errs.NewExternalServiceError("agent", MsgAgentNotJSON, false, nil)
	}
	if _, ok := candidate["json"]; ok {
		return candidate, nil
	}

	if text, ok := candidate["body"].(string); ok {
		if inner, ok := helpers.DecodeLoose([]byte(text)); ok {
			if m, ok := inner.(map[string]any); ok {
				if _, ok := m["json"]; ok {
					return m, nil
				}
			}
		}
	}
	if items, ok := candidate["items"].([]any); ok && len(items) > 0 {
		if first, ok := items[0].(map[string]any); ok {
			if m, ok := first["json"].(map[string]any); ok {
				if _, ok := m["json"]; ok {
					return m, nil
				}
			}
		}
	}
	return nil, errs.NewExternalServiceError("agent", MsgAgentMissingKey, false, nil)
}
