package vertexclient

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

const agentService = "vertex"

const agentSystemPrompt = `You are an analytics agent for a Google Analytics 4 and Google Ads dashboard.
Answer the user's question and return ONLY a JSON object of this shape:
{
  "output": {
    "answer": "<short answer>",
    "whatsnext": "<suggested next step>",
    "order": {"<section key>": <integer priority>},
    "explanations": {"<section key>": "<one sentence about the section>"}
  },
  "json": {
    "version": "1.0",
    "user_question": "<the question>",
    "theme": {"mode": "dark", "accent": "#27E1FF", "brand": "<brand>"},
    "period": {"start": "YYYY-MM-DD", "end": "YYYY-MM-DD", "compare": {"type": "previous_period"}},
    "filters": [{"field": "<field>", "operator": "<op>", "value": "<value or list>"}],
    "layout": {"columns": 12, "cards_order": ["<card id>", "..."]},
    "cards": [<card>, "..."],
    "agent_summary": "<summary>"
  }
}
Card types: metric {metric:{value,unit,format,delta:{value,direction,vs},annotation}},
chart {viz, series:[{label,axis,data:[[x,y],...]}], compare_series},
table {columns, rows}, insight {items:[{emoji,text}]}, callout {variant, body}.
Every card has id, type, title, subtitle, layout.colSpan (1-12) and agent_summary.
Titles start with a section name followed by " • ", for example "Acquisition • ROAS".
Section keys in order and explanations are the lowercased section names.`

type generator interface {
	GenerateContent(ctx context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error)
}

// Agent answers dashboard questions with a Vertex model instead of a webhook.
type Agent struct {
	gen         generator
	temperature float32
}

func NewAgent(gen generator) *Agent {
	return &Agent{gen: gen, temperature: 0.2}
}

// Ask returns the model's wrapper document as raw JSON bytes, the same contract
// as the agent webhook.
func (a *Agent) Ask(ctx context.Context, req dto.AgentRequest) ([]byte, error) {
	log := logger.FromContext(ctx)
	msg, err := json.Marshal(req)
	if err != nil {
		return nil, errs.NewValidationError("question is not encodable")
	}

	resp, err := a.gen.GenerateContent(ctx, dto.VertexGenerateRequest{
		System:       agentSystemPrompt,
		UserMessage:  string(msg),
		ResponseJSON: true,
		Temperature:  helpers.Ptr(a.temperature),
	})
	if err != nil {
		log.Error("vertex generate failed", "error", err)
		return nil, errs.NewExternalServiceError(agentService, "Agent error.", isTransient(err), err)
	}
	log.Info("vertex generate result", "finish_reason", resp.FinishReason, "bytes", len(resp.Text))

	text := stripFence(resp.Text)
	if text == "" {
		return nil, errs.NewExternalServiceError(agentService, "Agent returned an empty answer.", false, nil)
	}
	return []byte(text), nil
}

func isTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	}
	return false
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
