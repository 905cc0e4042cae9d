package vertexclient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
)

type fakeGenerator struct {
	resp    dto.VertexGenerateResponse
	err     error
	lastReq dto.VertexGenerateRequest
}

func (f *fakeGenerator) GenerateContent(_ context.Context, req dto.VertexGenerateRequest) (dto.VertexGenerateResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func TestAgentAsk_ReturnsWrapper(t *testing.T) {
	gen := &fakeGenerator{resp: dto.VertexGenerateResponse{Text: "```json\n{\"json\":{\"version\":\"1\",\"cards\":[]}}\n```", FinishReason: "FinishReasonStop"}}
	agent := NewAgent(gen)

	body, err := agent.Ask(helpers.TestCtx(), dto.AgentRequest{Question: "ROAS?", PropertyID: "7"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"json":{"version":"1","cards":[]}}` {
		t.Errorf("unexpected body %s", body)
	}
	if !gen.lastReq.ResponseJSON {
		t.Error("expected JSON response mode")
	}
	var sent dto.AgentRequest
	if err := json.Unmarshal([]byte(gen.lastReq.UserMessage), &sent); err != nil {
		t.Fatalf("user message is not JSON: %v", err)
	}
	if sent.Question != "ROAS?" || sent.PropertyID != "7" {
		t.Errorf("unexpected user message %+v", sent)
	}
}

func TestAgentAsk_TransientError(t *testing.T) {
	gen := &fakeGenerator{err: status.Error(codes.Unavailable, "busy")}

	_, err := NewAgent(gen).Ask(helpers.TestCtx(), dto.AgentRequest{Question: "q"})
	var ese *errs.ExternalServiceError
	if !errors.As(err, &ese) {
		t.Fatalf("expected ExternalServiceError, got %T: %v", err, err)
	}
	if !ese.Transient {
		t.Error("expected unavailable to be transient")
	}
}

func TestAgentAsk_EmptyText(t *testing.T) {
	gen := &fakeGenerator{resp: dto.VertexGenerateResponse{Text: "  "}}

	_, err := NewAgent(gen).Ask(helpers.TestCtx(), dto.AgentRequest{Question: "q"})
	var ese *errs.ExternalServiceError
	if !errors.As(err, &ese) {
		t.Fatalf("expected ExternalServiceError, got %T: %v", err, err)
	}
}

func TestStripFence(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```json\n{\"a\":1}```":   `{"a":1}`,
		"  \n{\"a\":1}\n  ":       `{"a":1}`,
	}
	for in, want := range cases {
		if got := stripFence(in); got != want {
			t.Errorf("stripFence(%q) = %q, want %q", in, got, want)
		}
	}
}
