package webhookclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GregMSThompson/agent-dashboard/internal/dto"
	"github.com/GregMSThompson/agent-dashboard/internal/errs"
	"github.com/GregMSThompson/agent-dashboard/pkg/helpers"
	"github.com/GregMSThompson/agent-dashboard/pkg/logger"
)

const (
	userAgent    = "DashProxy/1.1"
	acceptJSON   = "application/json, text/html;q=0.9, */*;q=0.1"
	maxBodyBytes = 8 << 20
	logHeadBytes = 300
)

// Client talks to one webhook URL.
type Client struct {
	http    *http.Client
	url     string
	service string
}

// New returns a client for url. Redirects are followed up to five times.
func New(url, service string, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after %d redirects", len(via))
				}
				return nil
			},
		},
		url:     url,
		service: service,
	}
}

// Ask posts the question to the agent webhook and returns the raw reply body.
func (c *Client) Ask(ctx context.Context, req dto.AgentRequest) ([]byte, error) {
	log := logger.FromContext(ctx)
	if c.url == "" {
		return nil, errs.NewExternalServiceError(c.service, "Agent webhook is not configured.", false, nil)
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errs.NewValidationError("question is not encodable")
	}

	code, body, err := c.do(ctx, http.MethodPost, bytes.NewReader(payload))
	log.Info("agent webhook result", "service", c.service, "code", code, "bytes", len(body))
	if logger.IsDebugEnabled(ctx) {
		log.Debug("agent webhook body", "body_head", helpers.Head(body, logHeadBytes))
	}
	if err != nil {
		return nil, errs.NewExternalServiceError(c.service, fmt.Sprintf("Webhook error (%d).", code), true, err)
	}
	if code >= 400 {
		return nil, errs.NewExternalServiceError(c.service, fmt.Sprintf("Webhook error (%d).", code), code >= 500, nil)
	}
	return body, nil
}

// FetchProperties performs the GET against the properties webhook. The status
// code is returned even on failure so callers can report it.
func (c *Client) FetchProperties(ctx context.Context) (int, []byte, error) {
	code, body, err := c.do(ctx, http.MethodGet, nil)
	logger.FromContext(ctx).Info("properties webhook result", "service", c.service, "code", code, "bytes", len(body))
	return code, body, err
}

func (c *Client) do(ctx context.Context, method string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url, body)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", acceptJSON)
	} else {
		req.Header.Set("Accept", "application/json, */*;q=0.1")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, b, nil
}
