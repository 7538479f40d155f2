package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dotcommander/yagent/internal/errs"
)

// AIPipe implements the ai_pipe tool: it forwards a JSON body to a proxy
// endpoint.
type AIPipe struct {
	URL        string
	Token      string
	HTTPClient *http.Client
}

type pipeArgs struct {
	Payload json.RawMessage `json:"payload"`
}

// Tool implements Handler.
func (p *AIPipe) Tool() mcp.Tool {
	return mcp.NewTool("ai_pipe",
		mcp.WithDescription("Send a JSON payload to the configured AI proxy and return its response."),
		mcp.WithObject("payload",
			mcp.Required(),
			mcp.Description("JSON body forwarded as-is"),
		),
	)
}

// Call implements Handler.
func (p *AIPipe) Call(ctx context.Context, args json.RawMessage, snap Snapshot) (any, error) {
	var in pipeArgs
	if err := decodeArgs("ai_pipe", args, &in); err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, errs.MissingCredential("aipipe-url")
	}

	payload := in.Payload
	if isEmptyJSON(payload) {
		payload = embeddedPayload(snap.RecentUserText(3))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ai_pipe: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}
	resp, err := httpClient(p.HTTPClient).Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai_pipe: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := readBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ai_pipe: read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("ai_pipe: %s: %s", resp.Status, truncate(body, maxErrorBody))
	}
	if trimmed := bytes.TrimSpace(body); json.Valid(trimmed) {
		return json.RawMessage(trimmed), nil
	}
	return map[string]string{"text": string(body)}, nil
}

// embeddedPayload pulls a JSON object out of free text, preferring one
// introduced by the word "payload".
func embeddedPayload(text string) json.RawMessage {
	if obj := ExtractJSONLabeled(text, "payload"); obj != nil {
		return obj
	}
	if obj := FindFirstJSONObject(text); obj != nil {
		return obj
	}
	return json.RawMessage("{}")
}
