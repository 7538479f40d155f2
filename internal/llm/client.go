// Package llm talks to OpenAI-compatible chat completion endpoints.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/tidwall/gjson"

	"github.com/dotcommander/yagent/internal/proto"
	"github.com/dotcommander/yagent/internal/sse"
	"github.com/dotcommander/yagent/internal/stream"
)

const maxErrorBody = 8 * 1024

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     logr.Logger
}

// Request is the body of a streamed chat completion request.
type Request struct {
	Model      string          `json:"model"`
	Messages   []proto.Message `json:"messages"`
	Tools      []ToolSchema    `json:"tools,omitempty"`
	ToolChoice string          `json:"tool_choice,omitempty"`
	Stream     bool            `json:"stream"`
}

// Client opens streamed completions.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logr.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    httpClient,
		log:     log,
	}
}

// Stream posts the request with streaming enabled and returns the decoded
// delta stream. Any failure before the body starts streaming is reported as
// a *TransportError.
func (c *Client) Stream(ctx context.Context, req Request) (stream.Stream, error) {
	req.Stream = true
	if len(req.Tools) > 0 && req.ToolChoice == "" {
		req.ToolChoice = "auto"
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create completion request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.log.V(1).Info("opening completion stream", "url", url, "model", req.Model, "messages", len(req.Messages), "tools", len(req.Tools))
	resp, err := c.http.Do(httpReq)
	if err != nil {
		cancel()
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bts, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		cancel()
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bts))}
	}

	parser := &sse.Parser{}
	next, stop := iter.Pull2(parser.Events(ctx, resp.Body))
	return &httpStream{
		body:   resp.Body,
		parser: parser,
		next:   next,
		stop:   stop,
		cancel: cancel,
		log:    c.log,
	}, nil
}

var _ stream.Stream = &httpStream{}

type httpStream struct {
	body   io.ReadCloser
	parser *sse.Parser
	next   func() (json.RawMessage, error, bool)
	stop   func()
	cancel context.CancelFunc
	log    logr.Logger

	cur proto.Delta
	err error
}

func (s *httpStream) Next() bool {
	if s.err != nil {
		return false
	}
	for {
		payload, err, ok := s.next()
		if !ok {
			return false
		}
		if err != nil {
			s.err = &TransportError{Err: err}
			return false
		}
		if msg := gjson.GetBytes(payload, "error.message"); msg.Exists() {
			s.err = &TransportError{Body: msg.String()}
			return false
		}
		d, ok := stream.DecodeChunk(payload)
		if !ok {
			s.log.V(2).Info("skipping chunk without delta", "payload", string(payload))
			continue
		}
		s.cur = d
		return true
	}
}

func (s *httpStream) Current() (proto.Delta, error) {
	if s.err != nil {
		return proto.Delta{}, s.err
	}
	return s.cur, nil
}

func (s *httpStream) Err() error { return s.err }

func (s *httpStream) Close() error {
	s.cancel()
	s.stop()
	if n := s.parser.Dropped(); n > 0 {
		s.log.V(1).Info("dropped malformed stream lines", "count", n)
	}
	if err := s.body.Close(); err != nil {
		return fmt.Errorf("close stream: %w", err)
	}
	return nil
}
