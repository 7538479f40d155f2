package agent

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dotcommander/yagent/internal/llm"
	"github.com/dotcommander/yagent/internal/proto"
	"github.com/dotcommander/yagent/internal/stream"
	"github.com/dotcommander/yagent/internal/tools"
)

// DefaultMaxRounds bounds the rounds of a single Send.
const DefaultMaxRounds = 16

// DefaultSystemPrompt is the instruction sent ahead of the conversation.
const DefaultSystemPrompt = "You are a helpful terminal agent. Use tools when needed. Prefer concise answers. " +
	"Tools available: google_search (for web snippets), ai_pipe (proxy API), js_exec (sandboxed JS). " +
	"When you call tools, ask only for what you need and then integrate results before continuing. " +
	"Continue calling tools until the task is complete. " +
	"If the user asks for recent, latest, today or news information, prioritize calling google_search first, then synthesize."

// State is the session's position in its state machine.
type State int

// Session states.
const (
	Idle State = iota
	Streaming
)

func (s State) String() string {
	if s == Streaming {
		return "streaming"
	}
	return "idle"
}

// Outcome is how a Send ended.
type Outcome int

// Send outcomes.
const (
	// Done means the model answered without requesting tools.
	Done Outcome = iota
	// Cancelled means ctx was cancelled; partial text was kept.
	Cancelled
	// RoundLimit means the round cap was hit.
	RoundLimit
	// Failed means the completion request itself failed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Cancelled:
		return "cancelled"
	case RoundLimit:
		return "round limit"
	case Failed:
		return "failed"
	default:
		return "done"
	}
}

// Streamer opens streamed completions. *llm.Client satisfies it.
type Streamer interface {
	Stream(ctx context.Context, req llm.Request) (stream.Stream, error)
}

// Toolbox lists and runs tools. *tools.Dispatcher satisfies it.
type Toolbox interface {
	Schema() []mcp.Tool
	Dispatch(ctx context.Context, calls []proto.ToolCall, snap tools.Snapshot) []proto.ToolResult
}

// Config holds the session settings.
type Config struct {
	Model string
	// System is sent as the first message of every request. Empty means
	// DefaultSystemPrompt.
	System     string
	MaxRounds  int
	MaxRetries int
	// RetryDelay is multiplied by the attempt number between retries.
	RetryDelay time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.obs = o }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithHistory seeds the conversation, for resumed sessions.
func WithHistory(msgs []proto.Message) Option {
	return func(s *Session) { s.store = NewStore(msgs...) }
}

// Session is one conversation with the model.
type Session struct {
	cfg    Config
	client Streamer
	tools  Toolbox
	obs    Observer
	log    logr.Logger
	schema []llm.ToolSchema

	mu    sync.Mutex
	state State
	store *Store
}

// New creates an idle session.
func New(client Streamer, toolbox Toolbox, cfg Config, opts ...Option) *Session {
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.System == "" {
		cfg.System = DefaultSystemPrompt
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if toolbox == nil {
		toolbox = tools.NewDispatcher()
	}
	s := &Session{
		cfg:    cfg,
		client: client,
		tools:  toolbox,
		obs:    NopObserver{},
		log:    logr.Discard(),
		store:  NewStore(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if schema := toolbox.Schema(); len(schema) > 0 {
		s.schema = llm.FromMCPTools(schema)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the conversation.
func (s *Session) Messages() []proto.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Messages()
}

// Clear empties the conversation. It returns ErrBusy while streaming.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Streaming {
		return ErrBusy
	}
	s.store.Reset()
	return nil
}

// Send appends userText, if any, and runs rounds until the model stops
// asking for tools. An empty userText continues the conversation as is.
//
// Cancelling ctx aborts the in-flight request; whatever text had arrived is
// kept as the assistant's answer and Send returns Cancelled with a nil error.
func (s *Session) Send(ctx context.Context, userText string) (Outcome, error) {
	s.mu.Lock()
	if s.state == Streaming {
		s.mu.Unlock()
		return Failed, ErrBusy
	}
	s.state = Streaming
	userText = strings.TrimSpace(userText)
	if userText != "" {
		s.store.Append(proto.Message{Role: proto.RoleUser, Content: userText})
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
	}()

	for round := 1; ; round++ {
		if round > s.cfg.MaxRounds {
			return RoundLimit, roundLimitError(s.cfg.MaxRounds)
		}
		s.obs.OnRound(round)

		var hintFrom string
		if round == 1 {
			hintFrom = userText
		}
		text, calls, err := s.round(ctx, round, hintFrom)
		if ctx.Err() != nil {
			s.log.V(1).Info("round cancelled", "round", round, "partial", len(text))
			if text != "" {
				s.append(proto.Message{Role: proto.RoleAssistant, Content: text})
			}
			return Cancelled, nil
		}
		if err != nil {
			return Failed, err
		}

		if len(calls) == 0 {
			s.append(proto.Message{Role: proto.RoleAssistant, Content: text})
			return Done, nil
		}

		snap := tools.NewSnapshot(s.Messages())
		results := s.tools.Dispatch(ctx, calls, snap)

		msgs := make([]proto.Message, 0, len(results)+1)
		msgs = append(msgs, proto.Message{Role: proto.RoleAssistant, Content: text, ToolCalls: calls})
		for i, res := range results {
			s.obs.OnToolResult(calls[i], res)
			msgs = append(msgs, res.Message())
		}
		s.append(msgs...)

		if ctx.Err() != nil {
			return Cancelled, nil
		}
	}
}

func (s *Session) append(msgs ...proto.Message) {
	s.mu.Lock()
	s.store.Append(msgs...)
	s.mu.Unlock()
}

// round sends the conversation once and folds the reply. Failures to open
// the stream are retried while they are retryable.
func (s *Session) round(ctx context.Context, n int, hintFrom string) (string, []proto.ToolCall, error) {
	req := s.request(hintFrom)
	log := s.log.WithValues("round", n)

	var st stream.Stream
	for attempt := 0; ; attempt++ {
		var err error
		st, err = s.client.Stream(ctx, req)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		action := ActionForStreamError(err, attempt, s.cfg.MaxRetries)
		if !action.Retry {
			return "", nil, action.Err
		}
		log.Info("retrying completion request", "attempt", attempt+1, "error", err.Error())
		s.obs.OnNotice(Notice{Kind: NoticeRetrying, Message: action.Err.Reason})
		if err := sleep(ctx, time.Duration(attempt+1)*s.cfg.RetryDelay); err != nil {
			return "", nil, err
		}
	}
	defer st.Close() //nolint:errcheck

	acc := stream.NewAccumulator(
		stream.WithTextObserver(s.obs.OnText),
		stream.WithIDBase(strconv.Itoa(len(req.Messages))),
	)
	for st.Next() {
		d, err := st.Current()
		if err != nil {
			break
		}
		acc.Add(d)
	}
	text, calls := acc.Result()
	if err := st.Err(); err != nil {
		if ctx.Err() != nil {
			return text, nil, ctx.Err()
		}
		return text, nil, ActionForStreamError(err, 0, 0).Err
	}
	log.V(1).Info("round finished", "text", len(text), "calls", len(calls))
	return text, calls, nil
}

// request builds the outbound view: system prompt, the stored conversation
// and, for rounds started by user text, the steering hint.
func (s *Session) request(hintFrom string) llm.Request {
	s.mu.Lock()
	history := s.store.Messages()
	s.mu.Unlock()

	msgs := make([]proto.Message, 0, len(history)+2)
	msgs = append(msgs, proto.Message{Role: proto.RoleSystem, Content: s.cfg.System})
	msgs = append(msgs, history...)
	if hint, ok := SteeringHint(hintFrom); ok {
		msgs = append(msgs, hint)
	}
	return llm.Request{
		Model:    s.cfg.Model,
		Messages: msgs,
		Tools:    s.schema,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
