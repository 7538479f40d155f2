package agent

import (
	"errors"
	"fmt"

	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/llm"
)

var (
	// ErrBusy is returned by Send while a round is in flight.
	ErrBusy = errors.New("a request is already in progress")
	// ErrRoundLimitExceeded is returned when the model keeps asking for tools
	// past the configured number of rounds.
	ErrRoundLimitExceeded = errors.New("round limit exceeded")
)

// StreamErrorAction describes how a failed round should be handled.
type StreamErrorAction struct {
	Retry bool
	Err   errs.Error
}

// ActionForStreamError decides whether a failed completion request should be
// retried. attempt counts the retries already made.
func ActionForStreamError(err error, attempt, maxRetries int) StreamErrorAction {
	var terr *llm.TransportError
	if errors.As(err, &terr) {
		return StreamErrorAction{
			Retry: terr.Retryable() && attempt < maxRetries,
			Err:   errs.Error{Err: err, Reason: terr.Reason()},
		}
	}
	return StreamErrorAction{
		Err: errs.Error{Err: err, Reason: "There was a problem with the LLM API request."},
	}
}

func roundLimitError(limit int) error {
	return errs.Error{
		Err:    fmt.Errorf("%w: model still requesting tools after %d rounds", ErrRoundLimitExceeded, limit),
		Reason: "The model kept calling tools; stopped. Raise max-rounds to allow more.",
	}
}
