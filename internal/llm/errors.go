package llm

import (
	"fmt"
	"net/http"
)

// TransportError is a failure of the completion request itself: a network
// error, a non-2xx status, or an error event in the middle of the stream.
// It ends the current round.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("llm request: %v", e.Err)
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("llm request: HTTP %d: %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("llm request: HTTP %d", e.StatusCode)
	default:
		return fmt.Sprintf("llm stream: %s", e.Body)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether repeating the request may succeed.
func (e *TransportError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Reason is a short user-facing description of the failure.
func (e *TransportError) Reason() string {
	switch e.StatusCode {
	case 0:
		if e.Err != nil {
			return "Could not reach the LLM API."
		}
		return "The LLM API reported an error while streaming."
	case http.StatusUnauthorized, http.StatusForbidden:
		return "The LLM API rejected the API key."
	case http.StatusNotFound:
		return "The LLM API endpoint or model was not found."
	case http.StatusTooManyRequests:
		return "The LLM API is rate limiting requests."
	case http.StatusBadRequest:
		return "The LLM API rejected the request."
	}
	if e.StatusCode >= http.StatusInternalServerError {
		return "The LLM API had a server error."
	}
	return fmt.Sprintf("The LLM API returned HTTP %d.", e.StatusCode)
}
