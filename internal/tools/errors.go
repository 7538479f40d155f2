package tools

import "fmt"

// ArgumentParseError is returned when a call's arguments are not a JSON
// object, or don't match what the tool expects.
type ArgumentParseError struct {
	Tool string
	Err  error
}

func (e *ArgumentParseError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgumentParseError) Unwrap() error { return e.Err }

// UnknownToolError is returned for calls to tools that are not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}
