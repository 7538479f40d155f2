// Package agent contains yagent's core (non-UI) loop.
//
// A Session sends the conversation to the model, folds the streamed reply,
// runs any requested tools concurrently, appends their results and goes
// again until the model answers without asking for tools.
package agent
