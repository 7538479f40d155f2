package cmd

import (
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// newLogger returns a stderr logger. Verbosity 0 discards everything and n
// enables V(n-1).
func newLogger(w io.Writer, verbosity int) logr.Logger {
	if verbosity <= 0 {
		return logr.Discard()
	}
	stdr.SetVerbosity(verbosity - 1)
	return stdr.NewWithOptions(log.New(w, "", log.LstdFlags), stdr.Options{LogCaller: stdr.None})
}
