package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dotcommander/yagent/internal/config"
	"github.com/dotcommander/yagent/internal/errs"
	"github.com/dotcommander/yagent/internal/present"
)

func handleError(err error) {
	drainStdin()
	writeError(os.Stderr, present.StderrStyles(), err)
}

func writeError(w io.Writer, styles present.Styles, err error) {
	format := "\n%s\n\n"

	var ferr flagParseError
	if errors.As(err, &ferr) {
		args := []any{
			fmt.Sprintf(
				"Check out %s %s",
				styles.InlineCode.Render(config.AppName+" -h"),
				styles.Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				styles.InlineCode.Render(ferr.Flag()),
			),
		}
		fmt.Fprintf(w, format+"%s\n\n", args...)
		return
	}

	var merr errs.Error
	if errors.As(err, &merr) {
		formatArgs := []any{styles.ErrPadding.Render(styles.ErrorHeader.String(), merr.Reason)}
		if merr.Err != nil {
			format += "%s\n\n"
			formatArgs = append(formatArgs, styles.ErrPadding.Render(styles.ErrorDetails.Render(merr.Err.Error())))
		}
		fmt.Fprintf(w, format, formatArgs...)
		return
	}

	fmt.Fprintf(w, format, styles.ErrPadding.Render(styles.ErrorDetails.Render(err.Error())))
}
