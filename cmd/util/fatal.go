package util

import (
	"math"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-wordwrap"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var red = color.New(color.FgRed)

const errorPrefix = "Error: "

// Fatal prints err and exits. Tests replace it to observe failures.
var Fatal = fatalError

func fatalError(cmd *cobra.Command, err error, code int) {
	PrintErr(cmd, err)
	os.Exit(code)
}

// PrintErr prints err in red with an "Error: " prefix, wrapped to the width
// of the terminal with continuation lines indented under the message.
func PrintErr(cmd *cobra.Command, err error) {
	msg := strings.TrimRight(err.Error(), "\n")
	if msg == "" {
		return
	}

	terminalWidth, _, termErr := term.GetSize(int(os.Stderr.Fd()))
	if termErr != nil || terminalWidth <= len(errorPrefix) {
		log.Ctx(cmd.Context()).Trace().Err(termErr).Msg("Failed to get terminal size")
		terminalWidth = math.MaxInt32
	}
	errorWidth := uint(terminalWidth - len(errorPrefix))

	red.Fprint(cmd.ErrOrStderr(), errorPrefix)
	for i, line := range strings.Split(wordwrap.WrapString(msg, errorWidth), "\n") {
		if i > 0 {
			cmd.PrintErr(strings.Repeat(" ", len(errorPrefix)))
		}
		cmd.PrintErrln(line)
	}
}
