package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// LogMode selects where and how log lines are written.
type LogMode string

const (
	// LogModeDefault writes human readable lines to stderr.
	LogModeDefault LogMode = "default"
	// LogModeJSON writes one JSON object per line to stdout.
	LogModeJSON LogMode = "json"
	// LogModeCombined writes both of the above.
	LogModeCombined LogMode = "combined"
	// LogModeEvent discards log lines so that only command output remains.
	LogModeEvent LogMode = "event"
)

func ParseLogMode(s string) (LogMode, error) {
	modes := []LogMode{LogModeDefault, LogModeJSON, LogModeCombined, LogModeEvent}
	for _, mode := range modes {
		if strings.EqualFold(strings.TrimSpace(s), string(mode)) {
			return mode, nil
		}
	}
	return LogModeDefault, fmt.Errorf("%q is an invalid log-mode (valid modes: %q)", s, modes)
}

var stderr = struct{ io.Writer }{os.Stderr}

const jobIDFieldName = "JobID"

func init() { //nolint:gochecknoinits // init with zerolog is idiomatic
	mode, err := ParseLogMode(os.Getenv("LOG_TYPE"))
	if err != nil {
		mode = LogModeDefault
	}
	configureLogging(mode)
}

type tTesting interface {
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
	Cleanup(f func())
}

// ConfigureTestLogging allows logs to be associated with individual tests
func ConfigureTestLogging(t tTesting) {
	oldLogger := log.Logger
	oldContextLogger := zerolog.DefaultContextLogger
	configureLogging(LogModeDefault, zerolog.ConsoleTestWriter(t))
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.DefaultContextLogger = oldContextLogger
	})
}

// ConfigureLogging reconfigures the global logger for the given mode. The
// level is still taken from LOG_LEVEL.
func ConfigureLogging(mode LogMode) {
	configureLogging(mode)
}

func configureLogging(mode LogMode, loggingOptions ...func(w *zerolog.ConsoleWriter)) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.SetGlobalLevel(levelFromEnv())

	isTerminal := isatty.IsTerminal(os.Stderr.Fd())

	defaultLogging := func(w *zerolog.ConsoleWriter) {
		w.Out = stderr
		w.NoColor = !isTerminal
		w.TimeFormat = "15:04:05.999 |"
		w.PartsOrder = []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		}
		w.FormatFieldName = func(i interface{}) string {
			return fmt.Sprintf("[%s:", i)
		}
		w.FormatFieldValue = func(i interface{}) string {
			if i == nil {
				i = ""
			}
			return fmt.Sprintf("%s]", i)
		}
	}

	loggingOptions = append([]func(w *zerolog.ConsoleWriter){defaultLogging}, loggingOptions...)
	textWriter := zerolog.NewConsoleWriter(loggingOptions...)

	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return shortCaller(file) + ":" + strconv.Itoa(line)
	}

	var useLogWriter io.Writer
	switch mode {
	case LogModeJSON:
		useLogWriter = os.Stdout
	case LogModeCombined:
		useLogWriter = zerolog.MultiLevelWriter(textWriter, os.Stdout)
	case LogModeEvent:
		useLogWriter = io.Discard
	default:
		useLogWriter = textWriter
	}

	log.Logger = zerolog.New(useLogWriter).With().Timestamp().Caller().Stack().Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "error":
		return zerolog.ErrorLevel
	case "warn":
		return zerolog.WarnLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// shortCaller keeps the last two directories of a source path.
func shortCaller(file string) string {
	const separatorCount = 2
	counted := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			counted++
			if counted > separatorCount {
				return file[i+1:]
			}
		}
	}
	return file
}

// ContextWithJobIDLogger returns a context whose logger tags every line with
// the (shortened) job ID.
func ContextWithJobIDLogger(ctx context.Context, jobID string) context.Context {
	if len(jobID) > 8 { //nolint:gomnd
		jobID = jobID[:8]
	}
	l := log.Ctx(ctx).With().Str(jobIDFieldName, jobID).Logger()
	return l.WithContext(ctx)
}
