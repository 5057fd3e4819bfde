package client

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// zerologLeveledLogger routes retryablehttp's logs into zerolog.
type zerologLeveledLogger struct{}

func (zerologLeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	withFields(log.Error(), keysAndValues).Msg(msg)
}

func (zerologLeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	withFields(log.Debug(), keysAndValues).Msg(msg)
}

func (zerologLeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	withFields(log.Trace(), keysAndValues).Msg(msg)
}

func (zerologLeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	withFields(log.Warn(), keysAndValues).Msg(msg)
}

func withFields(event *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, keysAndValues[i+1])
	}
	return event
}
