package types

import (
	"time"
)

// JobViewConfig is the resolved configuration of the CLI.
type JobViewConfig struct {
	API   APIConfig   `yaml:"API"`
	Watch WatchConfig `yaml:"Watch"`
}

type APIConfig struct {
	// URL is the base URL of the dashboard API.
	URL string `yaml:"URL"`
	// Token is the session token used for moderation calls.
	Token   string   `yaml:"Token,omitempty"`
	Timeout Duration `yaml:"Timeout"`
	// Retries is how many times a failed read is retried.
	Retries int `yaml:"Retries"`
}

type WatchConfig struct {
	Interval Duration `yaml:"Interval"`
	// Firehose is the websocket URL of the job event stream. Empty disables it.
	Firehose string `yaml:"Firehose,omitempty"`
}

// Duration is a time.Duration that reads and writes as "30s".
type Duration time.Duration

func (d Duration) AsTimeDuration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
