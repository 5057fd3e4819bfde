package types

import "time"

const (
	DefaultAPIURL        = "http://localhost:8081"
	DefaultAPITimeout    = Duration(30 * time.Second)
	DefaultWatchInterval = Duration(10 * time.Second)
)

var Default = JobViewConfig{
	API: APIConfig{
		URL:     DefaultAPIURL,
		Timeout: DefaultAPITimeout,
		Retries: 0,
	},
	Watch: WatchConfig{
		Interval: DefaultWatchInterval,
	},
}
