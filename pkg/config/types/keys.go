package types

const (
	API           = "api"
	APIURL        = "api.url"
	APIToken      = "api.token"
	APITimeout    = "api.timeout"
	APIRetries    = "api.retries"
	Watch         = "watch"
	WatchInterval = "watch.interval"
	WatchFirehose = "watch.firehose"
)

// AllKeys lists every leaf key, in the order they are documented.
func AllKeys() []string {
	return []string{APIURL, APIToken, APITimeout, APIRetries, WatchInterval, WatchFirehose}
}
