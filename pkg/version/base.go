package version

import "runtime"

// Set via -ldflags at build time.
var (
	GITVERSION = "v0.0.0-dev"
	GITCOMMIT  = ""
	BUILDDATE  = "1970-01-01T00:00:00Z"
	GOOS       = runtime.GOOS
	GOARCH     = runtime.GOARCH
)

// TracerName is the instrumentation name used for spans and metrics.
func TracerName() string {
	return "github.com/CoopHive/bacalhau"
}
