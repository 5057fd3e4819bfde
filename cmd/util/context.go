package util

import (
	"context"

	"github.com/CoopHive/bacalhau/pkg/config/types"
	"github.com/CoopHive/bacalhau/pkg/system"
)

type contextKey struct {
	name string
}

var (
	SystemManagerKey = contextKey{name: "context key for storing the system manager"}
	ConfigKey        = contextKey{name: "context key for storing the resolved config"}
)

func GetCleanupManager(ctx context.Context) *system.CleanupManager {
	return ctx.Value(SystemManagerKey).(*system.CleanupManager)
}

// GetConfig returns the configuration resolved by the root command, or the
// defaults when a command runs without it.
func GetConfig(ctx context.Context) types.JobViewConfig {
	if cfg, ok := ctx.Value(ConfigKey).(types.JobViewConfig); ok {
		return cfg
	}
	return types.Default
}
