package subsubpackage

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TestLog logs from a nested package so callers can check how source paths
// are shortened.
func TestLog(ctx context.Context, errorMessage string, message string) {
	log.Ctx(ctx).Err(errors.WithStack(errors.New(errorMessage))).Msg(message)
}
