package system

import (
	"context"
	"errors"
	realsync "sync"
	"time"

	sync "github.com/bacalhau-project/golang-mutex-tracer"
	"github.com/rs/zerolog/log"
)

// CleanupManager provides utilities for ensuring that sub-goroutines can
// clean up their resources before the main goroutine exits. The CLI
// registers telemetry flushing and firehose shutdown with it.
type CleanupManager struct {
	wg realsync.WaitGroup

	fnsMutex sync.Mutex
	fns      []func() error
	ctxFns   []func(context.Context) error
	fnsDone  bool
}

// NewCleanupManager returns a new CleanupManager instance.
func NewCleanupManager() *CleanupManager {
	c := &CleanupManager{}
	c.fnsMutex.EnableTracerWithOpts(sync.Opts{
		Threshold: 10 * time.Millisecond,
		Id:        "CleanupManager.fnsMutex",
	})
	return c
}

// RegisterCallback registers a clean-up function.
func (cm *CleanupManager) RegisterCallback(fn func() error) {
	cm.fnsMutex.Lock()
	defer cm.fnsMutex.Unlock()

	if cm.fnsDone {
		log.Error().Msg("CleanupManager: RegisterCallback called after Cleanup")
		return
	}

	cm.wg.Add(1)
	cm.fns = append(cm.fns, fn)
}

// RegisterCallbackWithContext registers a clean-up function that is handed
// the context given to Cleanup.
func (cm *CleanupManager) RegisterCallbackWithContext(fn func(context.Context) error) {
	cm.fnsMutex.Lock()
	defer cm.fnsMutex.Unlock()

	if cm.fnsDone {
		log.Error().Msg("CleanupManager: RegisterCallbackWithContext called after Cleanup")
		return
	}

	cm.wg.Add(1)
	cm.ctxFns = append(cm.ctxFns, fn)
}

// Cleanup runs all registered clean-up functions in sub-goroutines and
// waits for them all to complete before exiting.
func (cm *CleanupManager) Cleanup(ctx context.Context) {
	cm.fnsMutex.Lock()
	defer cm.fnsMutex.Unlock()

	if cm.fnsDone {
		log.Ctx(ctx).Warn().Msg("CleanupManager: Cleanup called again after already called")
		return
	}

	for _, fn := range cm.fns {
		go func(fn func() error) {
			defer cm.wg.Done()
			logCleanupError(ctx, fn())
		}(fn)
	}
	for _, fn := range cm.ctxFns {
		go func(fn func(context.Context) error) {
			defer cm.wg.Done()
			logCleanupError(ctx, fn(ctx))
		}(fn)
	}

	cm.wg.Wait()
	cm.fnsDone = true
}

func logCleanupError(ctx context.Context, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Ctx(ctx).Error().Err(err).Msg("Error during clean-up callback")
	}
}
