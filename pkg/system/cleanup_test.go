//go:build unit || !integration

package system

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/CoopHive/bacalhau/pkg/logger"
)

type SystemCleanupSuite struct {
	suite.Suite
}

// In order for 'go test' to run this suite, we need to create
// a normal test function and pass our suite to suite.Run
func TestSystemCleanupSuite(t *testing.T) {
	suite.Run(t, new(SystemCleanupSuite))
}

// Before each test
func (suite *SystemCleanupSuite) SetupTest() {
	logger.ConfigureTestLogging(suite.T())
}

func (suite *SystemCleanupSuite) TestCleanupManager() {
	clean := false

	cm := NewCleanupManager()
	cm.RegisterCallback(func() error {
		clean = true
		return nil
	})

	cm.Cleanup(context.Background())
	require.True(suite.T(), clean, "cleanup handler failed to run registered functions")
}

func (suite *SystemCleanupSuite) TestCleanupManagerWithContext() {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")

	var seen atomic.Value
	cm := NewCleanupManager()
	cm.RegisterCallbackWithContext(func(ctx context.Context) error {
		seen.Store(ctx.Value(key{}))
		return errors.New("failing callbacks are logged, not returned")
	})
	cm.RegisterCallback(func() error { return context.Canceled })

	cm.Cleanup(ctx)
	suite.Equal("value", seen.Load())
}

func (suite *SystemCleanupSuite) TestCleanupRunsOnce() {
	var calls int32
	cm := NewCleanupManager()
	cm.RegisterCallback(func() error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	cm.Cleanup(context.Background())
	cm.Cleanup(context.Background())
	cm.RegisterCallback(func() error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	suite.Equal(int32(1), atomic.LoadInt32(&calls))
}
