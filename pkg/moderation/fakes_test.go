//go:build unit || !integration

package moderation

import (
	"context"
	"sync"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
)

type moderateCall struct {
	RequestID int64
	Decision  types.ModerateRequest
}

type fakeModerator struct {
	mu     sync.Mutex
	calls  []moderateCall
	result *types.ModerateResult
	err    error
	// block, when set, holds Moderate until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeModerator) Moderate(ctx context.Context, requestID int64, decision types.ModerateRequest) (*types.ModerateResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, moderateCall{RequestID: requestID, Decision: decision})
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.result, f.err
}

func (f *fakeModerator) Calls() []moderateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]moderateCall(nil), f.calls...)
}

type fakeReloader struct {
	mu    sync.Mutex
	count int
	err   error
}

func (f *fakeReloader) Reload(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return f.err
}

func (f *fakeReloader) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *recordingNotifier) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

type staticUser struct {
	user *types.User
}

func (s staticUser) User() *types.User {
	return s.user
}
