//go:build unit || !integration

package jobdetail

import (
	"context"
	"sync"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
)

type fakeAPI struct {
	mu sync.Mutex

	calls map[Resource]int

	info      func(call int, jobID string) (*types.JobInfo, error)
	inputs    func(jobID string) ([]types.JobRelation, error)
	outputs   func(jobID string) ([]types.JobRelation, error)
	decisions []types.ModerateRequest
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[Resource]int{}}
}

func (f *fakeAPI) count(resource Resource) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[resource]++
	return f.calls[resource]
}

func (f *fakeAPI) Calls(resource Resource) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[resource]
}

func (f *fakeAPI) GetJobInfo(_ context.Context, jobID string) (*types.JobInfo, error) {
	call := f.count(ResourceJobInfo)
	return f.info(call, jobID)
}

func (f *fakeAPI) GetJobInputs(_ context.Context, jobID string) ([]types.JobRelation, error) {
	f.count(ResourceInputs)
	if f.inputs == nil {
		return nil, nil
	}
	return f.inputs(jobID)
}

func (f *fakeAPI) GetJobOutputs(_ context.Context, jobID string) ([]types.JobRelation, error) {
	f.count(ResourceOutputs)
	if f.outputs == nil {
		return nil, nil
	}
	return f.outputs(jobID)
}

func (f *fakeAPI) Moderate(_ context.Context, _ int64, decision types.ModerateRequest) (*types.ModerateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decisions = append(f.decisions, decision)
	return &types.ModerateResult{Success: true}, nil
}

type reportedError struct {
	Resource Resource
	Err      error
}

type recordingErrorHandler struct {
	mu     sync.Mutex
	errors []reportedError
}

func (r *recordingErrorHandler) HandleError(_ context.Context, resource Resource, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, reportedError{Resource: resource, Err: err})
}

func (r *recordingErrorHandler) All() []reportedError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]reportedError(nil), r.errors...)
}

type anyUser struct{}

func (anyUser) User() *types.User {
	return &types.User{ID: 1, Username: "moderator"}
}
