//go:build unit || !integration

package jobdetail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/multierr"

	"github.com/CoopHive/bacalhau/pkg/bacerrors"
	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/jobview"
	"github.com/CoopHive/bacalhau/pkg/logger"
	"github.com/CoopHive/bacalhau/pkg/model"
	"github.com/CoopHive/bacalhau/pkg/moderation"
)

const (
	jobID       = "9304c616-291f-41ad-b862-54e133c0149e"
	requesterID = "QmRequester"
)

func jobInfo(status string) *types.JobInfo {
	executionRequest := types.ModerationRequest{ID: 1, JobID: jobID, Type: types.ModerationTypeExecution}
	return &types.JobInfo{
		Job: model.Job{
			Metadata: model.Metadata{ID: jobID},
			Status:   model.JobStatus{Requester: model.JobRequester{RequesterNodeID: requesterID}},
		},
		State: *model.NewJobState([]string{"QmCancelled", "QmLive"}, map[string]model.JobNodeState{
			"QmCancelled": {Shards: map[int]model.JobShardState{0: {State: model.JobStateCancelled}}},
			"QmLive":      {Shards: map[int]model.JobShardState{0: {State: model.JobStateRunning, Status: status}}},
		}),
		Events: []model.JobEvent{
			{SourceNodeID: requesterID, EventName: model.JobEventCreated},
			{SourceNodeID: "QmLive", TargetNodeID: requesterID, EventName: model.JobEventBid},
		},
		Requests: []types.ModerationRequest{
			executionRequest,
			{ID: 2, JobID: jobID, Type: types.ModerationTypeResult},
		},
		Moderations: []types.JobModerationSummary{
			{Request: &executionRequest, Moderation: &types.Moderation{ID: 5, RequestID: 1, Status: true}},
		},
	}
}

type OrchestratorSuite struct {
	suite.Suite
	api      *fakeAPI
	errors   *recordingErrorHandler
	notified []moderation.Notification
	subject  *Orchestrator
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.api = newFakeAPI()
	s.api.info = func(int, string) (*types.JobInfo, error) { return jobInfo("running"), nil }
	s.api.inputs = func(string) ([]types.JobRelation, error) {
		return []types.JobRelation{{CID: "a", JobID: "1"}, {CID: "b", JobID: "2"}, {CID: "a", JobID: "3"}}, nil
	}
	s.errors = &recordingErrorHandler{}
	s.notified = nil
	s.subject = New(Params{
		API:          s.api,
		Session:      anyUser{},
		ErrorHandler: s.errors,
		Notifier:     moderation.NotifierFunc(func(n moderation.Notification) { s.notified = append(s.notified, n) }),
	})
}

func (s *OrchestratorSuite) TestViewUnavailableBeforeLoad() {
	view, ok := s.subject.View()
	s.False(ok)
	s.Nil(view)
	s.ErrorIs(s.subject.Refresh(context.Background()), ErrNoJob)
	s.Error(s.subject.Load(context.Background(), ""))
}

func (s *OrchestratorSuite) TestLoad() {
	s.Require().NoError(s.subject.Load(context.Background(), jobID))

	view, ok := s.subject.View()
	s.Require().True(ok)
	s.Equal(jobID, view.JobID)
	s.Equal(requesterID, view.RequesterNodeID)
	s.Equal([]string{"QmLive", "QmCancelled"}, view.NodeOrder)
	s.Len(view.Nodes, 2)
	s.Equal(jobview.OriginRequester, view.Timeline[0].Origin)
	s.Equal(jobview.OriginWorker, view.Timeline[1].Origin)
	s.Equal([]string{"a", "b"}, view.Inputs.Keys())
	s.True(view.InputsLoaded)
	s.True(view.OutputsLoaded)
	s.Equal(0, view.Outputs.Len())
	s.Require().Len(view.Panels, 2)
	s.Len(view.Panels[0].Moderations, 1)
	s.Empty(view.Panels[1].Moderations)
	s.Equal(moderation.PhaseIdle, view.Moderation.Phase)

	s.Equal(1, s.api.Calls(ResourceJobInfo))
	s.Equal(1, s.api.Calls(ResourceInputs))
	s.Equal(1, s.api.Calls(ResourceOutputs))
	s.Empty(s.errors.All())
}

func (s *OrchestratorSuite) TestFailuresAreIsolated() {
	infoErr := errors.New("info unavailable")
	outputsErr := errors.New("outputs unavailable")
	s.api.info = func(call int, _ string) (*types.JobInfo, error) {
		if call == 1 {
			return nil, infoErr
		}
		return jobInfo("running"), nil
	}
	s.api.outputs = func(string) ([]types.JobRelation, error) { return nil, outputsErr }

	err := s.subject.Load(context.Background(), jobID)
	s.Require().Error(err)
	s.Len(multierr.Errors(err), 2)
	s.ErrorIs(err, infoErr)
	s.ErrorIs(err, outputsErr)

	_, ok := s.subject.View()
	s.False(ok, "the view needs job information")

	reported := s.errors.All()
	s.Len(reported, 2)
	s.ElementsMatch([]Resource{ResourceJobInfo, ResourceOutputs}, []Resource{reported[0].Resource, reported[1].Resource})

	// the inputs that did load are shown once job information arrives
	s.Require().NoError(s.subject.Refresh(context.Background()))
	view, ok := s.subject.View()
	s.Require().True(ok)
	s.Equal(3, view.Inputs.Total())
	s.True(view.InputsLoaded)
	s.False(view.OutputsLoaded)
}

func (s *OrchestratorSuite) TestRefreshOnlyFetchesJobInfo() {
	s.Require().NoError(s.subject.Load(context.Background(), jobID))
	s.api.info = func(int, string) (*types.JobInfo, error) { return jobInfo("finished"), nil }

	s.Require().NoError(s.subject.Refresh(context.Background()))
	s.Require().NoError(s.subject.Reload(context.Background()))

	s.Equal(3, s.api.Calls(ResourceJobInfo))
	s.Equal(1, s.api.Calls(ResourceInputs))
	s.Equal(1, s.api.Calls(ResourceOutputs))

	view, _ := s.subject.View()
	s.Equal("finished", view.Nodes[0].Shards[0].Status)
}

func (s *OrchestratorSuite) TestStaleResponseIsDropped() {
	s.Require().NoError(s.subject.Load(context.Background(), jobID))

	release := make(chan struct{})
	started := make(chan struct{})
	s.api.info = func(call int, _ string) (*types.JobInfo, error) {
		if call == 2 {
			close(started)
			<-release
			return jobInfo("stale"), nil
		}
		return jobInfo("fresh"), nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.NoError(s.subject.Refresh(context.Background()))
	}()
	<-started

	s.Require().NoError(s.subject.Refresh(context.Background()))
	close(release)
	wg.Wait()

	view, _ := s.subject.View()
	s.Equal("fresh", view.Nodes[0].Shards[0].Status)
}

func (s *OrchestratorSuite) TestStaleErrorIsNotReported() {
	s.Require().NoError(s.subject.Load(context.Background(), jobID))

	release := make(chan struct{})
	started := make(chan struct{})
	s.api.info = func(call int, _ string) (*types.JobInfo, error) {
		if call == 2 {
			close(started)
			<-release
			return nil, errors.New("too late")
		}
		return jobInfo("fresh"), nil
	}

	done := make(chan error, 1)
	go func() { done <- s.subject.Refresh(context.Background()) }()
	<-started
	s.Require().NoError(s.subject.Refresh(context.Background()))
	close(release)

	s.Error(<-done)
	s.Empty(s.errors.All())
	view, _ := s.subject.View()
	s.Equal("fresh", view.Nodes[0].Shards[0].Status)
}

func (s *OrchestratorSuite) TestLoadingAnotherJobDropsOldResponses() {
	release := make(chan struct{})
	started := make(chan struct{})
	s.api.info = func(_ int, id string) (*types.JobInfo, error) {
		info := jobInfo(id)
		if id == "old-job" {
			close(started)
			<-release
		}
		return info, nil
	}

	done := make(chan error, 1)
	go func() { done <- s.subject.Load(context.Background(), "old-job") }()
	<-started
	s.Require().NoError(s.subject.Load(context.Background(), jobID))
	close(release)
	s.NoError(<-done)

	view, ok := s.subject.View()
	s.Require().True(ok)
	s.Equal(jobID, view.JobID)
	s.Equal(jobID, view.Nodes[0].Shards[0].Status)
	s.Equal(jobID, s.subject.JobID())
}

func (s *OrchestratorSuite) TestModerationReloadsJobInfoOnce() {
	s.Require().NoError(s.subject.Load(context.Background(), jobID))

	decision := types.ModerateRequest{Approved: true, Reason: "ok"}
	s.Require().NoError(s.subject.Moderate(context.Background(), 2, decision))

	s.Equal([]types.ModerateRequest{decision}, s.api.decisions)
	s.Equal(2, s.api.Calls(ResourceJobInfo))
	s.Equal(1, s.api.Calls(ResourceInputs))
	s.Equal([]moderation.Notification{{Level: moderation.LevelSuccess, Message: "Result approved."}}, s.notified)
	s.Equal(moderation.PhaseIdle, s.subject.Moderation().State().Phase)
}

func (s *OrchestratorSuite) TestModerateUnknownRequest() {
	s.ErrorIs(s.subject.Moderate(context.Background(), 1, types.ModerateRequest{}), ErrNoJob)

	s.Require().NoError(s.subject.Load(context.Background(), jobID))
	err := s.subject.Moderate(context.Background(), 42, types.ModerateRequest{})
	s.ErrorIs(err, bacerrors.ErrNotFound)
	s.Empty(s.api.decisions)
}

func (s *OrchestratorSuite) TestWatchRefreshesOnTrigger() {
	updates := make(chan *View, 10)
	s.subject.onUpdate = func(v *View) { updates <- v }
	s.Require().NoError(s.subject.Load(context.Background(), jobID))
	for len(updates) > 0 {
		<-updates
	}

	ctx, cancel := context.WithCancel(context.Background())
	triggers := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- s.subject.Watch(ctx, 0, triggers) }()

	triggers <- struct{}{}
	select {
	case view := <-updates:
		s.Equal(jobID, view.JobID)
	case <-time.After(5 * time.Second):
		s.Fail("no update after trigger")
	}
	s.Equal(2, s.api.Calls(ResourceJobInfo))

	cancel()
	s.NoError(<-done)
}

func (s *OrchestratorSuite) TestWatchRefreshesOnInterval() {
	s.Require().NoError(s.subject.Load(context.Background(), jobID))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.subject.Watch(ctx, time.Millisecond, nil) }()

	s.Eventually(func() bool {
		return s.api.Calls(ResourceJobInfo) >= 3
	}, 5*time.Second, 5*time.Millisecond)
}

func (s *OrchestratorSuite) TestWatchWithoutJob() {
	triggers := make(chan struct{}, 1)
	triggers <- struct{}{}
	s.ErrorIs(s.subject.Watch(context.Background(), 0, triggers), ErrNoJob)
}
