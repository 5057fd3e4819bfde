//go:build unit || !integration

package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/logger"
)

type ControllerSuite struct {
	suite.Suite
	moderator  *fakeModerator
	reloader   *fakeReloader
	notifier   *recordingNotifier
	controller *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.moderator = &fakeModerator{result: &types.ModerateResult{Success: true}}
	s.reloader = &fakeReloader{}
	s.notifier = &recordingNotifier{}
	s.controller = s.newController(&types.User{ID: 1, Username: "moderator"})
}

func (s *ControllerSuite) newController(user *types.User) *Controller {
	return NewController(ControllerParams{
		Moderator: s.moderator,
		Reloader:  s.reloader,
		Notifier:  s.notifier,
		Session:   staticUser{user: user},
	})
}

func request(id int64, moderationType types.ModerationType) types.ModerationRequest {
	return types.ModerationRequest{ID: id, JobID: "job-1", Type: moderationType}
}

func (s *ControllerSuite) TestSubmitWithoutUserDoesNothing() {
	controller := s.newController(nil)
	s.Require().NoError(controller.Open(request(1, types.ModerationTypeExecution)))

	err := controller.Submit(context.Background(), request(1, types.ModerationTypeExecution), types.ModerateRequest{Approved: true})
	s.NoError(err)
	s.Empty(s.moderator.Calls())
	s.Zero(s.reloader.Count())
	s.Empty(s.notifier.All())
	s.Equal(PhasePromptOpen, controller.State().Phase)
}

func (s *ControllerSuite) TestSubmitWithNilSession() {
	controller := NewController(ControllerParams{Moderator: s.moderator})
	s.NoError(controller.Submit(context.Background(), request(1, types.ModerationTypeResult), types.ModerateRequest{}))
	s.Empty(s.moderator.Calls())
}

func (s *ControllerSuite) TestApprove() {
	req := request(7, types.ModerationTypeExecution)
	s.Require().NoError(s.controller.Open(req))

	decision := types.ModerateRequest{Approved: true, Reason: "looks fine"}
	s.Require().NoError(s.controller.Submit(context.Background(), req, decision))

	s.Equal([]moderateCall{{RequestID: 7, Decision: decision}}, s.moderator.Calls())
	s.Equal(1, s.reloader.Count())
	s.Equal([]Notification{{Level: LevelSuccess, Message: "Execution approved."}}, s.notifier.All())
	s.Equal(ControllerState{Phase: PhaseIdle}, s.controller.State())
}

func (s *ControllerSuite) TestReject() {
	req := request(3, types.ModerationTypeDatacap)
	s.Require().NoError(s.controller.Submit(context.Background(), req, types.ModerateRequest{Approved: false}))

	s.Len(s.moderator.Calls(), 1)
	s.Equal(1, s.reloader.Count())
	s.Equal([]Notification{{Level: LevelSuccess, Message: "Datacap not approved."}}, s.notifier.All())
}

func (s *ControllerSuite) TestRemoteFailure() {
	boom := errors.New("connection refused")
	s.moderator.err = boom

	err := s.controller.Submit(context.Background(), request(4, types.ModerationTypeResult), types.ModerateRequest{Approved: true})
	s.ErrorIs(err, boom)
	s.Zero(s.reloader.Count())
	s.Equal([]Notification{{Level: LevelError, Message: "Failed to moderate result"}}, s.notifier.All())
	s.Equal(PhaseIdle, s.controller.State().Phase)
}

func (s *ControllerSuite) TestUnsuccessfulResult() {
	s.moderator.result = &types.ModerateResult{Success: false}

	err := s.controller.Submit(context.Background(), request(4, types.ModerationTypeExecution), types.ModerateRequest{Approved: true})
	s.ErrorIs(err, errNotAccepted)
	s.Zero(s.reloader.Count())
	s.Equal([]Notification{{Level: LevelError, Message: "Failed to moderate execution"}}, s.notifier.All())
}

func (s *ControllerSuite) TestReloadFailureStillNotifiesSuccess() {
	s.reloader.err = errors.New("dashboard down")

	err := s.controller.Submit(context.Background(), request(5, types.ModerationTypeResult), types.ModerateRequest{Approved: true})
	s.ErrorIs(err, s.reloader.err)
	s.Equal(1, s.reloader.Count())
	s.Equal([]Notification{{Level: LevelSuccess, Message: "Result approved."}}, s.notifier.All())
}

func (s *ControllerSuite) TestConcurrentSubmitRejected() {
	s.moderator.block = make(chan struct{})
	s.moderator.entered = make(chan struct{}, 1)
	req := request(9, types.ModerationTypeExecution)

	done := make(chan error, 1)
	go func() {
		done <- s.controller.Submit(context.Background(), req, types.ModerateRequest{Approved: true})
	}()
	<-s.moderator.entered

	state := s.controller.State()
	s.Equal(PhaseSubmitting, state.Phase)
	s.Equal(req.ID, state.Request.ID)
	s.Equal("Allow this job to be executed?", state.Format.Title)

	s.ErrorIs(s.controller.Submit(context.Background(), req, types.ModerateRequest{Approved: false}), ErrSubmissionInFlight)
	s.ErrorIs(s.controller.Open(req), ErrSubmissionInFlight)
	s.controller.Cancel()
	s.Equal(PhaseSubmitting, s.controller.State().Phase)

	close(s.moderator.block)
	s.NoError(<-done)
	s.Len(s.moderator.Calls(), 1)
	s.Equal(1, s.reloader.Count())
	s.Len(s.notifier.All(), 1)
	s.Equal(PhaseIdle, s.controller.State().Phase)
}

func (s *ControllerSuite) TestOpenAndCancel() {
	s.Equal(PhaseIdle, s.controller.State().Phase)

	req := request(2, types.ModerationTypeDatacap)
	s.Require().NoError(s.controller.Open(req))
	state := s.controller.State()
	s.Equal(PhasePromptOpen, state.Phase)
	s.Equal(&req, state.Request)
	s.Equal(IconFilPlus, state.Format.Icon)

	s.controller.Cancel()
	s.Equal(ControllerState{Phase: PhaseIdle}, s.controller.State())

	s.controller.Cancel()
	s.Equal(PhaseIdle, s.controller.State().Phase)
}

func (s *ControllerSuite) TestOpenUnknownType() {
	s.Error(s.controller.Open(request(1, "telepathy")))
	s.Equal(PhaseIdle, s.controller.State().Phase)

	s.Error(s.controller.Submit(context.Background(), request(1, "telepathy"), types.ModerateRequest{}))
	s.Empty(s.moderator.Calls())
}

func (s *ControllerSuite) TestStateIsASnapshot() {
	s.Require().NoError(s.controller.Open(request(2, types.ModerationTypeResult)))
	state := s.controller.State()
	state.Request.ID = 99
	state.Format.Title = "changed"

	fresh := s.controller.State()
	s.Equal(int64(2), fresh.Request.ID)
	s.Equal("Allow this result to be published?", fresh.Format.Title)
}

func (s *ControllerSuite) TestNotifierFunc() {
	var got []Notification
	controller := NewController(ControllerParams{
		Moderator: s.moderator,
		Notifier:  NotifierFunc(func(n Notification) { got = append(got, n) }),
		Session:   staticUser{user: &types.User{Username: "m"}},
	})
	s.Require().NoError(controller.Submit(context.Background(), request(1, types.ModerationTypeResult), types.ModerateRequest{Approved: true}))
	s.Equal([]Notification{{Level: LevelSuccess, Message: "Result approved."}}, got)
}
