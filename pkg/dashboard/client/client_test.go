//go:build unit || !integration

package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/CoopHive/bacalhau/pkg/bacerrors"
	"github.com/CoopHive/bacalhau/pkg/dashboard/client"
	"github.com/CoopHive/bacalhau/pkg/dashboard/dashboardtest"
	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/logger"
	"github.com/CoopHive/bacalhau/pkg/model"
	"github.com/CoopHive/bacalhau/pkg/session"
)

type ClientSuite struct {
	suite.Suite
	server  *dashboardtest.Server
	job     dashboardtest.Job
	session *session.Session
	client  *client.APIClient
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	s.server = dashboardtest.NewServer(s.T())
	s.job = dashboardtest.NewJob()
	s.server.AddJob(s.job)
	s.session = session.New()
	s.client = client.NewAPIClient(s.server.URL, client.Options{Timeout: 5 * time.Second, Session: s.session})
}

func (s *ClientSuite) jobID() string {
	return s.job.Info.Job.ID()
}

func (s *ClientSuite) TestGetJobInfo() {
	info, err := s.client.GetJobInfo(context.Background(), s.jobID())
	s.Require().NoError(err)

	s.Equal(s.jobID(), info.Job.ID())
	s.Equal(dashboardtest.RequesterNodeID, info.Job.RequesterNodeID())
	s.Equal([]string{dashboardtest.ComputeNodeB, dashboardtest.ComputeNodeA}, info.State.NodeIDs())
	s.Equal(model.JobStateCancelled, info.State.Nodes[dashboardtest.ComputeNodeB].Shards[0].State)
	s.Len(info.Events, 4)
	s.Equal(model.JobEventBidAccepted, info.Events[2].EventName)
	s.Require().Len(info.Requests, 1)
	s.Equal(types.ModerationTypeExecution, info.Requests[0].Type)
	s.Empty(info.Moderations)
}

func (s *ClientSuite) TestGetJobRelations() {
	inputs, err := s.client.GetJobInputs(context.Background(), s.jobID())
	s.Require().NoError(err)
	s.Equal(s.job.Inputs, inputs)

	outputs, err := s.client.GetJobOutputs(context.Background(), s.jobID())
	s.Require().NoError(err)
	s.NotNil(outputs)
	s.Empty(outputs)
}

func (s *ClientSuite) TestUnknownJobIsNotFound() {
	_, err := s.client.GetJobInfo(context.Background(), "does-not-exist")
	s.Require().Error(err)
	s.True(errors.Is(err, bacerrors.ErrNotFound))

	var response *bacerrors.ErrorResponse
	s.Require().True(errors.As(err, &response))
	s.Equal(http.StatusNotFound, response.StatusCode)
	s.Equal(bacerrors.ErrorCodeJobNotFound, response.Code)
}

func (s *ClientSuite) TestPlainTextErrorIsWrapped() {
	s.server.FailNext(dashboardtest.RouteOutputs, http.StatusBadRequest)

	_, err := s.client.GetJobOutputs(context.Background(), s.jobID())
	var response *bacerrors.ErrorResponse
	s.Require().True(errors.As(err, &response))
	s.Equal(http.StatusBadRequest, response.StatusCode)
	s.Equal(bacerrors.UnknownError, response.Code)
	s.Equal("job-outputs failed", response.Message)
	s.False(errors.Is(err, bacerrors.ErrNotFound))
}

func (s *ClientSuite) TestGetIsRetried() {
	retrying := client.NewAPIClient(s.server.URL, client.Options{Retries: 1})
	s.server.FailNext(dashboardtest.RouteJobInfo, http.StatusServiceUnavailable)

	info, err := retrying.GetJobInfo(context.Background(), s.jobID())
	s.Require().NoError(err)
	s.Equal(s.jobID(), info.Job.ID())
	s.Equal(2, s.server.Calls(dashboardtest.RouteJobInfo))
}

func (s *ClientSuite) TestGetIsNotRetriedByDefault() {
	s.server.FailNext(dashboardtest.RouteJobInfo, http.StatusServiceUnavailable)

	_, err := s.client.GetJobInfo(context.Background(), s.jobID())
	s.Require().Error(err)
	s.Equal(1, s.server.Calls(dashboardtest.RouteJobInfo))
}

func (s *ClientSuite) TestModerate() {
	token, err := s.server.AddUser("moderator")
	s.Require().NoError(err)
	s.session.Start(&types.User{Username: "moderator"}, token)

	request := s.job.Info.Requests[0]
	result, err := s.client.Moderate(context.Background(), request.ID, types.ModerateRequest{Reason: "looks fine", Approved: true})
	s.Require().NoError(err)
	s.True(result.Success)

	info, ok := s.server.Job(s.jobID())
	s.Require().True(ok)
	s.Require().Len(info.Moderations, 1)
	recorded := info.Moderations[0]
	s.Equal(request.ID, recorded.Moderation.RequestID)
	s.True(recorded.Moderation.Status)
	s.Equal("looks fine", recorded.Moderation.Notes)
	s.Equal("moderator", recorded.User.Username)
}

func (s *ClientSuite) TestModerateWithoutTokenIsRejected() {
	_, err := s.client.Moderate(context.Background(), s.job.Info.Requests[0].ID, types.ModerateRequest{Approved: false})

	var response *bacerrors.ErrorResponse
	s.Require().True(errors.As(err, &response))
	s.Equal(http.StatusUnauthorized, response.StatusCode)
}

func (s *ClientSuite) TestModerateIsNeverRetried() {
	token, err := s.server.AddUser("moderator")
	s.Require().NoError(err)
	s.session.Start(&types.User{Username: "moderator"}, token)

	retrying := client.NewAPIClient(s.server.URL, client.Options{Retries: 3, Session: s.session})
	s.server.FailNext(dashboardtest.RouteModerate, http.StatusServiceUnavailable)

	_, err = retrying.Moderate(context.Background(), s.job.Info.Requests[0].ID, types.ModerateRequest{Approved: true})
	s.Require().Error(err)
	s.Equal(1, s.server.Calls(dashboardtest.RouteModerate))
}

func (s *ClientSuite) TestUnknownRequest() {
	token, err := s.server.AddUser("moderator")
	s.Require().NoError(err)
	s.session.Start(&types.User{Username: "moderator"}, token)

	_, err = s.client.Moderate(context.Background(), 9999, types.ModerateRequest{Approved: true})
	s.True(errors.Is(err, bacerrors.ErrNotFound))
}

func (s *ClientSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.client.GetJobInfo(ctx, s.jobID())
	s.ErrorIs(err, context.Canceled)
}

func (s *ClientSuite) TestDefaultHeaders() {
	var seen http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		_, _ = w.Write([]byte("[]"))
	}))
	defer server.Close()

	apiClient := client.NewAPIClient(server.URL+"/", client.Options{})
	apiClient.DefaultHeaders["X-Trace"] = "abc"

	relations, err := apiClient.GetJobInputs(context.Background(), "job")
	s.Require().NoError(err)
	s.Empty(relations)
	s.Equal("application/json", seen.Get("Accept"))
	s.Equal("abc", seen.Get("X-Trace"))
}
