// Package dashboardtest provides an in-memory dashboard API for tests.
package dashboardtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/CoopHive/bacalhau/pkg/bacerrors"
	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/session"
)

// Route names used by Calls and FailNext.
const (
	RouteJobInfo  = "job-info"
	RouteInputs   = "job-inputs"
	RouteOutputs  = "job-outputs"
	RouteModerate = "moderate"
)

// Job is everything the fake dashboard knows about one job.
type Job struct {
	Info    types.JobInfo
	Inputs  []types.JobRelation
	Outputs []types.JobRelation
}

type userContextKey struct{}

var errUnauthorized = errors.New("unauthorized")

// Server is a fake dashboard API served over HTTP.
type Server struct {
	*httptest.Server
	Secret string

	mu           sync.Mutex
	jobs         map[string]*Job
	users        map[string]*types.User
	calls        map[string]int
	failures     map[string]int
	moderationID int64
}

// NewServer starts a fake dashboard that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		Secret:   "dashboardtest-secret",
		jobs:     map[string]*Job{},
		users:    map[string]*types.User{},
		calls:    map[string]int{},
		failures: map[string]int{},
	}

	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	jobrouter := subrouter.PathPrefix("/job/{id}").Subrouter()
	jobrouter.HandleFunc("/info", s.handle(RouteJobInfo, s.jobInfo)).Methods(http.MethodGet)
	jobrouter.HandleFunc("/inputs", s.handle(RouteInputs, s.jobInputs)).Methods(http.MethodGet)
	jobrouter.HandleFunc("/outputs", s.handle(RouteOutputs, s.jobOutputs)).Methods(http.MethodGet)
	subrouter.HandleFunc("/request/{id}", s.handle(RouteModerate, s.requiresLogin(s.moderate))).Methods(http.MethodPost)

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Server.Close)
	return s
}

// AddJob stores job, replacing any job with the same ID.
func (s *Server) AddJob(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Info.Job.ID()] = &job
}

// UpdateJob changes a stored job in place.
func (s *Server) UpdateJob(jobID string, update func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		update(job)
	}
}

// Job returns a copy of the stored job information.
func (s *Server) Job(jobID string) (types.JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return types.JobInfo{}, false
	}
	return job.Info, true
}

// AddUser registers a moderator and returns a token for them.
func (s *Server) AddUser(username string) (string, error) {
	s.mu.Lock()
	s.users[username] = &types.User{ID: len(s.users) + 1, Username: username, Created: time.Now()}
	s.mu.Unlock()
	return session.GenerateToken(s.Secret, username)
}

// FailNext makes the next call to route answer with status.
func (s *Server) FailNext(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = status
}

// Calls returns how many times route was called.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

type handlerFunc func(ctx context.Context, req *http.Request) (interface{}, error)

func (s *Server) handle(route string, handler handlerFunc) http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		status, fail := s.failures[route]
		delete(s.failures, route)
		s.mu.Unlock()

		if fail {
			http.Error(res, fmt.Sprintf("%s failed", route), status)
			return
		}

		data, err := handler(req.Context(), req)
		if err != nil {
			writeError(req.Context(), res, err)
			return
		}
		res.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(res).Encode(data); err != nil {
			log.Ctx(req.Context()).Error().Err(err).Msg("failed to encode response")
		}
	}
}

func writeError(ctx context.Context, res http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, bacerrors.ErrNotFound):
		status = http.StatusNotFound
	}
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(bacerrors.ErrorToErrorResponseObject(err)); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to encode error response")
	}
}

func (s *Server) requiresLogin(handler handlerFunc) handlerFunc {
	return func(ctx context.Context, req *http.Request) (interface{}, error) {
		tokenString := strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer ")
		if tokenString == "" {
			return nil, fmt.Errorf("%w: no token provided", errUnauthorized)
		}
		username, err := session.ParseToken(s.Secret, tokenString)
		if err != nil {
			return nil, fmt.Errorf("%w: error parsing token: %s", errUnauthorized, err.Error())
		}
		s.mu.Lock()
		user, ok := s.users[username]
		s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w: unknown user %s", errUnauthorized, username)
		}
		return handler(context.WithValue(ctx, userContextKey{}, user), req)
	}
}

func (s *Server) lookup(req *http.Request) (*Job, error) {
	id := mux.Vars(req)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, bacerrors.NewJobNotFound(id)
	}
	copied := *job
	return &copied, nil
}

func (s *Server) jobInfo(_ context.Context, req *http.Request) (interface{}, error) {
	job, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	return job.Info, nil
}

func (s *Server) jobInputs(_ context.Context, req *http.Request) (interface{}, error) {
	job, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	return nonNil(job.Inputs), nil
}

func (s *Server) jobOutputs(_ context.Context, req *http.Request) (interface{}, error) {
	job, err := s.lookup(req)
	if err != nil {
		return nil, err
	}
	return nonNil(job.Outputs), nil
}

func (s *Server) moderate(ctx context.Context, req *http.Request) (interface{}, error) {
	user := ctx.Value(userContextKey{}).(*types.User)
	requestID, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return nil, err
	}

	var data types.ModerateRequest
	if err := json.NewDecoder(req.Body).Decode(&data); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		for i := range job.Info.Requests {
			request := job.Info.Requests[i]
			if request.ID != requestID {
				continue
			}
			s.moderationID++
			job.Info.Moderations = append(job.Info.Moderations, types.JobModerationSummary{
				Request: &request,
				Moderation: &types.Moderation{
					ID:            s.moderationID,
					RequestID:     requestID,
					UserAccountID: user.ID,
					Created:       time.Now(),
					Status:        data.Approved,
					Notes:         data.Reason,
				},
				User: user,
			})
			return types.ModerateResult{Success: true}, nil
		}
	}
	return nil, bacerrors.NewRequestNotFound(requestID)
}

func nonNil(relations []types.JobRelation) []types.JobRelation {
	if relations == nil {
		return []types.JobRelation{}
	}
	return relations
}
