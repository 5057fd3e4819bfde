package jobdetail

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/jobview"
	"github.com/CoopHive/bacalhau/pkg/model"
	"github.com/CoopHive/bacalhau/pkg/moderation"
)

// Resource names one of the independently fetched parts of the view.
type Resource string

const (
	ResourceJobInfo Resource = "job-info"
	ResourceInputs  Resource = "job-input-relations"
	ResourceOutputs Resource = "job-output-relations"
)

// API is the part of the dashboard the orchestrator talks to.
type API interface {
	GetJobInfo(ctx context.Context, jobID string) (*types.JobInfo, error)
	GetJobInputs(ctx context.Context, jobID string) ([]types.JobRelation, error)
	GetJobOutputs(ctx context.Context, jobID string) ([]types.JobRelation, error)
	moderation.Moderator
}

// ErrorHandler is told about every failed fetch that was still current when
// it failed.
type ErrorHandler interface {
	HandleError(ctx context.Context, resource Resource, err error)
}

// ErrorHandlerFunc adapts a function to the ErrorHandler interface.
type ErrorHandlerFunc func(ctx context.Context, resource Resource, err error)

func (f ErrorHandlerFunc) HandleError(ctx context.Context, resource Resource, err error) {
	f(ctx, resource, err)
}

type logErrorHandler struct{}

func (logErrorHandler) HandleError(ctx context.Context, resource Resource, err error) {
	log.Ctx(ctx).Error().Err(err).Str("Resource", string(resource)).Msg("failed to load job resource")
}

// View is the display ready state of a job page. It is rebuilt from the
// latest fetched data every time it is asked for.
type View struct {
	JobID           string                     `json:"jobId"`
	Job             model.Job                  `json:"job"`
	RequesterNodeID string                     `json:"requesterNodeId"`
	NodeOrder       []string                   `json:"nodeOrder"`
	Nodes           []jobview.NodeCard         `json:"nodes"`
	Timeline        []jobview.TimelineEvent    `json:"timeline"`
	Inputs          jobview.RelationGroups     `json:"inputs"`
	Outputs         jobview.RelationGroups     `json:"outputs"`
	InputsLoaded    bool                       `json:"inputsLoaded"`
	OutputsLoaded   bool                       `json:"outputsLoaded"`
	Results         []model.StorageSpec        `json:"results"`
	Panels          []moderation.Panel         `json:"panels"`
	Moderation      moderation.ControllerState `json:"moderation"`
}

// Params are the collaborators of an Orchestrator. Only API is required.
type Params struct {
	API          API
	Session      moderation.UserSource
	Notifier     moderation.Notifier
	ErrorHandler ErrorHandler
	// OnUpdate, if set, is called with the new view whenever a fetched
	// result was applied and job information is available.
	OnUpdate func(*View)
}
