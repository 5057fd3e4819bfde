package dashboardtest

import (
	"time"

	"github.com/google/uuid"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/model"
)

const (
	RequesterNodeID = "QmXaXu9N5GNetatsvwnTfQqNtSeKAD6uCmarbh3LMRYAcF"
	ComputeNodeA    = "QmdZQ7ZbhnvWY1J12XYKGHApJ6aufKyLNSvf8jZBrBaAVL"
	ComputeNodeB    = "QmYgxZiySj3MRkwLSL4X2MF5F9f2PMhAE3LV49XkfNL1o3"

	InputCID  = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"
	OutputCID = "QmT78zSuBmuS4z925WZfrqQ1qHaJ56DQaTfyMUF7F8ff5o"
)

// NewJob builds a job with a fresh ID, two compute nodes (the second one
// cancelled), a short event history and an open execution request.
func NewJob() Job {
	jobID := uuid.NewString()
	created := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)

	job := model.Job{
		APIVersion: "V1beta1",
		Metadata:   model.Metadata{ID: jobID, CreatedAt: created},
		Spec: model.Spec{
			Engine: "Docker",
			Docker: model.JobSpecDocker{Image: "ubuntu", Entrypoint: []string{"echo", "hello"}},
			Inputs: []model.StorageSpec{{StorageSource: "IPFS", CID: InputCID, Path: "/inputs"}},
		},
		Status: model.JobStatus{Requester: model.JobRequester{RequesterNodeID: RequesterNodeID}},
	}

	state := model.NewJobState([]string{ComputeNodeB, ComputeNodeA}, map[string]model.JobNodeState{
		ComputeNodeB: {Shards: map[int]model.JobShardState{
			0: {NodeID: ComputeNodeB, State: model.JobStateCancelled, Status: "bid rejected"},
		}},
		ComputeNodeA: {Shards: map[int]model.JobShardState{
			0: {NodeID: ComputeNodeA, State: model.JobStateCompleted, PublishedResult: model.StorageSpec{CID: OutputCID}},
		}},
	})

	event := func(offset int, source, target string, name model.JobEventType) model.JobEvent {
		return model.JobEvent{
			JobID:        jobID,
			SourceNodeID: source,
			TargetNodeID: target,
			EventName:    name,
			EventTime:    created.Add(time.Duration(offset) * time.Second),
		}
	}

	return Job{
		Info: types.JobInfo{
			Job:   job,
			State: *state,
			Events: []model.JobEvent{
				event(0, RequesterNodeID, "", model.JobEventCreated),
				event(1, ComputeNodeA, "", model.JobEventBid),
				event(2, RequesterNodeID, ComputeNodeA, model.JobEventBidAccepted),
				event(3, ComputeNodeA, "", model.JobEventResultsProposed),
			},
			Results: []model.StorageSpec{{Name: "job-" + jobID, StorageSource: "IPFS", CID: OutputCID}},
			Requests: []types.ModerationRequest{
				{ID: 1, JobID: jobID, Type: types.ModerationTypeExecution, Created: created, ExecutionID: uuid.NewString()},
			},
			Moderations: []types.JobModerationSummary{},
		},
		Inputs:  []types.JobRelation{{CID: InputCID, JobID: uuid.NewString()}},
		Outputs: []types.JobRelation{},
	}
}
