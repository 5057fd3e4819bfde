package model

import (
	"fmt"
	"time"
)

type JobEventType int

const (
	JobEventUnknown JobEventType = iota // must be first

	// the job was created by a client
	JobEventCreated

	// the concurrency or other mutable properties of the job were
	// changed by the client
	JobEventDealUpdated

	// a compute node bid on a job
	JobEventBid

	// a requester node accepted for rejected a job bid
	JobEventBidAccepted
	JobEventBidRejected

	// a compute node canceled a job bid
	JobEventBidCancelled

	// a compute node progressed with running a job
	JobEventRunning

	// a compute node had an error running a job
	JobEventError

	// a compute node completed running a job
	JobEventResultsProposed

	// a requestor node accepted the results from a node for a job
	JobEventResultsAccepted

	// a requestor node rejected the results from a node for a job
	JobEventResultsRejected

	// once the results have been accepted or rejected
	// the compute node will publish them and issue this event
	JobEventResultsPublished

	jobEventDone // must be last
)

var jobEventNames = [...]string{
	JobEventUnknown:          "Unknown",
	JobEventCreated:          "Created",
	JobEventDealUpdated:      "DealUpdated",
	JobEventBid:              "Bid",
	JobEventBidAccepted:      "BidAccepted",
	JobEventBidRejected:      "BidRejected",
	JobEventBidCancelled:     "BidCancelled",
	JobEventRunning:          "Running",
	JobEventError:            "Error",
	JobEventResultsProposed:  "ResultsProposed",
	JobEventResultsAccepted:  "ResultsAccepted",
	JobEventResultsRejected:  "ResultsRejected",
	JobEventResultsPublished: "ResultsPublished",
}

func (event JobEventType) String() string {
	if event < JobEventUnknown || event >= jobEventDone {
		return fmt.Sprintf("JobEventType(%d)", int(event))
	}
	return jobEventNames[event]
}

// IsTerminal returns true if the given event type signals the end of the
// lifecycle of a job.
func (event JobEventType) IsTerminal() bool {
	return event == JobEventError || event == JobEventResultsPublished
}

func ParseJobEventType(str string) (JobEventType, error) {
	for typ := JobEventUnknown + 1; typ < jobEventDone; typ++ {
		if equal(typ.String(), str) {
			return typ, nil
		}
	}

	return JobEventUnknown, fmt.Errorf(
		"model: unknown job event type '%s'", str)
}

func (event JobEventType) MarshalText() ([]byte, error) {
	return []byte(event.String()), nil
}

func (event *JobEventType) UnmarshalText(text []byte) error {
	typ, err := ParseJobEventType(string(text))
	if err != nil {
		typ = JobEventUnknown
	}
	*event = typ
	return nil
}

// JobEvent is a lifecycle transition of a job emitted by one of the nodes
// taking part in it.
type JobEvent struct {
	JobID string `json:"JobID,omitempty" example:"9304c616-291f-41ad-b862-54e133c0149e"`
	// what shard is this event for
	ShardIndex int `json:"ShardIndex,omitempty"`
	// the node that emitted this event
	SourceNodeID string `json:"SourceNodeID,omitempty" example:"QmXaXu9N5GNetatsvwnTfQqNtSeKAD6uCmarbh3LMRYAcF"`
	// the node that this event is for
	// e.g. "AcceptJobBid" was emitted by Requester but it targeting compute node
	TargetNodeID string       `json:"TargetNodeID,omitempty" example:"QmdZQ7ZbhnvWY1J12XYKGHApJ6aufKyLNSvf8jZBrBaAVL"`
	EventName    JobEventType `json:"EventName,omitempty"`
	Status       string       `json:"Status,omitempty" example:"Got results proposal of length: 0"`

	EventTime time.Time `json:"EventTime,omitempty" example:"2022-11-17T13:32:55.756658941Z"`
}
