package jobview

import (
	"github.com/CoopHive/bacalhau/pkg/model"
)

// Origin says which side of the job an event is shown as coming from.
type Origin string

const (
	OriginRequester Origin = "requester"
	OriginWorker    Origin = "worker"
)

// TimelineEvent is an event together with how it should be rendered.
type TimelineEvent struct {
	model.JobEvent
	Origin Origin `json:"Origin"`
}

// IsRequesterEvent reports whether event should be highlighted as coming
// from the requester. The requester is also the source of purely
// informational events, so only events that target another node, or the
// creation event itself, count.
func IsRequesterEvent(requesterNodeID string, event model.JobEvent) bool {
	if requesterNodeID == "" || event.SourceNodeID != requesterNodeID {
		return false
	}
	return event.TargetNodeID != "" || event.EventName == model.JobEventCreated
}

// ClassifyEvents tags every event with its origin, keeping the order in which
// the events were received.
func ClassifyEvents(requesterNodeID string, events []model.JobEvent) []TimelineEvent {
	timeline := make([]TimelineEvent, 0, len(events))
	for _, event := range events {
		origin := OriginWorker
		if IsRequesterEvent(requesterNodeID, event) {
			origin = OriginRequester
		}
		timeline = append(timeline, TimelineEvent{JobEvent: event, Origin: origin})
	}
	return timeline
}
