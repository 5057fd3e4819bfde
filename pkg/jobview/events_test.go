//go:build unit || !integration

package jobview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/CoopHive/bacalhau/pkg/model"
)

const requesterID = "QmRequester"

func TestIsRequesterEvent(t *testing.T) {
	for _, tc := range []struct {
		name     string
		event    model.JobEvent
		expected bool
	}{
		{
			name:     "informational event from requester",
			event:    model.JobEvent{SourceNodeID: requesterID, EventName: model.JobEventDealUpdated},
			expected: false,
		},
		{
			name:     "requester event with a target",
			event:    model.JobEvent{SourceNodeID: requesterID, TargetNodeID: "QmWorker", EventName: model.JobEventBidAccepted},
			expected: true,
		},
		{
			name:     "creation event",
			event:    model.JobEvent{SourceNodeID: requesterID, EventName: model.JobEventCreated},
			expected: true,
		},
		{
			name:     "worker event with a target",
			event:    model.JobEvent{SourceNodeID: "QmWorker", TargetNodeID: requesterID, EventName: model.JobEventBid},
			expected: false,
		},
		{
			name:     "worker creation event",
			event:    model.JobEvent{SourceNodeID: "QmWorker", EventName: model.JobEventCreated},
			expected: false,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, IsRequesterEvent(requesterID, tc.event))
		})
	}
}

func TestIsRequesterEventWithoutRequester(t *testing.T) {
	event := model.JobEvent{EventName: model.JobEventCreated}
	require.False(t, IsRequesterEvent("", event))
}

func TestClassifyEventsKeepsOrder(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []model.JobEvent{
		{SourceNodeID: "QmWorker", EventName: model.JobEventBid, EventTime: start.Add(2 * time.Second)},
		{SourceNodeID: requesterID, EventName: model.JobEventCreated, EventTime: start},
		{SourceNodeID: requesterID, EventName: model.JobEventDealUpdated, EventTime: start.Add(time.Second)},
		{SourceNodeID: requesterID, TargetNodeID: "QmWorker", EventName: model.JobEventBidAccepted, EventTime: start.Add(3 * time.Second)},
	}

	timeline := ClassifyEvents(requesterID, events)
	require.Len(t, timeline, len(events))
	for i := range events {
		require.Equal(t, events[i], timeline[i].JobEvent)
	}
	require.Equal(t,
		[]Origin{OriginWorker, OriginRequester, OriginWorker, OriginRequester},
		[]Origin{timeline[0].Origin, timeline[1].Origin, timeline[2].Origin, timeline[3].Origin},
	)

	require.Empty(t, ClassifyEvents(requesterID, nil))
}
