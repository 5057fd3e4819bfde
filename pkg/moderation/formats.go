package moderation

import (
	"fmt"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
)

// Icon names the glyph shown next to a moderation prompt.
type Icon string

const (
	IconFilPlus  Icon = "filplus"
	IconPlay     Icon = "play"
	IconDatabase Icon = "database"
)

// Format is how a moderation prompt for one request type is presented.
type Format struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
	Icon   Icon   `json:"icon"`
}

var formats = map[types.ModerationType]Format{
	types.ModerationTypeDatacap: {
		Title:  "Award Datacap To This Job?",
		Prompt: "The compute node that publishes the results will be awarded Datacap if they make a deal for those results.",
		Icon:   IconFilPlus,
	},
	types.ModerationTypeExecution: {
		Title:  "Allow this job to be executed?",
		Prompt: "The job will be scheduled on an appropriate compute node.",
		Icon:   IconPlay,
	},
	types.ModerationTypeResult: {
		Title:  "Allow this result to be published?",
		Prompt: "The result will be published to the publisher configured for the job.",
		Icon:   IconDatabase,
	},
}

// FormatFor returns the presentation of a request type. Types outside the
// closed set are an error.
func FormatFor(moderationType types.ModerationType) (Format, error) {
	format, ok := formats[moderationType]
	if !ok {
		return Format{}, fmt.Errorf("unknown moderation type %q", moderationType)
	}
	return format, nil
}
