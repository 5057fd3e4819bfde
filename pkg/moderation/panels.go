package moderation

import (
	"github.com/samber/lo"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
)

// Panel is one moderation request as shown on the job page: the request, the
// way its prompt is presented and the decisions already recorded against it.
type Panel struct {
	Request     types.ModerationRequest      `json:"request"`
	Format      Format                       `json:"format"`
	Moderations []types.JobModerationSummary `json:"moderations"`
}

// Decided reports whether at least one decision was recorded.
func (p Panel) Decided() bool {
	return len(p.Moderations) > 0
}

// Latest returns the most recent decision, if any.
func (p Panel) Latest() (types.JobModerationSummary, bool) {
	if len(p.Moderations) == 0 {
		return types.JobModerationSummary{}, false
	}
	return p.Moderations[len(p.Moderations)-1], true
}

// PanelsFor builds one panel per request, in request order. Requests of an
// unknown type are skipped. Each panel only carries the audit trail entries
// whose request ID matches its own.
func PanelsFor(requests []types.ModerationRequest, moderations []types.JobModerationSummary) []Panel {
	panels := make([]Panel, 0, len(requests))
	for _, request := range requests {
		format, err := FormatFor(request.Type)
		if err != nil {
			continue
		}
		requestID := request.ID
		panels = append(panels, Panel{
			Request: request,
			Format:  format,
			Moderations: lo.Filter(moderations, func(summary types.JobModerationSummary, _ int) bool {
				return summary.Request != nil && summary.Request.ID == requestID
			}),
		})
	}
	return panels
}
