package moderation

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/telemetry"
)

// ErrSubmissionInFlight is returned when a decision is submitted, or a prompt
// opened, while a previous submission has not completed.
var ErrSubmissionInFlight = errors.New("a moderation decision is already being submitted")

// errNotAccepted is reported when the dashboard answers without error but
// does not confirm the decision.
var errNotAccepted = errors.New("moderation was not accepted")

// Moderator records a decision against a moderation request.
type Moderator interface {
	Moderate(ctx context.Context, requestID int64, decision types.ModerateRequest) (*types.ModerateResult, error)
}

// Reloader re-fetches the job information after a decision was recorded.
type Reloader interface {
	Reload(ctx context.Context) error
}

// UserSource reports the authenticated actor, nil when there is none.
// *session.Session implements it.
type UserSource interface {
	User() *types.User
}

// Phase is where the controller is in the moderation of a single request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePromptOpen
	PhaseSubmitting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhasePromptOpen:
		return "PromptOpen"
	case PhaseSubmitting:
		return "Submitting"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ControllerState is a snapshot of the controller. Request and Format are
// set while a prompt is open or a submission is in flight.
type ControllerState struct {
	Phase   Phase                    `json:"phase"`
	Request *types.ModerationRequest `json:"request,omitempty"`
	Format  *Format                  `json:"format,omitempty"`
}

// ControllerParams are the collaborators of a Controller. A nil Notifier drops
// notifications and a nil Session permits no submissions.
type ControllerParams struct {
	Moderator Moderator
	Reloader  Reloader
	Notifier  Notifier
	Session   UserSource
}

// Controller drives a single moderation prompt through
// Idle -> PromptOpen -> Submitting -> Idle. At most one submission is in
// flight at any time.
type Controller struct {
	moderator Moderator
	reloader  Reloader
	notifier  Notifier
	session   UserSource
	decisions *telemetry.Counter

	mu      sync.Mutex
	phase   Phase
	request *types.ModerationRequest
	format  *Format
}

func NewController(params ControllerParams) *Controller {
	c := &Controller{
		moderator: params.Moderator,
		reloader:  params.Reloader,
		notifier:  params.Notifier,
		session:   params.Session,
	}
	if c.notifier == nil {
		c.notifier = NoopNotifier
	}
	decisions, err := telemetry.NewCounter(
		telemetry.GetMeter(), "jobview.moderation.decisions", "Number of moderation decisions submitted")
	if err != nil {
		log.Warn().Err(err).Msg("failed to create moderation decision counter")
	} else {
		c.decisions = decisions
	}
	return c
}

// State returns a snapshot of the controller.
func (c *Controller) State() ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	state := ControllerState{Phase: c.phase}
	if c.request != nil {
		request := *c.request
		state.Request = &request
	}
	if c.format != nil {
		format := *c.format
		state.Format = &format
	}
	return state
}

// Open shows the prompt for request.
func (c *Controller) Open(request types.ModerationRequest) error {
	format, err := FormatFor(request.Type)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseSubmitting {
		return ErrSubmissionInFlight
	}
	c.phase = PhasePromptOpen
	c.request = &request
	c.format = &format
	return nil
}

// Cancel closes an open prompt without submitting anything.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhasePromptOpen {
		return
	}
	c.toIdle()
}

// Submit sends decision for request to the dashboard. Without an
// authenticated user it does nothing and returns nil. On success the job
// information is reloaded once and a success notification is shown; on
// failure a single error notification is shown and nothing is reloaded.
func (c *Controller) Submit(ctx context.Context, request types.ModerationRequest, decision types.ModerateRequest) error {
	if c.session == nil || c.session.User() == nil {
		return nil
	}
	format, err := FormatFor(request.Type)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.phase == PhaseSubmitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.phase = PhaseSubmitting
	c.request = &request
	c.format = &format
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.toIdle()
		c.mu.Unlock()
	}()

	ctx, span := telemetry.NewSpan(ctx, telemetry.GetTracer(), "pkg/moderation.Controller.Submit",
		oteltrace.WithAttributes(
			attribute.String(telemetry.AttributeJobID, request.JobID),
			attribute.Int64(telemetry.AttributeRequestID, request.ID),
			attribute.String(telemetry.AttributeModerationType, string(request.Type)),
		))
	defer span.End()

	return telemetry.RecordErrorOnSpan(span)(c.submit(ctx, request, decision))
}

func (c *Controller) submit(ctx context.Context, request types.ModerationRequest, decision types.ModerateRequest) error {
	logger := log.Ctx(ctx).With().
		Int64("RequestID", request.ID).
		Str("Type", string(request.Type)).
		Bool("Approved", decision.Approved).
		Logger()

	result, err := c.moderator.Moderate(ctx, request.ID, decision)
	if err == nil && (result == nil || !result.Success) {
		err = errNotAccepted
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to moderate request")
		c.count(ctx, request.Type, "failed")
		c.notifier.Notify(Notification{
			Level:   LevelError,
			Message: fmt.Sprintf("Failed to moderate %s", request.Type),
		})
		return errors.Wrapf(err, "moderating request %d", request.ID)
	}

	logger.Info().Msg("moderation recorded")
	c.count(ctx, request.Type, outcome(decision))

	var reloadErr error
	if c.reloader != nil {
		reloadErr = c.reloader.Reload(ctx)
		if reloadErr != nil {
			logger.Warn().Err(reloadErr).Msg("failed to reload job after moderation")
		}
	}

	c.notifier.Notify(Notification{
		Level:   LevelSuccess,
		Message: successMessage(request.Type, decision),
	})
	return errors.Wrap(reloadErr, "reloading job after moderation")
}

// toIdle must be called with mu held.
func (c *Controller) toIdle() {
	c.phase = PhaseIdle
	c.request = nil
	c.format = nil
}

func (c *Controller) count(ctx context.Context, moderationType types.ModerationType, result string) {
	if c.decisions == nil {
		return
	}
	c.decisions.Inc(ctx,
		attribute.String(telemetry.AttributeModerationType, string(moderationType)),
		attribute.String(telemetry.AttributeOutcome, result),
	)
}

func outcome(decision types.ModerateRequest) string {
	if decision.Approved {
		return "approved"
	}
	return "rejected"
}

func successMessage(moderationType types.ModerationType, decision types.ModerateRequest) string {
	if decision.Approved {
		return fmt.Sprintf("%s approved.", moderationType.Title())
	}
	return fmt.Sprintf("%s not approved.", moderationType.Title())
}
