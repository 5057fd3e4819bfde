package jobdetail

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.ptx.dk/multierrgroup"

	"github.com/CoopHive/bacalhau/pkg/bacerrors"
	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/jobview"
	"github.com/CoopHive/bacalhau/pkg/logger"
	"github.com/CoopHive/bacalhau/pkg/moderation"
	"github.com/CoopHive/bacalhau/pkg/telemetry"
)

// ErrNoJob is returned by Refresh when no job was loaded yet.
var ErrNoJob = errors.New("no job loaded")

// Orchestrator loads the data of one job page and keeps it current. The
// three resources are fetched independently: a failing one is reported to
// the ErrorHandler and never holds back the others. Every fetch carries a
// sequence number so that a response overtaken by a newer request for the
// same resource, or one for a job that is no longer shown, is dropped.
type Orchestrator struct {
	api          API
	errorHandler ErrorHandler
	onUpdate     func(*View)
	controller   *moderation.Controller
	fetchTime    metric.Int64Histogram

	mu            sync.Mutex
	jobID         string
	sequence      map[Resource]uint64
	info          *types.JobInfo
	inputs        []types.JobRelation
	outputs       []types.JobRelation
	inputsLoaded  bool
	outputsLoaded bool
}

func New(params Params) *Orchestrator {
	o := &Orchestrator{
		api:          params.API,
		errorHandler: params.ErrorHandler,
		onUpdate:     params.OnUpdate,
		sequence:     make(map[Resource]uint64),
	}
	if o.errorHandler == nil {
		o.errorHandler = logErrorHandler{}
	}
	o.controller = moderation.NewController(moderation.ControllerParams{
		Moderator: params.API,
		Reloader:  o,
		Notifier:  params.Notifier,
		Session:   params.Session,
	})
	fetchTime, err := telemetry.NewDurationHistogram(
		telemetry.GetMeter(), "jobview.fetch.duration", "Time taken to fetch a job resource from the dashboard")
	if err != nil {
		log.Warn().Err(err).Msg("failed to create fetch duration histogram")
	} else {
		o.fetchTime = fetchTime
	}
	return o
}

// Moderation returns the controller used for this job's moderation prompts.
// It reloads job information through this orchestrator.
func (o *Orchestrator) Moderation() *moderation.Controller {
	return o.controller
}

// JobID returns the job currently shown, empty before Load.
func (o *Orchestrator) JobID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.jobID
}

// Load makes jobID the job shown and fetches its information, inputs and
// outputs concurrently. Failures are reported one by one to the
// ErrorHandler and returned combined.
func (o *Orchestrator) Load(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errors.New("job ID must not be empty")
	}

	o.mu.Lock()
	if o.jobID != jobID {
		o.jobID = jobID
		o.info = nil
		o.inputs, o.outputs = nil, nil
		o.inputsLoaded, o.outputsLoaded = false, false
	}
	infoSeq := o.issue(ResourceJobInfo)
	inputsSeq := o.issue(ResourceInputs)
	outputsSeq := o.issue(ResourceOutputs)
	o.mu.Unlock()

	ctx = logger.ContextWithJobIDLogger(ctx, jobID)
	ctx, span := telemetry.NewSpan(ctx, telemetry.GetTracer(), "pkg/jobdetail.Orchestrator.Load", telemetry.WithJobID(jobID))
	defer span.End()

	var wg multierrgroup.Group
	wg.Go(func() error {
		return o.fetchInfo(ctx, jobID, infoSeq)
	})
	wg.Go(func() error {
		return o.fetchRelations(ctx, jobID, ResourceInputs, inputsSeq, o.api.GetJobInputs)
	})
	wg.Go(func() error {
		return o.fetchRelations(ctx, jobID, ResourceOutputs, outputsSeq, o.api.GetJobOutputs)
	})
	return telemetry.RecordErrorOnSpan(span)(wg.Wait())
}

// Refresh re-fetches the job information of the loaded job. Input and
// output relations are left as they are.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.mu.Lock()
	jobID := o.jobID
	if jobID == "" {
		o.mu.Unlock()
		return ErrNoJob
	}
	seq := o.issue(ResourceJobInfo)
	o.mu.Unlock()

	ctx = logger.ContextWithJobIDLogger(ctx, jobID)
	return o.fetchInfo(ctx, jobID, seq)
}

// Reload is Refresh. It lets the orchestrator serve as the moderation
// controller's Reloader.
func (o *Orchestrator) Reload(ctx context.Context) error {
	return o.Refresh(ctx)
}

// View returns the current view. The second value is false until job
// information was fetched successfully for the loaded job.
func (o *Orchestrator) View() (*View, bool) {
	state := o.controller.State()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.info == nil {
		return nil, false
	}
	return buildView(o.jobID, o.info, o.inputs, o.outputs, o.inputsLoaded, o.outputsLoaded, state), true
}

// Moderate opens the prompt for the request with the given ID on the
// loaded job and submits decision.
func (o *Orchestrator) Moderate(ctx context.Context, requestID int64, decision types.ModerateRequest) error {
	view, ok := o.View()
	if !ok {
		return ErrNoJob
	}
	for _, panel := range view.Panels {
		if panel.Request.ID != requestID {
			continue
		}
		if err := o.controller.Open(panel.Request); err != nil {
			return err
		}
		ctx = logger.ContextWithJobIDLogger(ctx, view.JobID)
		return o.controller.Submit(ctx, panel.Request, decision)
	}
	return bacerrors.NewRequestNotFound(requestID)
}

// Watch refreshes the job information every interval and whenever
// something is received on triggers, until ctx is done. A non-positive
// interval disables the timer.
func (o *Orchestrator) Watch(ctx context.Context, interval time.Duration, triggers <-chan struct{}) error {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		case _, ok := <-triggers:
			if !ok {
				triggers = nil
				continue
			}
		}
		if err := o.Refresh(ctx); err != nil {
			if errors.Is(err, ErrNoJob) {
				return err
			}
			log.Ctx(ctx).Debug().Err(err).Msg("refresh failed, will retry")
		}
	}
}

// issue must be called with mu held.
func (o *Orchestrator) issue(resource Resource) uint64 {
	o.sequence[resource]++
	return o.sequence[resource]
}

// current must be called with mu held.
func (o *Orchestrator) current(jobID string, resource Resource, seq uint64) bool {
	return o.jobID == jobID && o.sequence[resource] == seq
}

func (o *Orchestrator) fetchInfo(ctx context.Context, jobID string, seq uint64) error {
	info, err := timed(ctx, o, ResourceJobInfo, func(ctx context.Context) (*types.JobInfo, error) {
		return o.api.GetJobInfo(ctx, jobID)
	})
	return o.apply(ctx, jobID, ResourceJobInfo, seq, err, func() {
		o.info = info
	})
}

func (o *Orchestrator) fetchRelations(
	ctx context.Context,
	jobID string,
	resource Resource,
	seq uint64,
	get func(context.Context, string) ([]types.JobRelation, error),
) error {
	relations, err := timed(ctx, o, resource, func(ctx context.Context) ([]types.JobRelation, error) {
		return get(ctx, jobID)
	})
	return o.apply(ctx, jobID, resource, seq, err, func() {
		if resource == ResourceInputs {
			o.inputs, o.inputsLoaded = relations, true
		} else {
			o.outputs, o.outputsLoaded = relations, true
		}
	})
}

// apply stores a fetch result if it is still current and reports errors of
// current fetches. Stale errors are returned but not reported.
func (o *Orchestrator) apply(ctx context.Context, jobID string, resource Resource, seq uint64, err error, store func()) error {
	o.mu.Lock()
	if !o.current(jobID, resource, seq) {
		o.mu.Unlock()
		log.Ctx(ctx).Debug().Str("Resource", string(resource)).Uint64("Sequence", seq).Msg("dropping stale response")
		return errors.Wrapf(err, "fetching %s", resource)
	}
	if err == nil {
		store()
	}
	o.mu.Unlock()

	if err != nil {
		o.errorHandler.HandleError(ctx, resource, err)
		return errors.Wrapf(err, "fetching %s", resource)
	}
	if o.onUpdate != nil {
		if view, ok := o.View(); ok {
			o.onUpdate(view)
		}
	}
	return nil
}

func timed[T any](ctx context.Context, o *Orchestrator, resource Resource, fetch func(context.Context) (T, error)) (T, error) {
	attrs := attribute.String(telemetry.AttributeResource, string(resource))
	ctx, span := telemetry.NewSpan(ctx, telemetry.GetTracer(), "pkg/jobdetail.Orchestrator.fetch",
		oteltrace.WithAttributes(attrs))
	defer span.End()
	if o.fetchTime != nil {
		defer telemetry.Timer(ctx, o.fetchTime, attrs)()
	}
	return telemetry.RecordErrorOnSpanTwo[T](span)(fetch(ctx))
}

func buildView(
	jobID string,
	info *types.JobInfo,
	inputs, outputs []types.JobRelation,
	inputsLoaded, outputsLoaded bool,
	moderationState moderation.ControllerState,
) *View {
	requesterNodeID := info.Job.RequesterNodeID()
	return &View{
		JobID:           jobID,
		Job:             info.Job,
		RequesterNodeID: requesterNodeID,
		NodeOrder:       jobview.NodeOrder(&info.State),
		Nodes:           jobview.Nodes(&info.Job, &info.State),
		Timeline:        jobview.ClassifyEvents(requesterNodeID, info.Events),
		Inputs:          jobview.GroupByCID(inputs),
		Outputs:         jobview.GroupByCID(outputs),
		InputsLoaded:    inputsLoaded,
		OutputsLoaded:   outputsLoaded,
		Results:         info.Results,
		Panels:          moderation.PanelsFor(info.Requests, info.Moderations),
		Moderation:      moderationState,
	}
}
