package job

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"
	"k8s.io/kubectl/pkg/util/templates"

	"github.com/CoopHive/bacalhau/cmd/util"
	"github.com/CoopHive/bacalhau/cmd/util/flags"
	"github.com/CoopHive/bacalhau/cmd/util/flags/cliflags"
	"github.com/CoopHive/bacalhau/cmd/util/output"
	"github.com/CoopHive/bacalhau/pkg/dashboard/firehose"
	"github.com/CoopHive/bacalhau/pkg/jobdetail"
)

var (
	watchShort = `Keep showing a job as it changes.`

	watchLong = templates.LongDesc(i18n.T(`
		Show a job and print it again whenever its information changes.

		The job information is refreshed on an interval and, when a firehose
		URL is configured, whenever the dashboard streams an event for the
		job. Inputs and outputs are only fetched once.
`))

	watchExample = templates.Examples(i18n.T(`
		# Refresh every 10 seconds
		jobview job watch 92d5d4ee-3765-4f78-8353-623f5f26df08

		# Refresh on every job event streamed by the dashboard
		jobview job watch --firehose wss://dashboard.example.com/api/v1/events 92d5d4ee
`))
)

type WatchOptions struct {
	OutputOpts output.OutputOptions
	Interval   time.Duration
	Firehose   string
}

func NewWatchOptions() *WatchOptions {
	return &WatchOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewWatchCmd() *cobra.Command {
	o := NewWatchOptions()
	watchCmd := &cobra.Command{
		Use:     "watch [id]",
		Short:   watchShort,
		Long:    watchLong,
		Example: watchExample,
		Args:    cobra.ExactArgs(1),
		RunE:    o.run,
	}

	watchCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))
	watchCmd.Flags().DurationVar(&o.Interval, "interval", o.Interval,
		`How often to refresh the job. Zero refreshes on firehose events only. Defaults to watch.interval.`)
	watchCmd.Flags().Var(flags.URLFlag(&o.Firehose, "ws", "wss"), "firehose",
		`Websocket URL of the dashboard event stream. Defaults to watch.firehose.`)
	return watchCmd
}

func (o *WatchOptions) run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	util.GetCleanupManager(ctx).RegisterCallback(func() error {
		cancel()
		return nil
	})

	cfg := util.GetConfig(ctx)
	if !cmd.Flags().Changed("interval") {
		o.Interval = cfg.Watch.Interval.AsTimeDuration()
	}
	if !cmd.Flags().Changed("firehose") {
		o.Firehose = cfg.Watch.Firehose
	}

	jobID := args[0]
	apiClient, s, err := util.GetAPIClient(ctx)
	if err != nil {
		return err
	}

	var (
		printMu sync.Mutex
		ready   atomic.Bool
	)
	show := func(view *jobdetail.View) {
		printMu.Lock()
		defer printMu.Unlock()
		if o.OutputOpts.IsTabular() {
			cmd.Printf("\n--- %s\n", time.Now().Format(time.DateTime))
		}
		if err := printView(cmd, o.OutputOpts, view); err != nil {
			util.PrintErr(cmd, err)
		}
	}

	orchestrator := jobdetail.New(jobdetail.Params{
		API:     apiClient,
		Session: s,
		ErrorHandler: jobdetail.ErrorHandlerFunc(func(_ context.Context, resource jobdetail.Resource, err error) {
			if ready.Load() {
				log.Ctx(ctx).Warn().Err(err).Str("Resource", string(resource)).Msg("refresh failed")
			}
		}),
		OnUpdate: func(view *jobdetail.View) {
			if ready.Load() {
				show(view)
			}
		},
	})

	err = orchestrator.Load(ctx, jobID)
	view, ok := orchestrator.View()
	if !ok {
		return jobInfoError(jobID, err)
	}
	show(view)
	ready.Store(true)

	var triggers <-chan struct{}
	if o.Firehose != "" {
		events := firehose.NewEventFirehose(o.Firehose).Start(ctx)
		triggers = firehose.JobTriggers(ctx, events, jobID)
	}
	if o.Interval <= 0 && triggers == nil {
		return nil
	}
	return orchestrator.Watch(ctx, o.Interval, triggers)
}
