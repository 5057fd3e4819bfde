package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"k8s.io/kubectl/pkg/util/i18n"
	"k8s.io/kubectl/pkg/util/templates"

	"github.com/CoopHive/bacalhau/cmd/util"
	"github.com/CoopHive/bacalhau/cmd/util/flags/cliflags"
	"github.com/CoopHive/bacalhau/cmd/util/output"
	"github.com/CoopHive/bacalhau/pkg/bacerrors"
	"github.com/CoopHive/bacalhau/pkg/jobdetail"
	"github.com/CoopHive/bacalhau/pkg/system"
)

var (
	describeShort = `Show the detail page of a job.`

	describeLong = templates.LongDesc(i18n.T(`
		Show everything the dashboard knows about a job: its nodes and
		shards, the event timeline, the content it consumed and produced,
		its published results and the moderation requests against it.

		Inputs and outputs are fetched independently of the job, so a
		failure to load them is reported without hiding the rest.
`))

	//nolint:lll // Documentation
	describeExample = templates.Examples(i18n.T(`
		# Describe a job
		jobview job describe 92d5d4ee-3765-4f78-8353-623f5f26df08

		# Describe a job as YAML
		jobview job describe --output yaml 92d5d4ee-3765-4f78-8353-623f5f26df08

		# Wait for a job that was just submitted to be indexed by the dashboard
		jobview job describe --wait 92d5d4ee-3765-4f78-8353-623f5f26df08
`))
)

// DescribeOptions is a struct to support the describe command
type DescribeOptions struct {
	OutputOpts  output.OutputOptions
	Wait        bool
	WaitTimeout time.Duration
}

// NewDescribeOptions returns initialized Options
func NewDescribeOptions() *DescribeOptions {
	return &DescribeOptions{
		OutputOpts:  output.OutputOptions{Format: output.TableFormat},
		WaitTimeout: time.Minute,
	}
}

func NewDescribeCmd() *cobra.Command {
	o := NewDescribeOptions()
	describeCmd := &cobra.Command{
		Use:     "describe [id]",
		Short:   describeShort,
		Long:    describeLong,
		Example: describeExample,
		Args:    cobra.ExactArgs(1),
		RunE:    o.run,
	}

	describeCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&o.OutputOpts))
	describeCmd.Flags().BoolVar(&o.Wait, "wait", o.Wait,
		`Wait for the dashboard to know about the job.`)
	describeCmd.Flags().DurationVar(&o.WaitTimeout, "wait-timeout", o.WaitTimeout,
		`How long to wait for the job when --wait is set.`)
	return describeCmd
}

func (o *DescribeOptions) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobID := args[0]

	apiClient, s, err := util.GetAPIClient(ctx)
	if err != nil {
		return err
	}
	orchestrator := jobdetail.New(jobdetail.Params{
		API:          apiClient,
		Session:      s,
		ErrorHandler: jobdetail.ErrorHandlerFunc(func(context.Context, jobdetail.Resource, error) {}),
	})

	if o.Wait {
		err = o.waitForJob(ctx, orchestrator, jobID)
	} else {
		err = orchestrator.Load(ctx, jobID)
	}

	view, ok := orchestrator.View()
	if !ok {
		return jobInfoError(jobID, err)
	}
	for _, loadErr := range multierr.Errors(err) {
		util.PrintErr(cmd, loadErr)
	}
	return printView(cmd, o.OutputOpts, view)
}

// waitForJob loads the job until its information is available, retrying
// while the dashboard reports it as not found.
func (o *DescribeOptions) waitForJob(ctx context.Context, orchestrator *jobdetail.Orchestrator, jobID string) error {
	var loadErr error
	waiter := &system.FunctionWaiter{
		Name:        fmt.Sprintf("wait for job %s", jobID),
		MaxAttempts: int(o.WaitTimeout / waitDelay),
		Delay:       waitDelay,
		Handler: func() (bool, error) {
			loadErr = orchestrator.Load(ctx, jobID)
			if _, ok := orchestrator.View(); ok {
				return true, nil
			}
			if errors.Is(loadErr, bacerrors.ErrNotFound) {
				return false, nil
			}
			return false, loadErr
		},
	}
	if err := waiter.Wait(ctx); err != nil && loadErr == nil {
		return err
	}
	return loadErr
}

const waitDelay = time.Second

func jobInfoError(jobID string, err error) error {
	if errors.Is(err, bacerrors.ErrNotFound) {
		return fmt.Errorf("no job found with ID: %s", jobID)
	}
	if err == nil {
		return fmt.Errorf("could not load job %s", jobID)
	}
	return fmt.Errorf("could not load job %s: %w", jobID, err)
}
