package job

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/i18n"
	"k8s.io/kubectl/pkg/util/templates"

	"github.com/CoopHive/bacalhau/cmd/util"
	"github.com/CoopHive/bacalhau/cmd/util/output"
	"github.com/CoopHive/bacalhau/pkg/config"
	"github.com/CoopHive/bacalhau/pkg/config/types"
	dashboardtypes "github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/jobdetail"
	"github.com/CoopHive/bacalhau/pkg/moderation"
)

var (
	moderateShort = `Approve or reject a moderation request of a job.`

	moderateLong = templates.LongDesc(i18n.T(`
		Record a decision against one of the moderation requests of a job.
		Requests are listed in the Moderation section of 'jobview job describe'.

		Moderating needs a session token, given with --api-token or the
		JOBVIEW_API_TOKEN environment variable.
`))

	moderateExample = templates.Examples(i18n.T(`
		# Approve the execution of a job
		jobview job moderate 92d5d4ee-3765-4f78-8353-623f5f26df08 --request 12 --approve

		# Reject the results of a job with a reason
		jobview job moderate 92d5d4ee --request 13 --reject --reason "results contain personal data"
`))
)

type ModerateOptions struct {
	RequestID int64
	Approve   bool
	Reject    bool
	Reason    string
}

func NewModerateOptions() *ModerateOptions {
	return &ModerateOptions{}
}

func NewModerateCmd() *cobra.Command {
	o := NewModerateOptions()
	moderateCmd := &cobra.Command{
		Use:     "moderate [id]",
		Short:   moderateShort,
		Long:    moderateLong,
		Example: moderateExample,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.Validate()
		},
		RunE: o.run,
	}

	moderateCmd.Flags().Int64Var(&o.RequestID, "request", o.RequestID, `ID of the moderation request.`)
	moderateCmd.Flags().BoolVar(&o.Approve, "approve", o.Approve, `Approve the request.`)
	moderateCmd.Flags().BoolVar(&o.Reject, "reject", o.Reject, `Reject the request.`)
	moderateCmd.Flags().StringVar(&o.Reason, "reason", o.Reason, `Why the decision was made.`)
	moderateCmd.MarkFlagsMutuallyExclusive("approve", "reject")
	if err := moderateCmd.MarkFlagRequired("request"); err != nil {
		panic(fmt.Sprintf("DEVELOPER ERROR: %s", err))
	}
	return moderateCmd
}

// Validate validates the provided options
func (o *ModerateOptions) Validate() error {
	if o.Approve == o.Reject {
		return errors.New("exactly one of --approve or --reject must be set")
	}
	if o.RequestID <= 0 {
		return fmt.Errorf("invalid request ID %d", o.RequestID)
	}
	return nil
}

func (o *ModerateOptions) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobID := args[0]

	apiClient, s, err := util.GetAPIClient(ctx)
	if err != nil {
		return err
	}
	if !s.IsAuthenticated() {
		return fmt.Errorf("moderation needs a session token: set --api-token or %s", config.KeyAsEnvVar(types.APIToken))
	}

	orchestrator := jobdetail.New(jobdetail.Params{
		API:     apiClient,
		Session: s,
		Notifier: moderation.NotifierFunc(func(n moderation.Notification) {
			if n.Level == moderation.LevelError {
				util.PrintErr(cmd, errors.New(n.Message))
				return
			}
			cmd.Println(n.Message)
		}),
	})

	err = orchestrator.Load(ctx, jobID)
	if _, ok := orchestrator.View(); !ok {
		return jobInfoError(jobID, err)
	}

	decision := dashboardtypes.ModerateRequest{Approved: o.Approve, Reason: o.Reason}
	if err := orchestrator.Moderate(ctx, o.RequestID, decision); err != nil {
		return err
	}

	view, ok := orchestrator.View()
	if !ok {
		return nil
	}
	panels := lo.Filter(view.Panels, func(p moderation.Panel, _ int) bool {
		return p.Request.ID == o.RequestID
	})
	options := output.OutputOptions{Format: output.TableFormat, NoStyle: true}
	return section(cmd, "Request "+strconv.FormatInt(o.RequestID, 10), options, panelColumns, panels, true)
}
