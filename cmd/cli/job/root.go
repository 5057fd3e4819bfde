package job

import (
	"github.com/spf13/cobra"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Commands to inspect and moderate jobs.",
	}

	cmd.AddCommand(NewDescribeCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewModerateCmd())
	return cmd
}
