package version

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/CoopHive/bacalhau/cmd/util/flags/cliflags"
	"github.com/CoopHive/bacalhau/cmd/util/output"
	"github.com/CoopHive/bacalhau/pkg/model"
	"github.com/CoopHive/bacalhau/pkg/version"
)

// Versions is a struct for version information
type Versions struct {
	ClientVersion *model.BuildVersionInfo `json:"clientVersion,omitempty"`
}

type VersionOptions struct {
	OutputOpts output.OutputOptions
}

func NewVersionOptions() *VersionOptions {
	return &VersionOptions{
		OutputOpts: output.OutputOptions{Format: output.TableFormat},
	}
}

func NewCmd() *cobra.Command {
	oV := NewVersionOptions()

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Get the client version.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return oV.Run(cmd)
		},
	}
	versionCmd.Flags().AddFlagSet(cliflags.OutputFormatFlags(&oV.OutputOpts))
	return versionCmd
}

var versionColumns = []output.TableColumn[Versions]{
	{
		ColumnConfig: table.ColumnConfig{Name: "client"},
		Value:        func(v Versions) string { return v.ClientVersion.GitVersion },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "commit"},
		Value:        func(v Versions) string { return v.ClientVersion.GitCommit },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "platform"},
		Value:        func(v Versions) string { return v.ClientVersion.GOOS + "/" + v.ClientVersion.GOARCH },
	},
}

func (oV *VersionOptions) Run(cmd *cobra.Command) error {
	clientVersion, err := version.Get()
	if err != nil {
		return fmt.Errorf("error running version: %w", err)
	}
	versions := Versions{ClientVersion: clientVersion}
	if oV.OutputOpts.IsTabular() {
		return output.Output(cmd, versionColumns, oV.OutputOpts, []Versions{versions})
	}
	return output.OutputNonTabular(cmd, oV.OutputOpts, versions)
}
