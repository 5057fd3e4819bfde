package cliflags

import (
	"github.com/spf13/pflag"

	"github.com/CoopHive/bacalhau/cmd/util/flags"
	"github.com/CoopHive/bacalhau/cmd/util/output"
)

func OutputFormatFlags(settings *output.OutputOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("Output format", pflag.ContinueOnError)

	fs.VarP(
		flags.OutputFormatFlag(&settings.Format),
		"output", "o",
		`The output format for the command`,
	)
	fs.BoolVar(&settings.Pretty, "pretty", settings.Pretty,
		`Pretty print the output. Only applies to json format.`)
	fs.BoolVar(&settings.HideHeader, "hide-header", settings.HideHeader,
		`do not print the column headers.`)
	fs.BoolVar(&settings.NoStyle, "no-style", settings.NoStyle,
		`remove all styling from table output.`)
	fs.BoolVar(&settings.Wide, "wide", settings.Wide,
		`Print full values in the table results`)
	return fs
}
