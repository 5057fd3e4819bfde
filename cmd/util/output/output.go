package output

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

type OutputFormat string

const (
	TableFormat OutputFormat = "table"
	CSVFormat   OutputFormat = "csv"
	JSONFormat  OutputFormat = "json"
	YAMLFormat  OutputFormat = "yaml"
)

var NonTabularFormats = []OutputFormat{JSONFormat, YAMLFormat}
var AllFormats = append([]OutputFormat{TableFormat, CSVFormat}, NonTabularFormats...)

var noStyle = table.Style{
	Name:   "StyleDefault",
	Box:    table.StyleBoxDefault,
	Color:  table.ColorOptionsDefault,
	Format: table.FormatOptionsDefault,
	HTML:   table.DefaultHTMLOptions,
	Options: table.Options{
		DrawBorder:      false,
		SeparateColumns: false,
		SeparateFooter:  false,
		SeparateHeader:  false,
		SeparateRows:    false,
	},
	Title: table.TitleOptionsDefault,
}

type OutputOptions struct {
	Format     OutputFormat // The output format
	Pretty     bool         // Pretty print JSON
	HideHeader bool         // Hide the column headers
	NoStyle    bool         // Remove all styling from table output.
	Wide       bool         // Print full values in the table results
}

// IsTabular reports whether the format renders tables.
func (o OutputOptions) IsTabular() bool {
	return o.Format == TableFormat || o.Format == CSVFormat
}

type TableColumn[T any] struct {
	table.ColumnConfig
	Value func(T) string
}

// Output writes items as a table, or as a JSON/YAML list.
func Output[T any](cmd *cobra.Command, columns []TableColumn[T], options OutputOptions, items []T) error {
	if options.IsTabular() {
		outputTable(cmd, columns, options, items)
		return nil
	}
	return OutputNonTabular(cmd, options, items)
}

// OutputNonTabular writes value as JSON or YAML.
func OutputNonTabular(cmd *cobra.Command, options OutputOptions, value any) error {
	switch options.Format {
	case JSONFormat:
		encoder := json.NewEncoder(cmd.OutOrStdout())
		if options.Pretty {
			encoder.SetIndent("", "  ")
		}
		return encoder.Encode(value)
	case YAMLFormat:
		b, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	default:
		return fmt.Errorf("invalid format %q", options.Format)
	}
}

// KeyValue prints key-value pairs with the keys aligned. Pairs with an
// empty value are skipped.
//
//	Name = John
//	Age  = 30
func KeyValue(cmd *cobra.Command, data []lo.Entry[string, any]) {
	maxKeyLength := 0
	for _, pair := range data {
		if len(pair.Key) > maxKeyLength {
			maxKeyLength = len(pair.Key)
		}
	}

	for _, pair := range data {
		if fmt.Sprintf("%v", pair.Value) == "" {
			continue
		}
		cmd.Printf("%-*s = %v\n", maxKeyLength, pair.Key, pair.Value)
	}
}

// Heading prints a section title followed by a blank line before it.
func Heading(cmd *cobra.Command, title string) {
	cmd.Printf("\n%s\n", title)
}

func outputTable[T any](cmd *cobra.Command, columns []TableColumn[T], options OutputOptions, items []T) {
	tw := table.NewWriter()
	tw.SetOutputMirror(cmd.OutOrStdout())

	configs := lo.Map(columns, func(c TableColumn[T], i int) table.ColumnConfig {
		config := c.ColumnConfig
		config.Number = i + 1
		if options.Wide {
			config.WidthMax = 0
			config.WidthMaxEnforcer = nil
		}
		return config
	})
	tw.SetColumnConfigs(configs)

	if !options.HideHeader {
		headers := lo.Map(columns, func(c TableColumn[T], _ int) any { return c.Name })
		tw.AppendHeader(headers)
	}

	tw.SetStyle(table.StyleColoredGreenWhiteOnBlack)
	if options.NoStyle {
		tw.SetStyle(noStyle)
	}

	for _, item := range items {
		values := lo.Map(columns, func(c TableColumn[T], _ int) any {
			return c.Value(item)
		})
		tw.AppendRow(values)
	}

	switch options.Format {
	case TableFormat:
		tw.Render()
	case CSVFormat:
		tw.RenderCSV()
	}
}
