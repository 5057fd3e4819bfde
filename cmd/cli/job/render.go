package job

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/CoopHive/bacalhau/cmd/util/output"
	"github.com/CoopHive/bacalhau/pkg/dashboard/types"
	"github.com/CoopHive/bacalhau/pkg/jobdetail"
	"github.com/CoopHive/bacalhau/pkg/jobview"
	"github.com/CoopHive/bacalhau/pkg/model"
	"github.com/CoopHive/bacalhau/pkg/moderation"
)

const (
	notLoaded = "not loaded"
	noneFound = "none"
)

type shardLine struct {
	Node jobview.NodeCard
	Row  jobview.ShardRow
}

var shardColumns = []output.TableColumn[shardLine]{
	{
		ColumnConfig: table.ColumnConfig{Name: "Node", WidthMax: 10, WidthMaxEnforcer: text.WrapText},
		Value:        func(l shardLine) string { return l.Node.ShortID },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Shard"},
		Value:        func(l shardLine) string { return strconv.Itoa(l.Row.Index) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "State"},
		Value:        func(l shardLine) string { return l.Row.State.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Status", WidthMax: 40, WidthMaxEnforcer: text.WrapText},
		Value:        func(l shardLine) string { return l.Row.Status },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Result", WidthMax: 20, WidthMaxEnforcer: text.WrapText},
		Value: func(l shardLine) string {
			if l.Row.PublishedResult == nil {
				return ""
			}
			return l.Row.PublishedResult.CID
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Exit"},
		Value: func(l shardLine) string {
			if l.Row.RunOutput == nil {
				return ""
			}
			return strconv.Itoa(l.Row.RunOutput.ExitCode)
		},
	},
}

var timelineColumns = []output.TableColumn[jobview.TimelineEvent]{
	{
		ColumnConfig: table.ColumnConfig{Name: "Time"},
		Value:        func(e jobview.TimelineEvent) string { return e.EventTime.Format(time.DateTime) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Origin"},
		Value:        func(e jobview.TimelineEvent) string { return string(e.Origin) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Event"},
		Value:        func(e jobview.TimelineEvent) string { return e.EventName.String() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Source", WidthMax: 10, WidthMaxEnforcer: text.WrapText},
		Value:        func(e jobview.TimelineEvent) string { return model.ShortID(e.SourceNodeID) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Target", WidthMax: 10, WidthMaxEnforcer: text.WrapText},
		Value:        func(e jobview.TimelineEvent) string { return model.ShortID(e.TargetNodeID) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Status", WidthMax: 40, WidthMaxEnforcer: text.WrapText},
		Value:        func(e jobview.TimelineEvent) string { return e.Status },
	},
}

var relationColumns = []output.TableColumn[jobview.RelationGroup]{
	{
		ColumnConfig: table.ColumnConfig{Name: "CID", WidthMax: 60, WidthMaxEnforcer: text.WrapText},
		Value:        func(g jobview.RelationGroup) string { return jobview.DescribeCID(g.CID) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Jobs", WidthMax: 40, WidthMaxEnforcer: text.WrapText},
		Value: func(g jobview.RelationGroup) string {
			return strings.Join(lo.Map(g.Relations, func(r types.JobRelation, _ int) string {
				return model.ShortID(r.JobID)
			}), ", ")
		},
	},
}

var panelColumns = []output.TableColumn[moderation.Panel]{
	{
		ColumnConfig: table.ColumnConfig{Name: "Request"},
		Value:        func(p moderation.Panel) string { return strconv.FormatInt(p.Request.ID, 10) },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Type"},
		Value:        func(p moderation.Panel) string { return p.Request.Type.Title() },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Prompt", WidthMax: 40, WidthMaxEnforcer: text.WrapText},
		Value:        func(p moderation.Panel) string { return p.Format.Title },
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Decision"},
		Value: func(p moderation.Panel) string {
			if !p.Decided() {
				return "pending"
			}
			latest, _ := p.Latest()
			if latest.Moderation == nil {
				return "pending"
			}
			if latest.Moderation.Status {
				return "approved"
			}
			return "rejected"
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "By"},
		Value: func(p moderation.Panel) string {
			latest, ok := p.Latest()
			if !ok || latest.User == nil {
				return ""
			}
			return latest.User.Username
		},
	},
	{
		ColumnConfig: table.ColumnConfig{Name: "Notes", WidthMax: 40, WidthMaxEnforcer: text.WrapText},
		Value: func(p moderation.Panel) string {
			latest, ok := p.Latest()
			if !ok || latest.Moderation == nil {
				return ""
			}
			return latest.Moderation.Notes
		},
	},
}

// printView writes view in the requested format. Tables are printed as
// labelled sections.
func printView(cmd *cobra.Command, options output.OutputOptions, view *jobdetail.View) error {
	if !options.IsTabular() {
		return output.OutputNonTabular(cmd, options, view)
	}

	output.KeyValue(cmd, []lo.Entry[string, any]{
		{Key: "Job", Value: view.JobID},
		{Key: "Requester", Value: view.RequesterNodeID},
		{Key: "Created", Value: view.Job.Metadata.CreatedAt.Format(time.DateTime)},
		{Key: "Engine", Value: view.Job.Spec.Engine},
		{Key: "Image", Value: view.Job.Spec.Docker.Image},
		{Key: "Entrypoint", Value: strings.Join(view.Job.Spec.Docker.Entrypoint, " ")},
	})

	var lines []shardLine
	for _, node := range view.Nodes {
		for _, row := range node.Shards {
			lines = append(lines, shardLine{Node: node, Row: row})
		}
	}
	if err := section(cmd, "Nodes", options, shardColumns, lines, true); err != nil {
		return err
	}
	for _, line := range lines {
		printRunOutput(cmd, line)
	}
	if err := section(cmd, "Events", options, timelineColumns, view.Timeline, true); err != nil {
		return err
	}
	if err := section(cmd, "Inputs", options, relationColumns, view.Inputs.Groups(), view.InputsLoaded); err != nil {
		return err
	}
	if err := section(cmd, "Outputs", options, relationColumns, view.Outputs.Groups(), view.OutputsLoaded); err != nil {
		return err
	}
	if len(view.Results) > 0 {
		output.Heading(cmd, "Results")
		for _, result := range view.Results {
			cmd.Printf("%s\n", jobview.DescribeCID(result.CID))
		}
	}
	return section(cmd, "Moderation", options, panelColumns, view.Panels, true)
}

// printRunOutput writes the stdout and stderr of a shard that produced any.
func printRunOutput(cmd *cobra.Command, line shardLine) {
	run := line.Row.RunOutput
	if line.Row.HasStdout() {
		output.Heading(cmd, fmt.Sprintf("Stdout (%s, shard %d)", line.Node.ShortID, line.Row.Index))
		printStream(cmd, run.STDOUT, run.StdoutTruncated)
	}
	if line.Row.HasStderr() {
		output.Heading(cmd, fmt.Sprintf("Stderr (%s, shard %d)", line.Node.ShortID, line.Row.Index))
		printStream(cmd, run.STDERR, run.StderrTruncated)
	}
}

func printStream(cmd *cobra.Command, text string, truncated bool) {
	cmd.Println(strings.TrimRight(text, "\n"))
	if truncated {
		cmd.Println("(truncated)")
	}
}

func section[T any](
	cmd *cobra.Command,
	title string,
	options output.OutputOptions,
	columns []output.TableColumn[T],
	items []T,
	loaded bool,
) error {
	output.Heading(cmd, title)
	switch {
	case !loaded:
		cmd.Println(notLoaded)
		return nil
	case len(items) == 0:
		cmd.Println(noneFound)
		return nil
	}
	return output.Output(cmd, columns, options, items)
}
