package migrate

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	repositoryColumnTitleConstant   = "Repository"
	destinationColumnTitleConstant  = "Destination"
	visibilityColumnTitleConstant   = "Visibility"
	updatedDaysColumnTitleConstant  = "Updated (days)"
	archiveColumnTitleConstant      = "Archive"
	organizationColumnTitleConstant = "Organization"
	privateVisibilityConstant       = "private"
	publicVisibilityConstant        = "public"
	affirmativeCellConstant         = "yes"
	negativeCellConstant            = "no"
	updatedDaysColumnNumberConstant = 3
)

// RenderReport writes the table of migrated repositories.
func RenderReport(writer io.Writer, summary RunSummary) {
	tableWriter := newTableWriter(writer)
	tableWriter.AppendHeader(table.Row{repositoryColumnTitleConstant, destinationColumnTitleConstant, archiveColumnTitleConstant, organizationColumnTitleConstant})
	for _, record := range summary.Migrated {
		tableWriter.AppendRow(table.Row{record.Slug, record.DestinationURL, yesNo(record.Archived), yesNo(record.OrganizationOwned)})
	}
	tableWriter.Render()
}

// RenderPlan writes the table of repositories a run would migrate.
func RenderPlan(writer io.Writer, plan []PreparedRepository) {
	tableWriter := newTableWriter(writer)
	tableWriter.AppendHeader(table.Row{repositoryColumnTitleConstant, visibilityColumnTitleConstant, updatedDaysColumnTitleConstant, archiveColumnTitleConstant})
	for _, prepared := range plan {
		visibility := publicVisibilityConstant
		if prepared.Private {
			visibility = privateVisibilityConstant
		}
		tableWriter.AppendRow(table.Row{prepared.Slug, visibility, strconv.Itoa(prepared.UpdatedDaysAgo), yesNo(prepared.ShouldArchive)})
	}
	tableWriter.SetColumnConfigs([]table.ColumnConfig{
		{Number: updatedDaysColumnNumberConstant, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tableWriter.Render()
}

func newTableWriter(writer io.Writer) table.Writer {
	tableWriter := table.NewWriter()
	tableWriter.SetStyle(table.StyleRounded)
	tableWriter.SetOutputMirror(writer)
	return tableWriter
}

func yesNo(value bool) string {
	if value {
		return affirmativeCellConstant
	}
	return negativeCellConstant
}
