package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/lumix-labs/swift-prompter/internal/models"
)

const tablePadding = 2

func writeTable(out io.Writer, headers []string, rows [][]string) error {
	writer := tabwriter.NewWriter(out, 0, 0, tablePadding, ' ', tabwriter.StripEscape)
	if len(headers) > 0 {
		fmt.Fprintln(writer, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(writer, strings.Join(row, "\t"))
	}
	return writer.Flush()
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatList(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ",")
}

func templateRows(summaries []models.TemplateSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		var required []string
		for _, input := range summary.Inputs {
			if input.Required {
				required = append(required, input.Name)
			}
		}
		rows = append(rows, []string{
			summary.TemplateID,
			summary.Name,
			string(summary.Execution.Mode),
			formatList(summary.Tags),
			formatList(required),
		})
	}
	return rows
}
