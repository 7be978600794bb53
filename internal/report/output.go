package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"sla-overage-report/internal/crosstab"
	"sla-overage-report/internal/task"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Print writes the text report to w.
func Print(w io.Writer, report Report, source string) {
	s := report.Summary
	fmt.Fprintln(w, titleStyle.Render("Over SLA Days Report"))
	fmt.Fprintln(w, strings.Repeat("=", 38))
	fmt.Fprintf(w, "Input: %s\n", source)
	fmt.Fprintf(w, "Run: %s\n", subtleStyle.Render(s.RunID))
	fmt.Fprintf(w, "Rows read: %d | kept after filters: %d\n", s.InputRows, s.Filter.Kept)
	fmt.Fprintf(w, "Dropped by date: %d | category: %d | owner: %d\n", s.Filter.DroppedDate, s.Filter.DroppedCategory, s.Filter.DroppedOwner)
	fmt.Fprintf(w, "Binned: %d | over SLA: %d\n", s.BinnedRecords, s.OverSLACount)
	fmt.Fprintf(w, "Over SLA days avg/median/max: %.1f / %.1f / %d\n", s.AvgOverDays, s.MedianOverDays, s.MaxOverDays)
	if s.InvalidRows > 0 {
		fmt.Fprintf(w, "Invalid rows skipped: %d\n", s.InvalidRows)
	}
	if s.UnmappedRecords > 0 {
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("No SLA mapping for %d records (%s)", s.UnmappedRecords, strings.Join(s.UnmappedCategories, ", "))))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("1. Over SLA Days Bin Count"))
	printTable(w, report.Counts.Columns, report.Counts.Display())

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("2. Mixed Percentage Distribution"))
	fmt.Fprintln(w, subtleStyle.Render("Task Category rows: share of the column (bin) total."))
	fmt.Fprintln(w, subtleStyle.Render("Total row: share of the grand total of all records."))
	printTable(w, report.Percents.Columns, report.PercentDisplay)

	fmt.Fprintln(w)
	fmt.Fprintln(w, report.Selection.Summary)
}

func printTable(w io.Writer, columns []string, rows []crosstab.DisplayRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No records for the selected categories.")
		return
	}
	first := len("Task Category")
	for _, row := range rows {
		if len(row.Category) > first {
			first = len(row.Category)
		}
	}
	widths := make([]int, len(columns))
	for i, column := range columns {
		widths[i] = len(column)
		for _, row := range rows {
			if i < len(row.Cells) && len(row.Cells[i]) > widths[i] {
				widths[i] = len(row.Cells[i])
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s", first, "Task Category")
	for i, column := range columns {
		fmt.Fprintf(&b, " | %*s", widths[i], column)
	}
	fmt.Fprintln(w, b.String())
	fmt.Fprintln(w, strings.Repeat("-", b.Len()))

	for _, row := range rows {
		b.Reset()
		fmt.Fprintf(&b, "%-*s", first, row.Category)
		for i := range columns {
			cell := ""
			if i < len(row.Cells) {
				cell = row.Cells[i]
			}
			fmt.Fprintf(&b, " | %*s", widths[i], cell)
		}
		fmt.Fprintln(w, b.String())
	}
}

// WriteJSON writes the report as indented JSON to path.
func WriteJSON(report Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// WriteRecordsCSV writes the selected raw records with their derived SLA fields.
// Records without an SLA mapping have empty SLA columns.
func WriteRecordsCSV(w io.Writer, records []task.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{
		"owner",
		"category",
		"activity_date",
		"created_date",
		"duration_of_task",
		"sla_days",
		"over_sla_days",
		"over_sla_bin",
	}); err != nil {
		return err
	}

	for _, record := range records {
		row := []string{
			record.OwnerID,
			record.Category,
			formatDate(record.ActivityDate),
			formatDate(record.CreatedDate),
			strconv.Itoa(record.DurationDays),
			"",
			"",
			"",
		}
		if record.SLA != nil {
			row[5] = strconv.Itoa(record.SLA.Days)
			row[6] = strconv.Itoa(record.SLA.OverDays)
			row[7] = record.SLA.Bin
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteRecordsCSVFile writes WriteRecordsCSV output to path.
func WriteRecordsCSVFile(path string, records []task.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteRecordsCSV(file, records)
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format("2006-01-02")
}
