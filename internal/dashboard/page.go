package dashboard

import (
	"html/template"
	"strconv"
	"time"

	"sla-overage-report/internal/chart"
	"sla-overage-report/internal/crosstab"
	"sla-overage-report/internal/report"
	"sla-overage-report/internal/task"
)

type option struct {
	Value    string
	Selected bool
}

type legendEntry struct {
	Category string
	Color    string
}

type recordRow struct {
	Owner        string
	Category     string
	ActivityDate string
	CreatedDate  string
	Duration     int
	SLADays      string
	OverDays     string
	Bin          string
}

type pageData struct {
	Source       string
	Query        template.URL
	Options      []option
	Legend       []legendEntry
	Summary      report.Summary
	Columns      []string
	Counts       []crosstab.DisplayRow
	Percents     []crosstab.DisplayRow
	ShowTotal    bool
	Records      []recordRow
	RecordsTitle string
}

func newPageData(table report.Table, rep report.Report, source string, query string) pageData {
	selected := map[string]bool{}
	for _, value := range rep.Selection.Choice {
		selected[value] = true
	}

	options := []option{{Value: crosstab.AllLabel, Selected: selected[crosstab.AllLabel]}}
	for _, category := range table.Categories() {
		options = append(options, option{Value: category, Selected: selected[category]})
	}

	var legend []legendEntry
	for i, category := range chart.Legend(rep.Histogram) {
		legend = append(legend, legendEntry{Category: category, Color: chart.Hex(i)})
	}

	return pageData{
		Source:       source,
		Query:        template.URL(query),
		Options:      options,
		Legend:       legend,
		Summary:      rep.Summary,
		Columns:      rep.Counts.Columns,
		Counts:       rep.Counts.Display(),
		Percents:     rep.PercentDisplay,
		ShowTotal:    rep.Selection.ShowTotal,
		Records:      recordRows(rep.Records),
		RecordsTitle: rep.Selection.Summary,
	}
}

func recordRows(records []task.Record) []recordRow {
	rows := make([]recordRow, 0, len(records))
	for _, record := range records {
		row := recordRow{
			Owner:        record.OwnerID,
			Category:     record.Category,
			ActivityDate: formatDate(record.ActivityDate),
			CreatedDate:  formatDate(record.CreatedDate),
			Duration:     record.DurationDays,
		}
		if record.SLA != nil {
			row.SLADays = strconv.Itoa(record.SLA.Days)
			row.OverDays = strconv.Itoa(record.SLA.OverDays)
			row.Bin = record.SLA.Bin
		}
		rows = append(rows, row)
	}
	return rows
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format("2006-01-02")
}

var pageFuncs = template.FuncMap{
	"isTotal": func(category string) bool { return category == crosstab.TotalLabel },
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Over SLA Days Histogram by Task Category</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.6rem; }
h2 { font-size: 1.2rem; margin-top: 2rem; }
.meta { color: #777; font-size: 0.85rem; }
.warn { color: #c0392b; }
table { border-collapse: collapse; margin-top: 0.5rem; }
th, td { border: 1px solid #ddd; padding: 4px 10px; text-align: right; }
th:first-child, td:first-child { text-align: left; }
tr.total td { font-weight: bold; background: #f4f4f8; }
.legend span { display: inline-block; margin-right: 1rem; }
.swatch { display: inline-block; width: 10px; height: 10px; margin-right: 4px; }
select { min-width: 12rem; }
</style>
</head>
<body>
<h1>Over SLA Days Histogram by Task Category</h1>
<p class="meta">Source {{.Source}} &middot; run {{.Summary.RunID}} &middot; {{.Summary.BinnedRecords}} binned of {{.Summary.Filter.Kept}} filtered records</p>
{{if .Summary.UnmappedRecords}}<p class="warn">{{.Summary.UnmappedRecords}} records have no SLA mapping ({{range $i, $c := .Summary.UnmappedCategories}}{{if $i}}, {{end}}{{$c}}{{end}}) and are left out of the bins.</p>{{end}}
<img src="/histogram.png" alt="Over SLA Days Histogram">
<div class="legend">{{range .Legend}}<span><i class="swatch" style="background: {{.Color}}"></i>{{.Category}}</span>{{end}}</div>

<form method="get" action="/">
<input type="hidden" name="sel" value="1">
<label for="category">Select Task Category to show records:</label><br>
<select id="category" name="category" multiple size="6">
{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Value}}</option>
{{end}}</select>
<button type="submit">Show</button>
</form>

<h2>Task Category Distribution within Over SLA Days Bins</h2>
<h3>1. Over SLA Days Bin Count</h3>
{{if .Counts}}<table>
<tr><th>Task Category</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Counts}}<tr{{if isTotal .Category}} class="total"{{end}}><td>{{.Category}}</td>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>{{else}}<p>No records for the selected categories.</p>{{end}}

<h3>2. Mixed Percentage Distribution</h3>
<p><b>Task Category Rows:</b> Percentage of category count relative to the <b>Column (Bin) Total</b>.</p>
{{if .ShowTotal}}<p><b>Total Row:</b> Percentage of the column total relative to the <b>Grand Total of all records</b>.</p>{{end}}
{{if .Percents}}<table>
<tr><th>Task Category</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
{{range .Percents}}<tr{{if isTotal .Category}} class="total"{{end}}><td>{{.Category}}</td>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{end}}</table>{{else}}<p>No records for the selected categories.</p>{{end}}

<h2>Records for Selected Task Categories</h2>
<p>{{.RecordsTitle}} &middot; <a href="/api/records.csv?{{.Query}}">CSV</a> &middot; <a href="/api/report?{{.Query}}">JSON</a></p>
<table>
<tr><th>Owner</th><th>Task Category</th><th>Activity Date</th><th>Created Date</th><th>Duration of Task</th><th>SLA Days</th><th>Over SLA Days</th><th>Bin</th></tr>
{{range .Records}}<tr><td>{{.Owner}}</td><td>{{.Category}}</td><td>{{.ActivityDate}}</td><td>{{.CreatedDate}}</td><td>{{.Duration}}</td><td>{{.SLADays}}</td><td>{{.OverDays}}</td><td>{{.Bin}}</td></tr>
{{end}}</table>
</body>
</html>
`
