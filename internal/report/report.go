// Package report runs the SLA overage pipeline over an ingested table and renders
// its results as text, JSON and CSV.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sla-overage-report/internal/config"
	"sla-overage-report/internal/crosstab"
	"sla-overage-report/internal/ingest"
	"sla-overage-report/internal/sla"
	"sla-overage-report/internal/task"
)

// Table is the binned task table a report is cut from. It is built once and never
// modified, so any number of selections can be taken from it.
type Table struct {
	Records     []task.Record
	Scheme      sla.Scheme
	InputRows   int
	InvalidRows int
	Filter      task.FilterStats
}

type Summary struct {
	RunID              string           `json:"run_id"`
	GeneratedAt        time.Time        `json:"generated_at"`
	InputRows          int              `json:"input_rows"`
	InvalidRows        int              `json:"invalid_rows"`
	Filter             task.FilterStats `json:"filter"`
	BinnedRecords      int              `json:"binned_records"`
	UnmappedRecords    int              `json:"unmapped_records"`
	UnmappedCategories []string         `json:"unmapped_categories,omitempty"`
	OverSLACount       int              `json:"over_sla_count"`
	AvgOverDays        float64          `json:"avg_over_sla_days"`
	MedianOverDays     float64          `json:"median_over_sla_days"`
	MaxOverDays        int              `json:"max_over_sla_days"`
}

type SelectionView struct {
	Choice     []string `json:"choice"`
	Categories []string `json:"categories"`
	ShowTotal  bool     `json:"show_total"`
	Summary    string   `json:"summary"`
}

type Report struct {
	Summary        Summary               `json:"summary"`
	Histogram      []crosstab.BinCount   `json:"histogram"`
	Selection      SelectionView         `json:"selection"`
	Counts         crosstab.CountTable   `json:"counts"`
	Percents       crosstab.PercentTable `json:"percents"`
	PercentDisplay []crosstab.DisplayRow `json:"percent_display"`
	Records        []task.Record         `json:"records"`
}

// Prepare filters, computes overage and bins an ingested table.
func Prepare(in ingest.Result, cfg config.Resolved, logger zerolog.Logger) Table {
	filtered, stats := task.Filter(in.Records, cfg.Filter)
	measured := sla.ComputeOverage(filtered, cfg.SLA)
	binned := cfg.Scheme.Assign(measured)

	table := Table{
		Records:     binned,
		Scheme:      cfg.Scheme,
		InputRows:   len(in.Records) + in.InvalidRows,
		InvalidRows: in.InvalidRows,
		Filter:      stats,
	}

	logger.Debug().
		Int("input", stats.Input).
		Int("dropped_date", stats.DroppedDate).
		Int("dropped_category", stats.DroppedCategory).
		Int("dropped_owner", stats.DroppedOwner).
		Int("kept", stats.Kept).
		Msg("records filtered")
	if unmapped := unmappedCategories(binned); len(unmapped) > 0 {
		logger.Warn().Strs("categories", unmapped).Msg("categories without SLA mapping excluded from bins")
	}
	return table
}

// Options carries the per-run identity of a report. Zero values are generated.
type Options struct {
	RunID uuid.UUID
	Now   time.Time
}

// Build cuts a report for choice from the table.
func (t Table) Build(choice crosstab.Choice, opts Options) Report {
	if opts.RunID == uuid.Nil {
		opts.RunID = uuid.New()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	selection := crosstab.Select(t.Records, choice)
	showTotal := selection.ShowTotal()
	counts, percents := crosstab.Aggregate(selection.Records, selection.Categories, t.Scheme, showTotal)

	return Report{
		Summary:   t.summarize(opts),
		Histogram: crosstab.LongForm(t.Records, t.Scheme),
		Selection: SelectionView{
			Choice:     choice.Values(),
			Categories: selection.Categories,
			ShowTotal:  showTotal,
			Summary:    selection.Summary(),
		},
		Counts:         counts,
		Percents:       percents,
		PercentDisplay: percents.Display(),
		Records:        selection.Records,
	}
}

// Categories returns every category in the table, binned or not, sorted. These are
// the options offered next to All in a category multi-select.
func (t Table) Categories() []string {
	return crosstab.Categories(t.Records)
}

func (t Table) summarize(opts Options) Summary {
	summary := Summary{
		RunID:              opts.RunID.String(),
		GeneratedAt:        opts.Now,
		InputRows:          t.InputRows,
		InvalidRows:        t.InvalidRows,
		Filter:             t.Filter,
		UnmappedCategories: unmappedCategories(t.Records),
	}

	overDays := make([]int, 0, len(t.Records))
	for _, record := range t.Records {
		if !record.Binned() {
			summary.UnmappedRecords++
			continue
		}
		summary.BinnedRecords++
		overDays = append(overDays, record.SLA.OverDays)
		if record.SLA.OverDays > 0 {
			summary.OverSLACount++
		}
	}
	summary.AvgOverDays, summary.MedianOverDays, summary.MaxOverDays = summarizeOverDays(overDays)
	return summary
}

func unmappedCategories(records []task.Record) []string {
	seen := map[string]bool{}
	var result []string
	for _, record := range records {
		if record.SLA == nil && !seen[record.Category] {
			seen[record.Category] = true
			result = append(result, record.Category)
		}
	}
	sort.Strings(result)
	return result
}

func summarizeOverDays(values []int) (float64, float64, int) {
	if len(values) == 0 {
		return 0, 0, 0
	}
	sorted := append([]int{}, values...)
	sort.Ints(sorted)
	maxDays := sorted[len(sorted)-1]
	sum := 0
	for _, value := range sorted {
		sum += value
	}
	avg := float64(sum) / float64(len(sorted))
	median := 0.0
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = float64(sorted[mid-1]+sorted[mid]) / 2
	} else {
		median = float64(sorted[mid])
	}
	return round1(avg), round1(median), maxDays
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
