// Package crosstab slices binned task records by category and builds the count and
// percentage cross-tabulations over the overage bins.
package crosstab

import (
	"fmt"
	"sort"
	"strings"

	"sla-overage-report/internal/task"
)

// AllLabel is the selection value meaning every category.
const AllLabel = "All"

// Choice is the caller's category selection.
type Choice struct {
	All        bool
	Categories []string
}

// ParseChoice turns raw multi-select values into a Choice. AllLabel anywhere in the
// values selects every category; blank values are ignored.
func ParseChoice(values []string) Choice {
	var categories []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if strings.EqualFold(value, AllLabel) {
			return Choice{All: true}
		}
		categories = append(categories, value)
	}
	return Choice{Categories: categories}
}

// Values returns the choice as multi-select values.
func (c Choice) Values() []string {
	if c.All {
		return []string{AllLabel}
	}
	return append([]string(nil), c.Categories...)
}

// Selection is the record slice and the categories to display for a Choice.
type Selection struct {
	All        bool
	Records    []task.Record
	Categories []string
}

// Select slices records by choice. For All the displayed categories are every
// category in the slice sorted ascending; otherwise they are the chosen ones in
// caller order. Records without an SLA stay in the slice for raw-record views and
// Aggregate gives their categories no table row.
func Select(records []task.Record, choice Choice) Selection {
	if choice.All {
		return Selection{
			All:        true,
			Records:    append([]task.Record(nil), records...),
			Categories: Categories(records),
		}
	}

	chosen := make(map[string]bool, len(choice.Categories))
	displayed := make([]string, 0, len(choice.Categories))
	for _, category := range choice.Categories {
		if chosen[category] {
			continue
		}
		chosen[category] = true
		displayed = append(displayed, category)
	}

	slice := make([]task.Record, 0)
	for _, record := range records {
		if chosen[record.Category] {
			slice = append(slice, record)
		}
	}
	return Selection{Records: slice, Categories: displayed}
}

// ShowTotal reports whether the tables for this selection carry a Total row.
func (s Selection) ShowTotal() bool {
	return s.All || len(s.Categories) > 1
}

// Summary is the human-readable line describing the record slice.
func (s Selection) Summary() string {
	return fmt.Sprintf("Showing %d records for selected categories (%s)", len(s.Records), strings.Join(s.Categories, ", "))
}

// Categories returns the distinct categories of records, sorted.
func Categories(records []task.Record) []string {
	seen := map[string]bool{}
	result := make([]string, 0)
	for _, record := range records {
		if !seen[record.Category] {
			seen[record.Category] = true
			result = append(result, record.Category)
		}
	}
	sort.Strings(result)
	return result
}
