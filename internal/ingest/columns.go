// Package ingest reads task records from CSV files and SQL tables.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sla-overage-report/internal/errs"
	"sla-overage-report/internal/task"
)

// Result is an ingested table with the number of rows that could not be parsed.
type Result struct {
	Records     []task.Record
	InvalidRows int
}

var (
	ownerColumns    = []string{"OwnerId", "owner_id", "owner"}
	categoryColumns = []string{"Task_Category__c", "task_category", "category"}
	activityColumns = []string{"ActivityDate", "activity_date", "date"}
	createdColumns  = []string{"CreatedDate", "created_date", "created"}
	durationColumns = []string{"Number_of_days_overdue__c", "Duration of Task", "duration_of_task", "days_overdue", "duration"}
)

type columnIndex struct {
	owner    int
	category int
	activity int
	created  int
	duration int
}

func resolveColumns(headers []string) (columnIndex, error) {
	colMap := normalizeHeaders(headers)
	var idx columnIndex
	var ok bool
	if idx.owner, ok = findColumn(colMap, ownerColumns); !ok {
		return idx, &errs.SchemaError{Column: "owner_id"}
	}
	if idx.category, ok = findColumn(colMap, categoryColumns); !ok {
		return idx, &errs.SchemaError{Column: "category"}
	}
	if idx.activity, ok = findColumn(colMap, activityColumns); !ok {
		return idx, &errs.SchemaError{Column: "activity_date"}
	}
	if idx.created, ok = findColumn(colMap, createdColumns); !ok {
		return idx, &errs.SchemaError{Column: "created_date"}
	}
	if idx.duration, ok = findColumn(colMap, durationColumns); !ok {
		return idx, &errs.SchemaError{Column: "duration_of_task"}
	}
	return idx, nil
}

// parseRecord returns false for rows missing an owner, a category or a duration.
// Unparseable dates are kept as zero values and fail any date bound later.
func (idx columnIndex) parseRecord(row []string) (task.Record, bool) {
	owner := getValue(row, idx.owner)
	category := getValue(row, idx.category)
	if owner == "" || category == "" {
		return task.Record{}, false
	}
	duration, err := parseDuration(getValue(row, idx.duration))
	if err != nil {
		return task.Record{}, false
	}
	activity, _ := ParseDate(getValue(row, idx.activity))
	created, _ := ParseDate(getValue(row, idx.created))
	return task.Record{
		OwnerID:      owner,
		Category:     category,
		ActivityDate: activity,
		CreatedDate:  created,
		DurationDays: duration,
	}, true
}

func parseDuration(value string) (int, error) {
	if value == "" {
		return 0, errors.New("empty duration")
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("duration %q is not a whole number of days", value)
	}
	return int(f), nil
}

// ParseDate accepts the date layouts found in task exports.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"01-02-2006",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05 -0700 MST",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(value, "\ufeff")))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
