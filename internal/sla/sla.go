// Package sla computes days over SLA per task record and assigns overage bins.
package sla

import (
	"sla-overage-report/internal/errs"
	"sla-overage-report/internal/task"
)

// Table maps a task category to its allowed turnaround in days.
type Table map[string]int

// NewTable copies and validates a category to SLA-days mapping.
func NewTable(days map[string]int) (Table, error) {
	table := make(Table, len(days))
	for category, value := range days {
		if category == "" {
			return nil, errs.Config("sla_days", "empty category")
		}
		if value < 0 {
			return nil, errs.Config("sla_days", "%s has negative threshold %d", category, value)
		}
		table[category] = value
	}
	return table, nil
}

// Days returns the threshold for a category.
func (t Table) Days(category string) (int, bool) {
	days, ok := t[category]
	return days, ok
}

// ComputeOverage returns a copy of records with SLA set for every category present in
// the table. Records with an unmapped category get a nil SLA.
func ComputeOverage(records []task.Record, table Table) []task.Record {
	result := make([]task.Record, len(records))
	for i, record := range records {
		days, ok := table.Days(record.Category)
		if !ok {
			record.SLA = nil
			result[i] = record
			continue
		}
		record.SLA = &task.SLA{
			Days:     days,
			OverDays: overDays(record.DurationDays, days),
		}
		result[i] = record
	}
	return result
}

func overDays(duration int, threshold int) int {
	over := duration - threshold
	if over < 0 {
		return 0
	}
	return over
}
