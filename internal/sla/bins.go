package sla

import (
	"sla-overage-report/internal/errs"
	"sla-overage-report/internal/task"
)

// Scheme is an ordered set of right-closed bins over days over SLA. Bin i covers
// (Upper[i-1], Upper[i]] with an implicit floor of -1; the last label covers
// everything above the final bound.
type Scheme struct {
	Upper  []int
	Labels []string
}

// DefaultScheme is the seven-bucket scheme used by every report.
var DefaultScheme = Scheme{
	Upper:  []int{0, 3, 5, 10, 20, 30},
	Labels: []string{"0", "1-3", "3-5", "5-10", "10-20", "20-30", "30+"},
}

// NewScheme validates bounds and labels.
func NewScheme(upper []int, labels []string) (Scheme, error) {
	if len(upper) == 0 {
		return Scheme{}, errs.Config("bins", "at least one upper bound is required")
	}
	if len(labels) != len(upper)+1 {
		return Scheme{}, errs.Config("bins", "expected %d labels for %d bounds, got %d", len(upper)+1, len(upper), len(labels))
	}
	if upper[0] < 0 {
		return Scheme{}, errs.Config("bins", "first bound %d is below zero", upper[0])
	}
	for i := 1; i < len(upper); i++ {
		if upper[i] <= upper[i-1] {
			return Scheme{}, errs.Config("bins", "bounds must be strictly increasing at %d", upper[i])
		}
	}
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if label == "" {
			return Scheme{}, errs.Config("bins", "empty label")
		}
		if seen[label] {
			return Scheme{}, errs.Config("bins", "duplicate label %q", label)
		}
		seen[label] = true
	}
	return Scheme{
		Upper:  append([]int(nil), upper...),
		Labels: append([]string(nil), labels...),
	}, nil
}

// Index returns the position of the bin containing value.
func (s Scheme) Index(value int) int {
	for i, bound := range s.Upper {
		if value <= bound {
			return i
		}
	}
	return len(s.Upper)
}

// Label returns the bin label for value.
func (s Scheme) Label(value int) string {
	return s.Labels[s.Index(value)]
}

// Position returns the column index of a label, or -1.
func (s Scheme) Position(label string) int {
	for i, l := range s.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// Assign returns a copy of records with the bin label set on every record that has
// an SLA. Records without one are carried over unbinned.
func (s Scheme) Assign(records []task.Record) []task.Record {
	result := make([]task.Record, len(records))
	for i, record := range records {
		if record.SLA != nil {
			sla := *record.SLA
			sla.Bin = s.Label(sla.OverDays)
			record.SLA = &sla
		}
		result[i] = record
	}
	return result
}
