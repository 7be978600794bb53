package task

import (
	"sort"
	"strings"
	"time"

	"sla-overage-report/internal/errs"
)

// OwnerMap is a validated display-name to raw-id mapping with its inverse.
type OwnerMap struct {
	byName map[string]string
	byID   map[string]string
}

// NewOwnerMap validates that the mapping is a bijection. Two display names sharing a
// raw id make the inverse lookup ambiguous and fail with a ConfigError.
func NewOwnerMap(names map[string]string) (OwnerMap, error) {
	m := OwnerMap{
		byName: make(map[string]string, len(names)),
		byID:   make(map[string]string, len(names)),
	}

	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	for _, name := range keys {
		id := strings.TrimSpace(names[name])
		display := strings.TrimSpace(name)
		if display == "" {
			return OwnerMap{}, errs.Config("owners", "empty display name for id %q", id)
		}
		if id == "" {
			return OwnerMap{}, errs.Config("owners", "empty id for %q", display)
		}
		if prev, ok := m.byID[id]; ok {
			return OwnerMap{}, errs.Config("owners", "id %s is mapped by both %q and %q", id, prev, display)
		}
		m.byName[display] = id
		m.byID[id] = display
	}
	return m, nil
}

// Name returns the display name for a raw owner id.
func (m OwnerMap) Name(id string) (string, bool) {
	name, ok := m.byID[id]
	return name, ok
}

// Len returns the number of owners.
func (m OwnerMap) Len() int { return len(m.byID) }

const (
	CategoryModeNone          = "none"
	CategoryModeAllowlist     = "allowlist"
	CategoryModeExcludePrefix = "exclude_prefix"
)

// CategoryPolicy selects one of the two category filtering modes.
type CategoryPolicy struct {
	Mode            string
	Allow           []string
	ExcludePrefixes []string
}

// Validate checks the policy is one consistent mode.
func (p CategoryPolicy) Validate() error {
	if len(p.Allow) > 0 && len(p.ExcludePrefixes) > 0 {
		return errs.Config("categories", "allow list and exclude prefixes are mutually exclusive")
	}
	switch p.mode() {
	case CategoryModeNone:
		return nil
	case CategoryModeAllowlist:
		if len(p.Allow) == 0 {
			return errs.Config("categories", "allowlist mode requires at least one category")
		}
	case CategoryModeExcludePrefix:
		if len(p.ExcludePrefixes) == 0 {
			return errs.Config("categories", "exclude_prefix mode requires at least one prefix")
		}
		for _, prefix := range p.ExcludePrefixes {
			if strings.TrimSpace(prefix) == "" {
				return errs.Config("categories", "empty exclude prefix")
			}
		}
	default:
		return errs.Config("categories", "unknown mode %q", p.Mode)
	}
	return nil
}

// mode infers the mode from whichever list is set when Mode is empty.
func (p CategoryPolicy) mode() string {
	mode := strings.ToLower(strings.TrimSpace(p.Mode))
	if mode != "" {
		return mode
	}
	switch {
	case len(p.Allow) > 0:
		return CategoryModeAllowlist
	case len(p.ExcludePrefixes) > 0:
		return CategoryModeExcludePrefix
	}
	return CategoryModeNone
}

// Keep reports whether a category passes the policy.
func (p CategoryPolicy) Keep(category string) bool {
	switch p.mode() {
	case CategoryModeAllowlist:
		for _, allowed := range p.Allow {
			if category == allowed {
				return true
			}
		}
		return false
	case CategoryModeExcludePrefix:
		for _, prefix := range p.ExcludePrefixes {
			if strings.HasPrefix(category, prefix) {
				return false
			}
		}
	}
	return true
}

// FilterOptions configures Filter. Zero dates disable the matching bound.
type FilterOptions struct {
	Owners       OwnerMap
	Categories   CategoryPolicy
	ActivityFrom time.Time
	ActivityTo   time.Time
	CreatedFrom  time.Time
}

// FilterStats counts the records dropped by each predicate, in evaluation order.
type FilterStats struct {
	Input           int `json:"input"`
	Kept            int `json:"kept"`
	DroppedDate     int `json:"dropped_date"`
	DroppedCategory int `json:"dropped_category"`
	DroppedOwner    int `json:"dropped_owner"`
}

// Filter returns the records passing the date, category and owner predicates, with
// OwnerID rewritten to the owner display name. records is not modified.
func Filter(records []Record, opts FilterOptions) ([]Record, FilterStats) {
	stats := FilterStats{Input: len(records)}
	result := make([]Record, 0, len(records))

	for _, record := range records {
		if !withinDates(record, opts) {
			stats.DroppedDate++
			continue
		}
		if !opts.Categories.Keep(record.Category) {
			stats.DroppedCategory++
			continue
		}
		name, ok := opts.Owners.Name(record.OwnerID)
		if !ok {
			stats.DroppedOwner++
			continue
		}
		record.OwnerID = name
		if record.SLA != nil {
			sla := *record.SLA
			record.SLA = &sla
		}
		result = append(result, record)
	}

	stats.Kept = len(result)
	return result, stats
}

func withinDates(record Record, opts FilterOptions) bool {
	if !opts.ActivityFrom.IsZero() && !onOrAfter(record.ActivityDate, opts.ActivityFrom) {
		return false
	}
	if !opts.ActivityTo.IsZero() && !onOrAfter(opts.ActivityTo, record.ActivityDate) {
		return false
	}
	if !opts.CreatedFrom.IsZero() && !onOrAfter(record.CreatedDate, opts.CreatedFrom) {
		return false
	}
	return true
}

// onOrAfter compares calendar days; a zero value never satisfies a bound.
func onOrAfter(value time.Time, bound time.Time) bool {
	if value.IsZero() || bound.IsZero() {
		return false
	}
	return civilDay(value) >= civilDay(bound)
}

func civilDay(value time.Time) int {
	return value.Year()*10000 + int(value.Month())*100 + value.Day()
}
