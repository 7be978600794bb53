package task

import (
	"errors"
	"testing"
	"time"

	"sla-overage-report/internal/errs"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func testOwners(t *testing.T) OwnerMap {
	t.Helper()
	owners, err := NewOwnerMap(map[string]string{
		"Nicole De Munck": "005A",
		"Rosella Colley":  "005B",
	})
	if err != nil {
		t.Fatalf("owner map: %v", err)
	}
	return owners
}

func TestNewOwnerMapRejectsDuplicateIDs(t *testing.T) {
	_, err := NewOwnerMap(map[string]string{
		"Nicole De Munck":  "005A",
		"Client Relations": "005A",
	})
	if err == nil {
		t.Fatal("expected error for duplicate owner id")
	}
	var cfgErr *errs.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T", err)
	}
	if cfgErr.Field != "owners" {
		t.Fatalf("expected field owners, got %s", cfgErr.Field)
	}
}

func TestNewOwnerMapRejectsEmptyValues(t *testing.T) {
	if _, err := NewOwnerMap(map[string]string{"Nicole": " "}); err == nil {
		t.Fatal("expected error for empty id")
	}
	if _, err := NewOwnerMap(map[string]string{"": "005A"}); err == nil {
		t.Fatal("expected error for empty name")
	}
}

func TestFilterRecodesOwnersAndDropsUnknown(t *testing.T) {
	records := []Record{
		{OwnerID: "005A", Category: "CW", ActivityDate: day("2025-11-10"), CreatedDate: day("2025-11-05")},
		{OwnerID: "005Z", Category: "CW", ActivityDate: day("2025-11-10"), CreatedDate: day("2025-11-05")},
		{OwnerID: "005B", Category: "CD", ActivityDate: day("2025-11-10"), CreatedDate: day("2025-11-05")},
	}

	filtered, stats := Filter(records, FilterOptions{Owners: testOwners(t)})
	if len(filtered) != 2 {
		t.Fatalf("expected 2 records, got %d", len(filtered))
	}
	if filtered[0].OwnerID != "Nicole De Munck" || filtered[1].OwnerID != "Rosella Colley" {
		t.Fatalf("unexpected owners: %s, %s", filtered[0].OwnerID, filtered[1].OwnerID)
	}
	if stats.DroppedOwner != 1 || stats.Kept != 2 || stats.Input != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if records[0].OwnerID != "005A" {
		t.Fatalf("input was modified: %s", records[0].OwnerID)
	}
}

func TestFilterDateBoundsInclusive(t *testing.T) {
	opts := FilterOptions{
		Owners:       testOwners(t),
		ActivityFrom: day("2025-11-01"),
		ActivityTo:   day("2025-12-03"),
		CreatedFrom:  day("2025-11-01"),
	}
	cases := []struct {
		name     string
		activity time.Time
		created  time.Time
		keep     bool
	}{
		{"activity on upper bound", day("2025-12-03"), day("2025-11-01"), true},
		{"activity late in upper bound day", time.Date(2025, 12, 3, 23, 59, 0, 0, time.UTC), day("2025-11-02"), true},
		{"activity after upper bound", day("2025-12-04"), day("2025-11-02"), false},
		{"activity on lower bound", day("2025-11-01"), day("2025-11-02"), true},
		{"activity before lower bound", day("2025-10-31"), day("2025-11-02"), false},
		{"created before bound", day("2025-11-10"), day("2025-10-31"), false},
		{"created with offset on bound day", day("2025-11-10"), time.Date(2025, 11, 1, 1, 0, 0, 0, time.FixedZone("EST", -5*3600)), true},
		{"missing activity date", time.Time{}, day("2025-11-02"), false},
	}
	for _, tc := range cases {
		records := []Record{{OwnerID: "005A", Category: "CW", ActivityDate: tc.activity, CreatedDate: tc.created}}
		filtered, _ := Filter(records, opts)
		if (len(filtered) == 1) != tc.keep {
			t.Fatalf("%s: expected keep=%v, got %d records", tc.name, tc.keep, len(filtered))
		}
	}
}

func TestFilterWithoutBoundsKeepsZeroDates(t *testing.T) {
	records := []Record{{OwnerID: "005A", Category: "CW"}}
	filtered, _ := Filter(records, FilterOptions{Owners: testOwners(t)})
	if len(filtered) != 1 {
		t.Fatalf("expected 1 record, got %d", len(filtered))
	}
}

func TestCategoryPolicyModes(t *testing.T) {
	allow := CategoryPolicy{Mode: CategoryModeAllowlist, Allow: []string{"CW", "RQ"}}
	prefix := CategoryPolicy{Mode: CategoryModeExcludePrefix, ExcludePrefixes: []string{"RQ", "R"}}
	none := CategoryPolicy{}

	cases := []struct {
		policy   CategoryPolicy
		category string
		keep     bool
	}{
		{allow, "CW", true},
		{allow, "RQ", true},
		{allow, "CD", false},
		{prefix, "RQ", false},
		{prefix, "RQX", false},
		{prefix, "REQ", false},
		{prefix, "CW", true},
		{prefix, "TRO", true},
		{none, "ANY", true},
	}
	for _, tc := range cases {
		if got := tc.policy.Keep(tc.category); got != tc.keep {
			t.Fatalf("%s policy, category %s: expected %v, got %v", tc.policy.mode(), tc.category, tc.keep, got)
		}
	}
}

func TestCategoryPolicyValidate(t *testing.T) {
	both := CategoryPolicy{Allow: []string{"CW"}, ExcludePrefixes: []string{"R"}}
	if err := both.Validate(); err == nil {
		t.Fatal("expected error when both lists are set")
	}
	emptyAllow := CategoryPolicy{Mode: CategoryModeAllowlist}
	if err := emptyAllow.Validate(); err == nil {
		t.Fatal("expected error for allowlist without categories")
	}
	unknown := CategoryPolicy{Mode: "regex", Allow: []string{"CW"}}
	if err := unknown.Validate(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	inferred := CategoryPolicy{ExcludePrefixes: []string{"R"}}
	if err := inferred.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inferred.Keep("RQ") {
		t.Fatal("expected inferred exclude_prefix mode to drop RQ")
	}
}

func TestFilterCountsCategoryDrops(t *testing.T) {
	records := []Record{
		{OwnerID: "005A", Category: "CW"},
		{OwnerID: "005A", Category: "RQ"},
		{OwnerID: "005A", Category: "RX"},
	}
	opts := FilterOptions{
		Owners:     testOwners(t),
		Categories: CategoryPolicy{Mode: CategoryModeExcludePrefix, ExcludePrefixes: []string{"R"}},
	}
	filtered, stats := Filter(records, opts)
	if len(filtered) != 1 || filtered[0].Category != "CW" {
		t.Fatalf("expected only CW, got %+v", filtered)
	}
	if stats.DroppedCategory != 2 {
		t.Fatalf("expected 2 category drops, got %d", stats.DroppedCategory)
	}
}
