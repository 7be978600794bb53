package crosstab

import (
	"math"
	"reflect"
	"testing"

	"sla-overage-report/internal/sla"
	"sla-overage-report/internal/task"
)

func binned(category string, over ...int) []task.Record {
	records := make([]task.Record, 0, len(over))
	for _, value := range over {
		records = append(records, task.Record{
			Category: category,
			SLA:      &task.SLA{Days: 3, OverDays: value, Bin: sla.DefaultScheme.Label(value)},
		})
	}
	return records
}

func unmapped(category string, n int) []task.Record {
	records := make([]task.Record, n)
	for i := range records {
		records[i] = task.Record{Category: category, DurationDays: 40}
	}
	return records
}

func concat(parts ...[]task.Record) []task.Record {
	var result []task.Record
	for _, part := range parts {
		result = append(result, part...)
	}
	return result
}

func floatEqual(a float64, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestAggregateScenarioCountRow(t *testing.T) {
	records := binned("CW", 0, 0, 1, 2, 3, 4, 5, 6, 10, 35)
	counts, _ := Aggregate(records, []string{"CW"}, sla.DefaultScheme, false)

	if len(counts.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(counts.Rows))
	}
	expect := []int{2, 3, 2, 2, 0, 0, 1}
	if !reflect.DeepEqual(counts.Rows[0].Counts, expect) {
		t.Fatalf("expected %v, got %v", expect, counts.Rows[0].Counts)
	}
	if counts.Total != nil {
		t.Fatal("expected no Total row")
	}
	if !reflect.DeepEqual(counts.Columns, sla.DefaultScheme.Labels) {
		t.Fatalf("unexpected columns %v", counts.Columns)
	}
}

func TestAggregateTotalRowIsColumnSum(t *testing.T) {
	records := concat(binned("CW", 0, 1, 2, 40), binned("CD", 0, 4, 12), binned("TRO", 25))
	counts, _ := Aggregate(records, []string{"CD", "CW", "TRO"}, sla.DefaultScheme, true)

	if counts.Total == nil {
		t.Fatal("expected Total row")
	}
	if counts.Total.Category != TotalLabel {
		t.Fatalf("expected Total label, got %s", counts.Total.Category)
	}
	for col := range counts.Columns {
		sum := 0
		for _, row := range counts.Rows {
			sum += row.Counts[col]
		}
		if counts.Total.Counts[col] != sum {
			t.Fatalf("column %s: total %d, sum %d", counts.Columns[col], counts.Total.Counts[col], sum)
		}
	}
}

func TestAggregatePercentDenominators(t *testing.T) {
	// CW: 0->1, 1-3->3; CD: 0->3, 30+->1
	records := concat(binned("CW", 0, 1, 2, 3), binned("CD", 0, 0, 0, 31))
	_, percents := Aggregate(records, []string{"CD", "CW"}, sla.DefaultScheme, true)

	if len(percents.Rows) != 2 || percents.Rows[0].Category != "CD" {
		t.Fatalf("unexpected rows %+v", percents.Rows)
	}
	cd, cw := percents.Rows[0].Percents, percents.Rows[1].Percents
	if !floatEqual(cd[0], 75) || !floatEqual(cw[0], 25) {
		t.Fatalf("bin 0: expected 75/25, got %.2f/%.2f", cd[0], cw[0])
	}
	if !floatEqual(cw[1], 100) || !floatEqual(cd[1], 0) {
		t.Fatalf("bin 1-3: expected 0/100, got %.2f/%.2f", cd[1], cw[1])
	}
	if !floatEqual(cd[6], 100) {
		t.Fatalf("bin 30+: expected 100, got %.2f", cd[6])
	}

	// Total row: column totals 4, 3, 0, 0, 0, 0, 1 over grand total 8.
	total := percents.Total.Percents
	expect := []float64{50, 37.5, 0, 0, 0, 0, 12.5}
	for i := range expect {
		if !floatEqual(total[i], expect[i]) {
			t.Fatalf("total column %d: expected %.2f, got %.2f", i, expect[i], total[i])
		}
	}
}

func TestAggregatePercentProperties(t *testing.T) {
	records := concat(binned("CW", 0, 1, 2, 3, 7, 15, 40), binned("CD", 0, 0, 5, 22), binned("NEW", 1, 9, 9, 33))
	selection := Select(records, Choice{All: true})
	_, percents := Aggregate(selection.Records, selection.Categories, sla.DefaultScheme, selection.ShowTotal())

	for col := range percents.Columns {
		sum := 0.0
		for _, row := range percents.Rows {
			sum += row.Percents[col]
		}
		if sum > 100.01 {
			t.Fatalf("column %s sums to %.4f", percents.Columns[col], sum)
		}
	}

	totalSum := 0.0
	for _, value := range percents.Total.Percents {
		totalSum += value
	}
	if !floatEqual(totalSum, 100) {
		t.Fatalf("expected Total row to sum to 100, got %.4f", totalSum)
	}
}

func TestAggregateZeroColumnIsZeroPercent(t *testing.T) {
	records := concat(binned("CW", 0, 1), binned("CD", 4))
	_, percents := Aggregate(records, []string{"CD", "CW"}, sla.DefaultScheme, true)

	col := sla.DefaultScheme.Position("10-20")
	for _, row := range percents.Rows {
		if row.Percents[col] != 0 || math.IsNaN(row.Percents[col]) {
			t.Fatalf("row %s: expected 0 in empty column, got %v", row.Category, row.Percents[col])
		}
	}
	if percents.Total.Percents[col] != 0 {
		t.Fatalf("expected 0 total percent, got %v", percents.Total.Percents[col])
	}
}

func TestAggregateSingleCategoryWithoutTotal(t *testing.T) {
	records := binned("CW", 0, 0, 4)
	_, percents := Aggregate(records, []string{"CW"}, sla.DefaultScheme, false)
	if percents.Total != nil {
		t.Fatal("expected no Total percentage row")
	}
	row := percents.Rows[0].Percents
	if !floatEqual(row[0], 100) || !floatEqual(row[2], 100) || row[1] != 0 {
		t.Fatalf("unexpected single-category percentages %v", row)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	counts, percents := Aggregate(nil, nil, sla.DefaultScheme, false)
	if len(counts.Rows) != 0 || counts.Total != nil {
		t.Fatalf("expected empty count table, got %+v", counts)
	}
	if len(percents.Rows) != 0 || percents.Total != nil {
		t.Fatalf("expected empty percent table, got %+v", percents)
	}

	counts, percents = Aggregate(nil, nil, sla.DefaultScheme, true)
	for _, value := range percents.Total.Percents {
		if value != 0 {
			t.Fatalf("expected 0 percentages for zero grand total, got %v", value)
		}
	}
	if len(counts.Rows) != 0 {
		t.Fatalf("expected no category rows, got %d", len(counts.Rows))
	}
}

func TestAggregateSkipsUnmappedAndUnlistedCategories(t *testing.T) {
	records := concat(binned("CW", 1), binned("CD", 2), unmapped("FPC", 3))
	counts, _ := Aggregate(records, []string{"CW", "FPC"}, sla.DefaultScheme, true)
	if len(counts.Rows) != 1 || counts.Rows[0].Category != "CW" {
		t.Fatalf("expected only CW row, got %+v", counts.Rows)
	}
	grand := 0
	for _, value := range counts.Total.Counts {
		grand += value
	}
	if grand != 1 {
		t.Fatalf("expected grand total 1, got %d", grand)
	}
}

func TestLongFormOrdering(t *testing.T) {
	records := concat(binned("CW", 0, 35, 35), binned("CD", 0, 2), unmapped("FPC", 2))
	got := LongForm(records, sla.DefaultScheme)
	expect := []BinCount{
		{Bin: "0", Category: "CD", Count: 1},
		{Bin: "0", Category: "CW", Count: 1},
		{Bin: "1-3", Category: "CD", Count: 1},
		{Bin: "30+", Category: "CW", Count: 2},
	}
	if !reflect.DeepEqual(got, expect) {
		t.Fatalf("expected %+v, got %+v", expect, got)
	}
}

func TestPercentDisplayFormatting(t *testing.T) {
	records := concat(binned("CW", 0), binned("CD", 0, 0))
	_, percents := Aggregate(records, []string{"CD", "CW"}, sla.DefaultScheme, true)
	rows := percents.Display()
	if len(rows) != 3 {
		t.Fatalf("expected 3 display rows, got %d", len(rows))
	}
	if rows[0].Cells[0] != "66.67%" || rows[1].Cells[0] != "33.33%" {
		t.Fatalf("unexpected cells %v / %v", rows[0].Cells, rows[1].Cells)
	}
	if rows[2].Category != TotalLabel || rows[2].Cells[0] != "100.00%" || rows[2].Cells[1] != "0.00%" {
		t.Fatalf("unexpected total row %+v", rows[2])
	}
}
