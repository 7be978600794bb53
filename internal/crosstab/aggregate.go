package crosstab

import (
	"fmt"
	"math"
	"sort"

	"sla-overage-report/internal/sla"
	"sla-overage-report/internal/task"
)

// TotalLabel names the column-sum row.
const TotalLabel = "Total"

type CountRow struct {
	Category string `json:"category"`
	Counts   []int  `json:"counts"`
}

type CountTable struct {
	Columns []string   `json:"columns"`
	Rows    []CountRow `json:"rows"`
	Total   *CountRow  `json:"total,omitempty"`
}

type PercentRow struct {
	Category string    `json:"category"`
	Percents []float64 `json:"percents"`
}

// PercentTable mirrors CountTable. Category rows are normalised by their column total,
// the Total row by the grand total.
type PercentTable struct {
	Columns []string     `json:"columns"`
	Rows    []PercentRow `json:"rows"`
	Total   *PercentRow  `json:"total,omitempty"`
}

// BinCount is one long-form (bin, category, count) entry used for charting.
type BinCount struct {
	Bin      string `json:"bin"`
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Aggregate builds both tables over the binned records whose category is in rows.
// Table rows follow the order of rows and skip categories with no binned record.
// showTotal appends the Total row and switches category-row denominators to it.
func Aggregate(records []task.Record, rows []string, scheme sla.Scheme, showTotal bool) (CountTable, PercentTable) {
	width := len(scheme.Labels)
	counts := make(map[string][]int, len(rows))
	for _, category := range rows {
		counts[category] = nil
	}

	for _, record := range records {
		if !record.Binned() {
			continue
		}
		row, ok := counts[record.Category]
		if !ok {
			continue
		}
		col := scheme.Position(record.SLA.Bin)
		if col < 0 {
			continue
		}
		if row == nil {
			row = make([]int, width)
			counts[record.Category] = row
		}
		row[col]++
	}

	countTable := CountTable{Columns: append([]string(nil), scheme.Labels...), Rows: []CountRow{}}
	placed := map[string]bool{}
	for _, category := range rows {
		if counts[category] == nil || placed[category] {
			continue
		}
		placed[category] = true
		countTable.Rows = append(countTable.Rows, CountRow{Category: category, Counts: counts[category]})
	}

	columnSums := make([]int, width)
	for _, row := range countTable.Rows {
		for i, count := range row.Counts {
			columnSums[i] += count
		}
	}
	if showTotal {
		countTable.Total = &CountRow{Category: TotalLabel, Counts: columnSums}
	}

	return countTable, percentages(countTable, columnSums)
}

func percentages(counts CountTable, columnSums []int) PercentTable {
	denominators := columnSums
	if counts.Total != nil {
		denominators = counts.Total.Counts
	}

	table := PercentTable{Columns: counts.Columns, Rows: make([]PercentRow, 0, len(counts.Rows))}
	for _, row := range counts.Rows {
		percents := make([]float64, len(row.Counts))
		for i, count := range row.Counts {
			percents[i] = percentOf(count, denominators[i])
		}
		table.Rows = append(table.Rows, PercentRow{Category: row.Category, Percents: percents})
	}

	if counts.Total != nil {
		grand := 0
		for _, value := range counts.Total.Counts {
			grand += value
		}
		percents := make([]float64, len(counts.Total.Counts))
		for i, value := range counts.Total.Counts {
			percents[i] = percentOf(value, grand)
		}
		table.Total = &PercentRow{Category: TotalLabel, Percents: percents}
	}
	return table
}

// percentOf returns 100*part/whole, or 0 when whole is 0.
func percentOf(part int, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

// LongForm counts binned records per (bin, category), ordered by bin then category.
// Only non-zero combinations are returned.
func LongForm(records []task.Record, scheme sla.Scheme) []BinCount {
	type key struct {
		col      int
		category string
	}
	counts := map[key]int{}
	for _, record := range records {
		if !record.Binned() {
			continue
		}
		col := scheme.Position(record.SLA.Bin)
		if col < 0 {
			continue
		}
		counts[key{col: col, category: record.Category}]++
	}

	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].col != keys[j].col {
			return keys[i].col < keys[j].col
		}
		return keys[i].category < keys[j].category
	})

	result := make([]BinCount, 0, len(keys))
	for _, k := range keys {
		result = append(result, BinCount{Bin: scheme.Labels[k.col], Category: k.category, Count: counts[k]})
	}
	return result
}

// DisplayRow is a table row rendered to strings.
type DisplayRow struct {
	Category string   `json:"category"`
	Cells    []string `json:"cells"`
}

// Display renders counts as integers, with the Total row last.
func (t CountTable) Display() []DisplayRow {
	rows := make([]DisplayRow, 0, len(t.Rows)+1)
	appendRow := func(row CountRow) {
		cells := make([]string, len(row.Counts))
		for i, count := range row.Counts {
			cells[i] = fmt.Sprintf("%d", count)
		}
		rows = append(rows, DisplayRow{Category: row.Category, Cells: cells})
	}
	for _, row := range t.Rows {
		appendRow(row)
	}
	if t.Total != nil {
		appendRow(*t.Total)
	}
	return rows
}

// Display renders percentages rounded to two decimals with a percent suffix.
func (t PercentTable) Display() []DisplayRow {
	rows := make([]DisplayRow, 0, len(t.Rows)+1)
	appendRow := func(row PercentRow) {
		cells := make([]string, len(row.Percents))
		for i, value := range row.Percents {
			cells[i] = fmt.Sprintf("%.2f%%", Round2(value))
		}
		rows = append(rows, DisplayRow{Category: row.Category, Cells: cells})
	}
	for _, row := range t.Rows {
		appendRow(row)
	}
	if t.Total != nil {
		appendRow(*t.Total)
	}
	return rows
}

// Round2 rounds to two decimal places.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
