// Package chart renders the over-SLA histogram as a PNG.
package chart

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"sla-overage-report/internal/crosstab"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no binned records to plot")

var palette = []string{
	"636efa", "ef553b", "00cc96", "ab63fa", "ffa15a",
	"19d3f3", "ff6692", "b6e880", "ff97ff", "fecb52",
}

// Color returns the segment color for the category at index i of the sorted legend.
func Color(i int) drawing.Color {
	return drawing.ColorFromHex(palette[i%len(palette)])
}

// Hex returns Color(i) as a CSS hex string.
func Hex(i int) string {
	return "#" + palette[i%len(palette)]
}

// Legend returns the categories of counts in the order segments are colored.
func Legend(counts []crosstab.BinCount) []string {
	seen := map[string]bool{}
	var categories []string
	for _, c := range counts {
		if !seen[c.Category] {
			seen[c.Category] = true
			categories = append(categories, c.Category)
		}
	}
	sort.Strings(categories)
	return categories
}

// Histogram draws one stacked bar per bin with one segment per task category. Bar
// height is the bin's record count on a shared scale.
func Histogram(w io.Writer, counts []crosstab.BinCount, bins []string) error {
	bars, maxTotal := stackedBars(counts, bins)
	if maxTotal == 0 {
		return ErrNoData
	}

	sbc := chart.StackedBarChart{
		Title:      "Over SLA Days Histogram",
		Height:     480,
		Width:      200 + 110*len(bins),
		BarSpacing: 30,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 56, Right: 140, Bottom: 24}},
		YAxis:      chart.Style{Hidden: true},
		Bars:       bars,
	}
	sbc.Elements = []chart.Renderable{countAxis(maxTotal), legend(Legend(counts))}
	return sbc.Render(chart.PNG, w)
}

// stackedBars builds one bar per bin and returns the largest bin total. go-chart
// stretches every bar to the full plot height, so each bar is topped with a
// transparent segment that pads it to the largest total.
func stackedBars(counts []crosstab.BinCount, bins []string) ([]chart.StackedBar, int) {
	colorIndex := map[string]int{}
	for i, category := range Legend(counts) {
		colorIndex[category] = i
	}

	totals := make([]int, len(bins))
	segments := make([][]chart.Value, len(bins))
	maxTotal := 0
	for i, bin := range bins {
		for _, c := range counts {
			if c.Bin != bin || c.Count <= 0 {
				continue
			}
			totals[i] += c.Count
			segments[i] = append(segments[i], chart.Value{
				Value: float64(c.Count),
				Style: segmentStyle(Color(colorIndex[c.Category])),
			})
		}
		if totals[i] > maxTotal {
			maxTotal = totals[i]
		}
	}

	bars := make([]chart.StackedBar, 0, len(bins))
	for i, bin := range bins {
		// Segments are drawn top down: padding first, then categories in reverse so
		// the first category sits on the baseline.
		var values []chart.Value
		if pad := maxTotal - totals[i]; pad > 0 {
			values = append(values, chart.Value{
				Value: float64(pad),
				Style: segmentStyle(drawing.ColorTransparent),
			})
		}
		for j := len(segments[i]) - 1; j >= 0; j-- {
			values = append(values, segments[i][j])
		}
		bars = append(bars, chart.StackedBar{
			Name:   fmt.Sprintf("%s (n=%d)", bin, totals[i]),
			Values: values,
		})
	}
	return bars, maxTotal
}

// countAxis labels record counts left of the plot area.
func countAxis(maxTotal int) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		if defaults.Font == nil || maxTotal <= 0 {
			return
		}
		r.SetFont(defaults.Font)
		r.SetFontColor(drawing.ColorBlack)
		r.SetFontSize(9)
		r.SetStrokeColor(drawing.ColorBlack)
		r.SetStrokeWidth(1)

		last := -1
		for step := 0; step <= 4; step++ {
			value := maxTotal * step / 4
			if value == last {
				continue
			}
			last = value
			y := box.Bottom - int(float64(value)/float64(maxTotal)*float64(box.Height()))
			r.MoveTo(box.Left-4, y)
			r.LineTo(box.Left, y)
			r.Stroke()
			label := fmt.Sprintf("%d", value)
			tb := r.MeasureText(label)
			r.Text(label, box.Left-8-tb.Width(), y+tb.Height()/2)
		}
		r.Text("Records", box.Left-48, box.Top-10)
	}
}

func segmentStyle(col drawing.Color) chart.Style {
	return chart.Style{
		FillColor:   col,
		StrokeColor: col,
		StrokeWidth: 1,
	}
}

// legend draws a "Task Category" key to the right of the plot area.
func legend(categories []string) chart.Renderable {
	return func(r chart.Renderer, box chart.Box, defaults chart.Style) {
		if defaults.Font == nil {
			return
		}
		x := box.Right + 16
		y := box.Top
		r.SetFont(defaults.Font)
		r.SetFontColor(drawing.ColorBlack)
		r.SetFontSize(10)
		r.Text("Task Category", x, y+10)
		y += 20
		for i, category := range categories {
			col := Color(i)
			r.SetFillColor(col)
			r.SetStrokeColor(col)
			r.SetStrokeWidth(1)
			r.MoveTo(x, y)
			r.LineTo(x+10, y)
			r.LineTo(x+10, y+10)
			r.LineTo(x, y+10)
			r.LineTo(x, y)
			r.Close()
			r.FillStroke()
			r.SetFontColor(drawing.ColorBlack)
			r.Text(category, x+16, y+10)
			y += 16
		}
	}
}
