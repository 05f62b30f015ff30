// Package layout reconstructs reading-order lines from positioned text fragments.
package layout

import (
	"math"
	"sort"
	"strings"
)

// Fragment is a piece of text anchored at page coordinates. Y grows upward
// (PDF convention), so larger Y means closer to the top of the page.
type Fragment struct {
	Text string
	X    float64
	Y    float64
}

// bucketWidth tolerates sub-pixel baseline jitter between fragments of one line.
const bucketWidth = 2.0

// Line is a reconstructed reading-order line.
type Line struct {
	Y    float64
	Text string
}

// Lines buckets fragments into lines by rounding Y to bucketWidth, orders
// fragments left-to-right within a bucket, orders buckets top-of-page first,
// and joins fragment text with single spaces. Pure function of its input.
func Lines(frags []Fragment) []Line {
	if len(frags) == 0 {
		return nil
	}

	buckets := make(map[float64][]Fragment)
	for _, f := range frags {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		key := math.Round(f.Y/bucketWidth) * bucketWidth
		buckets[key] = append(buckets[key], f)
	}

	keys := make([]float64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(keys)))

	lines := make([]Line, 0, len(keys))
	for _, k := range keys {
		row := buckets[k]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })
		parts := make([]string, 0, len(row))
		for _, f := range row {
			parts = append(parts, strings.TrimSpace(f.Text))
		}
		lines = append(lines, Line{Y: k, Text: strings.Join(parts, " ")})
	}
	return lines
}

// Text joins reconstructed lines with newlines.
func Text(frags []Fragment) string {
	lines := Lines(frags)
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, "\n")
}
