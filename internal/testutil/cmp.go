// Package testutil holds comparison helpers shared by tests.
package testutil

import (
	"math"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/google/go-cmp/cmp"
)

var (
	alwaysEqual = cmp.Comparer(func(_, _ interface{}) bool { return true })

	defaultCmpOptions = []cmp.Option{
		// Use Schema.Equal for Arrow schemas
		cmp.Comparer(func(x, y *arrow.Schema) bool {
			if x == nil || y == nil {
				return x == y
			}
			return x.Equal(y)
		}),
		// NaNs compare equal
		cmp.FilterValues(func(x, y float64) bool {
			return math.IsNaN(x) && math.IsNaN(y)
		}, alwaysEqual),
	}
)

func Equal(x, y interface{}, opts ...cmp.Option) bool {
	// Put default options at the end. Order doesn't matter.
	opts = append(opts[:len(opts):len(opts)], defaultCmpOptions...)
	return cmp.Equal(x, y, opts...)
}

func Diff(x, y interface{}, opts ...cmp.Option) string {
	// Put default options at the end. Order doesn't matter.
	opts = append(opts[:len(opts):len(opts)], defaultCmpOptions...)
	return cmp.Diff(x, y, opts...)
}

// Rows returns the values of rec row by row, with nulls as nil.
func Rows(rec arrow.Record) [][]interface{} {
	rows := make([][]interface{}, rec.NumRows())
	for i := range rows {
		row := make([]interface{}, rec.NumCols())
		for j, col := range rec.Columns() {
			row[j] = col.GetOneForMarshal(i)
		}
		rows[i] = row
	}
	return rows
}
