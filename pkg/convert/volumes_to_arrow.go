// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package convert

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/arrowarc/volumes2arrow/internal/integrations/docker"
	memoryPool "github.com/arrowarc/volumes2arrow/internal/memory"
	"github.com/arrowarc/volumes2arrow/internal/schemas"
	"github.com/arrowarc/volumes2arrow/pkg/common/failure"
)

const projectOp = "project volumes"

// volumeColumns maps a column name to the volume field it is built from.
var volumeColumns = map[string]func(docker.Volume) *string{
	schemas.ColumnName:       func(v docker.Volume) *string { return v.Name },
	schemas.ColumnDriver:     func(v docker.Volume) *string { return v.Driver },
	schemas.ColumnMountpoint: func(v docker.Volume) *string { return v.Mountpoint },
	schemas.ColumnCreatedAt:  func(v docker.Volume) *string { return v.CreatedAt },
}

// VolumesToRecord projects volumes into a single record conforming to schema.
// The volume at position i becomes row i of every column. Absent values
// become nulls in nullable columns and fail the projection otherwise.
//
// A nil schema targets schemas.VolumeSchema and a nil allocator uses a pooled
// one. The caller owns the returned record and must Release it.
func VolumesToRecord(mem memory.Allocator, volumes []docker.Volume, schema *arrow.Schema) (arrow.Record, error) {
	if schema == nil {
		schema = schemas.VolumeSchema()
	}
	mem, release := memoryPool.Or(mem)
	defer release()

	cols := make([]arrow.Array, 0, schema.NumFields())
	releaseCols := func() {
		for _, col := range cols {
			col.Release()
		}
	}

	for _, field := range schema.Fields() {
		col, err := buildColumn(mem, field, volumes)
		if err != nil {
			releaseCols()
			return nil, err
		}
		cols = append(cols, col)
	}

	nrows := int64(len(volumes))
	if err := validateColumns(schema, cols, nrows); err != nil {
		releaseCols()
		return nil, err
	}

	rec := array.NewRecord(schema, cols, nrows)
	// the record holds its own references
	releaseCols()
	return rec, nil
}

func buildColumn(mem memory.Allocator, field arrow.Field, volumes []docker.Volume) (arrow.Array, error) {
	get, ok := volumeColumns[field.Name]
	if !ok {
		return nil, failure.SchemaViolationf(projectOp, "column %q has no volume field", field.Name)
	}
	if !arrow.TypeEqual(field.Type, arrow.BinaryTypes.String) {
		return nil, failure.SchemaViolationf(projectOp, "column %q must be %s, got %s", field.Name, arrow.BinaryTypes.String, field.Type)
	}

	b := array.NewStringBuilder(mem)
	defer b.Release()
	b.Reserve(len(volumes))

	for i, v := range volumes {
		val := get(v)
		switch {
		case val != nil:
			b.Append(*val)
		case field.Nullable:
			b.AppendNull()
		default:
			return nil, failure.SchemaViolationf(projectOp, "column %q is not nullable but row %d has no value", field.Name, i)
		}
	}

	return b.NewArray(), nil
}

// validateColumns checks what array.NewRecord would otherwise panic on, plus
// the nullability of every column.
func validateColumns(schema *arrow.Schema, cols []arrow.Array, nrows int64) error {
	if len(cols) != schema.NumFields() {
		return failure.SchemaViolationf(projectOp, "built %d columns for a schema of %d fields", len(cols), schema.NumFields())
	}
	for i, col := range cols {
		field := schema.Field(i)
		if int64(col.Len()) != nrows {
			return failure.SchemaViolationf(projectOp, "column %q has %d rows, want %d", field.Name, col.Len(), nrows)
		}
		if !arrow.TypeEqual(col.DataType(), field.Type) {
			return failure.SchemaViolationf(projectOp, "column %q is %s, want %s", field.Name, col.DataType(), field.Type)
		}
		if !field.Nullable && col.NullN() > 0 {
			return failure.SchemaViolation(projectOp, fmt.Errorf("column %q is not nullable but has %d nulls", field.Name, col.NullN()))
		}
	}
	return nil
}
