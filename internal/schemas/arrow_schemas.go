package schemas

import (
	"github.com/apache/arrow/go/v17/arrow"
)

// Column names of the volume schema, in schema order.
const (
	ColumnName       = "name"
	ColumnDriver     = "driver"
	ColumnMountpoint = "mountpoint"
	ColumnCreatedAt  = "created_at"
)

// VolumeSchema returns the schema every volume record batch conforms to.
// The daemon's volume scope is not part of it.
func VolumeSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: ColumnName, Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: ColumnDriver, Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: ColumnMountpoint, Type: arrow.BinaryTypes.String, Nullable: false},
		{Name: ColumnCreatedAt, Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
}
