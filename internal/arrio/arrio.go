// Package arrio moves records between readers and writers, with interfaces
// shaped like the ones in the stdlib io package.
package arrio

import (
	"errors"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
)

// Reader is the interface that wraps the Read method.
type Reader interface {
	// Read returns the next record, or (nil, io.EOF) at the end of the stream.
	// The record is owned by the reader and valid until the next call.
	Read() (arrow.Record, error)
}

// Writer is the interface that wraps the Write method.
type Writer interface {
	Write(rec arrow.Record) error
}

// Copy writes every record of src to dst. It returns the number of records
// and rows copied and the first error encountered, if any. Reaching io.EOF
// is not an error.
func Copy(dst Writer, src Reader) (records, rows int64, err error) {
	for {
		rec, err := src.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, rows, nil
			}
			return records, rows, err
		}
		if err := dst.Write(rec); err != nil {
			return records, rows, err
		}
		records++
		rows += rec.NumRows()
	}
}
