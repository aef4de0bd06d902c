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
	"bufio"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/arrowarc/volumes2arrow/internal/arrio"
	"github.com/arrowarc/volumes2arrow/internal/json"
	memoryPool "github.com/arrowarc/volumes2arrow/internal/memory"
	"github.com/arrowarc/volumes2arrow/pkg/common/failure"
)

const decodeOp = "decode stream"

// IPCToJSON decodes an Arrow IPC stream from r and writes every row to w as
// a JSON object on its own line. Keys follow the schema's field order and
// nulls are written as null. It returns the number of rows written.
func IPCToJSON(r io.Reader, w io.Writer, mem memory.Allocator) (int64, error) {
	mem, release := memoryPool.Or(mem)
	defer release()

	reader, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return 0, failure.IO(decodeOp, fmt.Errorf("failed to read schema: %w", err))
	}
	defer reader.Release()

	jw := newJSONLinesWriter(w, reader.Schema())
	_, rows, err := arrio.Copy(jw, reader)
	if err != nil {
		return rows, failure.IO(decodeOp, err)
	}
	if err := jw.Flush(); err != nil {
		return rows, failure.IO(decodeOp, err)
	}
	return rows, nil
}

// jsonLinesWriter is an arrio.Writer producing newline-delimited JSON.
type jsonLinesWriter struct {
	w    *bufio.Writer
	keys [][]byte
}

func newJSONLinesWriter(w io.Writer, schema *arrow.Schema) *jsonLinesWriter {
	keys := make([][]byte, schema.NumFields())
	for i, f := range schema.Fields() {
		// field names are strings, which always marshal
		keys[i], _ = json.Marshal(f.Name)
	}
	return &jsonLinesWriter{w: bufio.NewWriter(w), keys: keys}
}

func (j *jsonLinesWriter) Write(rec arrow.Record) error {
	if int(rec.NumCols()) != len(j.keys) {
		return fmt.Errorf("record has %d columns, stream schema has %d", rec.NumCols(), len(j.keys))
	}
	cols := rec.Columns()
	for row := 0; row < int(rec.NumRows()); row++ {
		j.w.WriteByte('{')
		for i, col := range cols {
			if i > 0 {
				j.w.WriteByte(',')
			}
			j.w.Write(j.keys[i])
			j.w.WriteByte(':')

			val, err := json.Marshal(col.GetOneForMarshal(row))
			if err != nil {
				return fmt.Errorf("failed to marshal row %d column %d: %w", row, i, err)
			}
			j.w.Write(val)
		}
		if _, err := j.w.WriteString("}\n"); err != nil {
			return err
		}
	}
	return nil
}

func (j *jsonLinesWriter) Flush() error {
	return j.w.Flush()
}
