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

// Package ipcstream writes Arrow IPC streams to an arbitrary sink under a
// strict open, write, flush, finish lifecycle.
//
// A stream is a schema message, zero or more record batch messages and an
// end-of-stream marker. A StreamWriter emits the schema message as soon as it
// is created, so the schema always physically precedes any batch.
package ipcstream

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/arrowarc/volumes2arrow/pkg/common/failure"
)

// State is the lifecycle state of a StreamWriter.
type State int

const (
	// StateUnopened is the state of a zero StreamWriter. It accepts nothing.
	StateUnopened State = iota
	// StateOpen accepts records, flushes and the final Finish.
	StateOpen
	// StateFinished is terminal.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateFinished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Compression selects the codec applied to record batch bodies.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionLZ4  Compression = "lz4"
	CompressionZstd Compression = "zstd"
)

// ParseCompression accepts the codec names used on the command line.
// The empty string means no compression.
func ParseCompression(s string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionLZ4, CompressionZstd:
		return c, nil
	}
	return "", fmt.Errorf("unknown compression %q, expected one of none, lz4, zstd", s)
}

const defaultBufferSize = 64 << 10

type config struct {
	mem         memory.Allocator
	compression Compression
	bufSize     int
}

// Option configures a StreamWriter.
type Option func(*config)

// WithAllocator sets the allocator used for message buffers.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *config) { c.mem = mem }
}

// WithCompression compresses record batch bodies with the given codec.
// Readers must support the codec.
func WithCompression(codec Compression) Option {
	return func(c *config) { c.compression = codec }
}

// WithBufferSize sets the size of the buffer in front of the sink.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufSize = n
		}
	}
}

// StreamWriter serializes records of a single schema to a Sink.
//
// Records are buffered; Flush pushes them to the sink. Finish writes the
// end-of-stream marker. Releasing a writer before Finish leaves a truncated
// stream that readers reject; Close reports that case as an error.
type StreamWriter struct {
	sink   Sink
	buf    *bufio.Writer
	schema *arrow.Schema
	ipcw   *ipc.Writer
	state  State
}

// NewStreamWriter opens a stream on sink and writes the schema message as
// its first bytes. The message is flushed through to the sink, so an
// unwritable sink fails here with failure.ErrIO.
func NewStreamWriter(sink Sink, schema *arrow.Schema, opts ...Option) (*StreamWriter, error) {
	const op = "open stream"

	if sink == nil {
		return nil, failure.InvalidLifecycleState(op, errors.New("sink cannot be nil"))
	}
	if schema == nil {
		return nil, failure.InvalidLifecycleState(op, errors.New("schema cannot be nil"))
	}

	cfg := config{
		mem:         memory.DefaultAllocator,
		compression: CompressionNone,
		bufSize:     defaultBufferSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ipcOpts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(cfg.mem)}
	switch cfg.compression {
	case CompressionNone, "":
	case CompressionLZ4:
		ipcOpts = append(ipcOpts, ipc.WithLZ4())
	case CompressionZstd:
		ipcOpts = append(ipcOpts, ipc.WithZstd())
	default:
		return nil, failure.InvalidLifecycleState(op, fmt.Errorf("unknown compression %q", cfg.compression))
	}

	buf := bufio.NewWriterSize(sink, cfg.bufSize)
	fr := &framer{w: buf}

	if err := writeSchemaMessage(fr, schema, cfg.mem); err != nil {
		return nil, failure.IO(op, err)
	}

	w := &StreamWriter{
		sink:   sink,
		buf:    buf,
		schema: schema,
		ipcw:   ipc.NewWriterWithPayloadWriter(fr, ipcOpts...),
		state:  StateOpen,
	}
	if err := w.flush(op); err != nil {
		return nil, err
	}
	return w, nil
}

// State returns the current lifecycle state.
func (w *StreamWriter) State() State {
	return w.state
}

// Schema returns the schema the stream was opened with.
func (w *StreamWriter) Schema() *arrow.Schema {
	return w.schema
}

// Write appends rec to the stream as one record batch message. A record
// whose schema differs from the stream's in names, types, nullability or
// order is rejected with failure.ErrSchemaViolation before anything is
// written.
func (w *StreamWriter) Write(rec arrow.Record) error {
	const op = "write batch"

	if err := w.checkOpen(op); err != nil {
		return err
	}
	if rec == nil {
		return failure.SchemaViolation(op, errors.New("record cannot be nil"))
	}
	if !rec.Schema().Equal(w.schema) {
		return failure.SchemaViolation(op, fmt.Errorf("record schema %s does not match stream schema %s", rec.Schema(), w.schema))
	}

	if err := w.ipcw.Write(rec); err != nil {
		return failure.IO(op, err)
	}
	return nil
}

// Flush pushes buffered bytes to the sink and flushes the sink.
func (w *StreamWriter) Flush() error {
	const op = "flush stream"

	if err := w.checkOpen(op); err != nil {
		return err
	}
	return w.flush(op)
}

// Finish writes the end-of-stream marker and flushes it to the sink. The
// writer is finished afterwards even if writing the marker failed.
func (w *StreamWriter) Finish() error {
	const op = "finish stream"

	if err := w.checkOpen(op); err != nil {
		return err
	}
	w.state = StateFinished

	err := w.ipcw.Close()
	w.ipcw = nil
	if err != nil {
		return failure.IO(op, err)
	}
	return w.flush(op)
}

// Close releases the writer. It never writes: after Finish it returns nil,
// before Finish it abandons the stream, leaving it truncated, and reports
// failure.ErrInvalidLifecycleState.
func (w *StreamWriter) Close() error {
	switch w.state {
	case StateFinished:
		return nil
	case StateOpen:
		w.state = StateFinished
		w.ipcw = nil
		return failure.InvalidLifecycleState("close stream", errors.New("stream closed before finish, output is truncated"))
	}
	return failure.InvalidLifecycleState("close stream", fmt.Errorf("writer is %s", w.state))
}

func (w *StreamWriter) checkOpen(op string) error {
	if w.state != StateOpen {
		return failure.InvalidLifecycleState(op, fmt.Errorf("writer is %s", w.state))
	}
	return nil
}

func (w *StreamWriter) flush(op string) error {
	if err := w.buf.Flush(); err != nil {
		return failure.IO(op, err)
	}
	if err := w.sink.Flush(); err != nil {
		return failure.IO(op, err)
	}
	return nil
}

// WriteRecords writes a complete stream of recs to sink: open, write each
// record, flush, finish.
func WriteRecords(sink Sink, schema *arrow.Schema, recs []arrow.Record, opts ...Option) error {
	w, err := NewStreamWriter(sink, schema, opts...)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		w.Close()
		return err
	}
	return w.Finish()
}
