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

// Package pipeline exports the daemon's volumes as an Arrow IPC stream:
// list, project, then write one record batch.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/arrowarc/volumes2arrow/internal/integrations/docker"
	"github.com/arrowarc/volumes2arrow/internal/interfaces"
	"github.com/arrowarc/volumes2arrow/internal/json"
	memoryPool "github.com/arrowarc/volumes2arrow/internal/memory"
	"github.com/arrowarc/volumes2arrow/internal/schemas"
	"github.com/arrowarc/volumes2arrow/pkg/convert"
	"github.com/arrowarc/volumes2arrow/pkg/ipcstream"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// Metrics describes a single run.
type Metrics struct {
	RunID         string
	Volumes       int64
	TotalBytes    int64
	Digest        uint64
	StartTime     time.Time
	EndTime       time.Time
	TotalDuration time.Duration
}

func (m *Metrics) stop() {
	m.EndTime = time.Now()
	m.TotalDuration = m.EndTime.Sub(m.StartTime)
}

// Report renders the metrics as indented JSON.
func (m *Metrics) Report() string {
	report := struct {
		RunID         string    `json:"run_id"`
		Volumes       int64     `json:"volumes"`
		TotalBytes    int64     `json:"total_bytes"`
		Digest        string    `json:"xxhash64"`
		StartTime     time.Time `json:"start_time"`
		EndTime       time.Time `json:"end_time"`
		TotalDuration string    `json:"total_duration"`
	}{
		RunID:         m.RunID,
		Volumes:       m.Volumes,
		TotalBytes:    m.TotalBytes,
		Digest:        fmt.Sprintf("%016x", m.Digest),
		StartTime:     m.StartTime,
		EndTime:       m.EndTime,
		TotalDuration: m.TotalDuration.String(),
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Sprintf("Error generating report: %v", err)
	}
	return string(data)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithAllocator sets the allocator for the record and the stream buffers.
func WithAllocator(mem memory.Allocator) Option {
	return func(p *Pipeline) { p.mem = mem }
}

// WithWriterOptions passes options to the stream writer.
func WithWriterOptions(opts ...ipcstream.Option) Option {
	return func(p *Pipeline) { p.writerOpts = append(p.writerOpts, opts...) }
}

// WithListOptions sets the options passed through to the daemon query.
func WithListOptions(opts *docker.ListVolumesOptions) Option {
	return func(p *Pipeline) { p.listOpts = opts }
}

// Pipeline runs one export per call to Run.
type Pipeline struct {
	lister     interfaces.VolumeLister
	logger     log.Logger
	mem        memory.Allocator
	writerOpts []ipcstream.Option
	listOpts   *docker.ListVolumesOptions
}

// New returns a pipeline reading from lister.
func New(lister interfaces.VolumeLister, opts ...Option) *Pipeline {
	p := &Pipeline{
		lister: lister,
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run lists the volumes, projects them into one record and writes a
// complete stream to w. The first failure is returned as is; when it
// happens while writing, w may hold a truncated stream. Listing failures
// happen before anything is written.
func (p *Pipeline) Run(ctx context.Context, w io.Writer) (*Metrics, error) {
	m := &Metrics{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	defer m.stop()
	logger := log.With(p.logger, "run_id", m.RunID)

	volumes, err := p.lister.ListVolumes(ctx, p.listOpts)
	if err != nil {
		level.Debug(logger).Log("msg", "failed to list volumes", "err", err)
		return m, err
	}
	level.Debug(logger).Log("msg", "listed volumes", "count", len(volumes))

	mem, release := memoryPool.Or(p.mem)
	defer release()

	sink := ipcstream.NewMeteredSink(w)
	err = VolumesToWriter(mem, volumes, sink, schemas.VolumeSchema(), p.writerOpts...)
	m.TotalBytes = sink.BytesWritten()
	m.Digest = sink.Sum64()
	if err != nil {
		level.Debug(logger).Log("msg", "failed to write volumes", "err", err, "bytes_written", m.TotalBytes)
		return m, err
	}
	m.Volumes = int64(len(volumes))

	level.Info(logger).Log("msg", "wrote volume stream", "volumes", m.Volumes, "bytes", m.TotalBytes, "xxhash64", fmt.Sprintf("%016x", m.Digest))
	return m, nil
}

// ListVolumesAndWrite runs a pipeline with default options.
func ListVolumesAndWrite(ctx context.Context, lister interfaces.VolumeLister, w io.Writer) error {
	_, err := New(lister).Run(ctx, w)
	return err
}

// VolumesToWriter projects volumes against schema and writes them to w as
// a stream holding exactly one record batch. A nil schema means
// schemas.VolumeSchema.
func VolumesToWriter(mem memory.Allocator, volumes []docker.Volume, w io.Writer, schema *arrow.Schema, opts ...ipcstream.Option) error {
	if schema == nil {
		schema = schemas.VolumeSchema()
	}
	rec, err := convert.VolumesToRecord(mem, volumes, schema)
	if err != nil {
		return err
	}
	defer rec.Release()

	opts = append([]ipcstream.Option{ipcstream.WithAllocator(mem)}, opts...)
	return ipcstream.WriteRecords(ipcstream.AsSink(w), schema, []arrow.Record{rec}, opts...)
}
