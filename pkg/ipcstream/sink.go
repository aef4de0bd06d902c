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

package ipcstream

import (
	"io"

	"github.com/cespare/xxhash/v2"
)

// Sink is the destination of a stream. The writer borrows it for the
// duration of a session and never closes it.
type Sink interface {
	io.Writer
	Flush() error
}

type nopFlusher struct {
	io.Writer
}

func (nopFlusher) Flush() error { return nil }

// AsSink returns w unchanged if it already is a Sink, and otherwise adapts
// it with a no-op Flush.
func AsSink(w io.Writer) Sink {
	if s, ok := w.(Sink); ok {
		return s
	}
	return nopFlusher{w}
}

// MeteredSink counts the bytes accepted by the wrapped sink and keeps an
// xxhash64 digest of them.
type MeteredSink struct {
	sink   Sink
	n      int64
	digest *xxhash.Digest
}

// NewMeteredSink wraps w, adapting it with AsSink.
func NewMeteredSink(w io.Writer) *MeteredSink {
	return &MeteredSink{
		sink:   AsSink(w),
		digest: xxhash.New(),
	}
}

func (m *MeteredSink) Write(p []byte) (int, error) {
	n, err := m.sink.Write(p)
	m.n += int64(n)
	m.digest.Write(p[:n])
	return n, err
}

func (m *MeteredSink) Flush() error {
	return m.sink.Flush()
}

// BytesWritten returns the number of bytes the wrapped sink accepted.
func (m *MeteredSink) BytesWritten() int64 {
	return m.n
}

// Sum64 returns the xxhash64 digest of the bytes written so far.
func (m *MeteredSink) Sum64() uint64 {
	return m.digest.Sum64()
}
