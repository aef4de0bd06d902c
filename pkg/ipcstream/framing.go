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
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

const (
	// continuationToken precedes every message length prefix.
	continuationToken uint32 = 0xFFFFFFFF
	// messageAlignment is the alignment of prefix plus metadata.
	messageAlignment = 8
)

// endOfStream is a zero-length message: the continuation token followed by
// a zero metadata length.
var endOfStream = [8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}

var padding [messageAlignment]byte

var errSchemaMismatch = errors.New("schema message differs from the one already written")

// framer is an ipc.PayloadWriter writing the streaming format to w.
//
// The schema message is framed eagerly when the session opens, while
// ipc.Writer only produces it before its first record. pending holds the
// metadata of that early schema message so the duplicate can be dropped.
type framer struct {
	w       io.Writer
	pending []byte
}

func (f *framer) Start() error { return nil }

func (f *framer) WritePayload(p ipc.Payload) error {
	if f.pending != nil {
		pending := f.pending
		f.pending = nil

		meta := p.Meta()
		if meta == nil {
			return errSchemaMismatch
		}
		defer meta.Release()
		if !bytes.Equal(meta.Bytes(), pending) {
			return errSchemaMismatch
		}
		return nil
	}
	return writePayload(f.w, p)
}

// Close writes the end-of-stream marker.
func (f *framer) Close() error {
	_, err := f.w.Write(endOfStream[:])
	return err
}

// writeSchema frames the schema payload and remembers its metadata so the
// copy emitted later by ipc.Writer is skipped.
func (f *framer) writeSchema(p ipc.Payload) error {
	meta := p.Meta()
	if meta == nil {
		return errors.New("schema payload has no metadata")
	}
	defer meta.Release()
	if err := writePayload(f.w, p); err != nil {
		return err
	}
	f.pending = append([]byte(nil), meta.Bytes()...)
	return nil
}

// writePayload writes one message: continuation token, little-endian
// metadata length, flatbuffer metadata padded to 8 bytes, then the body.
func writePayload(w io.Writer, p ipc.Payload) error {
	meta := p.Meta()
	var metaBytes []byte
	if meta != nil {
		defer meta.Release()
		metaBytes = meta.Bytes()
	}

	framed := int32(len(metaBytes)) + 8
	if rem := framed % messageAlignment; rem != 0 {
		framed += messageAlignment - rem
	}
	metaLen := framed - 8
	pad := metaLen - int32(len(metaBytes))

	var prefix [8]byte
	binary.LittleEndian.PutUint32(prefix[0:4], continuationToken)
	binary.LittleEndian.PutUint32(prefix[4:8], uint32(metaLen))

	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("could not write message prefix: %w", err)
	}
	if _, err := w.Write(metaBytes); err != nil {
		return fmt.Errorf("could not write message metadata: %w", err)
	}
	if pad > 0 {
		if _, err := w.Write(padding[:pad]); err != nil {
			return fmt.Errorf("could not write message padding: %w", err)
		}
	}
	if err := p.SerializeBody(w); err != nil {
		return fmt.Errorf("could not write message body: %w", err)
	}
	return nil
}

// schemaCapture is an ipc.PayloadWriter that frames only the schema
// message. A throwaway ipc.Writer closed without records hands it the
// schema payload; the end-of-stream marker is dropped.
type schemaCapture struct {
	fr       *framer
	captured bool
}

func (c *schemaCapture) Start() error { return nil }

func (c *schemaCapture) WritePayload(p ipc.Payload) error {
	if c.captured {
		return errors.New("unexpected payload after the schema message")
	}
	c.captured = true
	return c.fr.writeSchema(p)
}

func (c *schemaCapture) Close() error { return nil }

// writeSchemaMessage frames the schema message of schema through fr.
func writeSchemaMessage(fr *framer, schema *arrow.Schema, mem memory.Allocator) error {
	capture := &schemaCapture{fr: fr}
	w := ipc.NewWriterWithPayloadWriter(capture, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err := w.Close(); err != nil {
		return err
	}
	if !capture.captured {
		return errors.New("no schema message was produced")
	}
	return nil
}
