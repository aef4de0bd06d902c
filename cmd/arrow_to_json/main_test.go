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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/arrowarc/volumes2arrow/internal/integrations/docker"
	"github.com/arrowarc/volumes2arrow/internal/schemas"
	"github.com/arrowarc/volumes2arrow/pkg/common/failure"
	"github.com/arrowarc/volumes2arrow/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestConvertStream(t *testing.T) {
	var stream bytes.Buffer
	err := pipeline.VolumesToWriter(memory.NewGoAllocator(), []docker.Volume{
		{Name: str("v1"), Driver: str("local"), Mountpoint: str("/var/lib/v1")},
	}, &stream, schemas.VolumeSchema())
	require.NoError(t, err)

	want := `{"name":"v1","driver":"local","mountpoint":"/var/lib/v1","created_at":null}` + "\n"

	var stdout bytes.Buffer
	require.NoError(t, convertStream("", "", bytes.NewReader(stream.Bytes()), &stdout))
	assert.Equal(t, want, stdout.String())

	dir := t.TempDir()
	in := filepath.Join(dir, "volumes.arrow")
	out := filepath.Join(dir, "volumes.jsonl")
	require.NoError(t, os.WriteFile(in, stream.Bytes(), 0o600))
	require.NoError(t, convertStream(in, out, nil, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, want, string(data))
}

func TestConvertStreamErrors(t *testing.T) {
	err := convertStream(filepath.Join(t.TempDir(), "missing.arrow"), "", nil, nil)
	assert.Error(t, err)

	var stdout bytes.Buffer
	err = convertStream("", "", bytes.NewReader([]byte("garbage")), &stdout)
	assert.ErrorIs(t, err, failure.ErrIO)
}
