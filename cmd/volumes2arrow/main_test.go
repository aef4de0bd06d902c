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
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/arrowarc/volumes2arrow/internal/integrations/docker/dockertest"
	"github.com/arrowarc/volumes2arrow/internal/schemas"
	"github.com/arrowarc/volumes2arrow/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneVolume = `{"Volumes": [{"Name": "v1", "Driver": "local", "Mountpoint": "/var/lib/v1"}]}`

func execute(t *testing.T, env map[string]string, args ...string) (int, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	if env == nil {
		env = map[string]string{}
	}
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append([]string{}, args...), env, &stdout, &stderr)
	return code, &stdout, &stderr
}

func readRows(t *testing.T, data []byte) [][]interface{} {
	t.Helper()
	r, err := ipc.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer r.Release()

	assert.Empty(t, testutil.Diff(schemas.VolumeSchema(), r.Schema()))

	var rows [][]interface{}
	for r.Next() {
		rows = append(rows, testutil.Rows(r.Record())...)
	}
	require.NoError(t, r.Err())
	return rows
}

func TestRunWritesStreamToStdout(t *testing.T) {
	d := dockertest.Start(t, oneVolume)

	code, stdout, stderr := execute(t, nil, "--docker-sock-path="+d.SocketPath)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stderr.String())

	assert.Equal(t, [][]interface{}{{"v1", "local", "/var/lib/v1", nil}}, readRows(t, stdout.Bytes()))
}

func TestRunConnectionFailure(t *testing.T) {
	code, stdout, stderr := execute(t, nil, "--docker-sock-path="+dockertest.MissingSocket(t))
	assert.Equal(t, 1, code)
	assert.Zero(t, stdout.Len())
	assert.Contains(t, stderr.String(), "Failed to connect to Docker daemon: ")
	assert.Contains(t, stderr.String(), "connection failure")
	assert.Equal(t, 1, strings.Count(stderr.String(), "\n"))
}

func TestRunOutputFile(t *testing.T) {
	d := dockertest.Start(t, oneVolume)
	path := filepath.Join(t.TempDir(), "volumes.arrow")

	code, stdout, stderr := execute(t, nil,
		"--docker-sock-path", d.SocketPath,
		"--output", path,
		"--compression", "zstd",
	)
	require.Equal(t, 0, code, stderr.String())
	assert.Zero(t, stdout.Len())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, readRows(t, data), 1)
}

func TestRunOutputFileRemovedOnFailure(t *testing.T) {
	d := dockertest.Start(t, `{"Volumes": [{"Name": "v1", "Mountpoint": "/var/lib/v1"}]}`)
	path := filepath.Join(t.TempDir(), "volumes.arrow")

	code, _, stderr := execute(t, nil, "--docker-sock-path", d.SocketPath, "--output", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Failed to write volumes: ")
	assert.Contains(t, stderr.String(), "schema violation")
	assert.NoFileExists(t, path)
	assert.Equal(t, 1, strings.Count(stderr.String(), "\n"))
}

func TestRunConfigPrecedence(t *testing.T) {
	d := dockertest.Start(t, oneVolume)
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("docker:\n  socket_path: /nonexistent/yaml.sock\n  api_version: \"1.40\"\n"), 0o600))
	envPath := filepath.Join(dir, "volumes2arrow.env")
	require.NoError(t, os.WriteFile(envPath, []byte("DOCKER_HOST=unix:///nonexistent/envfile.sock\nVOLUMES2ARROW_API_VERSION=1.41\n"), 0o600))

	// the process environment beats the env file, which beats the YAML file
	code, stdout, stderr := execute(t,
		map[string]string{"DOCKER_HOST": "unix://" + d.SocketPath},
		"--config", cfgPath, "--env-file", envPath,
	)
	require.Equal(t, 0, code, stderr.String())
	assert.Len(t, readRows(t, stdout.Bytes()), 1)
	assert.Contains(t, d.Requests(), "/v1.41/volumes")

	// flags beat everything
	code, _, stderr = execute(t,
		map[string]string{"DOCKER_HOST": "unix:///nonexistent/env.sock"},
		"--config", cfgPath, "--env-file", envPath,
		"--docker-sock-path", d.SocketPath, "--docker-api-version", "1.42",
	)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, d.Requests(), "/v1.42/volumes")
}

func TestRunInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{"tcp docker host", map[string]string{"DOCKER_HOST": "tcp://localhost:2375"}, nil},
		{"bad timeout", nil, []string{"--docker-conn-timeout", "soon"}},
		{"bad compression", nil, []string{"--compression", "gzip"}},
		{"missing config file", nil, []string{"--config", "/nonexistent/config.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := execute(t, tt.env, tt.args...)
			assert.Equal(t, 1, code)
			assert.Zero(t, stdout.Len())
			assert.Contains(t, stderr.String(), "Failed to load configuration: ")
		})
	}
}

func TestRunVerboseLogsToStderr(t *testing.T) {
	d := dockertest.Start(t, oneVolume)

	code, stdout, stderr := execute(t, nil, "--docker-sock-path", d.SocketPath, "--verbose")
	require.Equal(t, 0, code)
	assert.NotZero(t, stdout.Len())
	assert.Contains(t, stderr.String(), "level=debug")
	assert.Contains(t, stderr.String(), "run_id=")
}

func TestRunHelpAndVersion(t *testing.T) {
	code, stdout, _ := execute(t, nil, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "Usage:")

	code, stdout, _ = execute(t, nil, "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), version)

	code, _, _ = execute(t, nil, "--no-such-flag")
	assert.Equal(t, 1, code)
}
