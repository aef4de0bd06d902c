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

// Package dockertest serves a fake Engine API on a unix socket for tests.
package dockertest

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// Daemon answers /_ping and the volume list endpoint, versioned or not.
type Daemon struct {
	SocketPath string

	mu       sync.Mutex
	body     string
	status   int
	message  string
	requests []string
}

// Start serves volumesJSON as the volume list response until the test ends.
func Start(t testing.TB, volumesJSON string) *Daemon {
	t.Helper()

	d := &Daemon{
		SocketPath: socketPath(t),
		body:       volumesJSON,
		status:     http.StatusOK,
	}

	l, err := net.Listen("unix", d.SocketPath)
	if err != nil {
		t.Fatalf("failed to listen on %s: %v", d.SocketPath, err)
	}

	srv := httptest.NewUnstartedServer(http.HandlerFunc(d.serve))
	srv.Listener.Close()
	srv.Listener = l
	srv.Start()
	t.Cleanup(srv.Close)

	return d
}

// MissingSocket returns a socket path nothing listens on.
func MissingSocket(t testing.TB) string {
	t.Helper()
	return socketPath(t)
}

// Fail makes the volume list endpoint answer with status and a daemon error message.
func (d *Daemon) Fail(status int, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
	d.message = message
}

// Requests returns the request URIs received so far, pings included.
func (d *Daemon) Requests() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.requests...)
}

func (d *Daemon) serve(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	d.requests = append(d.requests, r.URL.RequestURI())
	body, status, message := d.body, d.status, d.message
	d.mu.Unlock()

	switch {
	case r.URL.Path == "/_ping":
		w.Header().Set("Api-Version", "1.43")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "OK")
	case strings.HasSuffix(r.URL.Path, "/volumes"):
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"message":%q}`, message)
			return
		}
		fmt.Fprint(w, body)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"message":"page not found: %s"}`, r.URL.Path)
	}
}

// socketPath keeps the path short; unix socket paths are limited to ~100 bytes.
func socketPath(t testing.TB) string {
	dir, err := os.MkdirTemp("", "dockertest")
	if err != nil {
		t.Fatalf("failed to create socket dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "docker.sock")
}
