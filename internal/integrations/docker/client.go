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

// Package docker is a minimal client for the Docker Engine API, speaking
// HTTP over the daemon's local unix socket.
package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/arrowarc/volumes2arrow/internal/json"
	"github.com/arrowarc/volumes2arrow/pkg/common/failure"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	DefaultSocketPath = "/var/run/docker.sock"
	DefaultTimeout    = 30 * time.Second
	DefaultAPIVersion = "1.43"

	// the host part is ignored when dialing the socket
	baseURL = "http://docker"
)

var apiVersionPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)

// Config configures a Client.
type Config struct {
	// SocketPath is the path of the daemon's unix socket.
	SocketPath string
	// Timeout bounds both dialing the socket and each request.
	Timeout time.Duration
	// APIVersion pins the Engine API version, e.g. "1.43". Empty means the
	// daemon's current version.
	APIVersion string
	Logger     log.Logger
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		SocketPath: DefaultSocketPath,
		Timeout:    DefaultTimeout,
		APIVersion: DefaultAPIVersion,
	}
}

// Client queries a single daemon.
type Client struct {
	http       *http.Client
	transport  *http.Transport
	apiVersion string
	logger     log.Logger
}

// NewClient validates cfg and returns a client for it. It does not contact
// the daemon; see Connect.
func NewClient(cfg Config) (*Client, error) {
	if cfg.SocketPath == "" {
		return nil, failure.Connection("configure docker client", errors.New("socket path cannot be empty"))
	}
	if cfg.Timeout <= 0 {
		return nil, failure.Connection("configure docker client", fmt.Errorf("timeout must be greater than zero, got %s", cfg.Timeout))
	}
	version := strings.TrimPrefix(cfg.APIVersion, "v")
	if version != "" && !apiVersionPattern.MatchString(version) {
		return nil, failure.Connection("configure docker client", fmt.Errorf("invalid API version %q", cfg.APIVersion))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	socketPath := cfg.SocketPath
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", socketPath)
		},
		DisableCompression: true,
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		transport:  transport,
		apiVersion: version,
		logger:     log.With(logger, "component", "docker", "socket", socketPath),
	}, nil
}

// Connect creates a client and performs a ping handshake with the daemon.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Ping checks that the daemon answers on its socket.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.get(ctx, "/_ping", nil)
	if err != nil {
		return failure.Connection("ping docker daemon", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return failure.Connection("ping docker daemon", err)
	}
	io.Copy(io.Discard, resp.Body)

	level.Debug(c.logger).Log("msg", "daemon answered ping", "api_version", resp.Header.Get("Api-Version"))
	return nil
}

// ListVolumes returns every volume the daemon reports, in the daemon's order.
// opts is passed through without interpretation.
func (c *Client) ListVolumes(ctx context.Context, opts *ListVolumesOptions) ([]Volume, error) {
	query := url.Values{}
	if opts != nil && len(opts.Filters) > 0 {
		filters, err := json.Marshal(opts.Filters)
		if err != nil {
			return nil, failure.Connection("list volumes", fmt.Errorf("failed to encode filters: %w", err))
		}
		query.Set("filters", string(filters))
	}

	resp, err := c.get(ctx, c.versioned("/volumes"), query)
	if err != nil {
		return nil, failure.Connection("list volumes", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return nil, failure.Connection("list volumes", err)
	}

	var list volumeListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, failure.Connection("list volumes", fmt.Errorf("failed to decode volume list: %w", err))
	}

	for _, w := range list.Warnings {
		level.Warn(c.logger).Log("msg", "daemon warning", "warning", w)
	}
	level.Debug(c.logger).Log("msg", "listed volumes", "count", len(list.Volumes))

	if list.Volumes == nil {
		return []Volume{}, nil
	}
	return list.Volumes, nil
}

// Close releases idle connections to the daemon.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

func (c *Client) versioned(path string) string {
	if c.apiVersion == "" {
		return path
	}
	return "/v" + c.apiVersion + path
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach docker daemon: %w", err)
	}
	return resp, nil
}

// checkResponse turns a non-2xx answer into an error carrying the daemon's message.
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Message != "" {
		return fmt.Errorf("daemon returned %s: %s", resp.Status, er.Message)
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("daemon returned %s: %s", resp.Status, msg)
	}
	return fmt.Errorf("daemon returned %s", resp.Status)
}
