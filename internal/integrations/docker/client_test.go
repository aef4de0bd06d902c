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

package docker_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/arrowarc/volumes2arrow/internal/integrations/docker"
	"github.com/arrowarc/volumes2arrow/internal/integrations/docker/dockertest"
	"github.com/arrowarc/volumes2arrow/pkg/common/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoVolumes = `{
  "Volumes": [
    {"Name": "v1", "Driver": "local", "Mountpoint": "/var/lib/docker/volumes/v1/_data", "CreatedAt": "2024-01-01T00:00:00Z", "Scope": "local", "Labels": {"team": "db"}},
    {"Name": "v2", "Driver": "nfs", "Mountpoint": "/mnt/v2", "Scope": "global"}
  ],
  "Warnings": ["volume v3 is unavailable"]
}`

func testConfig(socket string) docker.Config {
	cfg := docker.DefaultConfig()
	cfg.SocketPath = socket
	cfg.Timeout = 5 * time.Second
	return cfg
}

func TestListVolumes(t *testing.T) {
	d := dockertest.Start(t, twoVolumes)
	ctx := context.Background()

	c, err := docker.Connect(ctx, testConfig(d.SocketPath))
	require.NoError(t, err)
	defer c.Close()

	volumes, err := c.ListVolumes(ctx, nil)
	require.NoError(t, err)
	require.Len(t, volumes, 2)

	assert.Equal(t, "v1", *volumes[0].Name)
	assert.Equal(t, "local", *volumes[0].Driver)
	assert.Equal(t, "/var/lib/docker/volumes/v1/_data", *volumes[0].Mountpoint)
	require.NotNil(t, volumes[0].CreatedAt)
	assert.Equal(t, "2024-01-01T00:00:00Z", *volumes[0].CreatedAt)
	assert.Equal(t, "local", *volumes[0].Scope)
	assert.Equal(t, map[string]string{"team": "db"}, volumes[0].Labels)

	assert.Equal(t, "v2", *volumes[1].Name)
	assert.Nil(t, volumes[1].CreatedAt)

	assert.Equal(t, []string{"/_ping", "/v1.43/volumes"}, d.Requests())
}

func TestListVolumesNullAndMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"null volumes", `{"Volumes": null, "Warnings": null}`, 0},
		{"empty volumes", `{"Volumes": []}`, 0},
		{"missing fields", `{"Volumes": [{"Name": "v1", "CreatedAt": null}]}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := dockertest.Start(t, tt.body)
			c, err := docker.NewClient(testConfig(d.SocketPath))
			require.NoError(t, err)

			volumes, err := c.ListVolumes(context.Background(), nil)
			require.NoError(t, err)
			assert.NotNil(t, volumes)
			assert.Len(t, volumes, tt.want)
			for _, v := range volumes {
				assert.Nil(t, v.Driver)
				assert.Nil(t, v.Mountpoint)
				assert.Nil(t, v.CreatedAt)
			}
		})
	}
}

func TestListVolumesPassesFiltersThrough(t *testing.T) {
	d := dockertest.Start(t, `{"Volumes": []}`)
	cfg := testConfig(d.SocketPath)
	cfg.APIVersion = "v1.41"

	c, err := docker.NewClient(cfg)
	require.NoError(t, err)

	_, err = c.ListVolumes(context.Background(), &docker.ListVolumesOptions{
		Filters: map[string][]string{"dangling": {"true"}},
	})
	require.NoError(t, err)

	reqs := d.Requests()
	require.Len(t, reqs, 1)
	u, err := url.Parse(reqs[0])
	require.NoError(t, err)
	assert.Equal(t, "/v1.41/volumes", u.Path)
	assert.JSONEq(t, `{"dangling":["true"]}`, u.Query().Get("filters"))
}

func TestListVolumesUnversioned(t *testing.T) {
	d := dockertest.Start(t, `{"Volumes": []}`)
	cfg := testConfig(d.SocketPath)
	cfg.APIVersion = ""

	c, err := docker.NewClient(cfg)
	require.NoError(t, err)

	_, err = c.ListVolumes(context.Background(), &docker.ListVolumesOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"/volumes"}, d.Requests())
}

func TestListVolumesRejected(t *testing.T) {
	d := dockertest.Start(t, `{"Volumes": []}`)
	d.Fail(http.StatusInternalServerError, "volume store is locked")

	c, err := docker.NewClient(testConfig(d.SocketPath))
	require.NoError(t, err)

	_, err = c.ListVolumes(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrConnection)
	assert.Contains(t, err.Error(), "volume store is locked")
}

func TestListVolumesMalformedResponse(t *testing.T) {
	d := dockertest.Start(t, `{"Volumes": [`)

	c, err := docker.NewClient(testConfig(d.SocketPath))
	require.NoError(t, err)

	_, err = c.ListVolumes(context.Background(), nil)
	assert.ErrorIs(t, err, failure.ErrConnection)
}

func TestConnectUnreachableDaemon(t *testing.T) {
	_, err := docker.Connect(context.Background(), testConfig(dockertest.MissingSocket(t)))
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrConnection)
}

func TestNewClientValidatesConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*docker.Config)
	}{
		{"empty socket", func(c *docker.Config) { c.SocketPath = "" }},
		{"zero timeout", func(c *docker.Config) { c.Timeout = 0 }},
		{"bad version", func(c *docker.Config) { c.APIVersion = "latest" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := docker.DefaultConfig()
			tt.mutate(&cfg)
			_, err := docker.NewClient(cfg)
			assert.ErrorIs(t, err, failure.ErrConnection)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := docker.DefaultConfig()
	assert.Equal(t, "/var/run/docker.sock", cfg.SocketPath)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "1.43", cfg.APIVersion)
}
