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

package docker

// Volume is a volume as reported by the daemon's volume list endpoint.
// Every field may be absent from a response, so text fields are pointers;
// a nil pointer means the daemon did not report the field.
type Volume struct {
	// Name is the daemon-wide unique name of the volume.
	Name *string `json:"Name"`
	// Driver is the volume driver managing the volume, e.g. "local".
	Driver *string `json:"Driver"`
	// Mountpoint is the volume's location on the daemon host.
	Mountpoint *string `json:"Mountpoint"`
	// CreatedAt is the creation time in RFC 3339 format. Older daemons and
	// some drivers omit it.
	CreatedAt *string `json:"CreatedAt,omitempty"`
	// Scope is "local" or "global". It is decoded but not exported.
	Scope *string `json:"Scope,omitempty"`

	Labels  map[string]string `json:"Labels,omitempty"`
	Options map[string]string `json:"Options,omitempty"`
}

// ListVolumesOptions is passed through to the daemon unchanged.
// A nil value or an empty Filters map lists every volume.
type ListVolumesOptions struct {
	Filters map[string][]string
}

type volumeListResponse struct {
	Volumes  []Volume `json:"Volumes"`
	Warnings []string `json:"Warnings"`
}

type errorResponse struct {
	Message string `json:"message"`
}
