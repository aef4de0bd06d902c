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

// Package filesystem provides file-backed stream destinations.
package filesystem

import (
	"errors"
	"fmt"
	"os"
)

// FileSink is a stream sink writing to a file. Flush syncs the file to
// stable storage.
type FileSink struct {
	f    *os.File
	path string
}

// CreateFileSink creates or truncates the file at path.
func CreateFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create file: %w", err)
	}
	return &FileSink{f: f, path: path}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s *FileSink) Flush() error {
	return s.f.Sync()
}

// Path returns the path the sink writes to.
func (s *FileSink) Path() string {
	return s.path
}

// Close closes the file, keeping what was written.
func (s *FileSink) Close() error {
	return s.f.Close()
}

// Abort closes the file and removes it.
func (s *FileSink) Abort() error {
	closeErr := s.f.Close()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return closeErr
}
