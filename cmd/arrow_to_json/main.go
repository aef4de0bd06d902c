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
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/arrowarc/volumes2arrow/pkg/convert"
	"github.com/docopt/docopt-go"
)

const usage = `Arrow IPC stream to JSON lines.

Usage:
  arrow_to_json [--input=<stream_file>] [--output=<json_file>]
  arrow_to_json -h | --help

Options:
  -h --help                Show this screen.
  --input=<stream_file>    Arrow IPC stream to read. Defaults to stdin.
  --output=<json_file>     JSON lines file to write. Defaults to stdout.
`

func main() {
	arguments, err := docopt.ParseDoc(usage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	inputPath, _ := arguments.String("--input")
	outputPath, _ := arguments.String("--output")

	if err := convertStream(inputPath, outputPath, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to convert stream: %v\n", err)
		os.Exit(1)
	}
}

func convertStream(inputPath, outputPath string, stdin io.Reader, stdout io.Writer) error {
	in := stdin
	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		in = bufio.NewReader(f)
	}

	out := stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	_, err := convert.IPCToJSON(in, out, nil)
	return err
}
