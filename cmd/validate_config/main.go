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
	"fmt"
	"io"
	"os"

	"github.com/arrowarc/volumes2arrow/pkg/common/config"
	"github.com/docopt/docopt-go"
)

func main() {
	usage := `volumes2arrow Configuration Validator.

Usage:
  validate_config --config=<config_file> [--env-file=<env_file>]
  validate_config -h | --help

Options:
  -h --help                          Show this screen.
  --config=<config_file>             Path to the volumes2arrow configuration file.
  --env-file=<env_file>              Dotenv file applied over the configuration file.
`

	arguments, err := docopt.ParseDoc(usage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	configPath, _ := arguments.String("--config")
	envPath, _ := arguments.String("--env-file")

	if err := validate(configPath, envPath, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}
}

func validate(configPath, envPath string, w io.Writer) error {
	cfg, err := config.ParseConfig(configPath)
	if err != nil {
		return err
	}

	if envPath != "" {
		env, err := config.LoadEnvFile(envPath)
		if err != nil {
			return err
		}
		if err := cfg.ApplyEnv(env); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	fmt.Fprintf(w, "Configuration is valid: socket %s, timeout %s, api %s, compression %s.\n",
		cfg.Docker.SocketPath, cfg.Docker.Timeout, cfg.Docker.APIVersion, cfg.Output.Compression)
	return nil
}
