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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/arrowarc/volumes2arrow/internal/integrations/docker"
	"github.com/arrowarc/volumes2arrow/internal/integrations/filesystem"
	"github.com/arrowarc/volumes2arrow/pkg/common/config"
	"github.com/arrowarc/volumes2arrow/pkg/ipcstream"
	"github.com/arrowarc/volumes2arrow/pkg/pipeline"
	"github.com/docopt/docopt-go"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const version = "volumes2arrow 0.1.0"

const usage = `Docker volumes to Arrow IPC stream.

Lists the volumes known to the local Docker daemon and writes them to stdout
as an Arrow IPC stream holding a single record batch.

Usage:
  volumes2arrow [options]
  volumes2arrow -h | --help
  volumes2arrow --version

Options:
  -h --help                          Show this screen.
  --version                          Show version.
  --docker-sock-path=<path>          Path to the Docker daemon socket (default /var/run/docker.sock).
  --docker-conn-timeout=<seconds>    Timeout for daemon requests in seconds (default 30).
  --docker-api-version=<version>     Engine API version to request (default 1.43).
  --compression=<codec>              Record batch compression: none, lz4 or zstd (default none).
  --config=<file>                    YAML configuration file.
  --env-file=<file>                  Dotenv file read before the process environment.
  --output=<file>                    Write the stream to a file instead of stdout.
  --verbose                          Log debug output to stderr.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], config.Environ(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one export and returns the process exit code.
func run(ctx context.Context, argv []string, env map[string]string, stdout, stderr io.Writer) int {
	var helpShown bool
	parser := &docopt.Parser{
		HelpHandler: func(err error, usage string) {
			if err != nil {
				fmt.Fprintln(stderr, usage)
				return
			}
			helpShown = true
			fmt.Fprintln(stdout, usage)
		},
	}

	arguments, err := parser.ParseArgs(usage, argv, version)
	if err != nil {
		return 1
	}
	if helpShown {
		return 0
	}

	cfg, err := loadConfig(arguments, env)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	logger := newLogger(stderr, cfg.Logging)

	client, err := docker.Connect(ctx, docker.Config{
		SocketPath: cfg.Docker.SocketPath,
		Timeout:    cfg.Docker.Timeout,
		APIVersion: cfg.Docker.APIVersion,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to connect to Docker daemon: %v\n", err)
		return 1
	}
	defer client.Close()

	compression, err := ipcstream.ParseCompression(cfg.Output.Compression)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	out, finish, err := openOutput(cfg.Output.Path, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open output: %v\n", err)
		return 1
	}

	p := pipeline.New(client,
		pipeline.WithLogger(logger),
		pipeline.WithListOptions(&docker.ListVolumesOptions{Filters: cfg.Docker.Filters}),
		pipeline.WithWriterOptions(ipcstream.WithCompression(compression)),
	)
	metrics, err := p.Run(ctx, out)
	if err := finish(err); err != nil {
		fmt.Fprintf(stderr, "Failed to write volumes: %v\n", err)
		return 1
	}

	level.Debug(logger).Log("msg", "export complete", "report", metrics.Report())
	return 0
}

// loadConfig layers defaults, the YAML file, the env file, the process
// environment and the flags, in that order.
func loadConfig(arguments docopt.Opts, env map[string]string) (*config.Config, error) {
	cfg := config.Default()
	if path, err := arguments.String("--config"); err == nil && path != "" {
		if cfg, err = config.ParseConfig(path); err != nil {
			return nil, err
		}
	}

	if path, err := arguments.String("--env-file"); err == nil && path != "" {
		fileEnv, err := config.LoadEnvFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyEnv(fileEnv); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}

	if v, err := arguments.String("--docker-sock-path"); err == nil {
		cfg.Docker.SocketPath = v
	}
	if v, err := arguments.String("--docker-conn-timeout"); err == nil {
		timeout, err := config.ParseTimeout(v)
		if err != nil {
			return nil, fmt.Errorf("--docker-conn-timeout: %w", err)
		}
		cfg.Docker.Timeout = timeout
	}
	if v, err := arguments.String("--docker-api-version"); err == nil {
		cfg.Docker.APIVersion = v
	}
	if v, err := arguments.String("--compression"); err == nil {
		cfg.Output.Compression = v
	}
	if v, err := arguments.String("--output"); err == nil {
		cfg.Output.Path = v
	}
	if verbose, _ := arguments.Bool("--verbose"); verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openOutput returns the stream destination and a func completing it with
// the export's result. A file is created only once the daemon answered, and
// is removed again when the export fails.
func openOutput(path string, stdout io.Writer) (io.Writer, func(error) error, error) {
	if path == "" {
		return stdout, func(err error) error { return err }, nil
	}

	sink, err := filesystem.CreateFileSink(path)
	if err != nil {
		return nil, nil, err
	}
	return sink, func(runErr error) error {
		if runErr != nil {
			sink.Abort()
			return runErr
		}
		return sink.Close()
	}, nil
}

func newLogger(w io.Writer, cfg config.LoggingConfig) log.Logger {
	var logger log.Logger
	if cfg.Format == "json" {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}

	var allow level.Option
	switch cfg.Level {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowWarn()
	}
	logger = level.NewFilter(logger, allow)
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}
