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

// Package config provides configuration utilities.
package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/arrowarc/volumes2arrow/pkg/ipcstream"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvDockerHost  = "DOCKER_HOST"
	EnvTimeout     = "VOLUMES2ARROW_TIMEOUT"
	EnvAPIVersion  = "VOLUMES2ARROW_API_VERSION"
	EnvCompression = "VOLUMES2ARROW_COMPRESSION"
	EnvLogLevel    = "VOLUMES2ARROW_LOG_LEVEL"
)

const unixScheme = "unix://"

var apiVersionPattern = regexp.MustCompile(`^v?\d+\.\d+$`)

type Config struct {
	Docker  DockerConfig  `yaml:"docker"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

type DockerConfig struct {
	SocketPath string              `yaml:"socket_path"`
	Timeout    time.Duration       `yaml:"timeout"`
	APIVersion string              `yaml:"api_version"`
	Filters    map[string][]string `yaml:"filters"`
}

type OutputConfig struct {
	// Path is the destination file. Empty means stdout.
	Path        string `yaml:"path"`
	Compression string `yaml:"compression"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Log levels and formats accepted in LoggingConfig.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"logfmt", "json"}
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Docker: DockerConfig{
			SocketPath: "/var/run/docker.sock",
			Timeout:    30 * time.Second,
			APIVersion: "1.43",
		},
		Output: OutputConfig{
			Compression: string(ipcstream.CompressionNone),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "logfmt",
		},
	}
}

// ParseConfig reads a YAML file over the defaults. Keys missing from the
// file keep their default values.
func ParseConfig(configPath string) (*Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer configFile.Close()

	config := Default()
	decoder := yaml.NewDecoder(configFile)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", configPath, err)
	}

	return config, nil
}

// LoadEnvFile reads dotenv files without touching the process environment.
// Later files override earlier ones.
func LoadEnvFile(paths ...string) (map[string]string, error) {
	env := make(map[string]string)
	for _, path := range paths {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
		for k, v := range vars {
			env[k] = v
		}
	}
	return env, nil
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// ApplyEnv overrides the configuration with the variables present in env.
// Empty values are ignored.
func (c *Config) ApplyEnv(env map[string]string) error {
	if host := env[EnvDockerHost]; host != "" {
		if !strings.HasPrefix(host, unixScheme) {
			return fmt.Errorf("%s must be a %s address, got %q", EnvDockerHost, unixScheme, host)
		}
		c.Docker.SocketPath = strings.TrimPrefix(host, unixScheme)
	}
	if timeout := env[EnvTimeout]; timeout != "" {
		d, err := ParseTimeout(timeout)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Docker.Timeout = d
	}
	if version := env[EnvAPIVersion]; version != "" {
		c.Docker.APIVersion = version
	}
	if compression := env[EnvCompression]; compression != "" {
		c.Output.Compression = compression
	}
	if lvl := env[EnvLogLevel]; lvl != "" {
		c.Logging.Level = strings.ToLower(lvl)
	}
	return nil
}

// ParseTimeout accepts whole seconds or a Go duration string.
func ParseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return d, nil
}

func (c *Config) Validate() error {
	if err := c.validateDocker(); err != nil {
		return err
	}

	if err := c.validateOutput(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateDocker() error {
	if c.Docker.SocketPath == "" {
		return fmt.Errorf("docker socket_path cannot be empty")
	}
	if c.Docker.Timeout <= 0 {
		return fmt.Errorf("docker timeout must be greater than 0")
	}
	if !apiVersionPattern.MatchString(c.Docker.APIVersion) {
		return fmt.Errorf("docker api_version %q must look like 1.43", c.Docker.APIVersion)
	}
	for key, values := range c.Docker.Filters {
		if key == "" {
			return fmt.Errorf("docker filter name cannot be empty")
		}
		if len(values) == 0 {
			return fmt.Errorf("docker filter '%s' must have at least one value", key)
		}
	}
	return nil
}

func (c *Config) validateOutput() error {
	if _, err := ipcstream.ParseCompression(c.Output.Compression); err != nil {
		return fmt.Errorf("output %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(LogLevels, c.Logging.Level) {
		return fmt.Errorf("log level '%s' must be one of %s", c.Logging.Level, strings.Join(LogLevels, ", "))
	}
	if !slices.Contains(LogFormats, c.Logging.Format) {
		return fmt.Errorf("log format '%s' must be one of %s", c.Logging.Format, strings.Join(LogFormats, ", "))
	}
	return nil
}
