// Package config handles configuration loading for the formdata tool.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax), so tokens and paths can be
// injected at runtime.
//
// # Configuration Sections
//
//   - output: where encoded bodies are written and whether they are gzipped
//   - encoder: boundary collision checking and concurrency
//   - payload: normalization applied to JSON fields before encoding
//   - requests: the bodies to build, each a JSON payload plus files
//
// # Example Configuration
//
//	output:
//	  dir: ./out
//	  gzip: true
//	  gzipLevel: 9
//
//	encoder:
//	  collisionCheck: 3
//	  workers: 4
//
//	payload:
//	  snakeCaseKeys: true
//	  timeLocation: Europe/Stockholm
//
//	requests:
//	  - name: create-message
//	    payload:
//	      content: ${MESSAGE}
//	    files:
//	      - path: ./report.pdf
//	        mimeType: application/pdf
//
// Relative file and output paths are resolved against the directory of the
// configuration file. See [Load].
package config

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sirosfoundation/go-apikit/pkg/compression"
)

// DefaultMimeType is used when a file's type is neither configured nor known by extension
const DefaultMimeType = "application/octet-stream"

// Config is the root configuration structure
type Config struct {
	Output   OutputConfig  `yaml:"output"`
	Encoder  EncoderConfig `yaml:"encoder"`
	Payload  PayloadConfig `yaml:"payload"`
	Requests []Request     `yaml:"requests"`

	// BaseDir is the directory relative paths are resolved against
	BaseDir string `yaml:"-"`
}

// OutputConfig holds output settings
type OutputConfig struct {
	Dir  string `yaml:"dir"`
	Gzip bool   `yaml:"gzip"`
	// GzipLevel is a klauspost/compress gzip level. Unset means
	// compression.DefaultLevel; 0 stores without compressing.
	GzipLevel *int `yaml:"gzipLevel"`
}

// Level returns the configured gzip level
func (o OutputConfig) Level() int {
	if o.GzipLevel == nil {
		return compression.DefaultLevel
	}
	return *o.GzipLevel
}

// EncoderConfig holds multipart encoder settings
type EncoderConfig struct {
	// CollisionCheck is the number of boundaries tried before giving up.
	// Zero disables the check.
	CollisionCheck int `yaml:"collisionCheck"`
	// Workers bounds the number of requests encoded concurrently
	Workers int `yaml:"workers"`
}

// PayloadConfig holds JSON payload normalization settings
type PayloadConfig struct {
	SnakeCaseKeys bool   `yaml:"snakeCaseKeys"`
	TimeLocation  string `yaml:"timeLocation"`

	location *time.Location
}

// Location returns the zone timestamps in payloads are rendered in
func (p PayloadConfig) Location() *time.Location {
	if p.location == nil {
		return time.UTC
	}
	return p.location
}

// Request describes one multipart body to build
type Request struct {
	Name    string         `yaml:"name"`
	Payload map[string]any `yaml:"payload"`
	Files   []FileConfig   `yaml:"files"`
}

// FileConfig describes one file part
type FileConfig struct {
	Path     string `yaml:"path"`
	Filename string `yaml:"filename"`
	MimeType string `yaml:"mimeType"`
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	cfg.BaseDir = filepath.Dir(path)
	cfg.resolvePaths()

	return cfg, nil
}

// Parse reads configuration from YAML bytes. Relative paths are left as is.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	// Validate
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Output.Dir == "" {
		c.Output.Dir = "."
	}
	if c.Encoder.Workers == 0 {
		c.Encoder.Workers = 4
	}
	if c.Payload.TimeLocation == "" {
		c.Payload.TimeLocation = "UTC"
	}
	for i := range c.Requests {
		for j := range c.Requests[i].Files {
			f := &c.Requests[i].Files[j]
			if f.Filename == "" {
				f.Filename = filepath.Base(f.Path)
			}
			if f.MimeType == "" {
				f.MimeType = mimeTypeFor(f.Filename)
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Encoder.Workers < 0 {
		return fmt.Errorf("encoder.workers must not be negative, got %d", c.Encoder.Workers)
	}
	if err := compression.ValidateLevel(c.Output.Level()); err != nil {
		return fmt.Errorf("output.gzipLevel: %w", err)
	}
	if c.Encoder.CollisionCheck < 0 {
		return fmt.Errorf("encoder.collisionCheck must not be negative, got %d", c.Encoder.CollisionCheck)
	}

	loc, err := time.LoadLocation(c.Payload.TimeLocation)
	if err != nil {
		return fmt.Errorf("payload.timeLocation: %w", err)
	}
	c.Payload.location = loc

	if len(c.Requests) == 0 {
		return fmt.Errorf("at least one request is required")
	}

	seen := make(map[string]bool, len(c.Requests))
	for i, req := range c.Requests {
		if req.Name == "" {
			return fmt.Errorf("requests[%d].name is required", i)
		}
		if !validName.MatchString(req.Name) {
			return fmt.Errorf("requests[%d].name %q may only contain letters, digits, '.', '_' and '-'", i, req.Name)
		}
		if seen[req.Name] {
			return fmt.Errorf("requests[%d].name %q is not unique", i, req.Name)
		}
		seen[req.Name] = true

		for j, f := range req.Files {
			if f.Path == "" {
				return fmt.Errorf("requests[%d].files[%d].path is required", i, j)
			}
		}
	}

	return nil
}

func (c *Config) resolvePaths() {
	c.Output.Dir = c.resolve(c.Output.Dir)
	for i := range c.Requests {
		for j := range c.Requests[i].Files {
			f := &c.Requests[i].Files[j]
			f.Path = c.resolve(f.Path)
		}
	}
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) || c.BaseDir == "" {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}

// mimeTypeFor guesses a MIME type from the file extension
func mimeTypeFor(filename string) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		return t
	}
	return DefaultMimeType
}
