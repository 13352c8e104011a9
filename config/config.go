// Package config loads romgen.yaml, the list of ROMs a project builds.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/anupcshan/romgen/artifact"
	"github.com/anupcshan/romgen/rom"
	"github.com/anupcshan/romgen/wordenc"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultCapacity is 1000 words, the boot ROM size of the reference SoC.
const DefaultCapacity = 4000

const (
	FormatSV   = "sv"
	FormatMemh = "memh"
	FormatIHex = "ihex"
	FormatBin  = "bin"
)

type Target struct {
	Name     string `yaml:"name"`
	Input    string `yaml:"input"`
	Template string `yaml:"template"`
	Output   string `yaml:"output"`
	// Format is sv for a patched template or one of the standalone image
	// formats memh, ihex and bin.
	Format    string `yaml:"format"`
	Capacity  int64  `yaml:"capacity"`
	ByteOrder string `yaml:"byte_order"`
	Padding   string `yaml:"padding"`
	Strict    *bool  `yaml:"strict"`
	// Base is the load address of ihex output.
	Base uint32 `yaml:"base"`
}

type Config struct {
	Capacity    int64            `yaml:"capacity"`
	ByteOrder   string           `yaml:"byte_order"`
	Padding     string           `yaml:"padding"`
	Strict      bool             `yaml:"strict"`
	Markers     artifact.Markers `yaml:"markers"`
	Parallelism int              `yaml:"parallelism"`
	Metrics     string           `yaml:"metrics"`
	Targets     []Target         `yaml:"targets"`

	dir string
}

// Resolved is a target with every default applied and every name parsed.
type Resolved struct {
	Name      string
	Input     string
	Template  string
	Output    string
	Format    string
	Capacity  int64
	ByteOrder wordenc.ByteOrder
	Padding   rom.Policy
	Strict    bool
	Base      uint32
	Markers   artifact.Markers
}

func Default() *Config {
	return &Config{
		Capacity:    DefaultCapacity,
		ByteOrder:   wordenc.LittleEndian.String(),
		Padding:     rom.PadToCapacity.String(),
		Strict:      true,
		Markers:     artifact.DefaultMarkers,
		Parallelism: 4,
	}
}

// Load reads a config file on top of Default. Relative target paths are
// resolved against the directory holding the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	cfg.dir = filepath.Dir(path)

	if cfg.Markers.Begin == "" {
		cfg.Markers.Begin = artifact.DefaultMarkers.Begin
	}
	if cfg.Markers.End == "" {
		cfg.Markers.End = artifact.DefaultMarkers.End
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}

	for _, t := range cfg.Targets {
		if t.Input == "" {
			return nil, errors.Errorf("%s: target %q: input is required", path, t.Name)
		}
		if _, err := cfg.Resolve(t); err != nil {
			return nil, errors.Wrapf(err, "%s: target %q", path, t.Name)
		}
	}
	return cfg, nil
}

func (c *Config) path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

func formatFromExt(output, template string) string {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".sv", ".svh", ".v", ".vh":
		return FormatSV
	case ".bin":
		return FormatBin
	case ".ihex", ".ihx":
		return FormatIHex
	}
	if template != "" {
		return FormatSV
	}
	return FormatMemh
}

func (c *Config) Resolve(t Target) (Resolved, error) {
	r := Resolved{
		Name:     t.Name,
		Input:    c.path(t.Input),
		Template: c.path(t.Template),
		Output:   c.path(t.Output),
		Format:   t.Format,
		Capacity: c.Capacity,
		Strict:   c.Strict,
		Base:     t.Base,
		Markers:  c.Markers,
	}
	if t.Capacity != 0 {
		r.Capacity = t.Capacity
	}
	if t.Strict != nil {
		r.Strict = *t.Strict
	}

	if r.Format == "" {
		r.Format = formatFromExt(r.Output, r.Template)
	}
	switch r.Format {
	case FormatSV:
		if r.Template == "" {
			r.Template = r.Output
		}
	case FormatMemh, FormatIHex, FormatBin:
	default:
		return r, errors.Errorf("unknown output format %q", r.Format)
	}

	order := c.ByteOrder
	if t.ByteOrder != "" {
		order = t.ByteOrder
	}
	var err error
	if r.ByteOrder, err = wordenc.ParseByteOrder(order); err != nil {
		return r, err
	}

	padding := c.Padding
	if t.Padding != "" {
		padding = t.Padding
	}
	if r.Padding, err = rom.ParsePolicy(padding); err != nil {
		return r, err
	}

	if r.Output == "" {
		return r, errors.New("output is required")
	}
	return r, nil
}

// ResolveAll resolves every configured target.
func (c *Config) ResolveAll() ([]Resolved, error) {
	var out []Resolved
	for _, t := range c.Targets {
		r, err := c.Resolve(t)
		if err != nil {
			return nil, errors.Wrapf(err, "target %q", t.Name)
		}
		out = append(out, r)
	}
	return out, nil
}

// MetricsPath is the metrics textfile location, relative to the config file.
func (c *Config) MetricsPath() string {
	return c.path(c.Metrics)
}
