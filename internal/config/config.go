// Package config loads the optional docs-tracker YAML configuration file.
// Everything in it can also be given as a flag or DOCS_TRACKER_* environment
// variable; the file only provides defaults for values left unset.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds file-backed defaults for the tracker binary.
type Config struct {
	// ReferenceDir holds syntax.csv and template.csv.
	ReferenceDir string `yaml:"reference_dir"`
	// Root is the default shipment root folder for one-shot runs.
	Root string `yaml:"root"`
	// Master is the default master CDs list for one-shot runs.
	Master string `yaml:"master"`
	// Port is the UI server port.
	Port int `yaml:"port"`
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return &cfg, nil
}
