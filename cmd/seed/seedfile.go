package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// marketSeed is one entry of a markets seed file.
type marketSeed struct {
	Name        string   `yaml:"name"`
	Location    string   `yaml:"location"`
	Description string   `yaml:"description"`
	Latitude    *float64 `yaml:"lat"`
	Longitude   *float64 `yaml:"lng"`
}

// loadSeedFile decodes the YAML list at path into dst.
func loadSeedFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file %s: %w", path, err)
	}
	return parseSeed(data, dst)
}

func parseSeed(data []byte, dst interface{}) error {
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse seed YAML: %w", err)
	}
	return nil
}
