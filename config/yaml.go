//go:build !tinygo

package config

import (
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// LoadYAML parses a YAML configuration with the same keys as the JSON form
func LoadYAML(yamlData []byte) (*Config, error) {
	var config Config
	if err := yaml.UnmarshalStrict(yamlData, &config); err != nil {
		return nil, err
	}
	return finish(&config)
}

// LoadFile picks the parser from the file extension; anything other than
// .yaml or .yml is read as JSON
func LoadFile(name string, data []byte) (*Config, error) {
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return LoadYAML(data)
	}
	return LoadConfig(data)
}
