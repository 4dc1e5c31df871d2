package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"os"
)

const DefaultManagerName = "default"

// Document is the root of a YAML definition file.
type Document struct {
	Managers []Manager `yaml:"managers"`
}

type Manager struct {
	// Name of the manager, empty selects the default manager.
	Name   string  `yaml:"name"`
	Caches []Cache `yaml:"caches"`
}

func (doc *Document) AdjustConfig() {
	for i := range doc.Managers {
		if doc.Managers[i].Name == "" {
			doc.Managers[i].Name = DefaultManagerName
		}
	}
}

// Parse decodes a YAML document and applies defaults.
func Parse(data []byte) (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	doc.AdjustConfig()
	return doc, nil
}

func Load(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Marshal encodes the document back to YAML.
func Marshal(doc *Document) ([]byte, error) {
	return yaml.Marshal(doc)
}
