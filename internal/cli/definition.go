package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/varmatrix/internal/ir"
	"github.com/roach88/varmatrix/internal/matrix"
	"github.com/roach88/varmatrix/internal/presets"
)

// MatrixDefinition is the YAML file consumed by generate and save.
//
//	id: tee
//	name: Basic Tee
//	prefix: TEE
//	preset: clothing
//	attributes:
//	  - name: Size
//	    values: [S, M, L]
type MatrixDefinition struct {
	ID         string                `yaml:"id,omitempty"`
	Name       string                `yaml:"name"`
	Prefix     string                `yaml:"prefix,omitempty"`
	Preset     string                `yaml:"preset,omitempty"`
	Attributes []AttributeDefinition `yaml:"attributes,omitempty"`
}

// AttributeDefinition is one attribute of a MatrixDefinition.
type AttributeDefinition struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// LoadDefinition reads and validates a matrix definition file.
func LoadDefinition(path string) (*MatrixDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}
	return ParseDefinition(data)
}

// ParseDefinition decodes a matrix definition. Unknown keys are rejected.
func ParseDefinition(data []byte) (*MatrixDefinition, error) {
	var def MatrixDefinition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}

	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("invalid definition: name is required")
	}
	if def.Preset == "" && len(def.Attributes) == 0 {
		return nil, fmt.Errorf("invalid definition: preset or attributes is required")
	}
	for i, a := range def.Attributes {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("invalid definition: attributes[%d]: name is required", i)
		}
	}
	return &def, nil
}

// Apply brings ed's attributes in line with the definition. A preset only
// seeds an empty matrix; each listed attribute is then created or extended.
// When no preset is named the listed attributes are authoritative and
// anything else is removed, so a saved product can be edited by editing
// its file.
func (d *MatrixDefinition) Apply(ed *matrix.Editor, catalog *presets.Catalog) error {
	if d.Preset != "" && len(ed.Attributes()) == 0 {
		p, ok := catalog.Get(d.Preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", d.Preset)
		}
		if err := ed.ApplyPreset(p); err != nil {
			return err
		}
	}

	for _, def := range d.Attributes {
		attrID, ok := findAttribute(ed.Attributes(), def.Name)
		if !ok {
			id, err := ed.AddAttribute(def.Name)
			if err != nil {
				return err
			}
			attrID = id
		}
		for _, value := range def.Values {
			if _, err := ed.AddValue(attrID, value); err != nil {
				return err
			}
		}
	}

	if d.Preset == "" {
		return d.prune(ed)
	}
	return nil
}

// prune removes attributes and values the definition does not list.
func (d *MatrixDefinition) prune(ed *matrix.Editor) error {
	for _, attr := range ed.Attributes() {
		def, ok := d.attribute(attr.Name)
		if !ok {
			if err := ed.RemoveAttribute(attr.ID); err != nil {
				return err
			}
			continue
		}
		for _, v := range attr.Values {
			if !containsFold(def.Values, v.Value) {
				if err := ed.RemoveValue(attr.ID, v.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (d *MatrixDefinition) attribute(name string) (AttributeDefinition, bool) {
	for _, a := range d.Attributes {
		if matrix.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return AttributeDefinition{}, false
}

func findAttribute(attrs []ir.Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if matrix.EqualFold(a.Name, name) {
			return a.ID, true
		}
	}
	return "", false
}

func containsFold(values []string, value string) bool {
	for _, v := range values {
		if matrix.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// loadCatalog returns the builtin presets merged with the catalog in dir,
// if any.
func loadCatalog(dir string) (*presets.Catalog, error) {
	catalog, err := presets.Builtin()
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin presets: %w", err)
	}
	if dir == "" {
		return catalog, nil
	}
	extra, err := presets.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	return catalog.Merge(extra), nil
}
