package module

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aretw0/cohort/pkg/state"
	"gopkg.in/yaml.v3"
)

// Definition is the parsed, not yet compiled, form of a module file.
type Definition struct {
	Name    string                    `json:"name" yaml:"name"`
	Remarks []string                  `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	States  map[string]map[string]any `json:"states" yaml:"states"`
}

// Format identifies the encoding of a definition file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file name. ok is false for unsupported extensions.
func FormatOf(filename string) (f Format, ok bool) {
	switch strings.ToLower(path.Ext(filename)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Parse decodes a definition without compiling its states.
func Parse(data []byte, format Format) (*Definition, error) {
	var def Definition
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	if def.Name == "" {
		return nil, errors.New("definition has no name")
	}
	if len(def.States) == 0 {
		return nil, fmt.Errorf("definition %q has no states", def.Name)
	}
	return &def, nil
}

// Build compiles a definition into a validated Module.
// State decoding errors are joined so a single pass reports every broken state.
func Build(key string, submodule bool, def *Definition) (*Module, error) {
	names := make([]string, 0, len(def.States))
	for n := range def.States {
		names = append(names, n)
	}
	sort.Strings(names)

	var errs []error
	templates := make([]state.Template, 0, len(names))
	for _, n := range names {
		t, err := state.Build(def.Name, n, def.States[n])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		templates = append(templates, t)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("module %q: %w", def.Name, errors.Join(errs...))
	}

	return New(key, def.Name, submodule, def.Remarks, templates...)
}
