package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed definitions.schema.json
var definitionsSchema string

const definitionsSchemaURL = "https://suibox.schemas.local/definitions.schema.json"

// In-memory representation of a definitions file. Supports json or yaml.
type definitionsFile struct {
	Entities []struct {
		Name    string `yaml:"name"`
		Package string `yaml:"package"`
		Module  string `yaml:"module"`
		Struct  string `yaml:"struct"`
		Fields  []struct {
			Name string `yaml:"name"`
			Type string `yaml:"type"`
		} `yaml:"fields"`
	} `yaml:"entities"`
}

var definitionsValidator = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(definitionsSchemaURL, strings.NewReader(definitionsSchema)); err != nil {
		return nil, fmt.Errorf("definitions schema load failed: %w", err)
	}
	compiled, err := c.Compile(definitionsSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("definitions schema compile failed: %w", err)
	}
	return compiled, nil
})

// LoadDefinitions reads entity definitions from a YAML or JSON file.
func LoadDefinitions(path string) ([]TypeDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load definitions %q: %w", path, err)
	}
	descs, err := ParseDefinitions(data)
	if err != nil {
		return nil, fmt.Errorf("parse definitions %q: %w", path, err)
	}
	return descs, nil
}

// ParseDefinitions validates data against the definitions schema and returns
// one type description per entity, in document order. Every entity is
// considered annotated.
func ParseDefinitions(data []byte) ([]TypeDescription, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, schemaErrorf("", "decode definitions: %v", err)
	}

	// The validator wants JSON-shaped values, so normalize through encoding/json.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, schemaErrorf("", "normalize definitions: %v", err)
	}
	var doc any
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, schemaErrorf("", "normalize definitions: %v", err)
	}

	validator, err := definitionsValidator()
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(doc); err != nil {
		return nil, schemaErrorf("", "definitions do not match schema: %v", err)
	}

	var file definitionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, schemaErrorf("", "decode definitions: %v", err)
	}

	out := make([]TypeDescription, 0, len(file.Entities))
	for _, e := range file.Entities {
		m := &Marker{Module: DefaultModule, Struct: DefaultStruct}
		if e.Module != "" {
			m.Module = e.Module
		}
		if e.Struct != "" {
			m.Struct = e.Struct
		}
		desc := TypeDescription{
			Name:    e.Name,
			Package: e.Package,
			Marker:  m,
			Fields:  make([]FieldDescription, 0, len(e.Fields)),
		}
		for _, f := range e.Fields {
			desc.Fields = append(desc.Fields, FieldDescription{Name: f.Name, Type: f.Type})
		}
		out = append(out, desc)
	}
	return out, nil
}
