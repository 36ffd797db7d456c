package codegen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/jshufro/protoc-gen-suibox/schema"
)

const ManifestFile = "Move.toml"

// Manifest is the subset of Move.toml the pipeline writes and reads.
type Manifest struct {
	Package      ManifestPackage   `toml:"package"`
	Addresses    map[string]string `toml:"addresses"`
	Dependencies map[string]any    `toml:"dependencies"`
}

type ManifestPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version,omitempty"`
	Edition string `toml:"edition,omitempty"`
}

// NewManifest describes a package holding the contracts for schemas. Every
// module name becomes a named address left unassigned until publish.
func NewManifest(name string, schemas []schema.EntitySchema) Manifest {
	m := Manifest{
		Package:      ManifestPackage{Name: name, Version: "0.0.1", Edition: "2024"},
		Addresses:    make(map[string]string),
		Dependencies: make(map[string]any),
	}
	for _, s := range schemas {
		m.Addresses[s.ModuleName] = "0x0"
	}
	return m
}

// Artifact renders the manifest as a contract artifact at the package root.
func (m Manifest) Artifact() (Artifact, error) {
	data, err := toml.Marshal(m)
	if err != nil {
		return Artifact{}, generationErrorf(ManifestFile, "encoding manifest: %w", err)
	}
	return Artifact{Kind: ContractSource, Path: ManifestFile, Content: string(data)}, nil
}

// WriteManifest writes Move.toml into dir.
func WriteManifest(dir string, m Manifest) error {
	a, err := m.Artifact()
	if err != nil {
		return err
	}
	data := []byte(a.Content)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return generationErrorf(ManifestFile, "failed creating package directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return generationErrorf(ManifestFile, "failed writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads Move.toml from dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Package.Name == "" {
		return nil, fmt.Errorf("parse manifest: %s has no package name", filepath.Join(dir, ManifestFile))
	}
	return &m, nil
}
