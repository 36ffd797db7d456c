package codegen_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshufro/protoc-gen-suibox/codegen"
)

func TestResolveDestination_OverrideWins(t *testing.T) {
	var toolchain []string
	fallback := codegen.DestinationFunc(func(a codegen.Artifact) error {
		toolchain = append(toolchain, a.Path)
		return nil
	})
	dir := t.TempDir()

	dst := codegen.ResolveDestination(dir, fallback)
	require.NoError(t, codegen.Emit(dst, []codegen.Artifact{{Kind: codegen.ContractSource, Path: "sources/foo.move", Content: "module foo::Bar {}"}}))

	assert.Empty(t, toolchain)
	raw, err := os.ReadFile(filepath.Join(dir, "sources", "foo.move"))
	require.NoError(t, err)
	assert.Equal(t, "module foo::Bar {}", string(raw))
}

func TestResolveDestination_Fallback(t *testing.T) {
	var got []string
	fallback := codegen.DestinationFunc(func(a codegen.Artifact) error {
		got = append(got, a.Path)
		return nil
	})

	require.NoError(t, codegen.Emit(codegen.ResolveDestination("", fallback), []codegen.Artifact{{Path: "a"}, {Path: "b"}}))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestRouter(t *testing.T) {
	var contracts, gofiles []string
	r := codegen.Router{
		Contract: codegen.DestinationFunc(func(a codegen.Artifact) error { contracts = append(contracts, a.Path); return nil }),
		Go:       codegen.DestinationFunc(func(a codegen.Artifact) error { gofiles = append(gofiles, a.Path); return nil }),
	}
	require.NoError(t, codegen.Emit(r, []codegen.Artifact{
		{Kind: codegen.ContractSource, Path: "sources/foo.move"},
		{Kind: codegen.HostBinding, Path: "templates/bar.suibox.go"},
		{Kind: codegen.Registry, Path: "templates/registry.suibox.go"},
	}))
	assert.Equal(t, []string{"sources/foo.move"}, contracts)
	assert.Equal(t, []string{"templates/bar.suibox.go", "templates/registry.suibox.go"}, gofiles)
}

func TestEmit_WriteFailure(t *testing.T) {
	boom := errors.New("disk full")
	calls := 0
	dst := codegen.DestinationFunc(func(codegen.Artifact) error {
		calls++
		return boom
	})

	err := codegen.Emit(dst, []codegen.Artifact{{Path: "a"}, {Path: "b"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, codegen.ErrGeneration)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestDirDestination_Unwritable(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(root, nil, 0o644))

	err := codegen.DirDestination{Root: root}.Write(codegen.Artifact{Path: "sources/foo.move"})
	assert.ErrorIs(t, err, codegen.ErrGeneration)
}
