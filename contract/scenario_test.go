package contract

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jshufro/protoc-gen-suibox/codegen"
	"github.com/jshufro/protoc-gen-suibox/lib"
	"github.com/jshufro/protoc-gen-suibox/schema"
)

type barBinding struct{ id string }

func (b barBinding) ObjectID() string { return b.id }

// Generate, build, publish, create the registry and create one object, with
// the toolchain and the node faked.
func TestPipeline(t *testing.T) {
	entity, err := schema.Extract(schema.TypeDescription{
		Name:    "Bar",
		Package: "example.com/app/model",
		Marker:  &schema.Marker{Module: "foo", Struct: "Bar"},
		Fields: []schema.FieldDescription{
			{Name: "name", Type: "string"},
			{Name: "count", Type: "int64"},
		},
	})
	require.NoError(t, err)

	artifacts, err := codegen.New().Generate([]schema.EntitySchema{entity})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, codegen.Emit(codegen.DirDestination{Root: dir}, artifacts))
	require.NoError(t, codegen.WriteManifest(dir, codegen.NewManifest("suibox", []schema.EntitySchema{entity})))
	_, err = os.Stat(filepath.Join(dir, "sources", "foo.move"))
	require.NoError(t, err)

	runner := &fakeRunner{respond: func(inv Invocation) (Output, error) {
		switch inv.Args[0] + " " + inv.Args[1] {
		case "move build":
			out := filepath.Join(inv.Dir, "build", "suibox", "bytecode_modules")
			if err := os.MkdirAll(out, 0o755); err != nil {
				return Output{}, err
			}
			return Output{Stdout: []byte("BUILDING suibox\n")}, os.WriteFile(filepath.Join(out, "Bar.mv"), []byte{0xa1, 0x1c, 0xeb, 0x0b}, 0o644)
		case "client publish":
			return Output{Stdout: []byte(publishSuccess)}, nil
		}
		return Output{Stdout: []byte(ptbSuccess)}, nil
	}}
	node := newNode(t, func(string, []json.RawMessage) (any, *rpcFault) {
		return json.RawMessage(`{"digest":"9XyCall","effects":{"created":[{"reference":{"objectId":"0xregistry"}}]}}`), nil
	})
	cfg := testConfig()
	cfg.FullnodeURL = node.URL
	m := newTestManager(t, cfg, WithRunner(runner))

	modules, err := m.Build(t.Context(), dir)
	require.NoError(t, err)
	require.Len(t, modules, 1)

	pub, err := m.Publish(t.Context(), dir)
	require.NoError(t, err)

	reg, err := m.CreateRegistry(t.Context(), entity.StructName, dir, pub.PackageID)
	require.NoError(t, err)
	assert.Equal(t, "0xregistry", reg.CreatedObjectID)

	// The call a generated CreateBar issues.
	create := lib.Call{
		Module:            entity.StructName,
		Function:          "create",
		Args:              []any{"Alice", uint64(42), reg.CreatedObjectID},
		WorkingDir:        dir,
		AssignAndTransfer: true,
		TransferTo:        cfg.SenderAddress,
		AssignName:        "bar_obj",
	}
	digest, err := m.MoveCall(t.Context(), create)
	require.NoError(t, err)
	assert.Equal(t, "9XyCall", digest)

	objectID, err := m.ResolveCreatedObject(t.Context(), digest)
	require.NoError(t, err)

	registry := lib.NewRegistry(map[string]lib.Constructor{
		"Bar": func(id string, _ lib.Caller) (lib.Binding, error) { return barBinding{id: id}, nil },
	})
	bound, err := registry.Instantiate("Bar", objectID, m)
	require.NoError(t, err)
	assert.Equal(t, "0xregistry", bound.ObjectID())

	calls := runner.invocations()
	require.Len(t, calls, 4)
	assert.Equal(t, []string{
		"client", "ptb", "--move-call", "0xpkg::Bar::create",
		`"Alice"`, "42", "@0xregistry",
		"--assign", "bar_obj", "--transfer-objects", "[bar_obj]", "@" + testSender,
		"--gas-budget", "50000000", "--json",
	}, calls[3].Args)
}
