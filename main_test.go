package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/compiler/protogen"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/pluginpb"
)

func scalar(name string, number int32, kind descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:     proto.String(name),
		JsonName: proto.String(name),
		Number:   proto.Int32(number),
		Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:     kind.Enum(),
	}
}

func barProto(extra ...*descriptorpb.FieldDescriptorProto) *descriptorpb.FileDescriptorProto {
	fields := append([]*descriptorpb.FieldDescriptorProto{
		scalar("name", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
		scalar("count", 2, descriptorpb.FieldDescriptorProto_TYPE_INT64),
		scalar("active", 3, descriptorpb.FieldDescriptorProto_TYPE_BOOL),
	}, extra...)

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("model/bar.proto"),
		Package: proto.String("model"),
		Syntax:  proto.String("proto3"),
		Options: &descriptorpb.FileOptions{GoPackage: proto.String("example.com/app/model")},
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: proto.String("Bar"), Field: fields},
			{Name: proto.String("Plain"), Field: []*descriptorpb.FieldDescriptorProto{
				scalar("note", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			}},
		},
		SourceCodeInfo: &descriptorpb.SourceCodeInfo{
			Location: []*descriptorpb.SourceCodeInfo_Location{
				{
					Path:            []int32{4, 0},
					Span:            []int32{3, 0, 10},
					LeadingComments: proto.String(" Bar is stored on chain.\n suibox:entity module=foo struct=Bar\n"),
				},
				{
					Path:            []int32{4, 1},
					Span:            []int32{12, 0, 14},
					LeadingComments: proto.String(" Plain stays off chain.\n"),
				},
			},
		},
	}
}

func run(t *testing.T, params string, file *descriptorpb.FileDescriptorProto) (*pluginpb.CodeGeneratorResponse, error) {
	t.Helper()
	req := &pluginpb.CodeGeneratorRequest{
		FileToGenerate: []string{file.GetName()},
		Parameter:      proto.String(params),
		ProtoFile:      []*descriptorpb.FileDescriptorProto{file},
	}

	var flags flag.FlagSet
	opts := registerFlags(&flags)
	plugin, err := protogen.Options{ParamFunc: flags.Set}.New(req)
	require.NoError(t, err)

	if err := generate(plugin, opts); err != nil {
		return nil, err
	}
	return plugin.Response(), nil
}

func responseFiles(resp *pluginpb.CodeGeneratorResponse) map[string]string {
	out := make(map[string]string)
	for _, f := range resp.File {
		out[f.GetName()] = f.GetContent()
	}
	return out
}

func TestGenerate_Response(t *testing.T) {
	resp, err := run(t, "", barProto())
	require.NoError(t, err)
	require.Empty(t, resp.GetError())

	files := responseFiles(resp)
	require.Len(t, files, 4)

	move := files["sources/foo.move"]
	assert.Contains(t, move, "module foo::Bar {")
	assert.Contains(t, move, "name: String,")
	assert.Contains(t, move, "count: u64,")
	assert.Contains(t, move, "active: bool,")
	assert.NotContains(t, move, "Plain")

	binding := files["example.com/app/model/templates/bar.suibox.go"]
	assert.Contains(t, binding, "package templates")
	assert.Contains(t, binding, "func CreateBar(")

	assert.Contains(t, files["example.com/app/model/templates/registry.suibox.go"], `"Bar": func(`)
	assert.Regexp(t, `foo = ['"]0x0['"]`, files["Move.toml"])
}

func TestGenerate_StripPrefixAndMoveOut(t *testing.T) {
	moveDir := t.TempDir()
	resp, err := run(t, "strip_prefix=example.com/app,move_out="+moveDir+",package=bars", barProto())
	require.NoError(t, err)

	files := responseFiles(resp)
	assert.Contains(t, files, "model/templates/bar.suibox.go")
	assert.Contains(t, files, "model/templates/registry.suibox.go")
	assert.NotContains(t, files, "sources/foo.move")

	raw, err := os.ReadFile(filepath.Join(moveDir, "Move.toml"))
	require.NoError(t, err)
	assert.Regexp(t, `name = ['"]bars['"]`, string(raw))
	_, err = os.Stat(filepath.Join(moveDir, "sources", "foo.move"))
	assert.NoError(t, err)
}

func TestGenerate_OutDirOverridesResponse(t *testing.T) {
	dir := t.TempDir()
	resp, err := run(t, "out_dir="+dir, barProto())
	require.NoError(t, err)
	assert.Empty(t, resp.File)

	_, err = os.Stat(filepath.Join(dir, "sources", "foo.move"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "example.com", "app", "model", "templates", "bar.suibox.go"))
	assert.NoError(t, err)
}

func TestGenerate_UnmappedKinds(t *testing.T) {
	blob := scalar("blob", 4, descriptorpb.FieldDescriptorProto_TYPE_BYTES)

	resp, err := run(t, "", barProto(blob))
	require.NoError(t, err)
	assert.Contains(t, responseFiles(resp)["sources/foo.move"], "blob: String,")

	_, err = run(t, "strict=true", barProto(blob))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"blob"`)
}

func TestGenerate_NothingAnnotated(t *testing.T) {
	file := barProto()
	file.SourceCodeInfo = nil

	resp, err := run(t, "", file)
	require.NoError(t, err)
	assert.Empty(t, resp.File)
}

func TestGenerate_BadDirective(t *testing.T) {
	file := barProto()
	file.SourceCodeInfo.Location[0].LeadingComments = proto.String(" suibox:entity modul=foo\n")

	_, err := run(t, "", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.Bar")
}
