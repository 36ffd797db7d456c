// protoc-gen-suibox generates a Sui Move package and Go bindings from
// protobuf messages annotated with a suibox:entity leading comment.
package main

import (
	"flag"
	"log"

	"google.golang.org/protobuf/compiler/protogen"

	"github.com/jshufro/protoc-gen-suibox/codegen"
	"github.com/jshufro/protoc-gen-suibox/schema"
)

func generate(plugin *protogen.Plugin, opts *options) error {
	var descs []schema.TypeDescription
	for _, file := range plugin.Files {
		if !file.Generate {
			continue
		}

		parsed, err := parseProto(file)
		if err != nil {
			return err
		}
		descs = append(descs, parsed...)
	}

	schemas, err := opts.extractor().ExtractAll(descs)
	if err != nil {
		return err
	}
	artifacts, err := opts.generator().Generate(schemas)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		return nil
	}

	manifest, err := codegen.NewManifest(opts.packageName, schemas).Artifact()
	if err != nil {
		return err
	}
	return codegen.Emit(opts.destination(plugin), append(artifacts, manifest))
}

func main() {
	log.Println("generating suibox")

	var flags flag.FlagSet
	opts := registerFlags(&flags)
	protogen.Options{ParamFunc: flags.Set}.Run(func(plugin *protogen.Plugin) error {
		return generate(plugin, opts)
	})
}
