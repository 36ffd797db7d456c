package main

import (
	"flag"

	"google.golang.org/protobuf/compiler/protogen"

	"github.com/jshufro/protoc-gen-suibox/codegen"
	"github.com/jshufro/protoc-gen-suibox/schema"
)

const defaultPackageName = "suibox"

// Plugin parameters, passed as --suibox_opt=key=value. module= belongs to
// protogen and would apply to the Move sources too.
type options struct {
	outDir          string // Writes everything below this directory instead of the protoc response
	moveOut         string // Writes the Move package here; Go files still follow outDir
	stripPrefix     string // Import path prefix stripped from Go output paths
	registryPackage string
	templates       string // Directory overriding the embedded templates
	packageName     string // Move package name in Move.toml
	strict          bool   // Reject fields whose proto kind has no Move mapping
}

func registerFlags(flags *flag.FlagSet) *options {
	o := &options{}
	flags.StringVar(&o.outDir, "out_dir", "", "directory to write generated files to, overriding protoc's output")
	flags.StringVar(&o.moveOut, "move_out", "", "directory for the Move package")
	flags.StringVar(&o.stripPrefix, "strip_prefix", "", "import path prefix to strip from generated Go paths")
	flags.StringVar(&o.registryPackage, "registry_package", "", "import path of the generated registry")
	flags.StringVar(&o.templates, "templates", "", "directory of template overrides")
	flags.StringVar(&o.packageName, "package", defaultPackageName, "Move package name")
	flags.BoolVar(&o.strict, "strict", false, "reject unmapped field types")
	return o
}

func (o *options) extractor() *schema.Extractor {
	e := schema.NewExtractor()
	if o.strict {
		e.Policy = schema.RejectUnmapped
	}
	return e
}

func (o *options) generator() *codegen.Generator {
	g := codegen.New()
	if o.templates != "" {
		g.Templates = codegen.LoadTemplates(o.templates)
	}
	g.ModulePrefix = o.stripPrefix
	g.RegistryPackage = o.registryPackage
	return g
}

// destination prefers explicit directories over the protoc response.
func (o *options) destination(plugin *protogen.Plugin) codegen.Destination {
	response := codegen.DestinationFunc(func(a codegen.Artifact) error {
		_, err := plugin.NewGeneratedFile(a.Path, "").Write([]byte(a.Content))
		return err
	})
	dst := codegen.ResolveDestination(o.outDir, response)
	if o.moveOut == "" {
		return dst
	}
	return codegen.Router{Contract: codegen.DirDestination{Root: o.moveOut}, Go: dst}
}
