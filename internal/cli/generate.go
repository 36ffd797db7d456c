package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jshufro/protoc-gen-suibox/codegen"
	"github.com/jshufro/protoc-gen-suibox/collect"
	"github.com/jshufro/protoc-gen-suibox/schema"
)

func init() {
	register(command{name: "generate", summary: "generate the Move package and Go bindings", run: (*App).generate})
	register(command{name: "scaffold", summary: "write a starter definitions file", run: (*App).scaffold})
}

type generateFlags struct {
	defs            string
	dir             string
	out             string
	moveOut         string
	packageName     string
	stripPrefix     string
	registryPackage string
	templates       string
	strict          bool
}

func (g *generateFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.defs, "defs", "", "definitions file (YAML or JSON); otherwise Go package patterns are read from the arguments")
	fs.StringVar(&g.dir, "C", ".", "directory Go package patterns are resolved in")
	fs.StringVar(&g.out, "out", "", "output directory (required)")
	fs.StringVar(&g.moveOut, "move-out", "", "directory for the Move package, default -out")
	fs.StringVar(&g.packageName, "package", "suibox", "Move package name")
	fs.StringVar(&g.stripPrefix, "strip-prefix", "", "import path prefix to strip from Go output paths")
	fs.StringVar(&g.registryPackage, "registry-package", "", "import path of the generated registry")
	fs.StringVar(&g.templates, "templates", "", "directory of template overrides")
	fs.BoolVar(&g.strict, "strict", false, "reject unmapped field types")
}

func (g *generateFlags) describe(patterns []string) ([]schema.TypeDescription, error) {
	switch {
	case g.defs != "" && len(patterns) > 0:
		return nil, usagef("-defs and package patterns are mutually exclusive")
	case g.defs != "":
		return schema.LoadDefinitions(g.defs)
	case len(patterns) > 0:
		return collect.Packages(g.dir, patterns...)
	}
	return nil, usagef("nothing to generate: pass -defs or Go package patterns")
}

// run generates into the configured directories and returns the schemas.
func (g *generateFlags) run(patterns []string) ([]schema.EntitySchema, error) {
	if g.out == "" {
		return nil, usagef("-out is required")
	}
	descs, err := g.describe(patterns)
	if err != nil {
		return nil, err
	}

	extractor := schema.NewExtractor()
	if g.strict {
		extractor.Policy = schema.RejectUnmapped
	}
	schemas, err := extractor.ExtractAll(descs)
	if err != nil {
		return nil, err
	}

	gen := codegen.New()
	gen.ModulePrefix = g.stripPrefix
	gen.RegistryPackage = g.registryPackage
	if g.templates != "" {
		gen.Templates = codegen.LoadTemplates(g.templates)
	}
	artifacts, err := gen.Generate(schemas)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, nil
	}

	moveDir := g.moveDir()
	dst := codegen.Router{Contract: codegen.DirDestination{Root: moveDir}, Go: codegen.DirDestination{Root: g.out}}
	if err := codegen.Emit(dst, artifacts); err != nil {
		return nil, err
	}
	if err := codegen.WriteManifest(moveDir, codegen.NewManifest(g.packageName, schemas)); err != nil {
		return nil, err
	}
	return schemas, nil
}

func (g *generateFlags) moveDir() string {
	if g.moveOut != "" {
		return g.moveOut
	}
	return g.out
}

func (a *App) generate(_ context.Context, args []string) error {
	fs := a.flagSet("generate")
	var g generateFlags
	g.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}

	schemas, err := g.run(fs.Args())
	if err != nil {
		return err
	}
	for _, s := range schemas {
		fmt.Fprintf(a.Stdout, "%s::%s\t%s.%s\n", s.ModuleName, s.StructName, s.HostPackage, s.HostName)
	}
	a.Logger.Info("generated", "entities", len(schemas), "out", g.out)
	return nil
}

const scaffoldTemplate = `# Entities compiled into the Move package. Every field becomes a struct
# field with a getter and a setter.
entities:
  - name: %[1]s
    package: %[2]s
    module: %[3]s
    struct: %[1]s
    fields:
      - {name: name, type: string}
      - {name: count, type: uint64}
      - {name: active, type: bool}
`

func (a *App) scaffold(_ context.Context, args []string) error {
	fs := a.flagSet("scaffold")
	out := fs.String("o", "suibox.yaml", "definitions file to write")
	name := fs.String("struct", "Model", "entity and struct name")
	module := fs.String("module", schema.DefaultModule, "Move module name")
	pkg := fs.String("go-package", "example.com/app/model", "Go import path of the host type")
	force := fs.Bool("f", false, "overwrite an existing file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !schema.IsIdentifier(*name) || !schema.IsIdentifier(*module) {
		return usagef("-struct and -module must be Move identifiers")
	}
	if _, err := os.Stat(*out); err == nil && !*force {
		return fmt.Errorf("%s already exists, pass -f to overwrite", *out)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(*out, []byte(fmt.Sprintf(scaffoldTemplate, *name, *pkg, *module)), 0o644); err != nil {
		return err
	}
	fmt.Fprintln(a.Stdout, *out)
	return nil
}
