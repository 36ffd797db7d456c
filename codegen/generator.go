package codegen

import (
	"fmt"
	"go/format"
	"path"
	"strings"

	"github.com/jshufro/protoc-gen-suibox/schema"
)

const (
	// LibImportPath is the runtime package generated bindings depend on.
	LibImportPath = "github.com/jshufro/protoc-gen-suibox/lib"

	bindingSuffix  = "templates"
	bindingPackage = "templates"
	registryFile   = "registry.suibox.go"
	sourcesDir     = "sources"
)

// Struct and function names the contract template declares itself.
var (
	reservedStructs = map[string]bool{"Registry": true}
	reservedFields  = map[string]bool{
		"registry":        true,
		"ctx":             true,
		"obj":             true,
		"create":          true,
		"create_registry": true,
		"registered":      true,
	}
	reservedAccessors = map[string]bool{"ObjectID": true, "Caller": true}
	reservedGoNames   = map[string]bool{
		"objectID":   true,
		"caller":     true,
		"ctx":        true,
		"opts":       true,
		"registryID": true,
		"lib":        true,
		"any":        true,
		"context":    true,
		"b":          true,
		"v":          true,
	}
)

type Generator struct {
	Templates *Templates

	// ModulePrefix is stripped from Go import paths to form output paths, the
	// same way protoc-gen-go treats its module= option.
	ModulePrefix string

	// RegistryPackage is the import path the registry file is generated into.
	// Empty means the binding package of the first schema.
	RegistryPackage string

	// LibImport overrides the runtime import path used by generated code.
	LibImport string
}

// New returns a generator over the embedded templates.
func New() *Generator {
	return &Generator{Templates: DefaultTemplates()}
}

type fieldView struct {
	Name      string
	MoveType  string
	GoType    string
	GoName    string
	GoPrivate string
	GoParam   string
}

type entityView struct {
	Module     string
	Struct     string
	TypeName   string
	Package    string
	LibImport  string
	AssignName string
	Fields     []fieldView
}

type registryImport struct {
	Alias string
	Path  string
}

type registryEntry struct {
	Struct    string
	TypeName  string
	Qualifier string
}

type registryView struct {
	Package   string
	LibImport string
	Imports   []registryImport
	Entries   []registryEntry
}

// BindingPackage is the import path bindings for hostPackage are generated in.
func BindingPackage(hostPackage string) string {
	if hostPackage == "" {
		return bindingSuffix
	}
	return hostPackage + "/" + bindingSuffix
}

// Generate renders every schema. Contracts sharing a module name land in the
// same source file, one Move module per struct. The registry is rendered once
// for the whole batch, and not at all when the batch is empty.
func (g *Generator) Generate(schemas []schema.EntitySchema) ([]Artifact, error) {
	if len(schemas) == 0 {
		return nil, nil
	}

	var (
		contracts     = make(map[string]*strings.Builder)
		contractOrder []string
		bindings      []Artifact
		seen          = make(map[string]bool, len(schemas))
		views         = make([]entityView, 0, len(schemas))
		bindingPaths  = make(map[string]string, len(schemas))
	)

	for _, s := range schemas {
		if seen[s.StructName] {
			return nil, generationErrorf(s.StructName, "struct %q generated twice in one batch", s.StructName)
		}
		seen[s.StructName] = true
		if other, dup := bindingPaths[g.bindingPath(s)]; dup {
			return nil, generationErrorf(s.StructName, "structs %q and %q share binding file %s", other, s.StructName, g.bindingPath(s))
		}
		bindingPaths[g.bindingPath(s)] = s.StructName

		view, err := g.entity(s)
		if err != nil {
			return nil, err
		}
		views = append(views, view)

		move, err := g.templates().Render(contractTemplate, view)
		if err != nil {
			return nil, err
		}
		b, ok := contracts[s.ModuleName]
		if !ok {
			b = new(strings.Builder)
			contracts[s.ModuleName] = b
			contractOrder = append(contractOrder, s.ModuleName)
		} else {
			b.WriteString("\n")
		}
		b.WriteString(move)

		binding, err := g.renderGo(bindingTemplate, g.bindingPath(s), view)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, Artifact{Kind: HostBinding, Path: g.bindingPath(s), Content: binding})
	}

	out := make([]Artifact, 0, len(contractOrder)+len(bindings)+1)
	for _, module := range contractOrder {
		out = append(out, Artifact{
			Kind:    ContractSource,
			Path:    path.Join(sourcesDir, module+".move"),
			Content: "// Code generated by protoc-gen-suibox. DO NOT EDIT.\n\n" + contracts[module].String(),
		})
	}
	out = append(out, bindings...)

	registry, err := g.registry(schemas, views)
	if err != nil {
		return nil, err
	}
	return append(out, registry), nil
}

func (g *Generator) templates() *Templates {
	if g.Templates == nil {
		g.Templates = DefaultTemplates()
	}
	return g.Templates
}

func (g *Generator) libImport() string {
	if g.LibImport != "" {
		return g.LibImport
	}
	return LibImportPath
}

func (g *Generator) entity(s schema.EntitySchema) (entityView, error) {
	if reservedStructs[s.StructName] {
		return entityView{}, generationErrorf(s.StructName, "struct name %q is reserved by the contract template", s.StructName)
	}

	view := entityView{
		Module:     s.ModuleName,
		Struct:     s.StructName,
		TypeName:   exported(s.StructName),
		Package:    bindingPackage,
		LibImport:  g.libImport(),
		AssignName: schema.SnakeCase(s.StructName) + "_obj",
		Fields:     make([]fieldView, 0, len(s.Fields)),
	}

	// Every accessor a field emits, in both languages, must be unique.
	goMethods := make(map[string]string, 2*len(s.Fields))
	moveFuns := make(map[string]string, 2*len(s.Fields))
	for _, f := range s.Fields {
		if reservedFields[f.Name] {
			return entityView{}, generationErrorf(s.StructName, "field name %q is reserved by the contract template", f.Name)
		}
		goName := exported(f.Name)
		for _, method := range []string{goName, "Set" + goName} {
			if reservedAccessors[method] {
				return entityView{}, generationErrorf(s.StructName, "field %q collides with the %s accessor", f.Name, method)
			}
			if other, dup := goMethods[method]; dup {
				return entityView{}, generationErrorf(s.StructName, "fields %q and %q both produce Go method %s", other, f.Name, method)
			}
			goMethods[method] = f.Name
		}
		for _, fun := range []string{f.Name, "set_" + f.Name} {
			if other, dup := moveFuns[fun]; dup {
				return entityView{}, generationErrorf(s.StructName, "fields %q and %q both produce Move function %s", other, f.Name, fun)
			}
			moveFuns[fun] = f.Name
		}

		view.Fields = append(view.Fields, fieldView{
			Name:      f.Name,
			MoveType:  f.TargetType.Move(),
			GoType:    f.TargetType.Go(),
			GoName:    goName,
			GoPrivate: unexported(f.Name, reservedGoNames),
			GoParam:   unexported(f.Name, reservedGoNames),
		})
	}
	return view, nil
}

func (g *Generator) outputDir(importPath string) string {
	if g.ModulePrefix != "" {
		if importPath == g.ModulePrefix {
			return ""
		}
		if rest, ok := strings.CutPrefix(importPath, strings.TrimSuffix(g.ModulePrefix, "/")+"/"); ok {
			return rest
		}
	}
	return importPath
}

func (g *Generator) bindingPath(s schema.EntitySchema) string {
	return path.Join(g.outputDir(BindingPackage(s.HostPackage)), schema.SnakeCase(s.StructName)+".suibox.go")
}

func (g *Generator) registry(schemas []schema.EntitySchema, views []entityView) (Artifact, error) {
	regPkg := g.RegistryPackage
	if regPkg == "" {
		regPkg = BindingPackage(schemas[0].HostPackage)
	}

	rv := registryView{Package: path.Base(regPkg), LibImport: g.libImport()}
	aliases := make(map[string]string)
	for i, s := range schemas {
		entry := registryEntry{Struct: s.StructName, TypeName: views[i].TypeName}
		if pkg := BindingPackage(s.HostPackage); pkg != regPkg {
			alias, ok := aliases[pkg]
			if !ok {
				alias = fmt.Sprintf("binding%d", len(aliases))
				aliases[pkg] = alias
				rv.Imports = append(rv.Imports, registryImport{Alias: alias, Path: pkg})
			}
			entry.Qualifier = alias + "."
		}
		rv.Entries = append(rv.Entries, entry)
	}

	p := path.Join(g.outputDir(regPkg), registryFile)
	content, err := g.renderGo(registryTemplate, p, rv)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Kind: Registry, Path: p, Content: content}, nil
}

func (g *Generator) renderGo(name, artifactPath string, data any) (string, error) {
	raw, err := g.templates().Render(name, data)
	if err != nil {
		return "", err
	}
	formatted, err := format.Source([]byte(raw))
	if err != nil {
		return "", generationErrorf(artifactPath, "formatting generated Go: %w\n%s", err, raw)
	}
	return string(formatted), nil
}
