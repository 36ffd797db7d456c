// Package collect finds Go struct types carrying the suibox:entity directive
// and describes them for schema extraction.
package collect

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/jshufro/protoc-gen-suibox/schema"
)

const tagKey = "suibox"

// Packages loads the packages matching patterns, resolved from dir, and
// returns every annotated struct in them.
func Packages(dir string, patterns ...string) ([]schema.TypeDescription, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	cfg := &packages.Config{
		Dir:  dir,
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedSyntax | packages.NeedFiles,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("collect: failed loading packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("collect: package load returned no results for %v", patterns)
	}

	var out []schema.TypeDescription
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("collect: package %s reported errors: %v", pkg.PkgPath, pkg.Errors[0])
		}
		for _, file := range pkg.Syntax {
			descs, err := collectFile(file, pkg.PkgPath, pkg.TypesInfo)
			if err != nil {
				return nil, err
			}
			out = append(out, descs...)
		}
	}
	return out, nil
}

// ParseFile collects annotated structs from a single source file without type
// information. Field types are taken verbatim from the syntax.
func ParseFile(filename string, src any, pkgPath string) ([]schema.TypeDescription, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("collect: failed parsing %s: %w", filename, err)
	}
	return collectFile(file, pkgPath, nil)
}

func collectFile(file *ast.File, pkgPath string, info *types.Info) ([]schema.TypeDescription, error) {
	var out []schema.TypeDescription
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}

			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			marker, found, err := markerFrom(doc)
			if err != nil {
				return nil, fmt.Errorf("collect: %s.%s: %w", pkgPath, ts.Name.Name, err)
			}
			if !found {
				continue
			}

			desc := schema.TypeDescription{
				Name:    ts.Name.Name,
				Package: pkgPath,
				Marker:  marker,
			}
			for _, field := range st.Fields.List {
				// Embedded fields have no name of their own.
				if len(field.Names) == 0 {
					continue
				}
				typeName := fieldType(field.Type, info)
				for _, name := range field.Names {
					fieldName, skip := fieldName(name.Name, field.Tag)
					if skip {
						continue
					}
					desc.Fields = append(desc.Fields, schema.FieldDescription{Name: fieldName, Type: typeName})
				}
			}
			out = append(out, desc)
		}
	}
	return out, nil
}

func markerFrom(doc *ast.CommentGroup) (*schema.Marker, bool, error) {
	if doc == nil {
		return nil, false, nil
	}
	// CommentGroup.Text drops directive comments, so read the raw lines.
	lines := make([]string, 0, len(doc.List))
	for _, c := range doc.List {
		lines = append(lines, c.Text)
	}
	return schema.ParseMarker(strings.Join(lines, "\n"))
}

func fieldType(expr ast.Expr, info *types.Info) string {
	if info != nil {
		if t := info.TypeOf(expr); t != nil {
			if basic, ok := t.Underlying().(*types.Basic); ok {
				return basic.Name()
			}
			return types.TypeString(t, func(p *types.Package) string { return p.Name() })
		}
	}
	return types.ExprString(expr)
}

func fieldName(goName string, tag *ast.BasicLit) (string, bool) {
	if tag != nil {
		raw, err := strconv.Unquote(tag.Value)
		if err == nil {
			switch v := reflect.StructTag(raw).Get(tagKey); v {
			case "":
			case "-":
				return "", true
			default:
				return v, false
			}
		}
	}
	return schema.SnakeCase(goName), false
}
