package schema

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/printer"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
)

// parsedFile pairs a parsed AST with the path it came from.
type parsedFile struct {
	path string
	file *ast.File
	fset *token.FileSet
}

// ScanOptions tunes a package scan.
type ScanOptions struct {
	// Only restricts generation to the named struct types. Structs carrying
	// //bob: directives are always targets.
	Only []string

	// DefaultPrefix applies when a struct has no //bob:prefix directive.
	// A bare //bob:prefix line opts a struct out of the default.
	DefaultPrefix string

	// DefaultStrategy applies when a struct has no //bob:strategy directive.
	DefaultStrategy Strategy
}

// Scan parses the Go package in dir and returns one Schema per generation
// target, in file order then declaration order.
//
// A struct is a target when its doc comment carries at least one //bob:
// directive, or when its name is listed in opts.Only. Names listed there that
// do not resolve to a struct in the package are an error: a typo must not
// silently generate nothing.
func Scan(dir string, opts ScanOptions) ([]*Schema, error) {
	files, err := parsePackageDir(dir)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(opts.Only))
	for _, name := range opts.Only {
		if name = strings.TrimSpace(name); name != "" {
			wanted[name] = true
		}
	}

	var schemas []*Schema
	found := map[string]bool{}

	for _, pf := range files {
		for _, decl := range pf.file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				doc := typeSpec.Doc
				if doc == nil && len(genDecl.Specs) == 1 {
					doc = genDecl.Doc
				}

				dirs, err := collectDirectives(doc)
				if err != nil {
					return nil, err
				}
				name := typeSpec.Name.Name
				if len(dirs) == 0 && !wanted[name] {
					continue
				}
				found[name] = true

				structType, ok := typeSpec.Type.(*ast.StructType)
				if !ok {
					return nil, errors.New("only struct types can have builders", errors.CategoryValidation).
						WithTextCode("NOT_A_STRUCT").
						WithMetadata(map[string]any{"type": name, "file": pf.path})
				}

				s, err := fromStruct(pf, typeSpec, structType, dirs, opts)
				if err != nil {
					return nil, err
				}
				schemas = append(schemas, s)
			}
		}
	}

	for name := range wanted {
		if !found[name] {
			return nil, errors.New("requested type not found in package", errors.CategoryValidation).
				WithTextCode("TYPE_NOT_FOUND").
				WithMetadata(map[string]any{"type": name, "dir": dir})
		}
	}

	for _, s := range schemas {
		if s.Validator != nil {
			if err := resolveValidator(files, s); err != nil {
				return nil, err
			}
		}
	}
	return schemas, nil
}

// parsePackageDir parses every non-test, non-generated Go file in dir.
func parsePackageDir(dir string) ([]parsedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read source directory").
			WithTextCode("SOURCE_DIR_UNREADABLE").
			WithMetadata(map[string]any{"dir": dir})
	}

	var files []parsedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") ||
			strings.HasSuffix(name, ".gen.go") {
			continue
		}

		path := filepath.Join(dir, name)
		fset := token.NewFileSet()
		parsed, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "failed to parse source file").
				WithTextCode("SOURCE_PARSE_FAILED").
				WithMetadata(map[string]any{"file": path})
		}
		files = append(files, parsedFile{path: path, file: parsed, fset: fset})
	}

	if len(files) == 0 {
		return nil, errors.New("no Go source files in directory", errors.CategoryValidation).
			WithTextCode("SOURCE_DIR_EMPTY").
			WithMetadata(map[string]any{"dir": dir})
	}
	return files, nil
}

// fromStruct derives the normalized Schema for one annotated struct.
func fromStruct(pf parsedFile, typeSpec *ast.TypeSpec, structType *ast.StructType, dirs []directive, opts ScanOptions) (*Schema, error) {
	s := &Schema{
		Package:        pf.file.Name.Name,
		Record:         typeSpec.Name.Name,
		TypeParams:     typeParamsString(pf.fset, typeSpec.TypeParams),
		TypeParamNames: typeParamNames(typeSpec.TypeParams),
		SourceFile:     filepath.Base(pf.path),
	}

	for _, imp := range pf.file.Imports {
		spec := Import{Path: strings.Trim(imp.Path.Value, `"`)}
		if imp.Name != nil {
			spec.Alias = imp.Name.Name
		}
		s.Imports = append(s.Imports, spec)
	}

	if err := applyDirectives(s, dirs); err != nil {
		return nil, err
	}
	// A bare "//bob:prefix" line is an explicit choice of no prefix, so the
	// scan-level default only fills in when the struct said nothing.
	if s.Prefix == "" && !hasDirective(dirs, "prefix") {
		s.Prefix = opts.DefaultPrefix
	}
	if s.Strategy == "" {
		s.Strategy = opts.DefaultStrategy
	}

	for index, field := range structType.Fields.List {
		tag, err := parseFieldTag(field.Tag)
		if err != nil {
			return nil, err
		}

		typeText := exprString(pf.fset, field.Type)
		_, pointer := field.Type.(*ast.StarExpr)
		required := !pointer || tag.required

		base := FieldSpec{
			Type:     typeText,
			Required: required,
			Prefix:   tag.prefix,
			PkgRefs:  pkgRefs(field.Type),
		}

		if len(field.Names) == 0 {
			// Embedded field: synthesize the name from the base identifier.
			name, err := embeddedName(field.Type)
			if err != nil {
				return nil, errors.Wrap(err, errors.CategoryValidation, "unsupported embedded field").
					WithTextCode("EMBEDDED_UNSUPPORTED").
					WithMetadata(map[string]any{"record": s.Record, "index": index})
			}
			f := base
			f.Name = name
			s.Fields = append(s.Fields, f)
			continue
		}

		for _, ident := range field.Names {
			f := base
			f.Name = ident.Name
			s.Fields = append(s.Fields, f)
		}
	}

	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveValidator checks that the schema's validator names a function that
// actually exists in the scanned package: either a free function or, for
// "Type.method" references, a method usable as a method expression.
func resolveValidator(files []parsedFile, s *Schema) error {
	target := s.Validator.Func
	recvType, method, isMethod := strings.Cut(target, ".")

	for _, pf := range files {
		for _, decl := range pf.file.Decls {
			funcDecl, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if isMethod {
				if funcDecl.Recv == nil || funcDecl.Name.Name != method {
					continue
				}
				if receiverTypeName(funcDecl.Recv) != recvType {
					continue
				}
				// The builder calls the validator as a value method
				// expression, and those cannot name pointer-receiver
				// methods, so resolving one here would emit code that
				// does not compile.
				if _, ptr := funcDecl.Recv.List[0].Type.(*ast.StarExpr); ptr {
					return errors.New("validator method must use a value receiver", errors.CategoryValidation).
						WithTextCode("VALIDATOR_POINTER_RECEIVER").
						WithMetadata(map[string]any{"record": s.Record, "validator": target})
				}
				return nil
			}
			if funcDecl.Recv == nil && funcDecl.Name.Name == target {
				return nil
			}
		}
	}

	return errors.New("validator function not found in package", errors.CategoryValidation).
		WithTextCode("VALIDATOR_UNRESOLVED").
		WithMetadata(map[string]any{"record": s.Record, "validator": target, "package": s.Package})
}

// receiverTypeName returns the base type name of a method receiver.
func receiverTypeName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	expr := recv.List[0].Type
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	if index, ok := expr.(*ast.IndexExpr); ok {
		expr = index.X
	}
	if index, ok := expr.(*ast.IndexListExpr); ok {
		expr = index.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// embeddedName extracts the base identifier of an embedded field's type.
func embeddedName(expr ast.Expr) (string, error) {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name, nil
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name, nil
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	default:
		return "", errors.New("cannot derive a field name from the embedded type", errors.CategoryValidation).
			WithTextCode("EMBEDDED_UNNAMED")
	}
}

// pkgRefs collects the package qualifiers a type expression mentions.
func pkgRefs(expr ast.Expr) []string {
	seen := map[string]bool{}
	var refs []string
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if ident, ok := sel.X.(*ast.Ident); ok && !seen[ident.Name] {
			seen[ident.Name] = true
			refs = append(refs, ident.Name)
		}
		return true
	})
	return refs
}

// typeParamsString renders a type parameter list as source text, without the
// surrounding brackets.
func typeParamsString(fset *token.FileSet, params *ast.FieldList) string {
	if params == nil || len(params.List) == 0 {
		return ""
	}
	var parts []string
	for _, field := range params.List {
		var names []string
		for _, ident := range field.Names {
			names = append(names, ident.Name)
		}
		parts = append(parts, strings.Join(names, ", ")+" "+exprString(fset, field.Type))
	}
	return strings.Join(parts, ", ")
}

// typeParamNames lists the parameter names of a type parameter list.
func typeParamNames(params *ast.FieldList) []string {
	if params == nil {
		return nil
	}
	var names []string
	for _, field := range params.List {
		for _, ident := range field.Names {
			names = append(names, ident.Name)
		}
	}
	return names
}

// exprString renders an AST expression back to source text.
func exprString(fset *token.FileSet, expr ast.Expr) string {
	var buf bytes.Buffer
	// printer errors are not reachable for expressions parsed from source.
	_ = printer.Fprint(&buf, fset, expr)
	return buf.String()
}
