package generate

import (
	"path"
	"sort"

	"github.com/goliatone/go-errors"

	"github.com/WaDelma/bob/schema"
)

// resolveImports computes the import block of the generated file: fmt when
// the emitted code uses it, plus whichever of the source file's imports the
// field types actually reference. Aliases from the source file are kept so
// the generated code reads like the file it sits next to.
func resolveImports(s *schema.Schema, fmtNeeded bool) ([]importModel, error) {
	qualifiers := map[string]bool{}
	var order []string
	for _, f := range s.Fields {
		for _, q := range f.PkgRefs {
			if !qualifiers[q] {
				qualifiers[q] = true
				order = append(order, q)
			}
		}
	}

	var out []importModel
	if fmtNeeded {
		out = append(out, importModel{Path: "fmt"})
	}

	for _, q := range order {
		imp, ok := findImport(s.Imports, q)
		if !ok {
			return nil, errors.New("field type references an unknown package qualifier", errors.CategoryValidation).
				WithTextCode("QUALIFIER_UNRESOLVED").
				WithMetadata(map[string]any{
					"record":    s.Record,
					"qualifier": q,
				})
		}
		if imp.Path == "fmt" && fmtNeeded {
			continue
		}
		out = append(out, importModel{Alias: imp.Alias, Path: imp.Path})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// findImport matches a package qualifier against an import list: an explicit
// alias wins, otherwise the import path's base name must match.
func findImport(imports []schema.Import, qualifier string) (schema.Import, bool) {
	for _, imp := range imports {
		if imp.Alias == qualifier {
			return imp, true
		}
	}
	for _, imp := range imports {
		if imp.Alias == "" && path.Base(imp.Path) == qualifier {
			return imp, true
		}
	}
	return schema.Import{}, false
}
