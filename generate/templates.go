package generate

import (
	"strings"
	"text/template"
)

// docComment renders doc lines as a comment block. Empty lines become bare
// "//" separators.
func docComment(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			b.WriteString("//\n")
			continue
		}
		b.WriteString("// " + line + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// builderTpl is the single emission template for both strategies. All
// decisions live in the fileModel; the template only lays text out. Output
// goes through format.Source, so spacing here only needs to be parseable.
var builderTpl = template.Must(
	template.New("builder").
		Funcs(template.FuncMap{
			"doc": docComment,
		}).
		Parse(`// Code generated by bob; DO NOT EDIT.
//
// Record: {{.Record}}{{if .SourceFile}} ({{.SourceFile}}){{end}}
// Schema-SHA256: {{.SchemaHash}}

package {{.Package}}

{{if .Imports -}}
import (
{{- range .Imports}}
	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{- end}}
)

{{end -}}

{{range $s := .States -}}
{{doc $s.Doc}}
type {{$s.Name}}{{$.TypeParamsDecl}} struct {
{{- range $.Slots}}
	{{.Slot}} {{.Type}} // {{.Field}}
{{- end}}
}

{{end -}}

{{if .AliasNeeded -}}
{{doc .BuilderDoc}}
type {{.Builder}}{{.TypeParamsDecl}} = {{.FullRef}}

{{end -}}

{{doc .NewDoc}}
func {{.New}}{{.TypeParamsDecl}}() {{.StartRef}} {
	return {{.StartRef}}{}
}

{{range $s := .States -}}
{{range $set := $s.Setters -}}
// {{$set.Doc}}
func (b {{$s.Ref}}) {{$set.Method}}(v {{$set.ParamType}}) {{$set.TargetRef}} {
{{- if $set.Transition}}
	return {{$set.TargetRef}}{
{{- range $.Slots}}
		{{.Slot}}: {{if eq .Slot $set.Slot}}v{{else}}b.{{.Slot}}{{end}},
{{- end}}
	}
{{- else}}
	b.{{$set.Slot}} = &v
	return b
{{- end}}
}

{{end -}}
{{end -}}

{{if .Clone -}}
{{range $s := .States -}}
// Clone returns an independent copy of the builder in its current state.
// The copy is shallow: builders never mutate slot contents in place, so
// copies cannot observe each other's later setter calls.
func (b {{$s.Ref}}) Clone() {{$s.Ref}} {
	return b
}

{{end -}}
{{end -}}

{{if .Inspect -}}
{{range $s := .States -}}
// String renders the builder state for debugging. Required fields that have
// not been supplied print a fixed placeholder and their storage is not read.
func (b {{$s.Ref}}) String() string {
	return fmt.Sprintf({{$s.InspectFormat}}{{range $s.InspectArgs}}, {{.}}{{end}})
}

{{end -}}
{{if .PtrHelper -}}
// {{.PtrHelper}} renders an optional slot: the value when present, a fixed
// placeholder when absent.
func {{.PtrHelper}}[T any](p *T) string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprint(*p)
}

{{end -}}
{{if .SlotHelper -}}
// {{.SlotHelper}} renders a nullable slot: the value when present, the given
// placeholder when not.
func {{.SlotHelper}}[T any](p *T, absent string) string {
	if p == nil {
		return absent
	}
	return fmt.Sprint(*p)
}

{{end -}}
{{end -}}

{{doc .BuildDoc}}
func (b {{.FullRef}}) {{.Build}}() {{.BuildResults}} {
{{- if .Dynamic}}
{{- range .Checks}}
	if b.{{.Slot}} == nil {
		return {{$.ZeroValue}}, fmt.Errorf("{{$.Builder}}: required field {{.Field}} is not set")
	}
{{- end}}
{{- end}}
	{{.AssembleStmt}}
}
{{if .Dynamic}}
// {{.MustBuild}} is {{.Build}} except it panics on error. Useful in wiring
// code and tests where a missing field is a programming error.
func (b {{.FullRef}}) {{.MustBuild}}() {{.RecordRef}} {
	out, err := b.{{.Build}}()
	if err != nil {
		panic(err)
	}
	return out
}
{{end -}}
`),
)
