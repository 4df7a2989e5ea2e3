package generate

import (
	"go/format"
	"strings"

	"github.com/goliatone/go-errors"

	"github.com/WaDelma/bob/schema"
)

// DefaultMaxRequired caps how many required fields the states strategy will
// accept. The state family has 2^R types, so the cap keeps generated output
// within reason; records past it should use the dynamic strategy.
const DefaultMaxRequired = 8

// Generator renders builder source from normalized schemas. The zero value is
// not usable; construct with New.
type Generator struct {
	maxRequired int
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxRequired overrides the states-strategy required-field cap.
func WithMaxRequired(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxRequired = n
		}
	}
}

// New returns a Generator with defaults applied.
func New(opts ...Option) *Generator {
	g := &Generator{maxRequired: DefaultMaxRequired}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate renders the builder file for one schema and returns gofmt-ed
// source. The schema is deep-copied first, so the caller's value is never
// mutated by normalization.
//
// On a formatting failure the raw rendering is returned alongside the error
// so callers can write it somewhere for debugging, but the run must still be
// treated as failed.
func (g *Generator) Generate(s *schema.Schema) ([]byte, error) {
	working, err := s.Clone()
	if err != nil {
		return nil, err
	}
	working.Normalize()
	if err := working.Validate(); err != nil {
		return nil, err
	}

	model, err := g.buildModel(working)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	if err := builderTpl.Execute(&out, model); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to render builder template").
			WithTextCode("TEMPLATE_FAILED").
			WithMetadata(map[string]any{"record": working.Record})
	}

	raw := []byte(out.String())
	formatted, err := format.Source(raw)
	if err != nil {
		return raw, errors.Wrap(err, errors.CategoryOperation, "generated source failed formatting").
			WithTextCode("FORMAT_FAILED").
			WithMetadata(map[string]any{"record": working.Record})
	}
	return formatted, nil
}

// FileName is the conventional output file name for a record's builder.
func FileName(s *schema.Schema) string {
	return strings.ToLower(s.Record) + "_builder.gen.go"
}
