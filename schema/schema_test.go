package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func validSchema() *Schema {
	return &Schema{
		Package: "people",
		Record:  "Person",
		Fields: []FieldSpec{
			{Name: "Name", Type: "string", Required: true},
			{Name: "Age", Type: "int", Required: true},
			{Name: "Nickname", Type: "*string"},
		},
	}
}

//
// -----------------------------------------------------------------------------
// Normalize()
// -----------------------------------------------------------------------------

// Covers: every defaulted name, the strategy default, and idempotence. Names
// already set stay untouched.
func TestSchemaNormalize(t *testing.T) {
	t.Parallel()

	s := validSchema()
	s.Normalize()

	assert.Equal(t, "PersonBuilder", s.Builder)
	assert.Equal(t, "NewPersonBuilder", s.New)
	assert.Equal(t, "Build", s.Build)
	assert.Equal(t, StrategyStates, s.Strategy)

	s.Normalize()
	assert.Equal(t, "NewPersonBuilder", s.New)

	renamed := validSchema()
	renamed.Builder = "PersonMaker"
	renamed.Normalize()
	assert.Equal(t, "PersonMaker", renamed.Builder)
	assert.Equal(t, "NewPersonMaker", renamed.New)
}

//
// -----------------------------------------------------------------------------
// Validate()
// -----------------------------------------------------------------------------

// Covers: each rejection branch of Validate, plus the accepting baseline.
func TestSchemaValidate_AllBranches(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		mutate  func(*Schema)
		wantErr string
	}{
		{
			name:   "valid schema passes",
			mutate: func(s *Schema) {},
		},
		{
			name:    "missing package and record",
			mutate:  func(s *Schema) { s.Package = ""; s.Record = " " },
			wantErr: "missing required values",
		},
		{
			name:    "unknown strategy",
			mutate:  func(s *Schema) { s.Strategy = "linear" },
			wantErr: "invalid builder strategy",
		},
		{
			name:    "unknown capability",
			mutate:  func(s *Schema) { s.Capabilities = []Capability{"teleport"} },
			wantErr: "unknown capability",
		},
		{
			name:    "validator without name",
			mutate:  func(s *Schema) { s.Validator = &Validator{Func: "  "} },
			wantErr: "without a function name",
		},
		{
			name:    "field without type",
			mutate:  func(s *Schema) { s.Fields[0].Type = "" },
			wantErr: "name and a type",
		},
		{
			name: "duplicate field",
			mutate: func(s *Schema) {
				s.Fields = append(s.Fields, FieldSpec{Name: "Age", Type: "int", Required: true})
			},
			wantErr: "duplicate field name",
		},
		{
			name:    "optional without pointer",
			mutate:  func(s *Schema) { s.Fields[2].Type = "string" },
			wantErr: "must be pointer typed",
		},
		{
			// Distinct field names whose effective setter names coincide:
			// "A" with a per-field prefix and a literal "SetA".
			name: "colliding setter names",
			mutate: func(s *Schema) {
				s.Fields = append(s.Fields,
					FieldSpec{Name: "A", Type: "int", Required: true, Prefix: "Set"},
					FieldSpec{Name: "SetA", Type: "int", Required: true},
				)
			},
			wantErr: "same setter name",
		},
		{
			// Export-casing folds "name" and "Name" onto one setter.
			name: "schema prefix causes collision",
			mutate: func(s *Schema) {
				s.Prefix = "With"
				s.Fields = append(s.Fields,
					FieldSpec{Name: "name", Type: "string", Required: true},
				)
			},
			wantErr: "same setter name",
		},
		{
			name: "setter shadows finalizer",
			mutate: func(s *Schema) {
				s.Fields = append(s.Fields, FieldSpec{Name: "Build", Type: "string", Required: true})
			},
			wantErr: "collides with a generated method",
		},
		{
			name: "setter shadows Clone",
			mutate: func(s *Schema) {
				s.Capabilities = []Capability{CapabilityClone}
				s.Fields = append(s.Fields, FieldSpec{Name: "Clone", Type: "string", Required: true})
			},
			wantErr: "collides with a generated method",
		},
		{
			name: "setter shadows String",
			mutate: func(s *Schema) {
				s.Capabilities = []Capability{CapabilityInspect}
				s.Fields = append(s.Fields, FieldSpec{Name: "String", Type: "string", Required: true})
			},
			wantErr: "collides with a generated method",
		},
		{
			name: "setter shadows MustBuild under dynamic strategy",
			mutate: func(s *Schema) {
				s.Strategy = StrategyDynamic
				s.Fields = append(s.Fields, FieldSpec{Name: "MustBuild", Type: "string", Required: true})
			},
			wantErr: "collides with a generated method",
		},
		{
			name: "Clone as plain field name stays legal",
			mutate: func(s *Schema) {
				s.Fields = append(s.Fields, FieldSpec{Name: "Clone", Type: "string", Required: true})
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := validSchema()
			s.Normalize()
			tc.mutate(s)

			err := s.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

//
// -----------------------------------------------------------------------------
// Field partitions and naming
// -----------------------------------------------------------------------------

// Covers: Required/Optional keep declaration order and partition cleanly.
func TestSchemaFieldPartitions(t *testing.T) {
	t.Parallel()

	s := validSchema()

	var requiredNames, optionalNames []string
	for _, f := range s.Required() {
		requiredNames = append(requiredNames, f.Name)
	}
	for _, f := range s.Optional() {
		optionalNames = append(optionalNames, f.Name)
	}

	assert.Equal(t, []string{"Name", "Age"}, requiredNames)
	assert.Equal(t, []string{"Nickname"}, optionalNames)
}

// Covers: setter naming combines prefixes with export-casing, and per-field
// prefixes beat the schema-level one.
func TestFieldSetterName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		field        FieldSpec
		schemaPrefix string
		want         string
	}{
		{name: "no prefix", field: FieldSpec{Name: "Name"}, want: "Name"},
		{name: "schema prefix", field: FieldSpec{Name: "Name"}, schemaPrefix: "With", want: "WithName"},
		{name: "field prefix wins", field: FieldSpec{Name: "Name", Prefix: "Set"}, schemaPrefix: "With", want: "SetName"},
		{name: "unexported field exported", field: FieldSpec{Name: "timeout"}, want: "Timeout"},
		{name: "unexported with prefix", field: FieldSpec{Name: "timeout"}, schemaPrefix: "With", want: "WithTimeout"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.field.SetterName(tc.schemaPrefix))
		})
	}
}

// Covers: the optional setter parameter type drops exactly one pointer level.
func TestFieldElemType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "string", FieldSpec{Type: "*string"}.ElemType())
	assert.Equal(t, "*string", FieldSpec{Type: "**string"}.ElemType())
	assert.Equal(t, "int", FieldSpec{Type: "int"}.ElemType())
}

//
// -----------------------------------------------------------------------------
// Clone()
// -----------------------------------------------------------------------------

// Covers: Clone is deep; mutating the copy's nested values never shows up in
// the original.
func TestSchemaClone_Deep(t *testing.T) {
	t.Parallel()

	s := validSchema()
	s.Validator = &Validator{Func: "fix"}
	s.Capabilities = []Capability{CapabilityClone}

	copied, err := s.Clone()
	require.NoError(t, err)

	copied.Fields[0].Name = "Renamed"
	copied.Validator.Func = "other"
	copied.Capabilities[0] = CapabilityInspect

	assert.Equal(t, "Name", s.Fields[0].Name)
	assert.Equal(t, "fix", s.Validator.Func)
	assert.Equal(t, CapabilityClone, s.Capabilities[0])
}

//
// -----------------------------------------------------------------------------
// HasCapability()
// -----------------------------------------------------------------------------

func TestSchemaHasCapability(t *testing.T) {
	t.Parallel()

	s := &Schema{Capabilities: []Capability{CapabilityClone}}
	assert.True(t, s.HasCapability(CapabilityClone))
	assert.False(t, s.HasCapability(CapabilityInspect))
}
