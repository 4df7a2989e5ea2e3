package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goliatone/go-errors"
	"github.com/mitchellh/copystructure"
)

// Strategy selects how the generated builder tracks and stores required
// fields before finalization.
type Strategy string

const (
	// StrategyStates generates one builder state type per reachable marker
	// vector. Setting a field twice or finalizing early is a missing method,
	// so misuse fails type-checking instead of failing at run time.
	StrategyStates Strategy = "states"

	// StrategyDynamic generates a single builder type with nullable slots and
	// a run-time completeness check in the finalizer. Misuse is reported as an
	// error value, not a compile error; the generated code documents this
	// downgrade.
	StrategyDynamic Strategy = "dynamic"
)

// Valid reports whether the strategy is one the generator knows how to emit.
func (s Strategy) Valid() error {
	switch s {
	case StrategyStates, StrategyDynamic:
		return nil
	default:
		return errors.New("invalid builder strategy", errors.CategoryValidation).
			WithTextCode("INVALID_STRATEGY").
			WithMetadata(map[string]any{
				"strategy": string(s),
				"valid":    []string{string(StrategyStates), string(StrategyDynamic)},
			})
	}
}

// Capability names an opt-in auxiliary operation on the generated builder.
type Capability string

const (
	// CapabilityClone emits a Clone method on every builder state.
	CapabilityClone Capability = "clone"

	// CapabilityInspect emits a String method (fmt.Stringer) on every builder
	// state. Unset required fields render as a fixed placeholder and are never
	// read.
	CapabilityInspect Capability = "inspect"
)

// Validator references a user-supplied post-assembly validation function.
//
// The function lives in the record's package. With ReturnsError the expected
// signature is func(T) (T, error); without it, func(T) T. Either way it runs
// exactly once, after every required field has been supplied and the record
// assembled.
type Validator struct {
	// Func is the function name, or "Type.method" for a method expression.
	Func string `json:"func" yaml:"func"`

	// ReturnsError selects the (T, error) validator form and makes the
	// generated finalizer return (T, error) as well.
	ReturnsError bool `json:"returnsError" yaml:"returnsError"`
}

// FieldSpec describes one field of the record. It is immutable once derived
// from the input declaration.
type FieldSpec struct {
	// Name is the record field name. For embedded fields it is synthesized
	// from the embedded type's base identifier.
	Name string `json:"name" yaml:"name"`

	// Type is the rendered Go source of the declared field type. For optional
	// fields this includes the leading pointer marker.
	Type string `json:"type" yaml:"type"`

	// Required marks the field as blocking finalization until set. Pointer
	// fields default to optional; the `bob:"required"` tag overrides that.
	Required bool `json:"required" yaml:"required"`

	// Prefix is the per-field setter prefix override. Empty means "use the
	// schema-level prefix".
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// PkgRefs lists the package qualifiers the field type mentions (e.g.
	// "time" for time.Duration). Generation resolves them against the source
	// file imports.
	PkgRefs []string `json:"pkgRefs,omitempty" yaml:"pkgRefs,omitempty"`
}

// SetterName returns the effective setter method name: per-field or
// schema-level prefix followed by the exported form of the field name.
func (f FieldSpec) SetterName(schemaPrefix string) string {
	prefix := schemaPrefix
	if f.Prefix != "" {
		prefix = f.Prefix
	}
	return prefix + exportName(f.Name)
}

// ElemType returns the setter parameter type for an optional field: the
// declared type with the leading pointer marker stripped.
func (f FieldSpec) ElemType() string {
	return strings.TrimPrefix(f.Type, "*")
}

// Import is one import of the record's source file, carried so generated
// output can reuse the file's aliases for field types.
type Import struct {
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
	Path  string `json:"path" yaml:"path"`
}

// Schema is the full normalized description of one record type. It is created
// once per record and consumed entirely by generation; field order is
// significant (it fixes marker positions) and is never reordered.
type Schema struct {
	// Package is the Go package name the record lives in and the generated
	// file belongs to.
	Package string `json:"package" yaml:"package"`

	// Record is the record type name.
	Record string `json:"record" yaml:"record"`

	// TypeParams is the record's type parameter list, rendered as source
	// ("A any, B comparable"). Empty for non-generic records.
	TypeParams string `json:"typeParams,omitempty" yaml:"typeParams,omitempty"`

	// TypeParamNames lists just the parameter names, in order, for rendering
	// instantiations ("A, B").
	TypeParamNames []string `json:"typeParamNames,omitempty" yaml:"typeParamNames,omitempty"`

	// Builder, New and Build are the generated identifier names. Empty values
	// are filled by Normalize.
	Builder string `json:"builder,omitempty" yaml:"builder,omitempty"`
	New     string `json:"new,omitempty" yaml:"new,omitempty"`
	Build   string `json:"build,omitempty" yaml:"build,omitempty"`

	// Prefix is the schema-level setter prefix.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Strategy picks the storage/typestate realization. Empty means
	// StrategyStates.
	Strategy Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`

	// Capabilities is the requested opt-in capability set.
	Capabilities []Capability `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`

	// Validator is the optional post-assembly validator.
	Validator *Validator `json:"validate,omitempty" yaml:"validate,omitempty"`

	// Doc is optional cosmetic text attached to the generated builder type.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Fields is the ordered field list.
	Fields []FieldSpec `json:"fields" yaml:"fields"`

	// Imports are the source file's imports, used to resolve field type
	// qualifiers in generated output.
	Imports []Import `json:"imports,omitempty" yaml:"imports,omitempty"`

	// SourceFile is the file the record was scanned from, recorded in the
	// generated header. Empty for spec-file schemas.
	SourceFile string `json:"sourceFile,omitempty" yaml:"sourceFile,omitempty"`
}

// Required returns the required fields in declaration order.
func (s *Schema) Required() []FieldSpec {
	var out []FieldSpec
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f)
		}
	}
	return out
}

// Optional returns the optional fields in declaration order.
func (s *Schema) Optional() []FieldSpec {
	var out []FieldSpec
	for _, f := range s.Fields {
		if !f.Required {
			out = append(out, f)
		}
	}
	return out
}

// HasCapability reports whether the capability was requested.
func (s *Schema) HasCapability(c Capability) bool {
	for _, have := range s.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Clone deep-copies the schema so generation can fill defaults without
// mutating the caller's value.
func (s *Schema) Clone() (*Schema, error) {
	copied, err := copystructure.Copy(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to copy schema").
			WithTextCode("SCHEMA_COPY_FAILED")
	}
	return copied.(*Schema), nil
}

// Normalize fills defaulted names in place. It is idempotent.
func (s *Schema) Normalize() {
	if strings.TrimSpace(s.Builder) == "" {
		s.Builder = s.Record + "Builder"
	}
	if strings.TrimSpace(s.New) == "" {
		s.New = "New" + s.Builder
	}
	if strings.TrimSpace(s.Build) == "" {
		s.Build = "Build"
	}
	if s.Strategy == "" {
		s.Strategy = StrategyStates
	}
}

// Validate checks semantic correctness of the schema. It reports the first
// problem found; generation must not start on an invalid schema.
func (s *Schema) Validate() error {
	var missing []string
	requireNonEmpty := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	requireNonEmpty("package", s.Package)
	requireNonEmpty("record", s.Record)

	if len(missing) > 0 {
		return errors.New("schema missing required values", errors.CategoryValidation).
			WithTextCode("SCHEMA_INCOMPLETE").
			WithMetadata(map[string]any{"missing": missing})
	}

	if err := s.Strategy.Valid(); err != nil {
		return err
	}

	for _, c := range s.Capabilities {
		if c != CapabilityClone && c != CapabilityInspect {
			return errors.New("unknown capability", errors.CategoryValidation).
				WithTextCode("UNKNOWN_CAPABILITY").
				WithMetadata(map[string]any{
					"capability": string(c),
					"valid":      []string{string(CapabilityClone), string(CapabilityInspect)},
				})
		}
	}

	if s.Validator != nil && strings.TrimSpace(s.Validator.Func) == "" {
		return errors.New("validator directive without a function name", errors.CategoryValidation).
			WithTextCode("VALIDATOR_UNNAMED")
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" || f.Type == "" {
			return errors.New("each field must have a name and a type", errors.CategoryValidation).
				WithTextCode("FIELD_INCOMPLETE").
				WithMetadata(map[string]any{"field": f})
		}
		if _, ok := seen[f.Name]; ok {
			return errors.New("duplicate field name", errors.CategoryValidation).
				WithTextCode("DUPLICATE_FIELD").
				WithMetadata(map[string]any{"field": f.Name})
		}
		seen[f.Name] = struct{}{}
		if !f.Required && !strings.HasPrefix(f.Type, "*") {
			return errors.New("optional fields must be pointer typed", errors.CategoryValidation).
				WithTextCode("OPTIONAL_NOT_POINTER").
				WithMetadata(map[string]any{"field": f.Name, "type": f.Type})
		}
	}

	// Setter names are computed from field name plus prefix, so distinct
	// fields can still land on the same method of the same builder state.
	// Emitting such a file would not compile; reject it here instead.
	setters := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		setter := f.SetterName(s.Prefix)
		if prev, ok := setters[setter]; ok {
			return errors.New("two fields resolve to the same setter name", errors.CategoryValidation).
				WithTextCode("SETTER_COLLISION").
				WithMetadata(map[string]any{"setter": setter, "fields": []string{prev, f.Name}})
		}
		setters[setter] = f.Name
		if s.reservedMethod(setter) {
			return errors.New("setter name collides with a generated method", errors.CategoryValidation).
				WithTextCode("SETTER_RESERVED").
				WithMetadata(map[string]any{"field": f.Name, "setter": setter})
		}
	}
	return nil
}

// reservedMethod reports whether name is a method the generator emits on the
// builder besides the setters: the finalizer, and Clone/String when the
// matching capability is requested.
func (s *Schema) reservedMethod(name string) bool {
	if name == s.Build && s.Build != "" {
		return true
	}
	if s.Strategy == StrategyDynamic && s.Build != "" && name == "Must"+s.Build {
		return true
	}
	if name == "Clone" && s.HasCapability(CapabilityClone) {
		return true
	}
	if name == "String" && s.HasCapability(CapabilityInspect) {
		return true
	}
	return false
}

// exportName upper-cases the first rune so setter names are exported even for
// unexported record fields.
func exportName(name string) string {
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}
