package generate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"

	"github.com/WaDelma/bob/schema"
)

// unsetPlaceholder is what inspection prints for a required field that has
// not been supplied yet. It is fixed so output never depends on the slot's
// (unread) storage.
const unsetPlaceholder = "<unset>"

// absentPlaceholder is what inspection prints for an optional field left at
// its empty default.
const absentPlaceholder = "<nil>"

type importModel struct {
	Alias string
	Path  string
}

// slotModel is one storage slot of the builder. The layout is shared by every
// state type of the family.
type slotModel struct {
	Slot  string // storage name: f<i> for required, o<i> for optional
	Type  string // storage type
	Field string // record field name, kept as a trailing comment
}

type setterModel struct {
	Method     string
	Doc        string
	ParamType  string
	Slot       string
	Transition bool   // required setter in the states strategy
	TargetRef  string // state the transition lands on
}

type stateModel struct {
	Name          string
	Ref           string // Name plus type parameter instantiation
	Doc           []string
	Setters       []setterModel
	InspectFormat string // already quoted
	InspectArgs   []string
}

// requiredCheck is one run-time completeness check of the dynamic strategy.
type requiredCheck struct {
	Slot  string
	Field string
}

// fileModel is the fully precomputed input of the emission templates. All
// naming, marker and dispatch decisions are made here so the templates stay
// mechanical.
type fileModel struct {
	Package    string
	Record     string
	RecordRef  string
	SourceFile string
	SchemaHash string
	Imports    []importModel

	Builder        string
	BuilderDoc     []string
	New            string
	NewDoc         []string
	Build          string
	BuildDoc       []string
	TypeParamsDecl string
	TypeParamsRef  string

	Slots []slotModel

	// states strategy
	States       []stateModel
	AliasNeeded  bool
	StartRef     string
	FullName     string
	FullRef      string

	// dynamic strategy
	Dynamic   bool
	Checks    []requiredCheck
	MustBuild string
	ZeroValue string

	Clone      bool
	Inspect    bool
	PtrHelper  string // states inspect helper for optional slots
	SlotHelper string // dynamic inspect helper for nullable slots

	BuildResults string
	AssembleStmt string
}

// buildModel lowers a normalized schema into the render model for its
// strategy.
func (g *Generator) buildModel(s *schema.Schema) (*fileModel, error) {
	required := s.Required()
	optional := s.Optional()

	if s.Strategy == schema.StrategyStates && len(required) > g.maxRequired {
		return nil, errors.New("too many required fields for the states strategy", errors.CategoryValidation).
			WithTextCode("TOO_MANY_REQUIRED").
			WithMetadata(map[string]any{
				"record":   s.Record,
				"required": len(required),
				"max":      g.maxRequired,
				"hint":     "use //bob:strategy dynamic or raise --max-required",
			})
	}

	hash, err := schemaHash(s)
	if err != nil {
		return nil, err
	}

	m := &fileModel{
		Package:    s.Package,
		Record:     s.Record,
		SourceFile: s.SourceFile,
		SchemaHash: hash,
		Builder:    s.Builder,
		New:        s.New,
		Build:      s.Build,
		Dynamic:    s.Strategy == schema.StrategyDynamic,
		Clone:      s.HasCapability(schema.CapabilityClone),
		Inspect:    s.HasCapability(schema.CapabilityInspect),
	}

	if s.TypeParams != "" {
		m.TypeParamsDecl = "[" + s.TypeParams + "]"
		m.TypeParamsRef = "[" + strings.Join(s.TypeParamNames, ", ") + "]"
	}
	m.RecordRef = s.Record + m.TypeParamsRef

	slotFor := make(map[string]string, len(s.Fields))
	for i, f := range required {
		name := "f" + strconv.Itoa(i)
		slotFor[f.Name] = name
		slotType := f.Type
		if m.Dynamic {
			slotType = "*" + f.Type
		}
		m.Slots = append(m.Slots, slotModel{Slot: name, Type: slotType, Field: f.Name})
	}
	for i, f := range optional {
		name := "o" + strconv.Itoa(i)
		slotFor[f.Name] = name
		m.Slots = append(m.Slots, slotModel{Slot: name, Type: f.Type, Field: f.Name})
	}

	fmtNeeded := m.Inspect || (m.Dynamic && len(required) > 0)
	m.Imports, err = resolveImports(s, fmtNeeded)
	if err != nil {
		return nil, err
	}

	m.BuilderDoc = builderDoc(s, required, optional)
	m.NewDoc = []string{
		fmt.Sprintf("%s constructs a builder for %s.", s.New, s.Record),
		"",
		"All required fields are unset at the start.",
	}

	if m.Dynamic {
		g.buildDynamic(s, m, required, optional, slotFor)
	} else {
		g.buildStates(s, m, required, optional, slotFor)
	}
	return m, nil
}

// buildStates fills the model for the compile-time state family.
func (g *Generator) buildStates(s *schema.Schema, m *fileModel, required, optional []schema.FieldSpec, slotFor map[string]string) {
	vectors := enumerate(len(required))
	m.AliasNeeded = len(required) > 0

	stateName := func(v vector) string {
		return s.Builder + v.suffix()
	}
	if !m.AliasNeeded {
		// No required fields: the family collapses to the builder type itself.
		stateName = func(vector) string { return s.Builder }
	}

	for _, v := range vectors {
		st := stateModel{
			Name: stateName(v),
			Ref:  stateName(v) + m.TypeParamsRef,
		}
		if m.AliasNeeded {
			st.Doc = []string{
				fmt.Sprintf("%s is a %s state with marker vector %s.", st.Name, s.Builder, v.suffix()),
				"",
				"Markers follow required-field declaration order: O means the field",
				"is still unset, I means it has been supplied.",
			}
			if v.full() {
				st.Doc = append(st.Doc, "", fmt.Sprintf("This is the fully-set state; %s lives here.", s.Build))
			}
		} else {
			st.Doc = m.BuilderDoc
		}

		for i, f := range required {
			if v[i] {
				continue
			}
			st.Setters = append(st.Setters, setterModel{
				Method:     f.SetterName(s.Prefix),
				Doc:        fmt.Sprintf("%s sets the required field %s.", f.SetterName(s.Prefix), f.Name),
				ParamType:  f.Type,
				Slot:       slotFor[f.Name],
				Transition: true,
				TargetRef:  stateName(v.with(i)) + m.TypeParamsRef,
			})
		}
		for _, f := range optional {
			st.Setters = append(st.Setters, setterModel{
				Method:    f.SetterName(s.Prefix),
				Doc:       fmt.Sprintf("%s sets the optional field %s.", f.SetterName(s.Prefix), f.Name),
				ParamType: f.ElemType(),
				Slot:      slotFor[f.Name],
				TargetRef: st.Ref,
			})
		}

		if m.Inspect {
			st.InspectFormat, st.InspectArgs = statesInspect(s, m, v, required, optional, slotFor)
		}
		m.States = append(m.States, st)
	}

	m.StartRef = stateName(vectors[0]) + m.TypeParamsRef
	m.FullName = stateName(vectors[len(vectors)-1])
	m.FullRef = m.FullName + m.TypeParamsRef

	if m.Inspect && len(optional) > 0 {
		m.PtrHelper = lowerFirst(s.Builder) + "Ptr"
	}

	literal := assembleLiteral(m.RecordRef, s.Fields, slotFor, false)
	wrapped, returnsError := validatorWrap(s, m, literal)
	if returnsError {
		m.BuildResults = "(" + m.RecordRef + ", error)"
	} else {
		m.BuildResults = m.RecordRef
	}
	m.AssembleStmt = "return " + wrapped

	m.BuildDoc = []string{
		fmt.Sprintf("%s assembles the %s.", s.Build, s.Record),
		"",
		"It is defined only on the fully-set builder state, so calling it",
		"before every required field has been supplied fails type-checking.",
	}
	if s.Validator != nil {
		m.BuildDoc = append(m.BuildDoc, "",
			fmt.Sprintf("The assembled record is passed through %s exactly once.", s.Validator.Func))
	}
}

// buildDynamic fills the model for the run-time checked single-type builder.
func (g *Generator) buildDynamic(s *schema.Schema, m *fileModel, required, optional []schema.FieldSpec, slotFor map[string]string) {
	st := stateModel{
		Name: s.Builder,
		Ref:  s.Builder + m.TypeParamsRef,
		Doc:  m.BuilderDoc,
	}
	for _, f := range required {
		st.Setters = append(st.Setters, setterModel{
			Method:    f.SetterName(s.Prefix),
			Doc:       fmt.Sprintf("%s sets the required field %s.", f.SetterName(s.Prefix), f.Name),
			ParamType: f.Type,
			Slot:      slotFor[f.Name],
			TargetRef: st.Ref,
		})
		m.Checks = append(m.Checks, requiredCheck{Slot: slotFor[f.Name], Field: f.Name})
	}
	for _, f := range optional {
		st.Setters = append(st.Setters, setterModel{
			Method:    f.SetterName(s.Prefix),
			Doc:       fmt.Sprintf("%s sets the optional field %s.", f.SetterName(s.Prefix), f.Name),
			ParamType: f.ElemType(),
			Slot:      slotFor[f.Name],
			TargetRef: st.Ref,
		})
	}
	if m.Inspect {
		st.InspectFormat, st.InspectArgs = dynamicInspect(s, m, required, optional, slotFor)
		m.SlotHelper = lowerFirst(s.Builder) + "Slot"
	}
	m.States = []stateModel{st}
	m.StartRef = st.Ref
	m.FullName = st.Name
	m.FullRef = st.Ref
	m.MustBuild = "Must" + s.Build
	m.ZeroValue = m.RecordRef + "{}"

	literal := assembleLiteral(m.RecordRef, s.Fields, slotFor, true)
	wrapped, returnsError := validatorWrap(s, m, literal)
	m.BuildResults = "(" + m.RecordRef + ", error)"
	if returnsError {
		m.AssembleStmt = "return " + wrapped
	} else {
		m.AssembleStmt = "return " + wrapped + ", nil"
	}

	m.BuildDoc = []string{
		fmt.Sprintf("%s assembles the %s.", s.Build, s.Record),
		"",
		"Required-field completeness is checked at run time: the first unset",
		"field aborts assembly with an error. This is the dynamic strategy's",
		"documented downgrade from the compile-time guarantee of the states",
		"strategy.",
	}
	if s.Validator != nil {
		m.BuildDoc = append(m.BuildDoc, "",
			fmt.Sprintf("After the completeness check, the assembled record is passed through %s exactly once.", s.Validator.Func))
	}
}

// assembleLiteral renders the record composite literal that moves every slot
// into its field. Dynamic required slots are stored behind a pointer and
// dereferenced here, after the completeness check.
func assembleLiteral(recordRef string, fields []schema.FieldSpec, slotFor map[string]string, dynamic bool) string {
	var parts []string
	for _, f := range fields {
		value := "b." + slotFor[f.Name]
		if dynamic && f.Required {
			value = "*" + value
		}
		parts = append(parts, f.Name+": "+value)
	}
	return recordRef + "{" + strings.Join(parts, ", ") + "}"
}

// validatorWrap threads the assembled literal through the configured
// validator and reports whether the resulting expression yields (T, error).
func validatorWrap(s *schema.Schema, m *fileModel, literal string) (string, bool) {
	if s.Validator == nil {
		return literal, false
	}
	return validatorExpr(s, m) + "(" + literal + ")", s.Validator.ReturnsError
}

// validatorExpr renders the validator callable. "Record.method" references on
// a generic record need the instantiated method expression.
func validatorExpr(s *schema.Schema, m *fileModel) string {
	recv, method, isMethod := strings.Cut(s.Validator.Func, ".")
	if isMethod && recv == s.Record && m.TypeParamsRef != "" {
		return m.RecordRef + "." + method
	}
	return s.Validator.Func
}

// statesInspect precomputes the Sprintf format and arguments for one state.
// Which required slots are rendered and which collapse to the fixed
// placeholder is decided here, per marker, so unset storage is never read.
func statesInspect(s *schema.Schema, m *fileModel, v vector, required, optional []schema.FieldSpec, slotFor map[string]string) (string, []string) {
	var parts []string
	var args []string
	for i, f := range required {
		if v[i] {
			parts = append(parts, f.Name+": %v")
			args = append(args, "b."+slotFor[f.Name])
		} else {
			parts = append(parts, f.Name+": "+unsetPlaceholder)
		}
	}
	for _, f := range optional {
		parts = append(parts, f.Name+": %s")
		args = append(args, lowerFirst(s.Builder)+"Ptr(b."+slotFor[f.Name]+")")
	}
	format := s.Builder + "{" + strings.Join(parts, ", ") + "}"
	return strconv.Quote(format), args
}

// dynamicInspect is the run-time twin of statesInspect: every slot goes
// through the nullable-slot helper with its placeholder.
func dynamicInspect(s *schema.Schema, m *fileModel, required, optional []schema.FieldSpec, slotFor map[string]string) (string, []string) {
	helper := lowerFirst(s.Builder) + "Slot"
	var parts []string
	var args []string
	for _, f := range required {
		parts = append(parts, f.Name+": %s")
		args = append(args, helper+"(b."+slotFor[f.Name]+", "+strconv.Quote(unsetPlaceholder)+")")
	}
	for _, f := range optional {
		parts = append(parts, f.Name+": %s")
		args = append(args, helper+"(b."+slotFor[f.Name]+", "+strconv.Quote(absentPlaceholder)+")")
	}
	format := s.Builder + "{" + strings.Join(parts, ", ") + "}"
	return strconv.Quote(format), args
}

// builderDoc renders the user-facing doc comment: the original's required and
// optional field listing, plus the //bob:doc override when present.
func builderDoc(s *schema.Schema, required, optional []schema.FieldSpec) []string {
	lead := fmt.Sprintf("%s builds %s field by field.", s.Builder, s.Record)
	if s.Doc != "" {
		lead = s.Doc
	}
	doc := []string{lead}

	if len(required) > 0 {
		doc = append(doc, "", "Required fields:")
		for _, f := range required {
			doc = append(doc, "  - "+f.Name)
		}
	}
	if len(optional) > 0 {
		doc = append(doc, "", "Optional fields:")
		for _, f := range optional {
			doc = append(doc, "  - "+f.Name)
		}
	}

	switch {
	case s.Strategy == schema.StrategyDynamic && len(required) > 0:
		doc = append(doc, "",
			fmt.Sprintf("%s verifies required fields at run time and returns an error for", s.Build),
			"the first missing one.")
	case len(required) > 0:
		doc = append(doc, "",
			fmt.Sprintf("%s only exists once every required field has been set; setting a", s.Build),
			"required field twice is equally a compile error.")
	default:
		doc = append(doc, "",
			fmt.Sprintf("There are no required fields, so %s is available immediately.", s.Build))
	}
	return doc
}

// schemaHash fingerprints the normalized schema for the generated header, so
// drift between a committed file and its source is visible in review.
func schemaHash(s *schema.Schema) (string, error) {
	raw, err := s.DumpJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func lowerFirst(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
