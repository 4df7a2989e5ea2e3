package schema

import (
	"go/ast"
	"reflect"
	"strings"

	"github.com/goliatone/go-errors"
)

// Marker is the comment prefix that makes a struct a generation target.
//
// Accepted directive lines, anywhere in the struct's doc comment:
//
//	//bob:names builder=PersonBuilder new=NewPerson build=Assemble
//	//bob:prefix With
//	//bob:derive clone,inspect
//	//bob:validate func=validatePerson error=true
//	//bob:strategy dynamic
//	//bob:doc free text attached to the generated builder type
//
// Every directive except derive may appear at most once per struct; derive
// lines union together.
const Marker = "//bob:"

// directive is one raw //bob: line split into its verb and argument text.
type directive struct {
	verb string
	args string
}

// hasDirective reports whether a directive with the given verb was written,
// regardless of its argument text.
func hasDirective(dirs []directive, verb string) bool {
	for _, d := range dirs {
		if d.verb == verb {
			return true
		}
	}
	return false
}

// collectDirectives extracts //bob: lines from a doc comment group.
// Unknown verbs are rejected here so typos never silently generate defaults.
func collectDirectives(doc *ast.CommentGroup) ([]directive, error) {
	if doc == nil {
		return nil, nil
	}

	var out []directive
	for _, comment := range doc.List {
		line := comment.Text
		if !strings.HasPrefix(line, Marker) {
			continue
		}

		rest := strings.TrimPrefix(line, Marker)
		verb, args, _ := strings.Cut(rest, " ")
		verb = strings.TrimSpace(verb)

		switch verb {
		case "names", "prefix", "derive", "validate", "strategy", "doc":
			out = append(out, directive{verb: verb, args: strings.TrimSpace(args)})
		default:
			return nil, errors.New("unknown bob directive", errors.CategoryValidation).
				WithTextCode("UNKNOWN_DIRECTIVE").
				WithMetadata(map[string]any{"directive": line, "verb": verb})
		}
	}
	return out, nil
}

// applyDirectives folds a directive list into the schema.
//
// Uniqueness is validated as one pass over the whole set before anything is
// applied, so conflicting directives never leave a half-updated schema.
func applyDirectives(s *Schema, dirs []directive) error {
	counts := map[string]int{}
	for _, d := range dirs {
		counts[d.verb]++
	}
	for _, verb := range []string{"names", "prefix", "validate", "strategy", "doc"} {
		if counts[verb] > 1 {
			return errors.New("directive may appear at most once per struct", errors.CategoryValidation).
				WithTextCode("DUPLICATE_DIRECTIVE").
				WithMetadata(map[string]any{"directive": verb, "count": counts[verb], "record": s.Record})
		}
	}

	for _, d := range dirs {
		var err error
		switch d.verb {
		case "names":
			err = applyNames(s, d.args)
		case "prefix":
			s.Prefix = d.args
		case "derive":
			err = applyDerive(s, d.args)
		case "validate":
			err = applyValidate(s, d.args)
		case "strategy":
			s.Strategy = Strategy(d.args)
		case "doc":
			s.Doc = d.args
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func applyNames(s *Schema, args string) error {
	pairs, err := keyValues(args, "names")
	if err != nil {
		return err
	}
	for key, value := range pairs {
		switch key {
		case "builder":
			s.Builder = value
		case "new":
			s.New = value
		case "build":
			s.Build = value
		default:
			return errors.New("unknown key in names directive", errors.CategoryValidation).
				WithTextCode("UNKNOWN_NAMES_KEY").
				WithMetadata(map[string]any{"key": key, "valid": []string{"builder", "new", "build"}})
		}
	}
	return nil
}

func applyDerive(s *Schema, args string) error {
	for _, raw := range strings.Split(args, ",") {
		name := Capability(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if name != CapabilityClone && name != CapabilityInspect {
			return errors.New("unknown capability in derive directive", errors.CategoryValidation).
				WithTextCode("UNKNOWN_CAPABILITY").
				WithMetadata(map[string]any{
					"capability": string(name),
					"valid":      []string{string(CapabilityClone), string(CapabilityInspect)},
				})
		}
		if !s.HasCapability(name) {
			s.Capabilities = append(s.Capabilities, name)
		}
	}
	return nil
}

func applyValidate(s *Schema, args string) error {
	pairs, err := keyValues(args, "validate")
	if err != nil {
		return err
	}

	v := &Validator{}
	for key, value := range pairs {
		switch key {
		case "func":
			v.Func = value
		case "error":
			v.ReturnsError = value == "true"
		default:
			return errors.New("unknown key in validate directive", errors.CategoryValidation).
				WithTextCode("UNKNOWN_VALIDATE_KEY").
				WithMetadata(map[string]any{"key": key, "valid": []string{"func", "error"}})
		}
	}
	if strings.TrimSpace(v.Func) == "" {
		return errors.New("validate directive requires func=<name>", errors.CategoryValidation).
			WithTextCode("VALIDATOR_UNNAMED")
	}
	s.Validator = v
	return nil
}

// keyValues parses space separated key=value pairs.
func keyValues(args, verb string) (map[string]string, error) {
	out := map[string]string{}
	for _, token := range strings.Fields(args) {
		key, value, ok := strings.Cut(token, "=")
		if !ok || key == "" || value == "" {
			return nil, errors.New("directive arguments must be key=value pairs", errors.CategoryValidation).
				WithTextCode("MALFORMED_DIRECTIVE").
				WithMetadata(map[string]any{"directive": verb, "token": token})
		}
		out[key] = value
	}
	return out, nil
}

// fieldTag is the parsed `bob:"..."` struct tag of one field.
type fieldTag struct {
	required bool
	prefix   string
}

// parseFieldTag decodes the bob key of a struct tag literal. The accepted
// entries are "required" and "prefix=<name>", comma separated.
func parseFieldTag(lit *ast.BasicLit) (fieldTag, error) {
	var tag fieldTag
	if lit == nil {
		return tag, nil
	}

	value := reflect.StructTag(strings.Trim(lit.Value, "`")).Get("bob")
	if value == "" {
		return tag, nil
	}

	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "required":
			tag.required = true
		case strings.HasPrefix(entry, "prefix="):
			tag.prefix = strings.TrimPrefix(entry, "prefix=")
		case entry == "":
		default:
			return tag, errors.New("unknown entry in bob field tag", errors.CategoryValidation).
				WithTextCode("UNKNOWN_FIELD_TAG").
				WithMetadata(map[string]any{"entry": entry, "valid": []string{"required", "prefix=<name>"}})
		}
	}
	return tag, nil
}
