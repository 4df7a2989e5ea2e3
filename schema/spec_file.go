package schema

import (
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// LoadSpecFile decodes a standalone schema spec from a JSON or YAML document.
//
// Spec files exist for records that are produced by other tooling or do not
// exist as Go source yet, so no package is available to resolve a validator
// against; the declared validator symbol is trusted as-is. Everything else
// goes through the same Normalize + Validate pass as scanned schemas.
func LoadSpecFile(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read spec file").
			WithTextCode("SPEC_FILE_UNREADABLE").
			WithMetadata(map[string]any{"path": path})
	}

	s := &Schema{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = gojson.Unmarshal(raw, s)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, s)
	default:
		return nil, errors.New("unsupported spec file type", errors.CategoryValidation).
			WithTextCode("SPEC_FILE_TYPE").
			WithMetadata(map[string]any{
				"path":  path,
				"ext":   ext,
				"valid": []string{".json", ".yaml", ".yml"},
			})
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to decode spec file").
			WithTextCode("SPEC_FILE_MALFORMED").
			WithMetadata(map[string]any{"path": path})
	}

	s.Normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// DumpJSON renders the schema as indented JSON, for the --dump-schema flag and
// for provenance hashing in generated headers.
func (s *Schema) DumpJSON() ([]byte, error) {
	out, err := gojson.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to marshal schema").
			WithTextCode("SCHEMA_MARSHAL_FAILED")
	}
	return out, nil
}
