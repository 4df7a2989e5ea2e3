package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/WaDelma/bob/generate"
)

const defaultSuffix = "_builder.gen.go"

// configCandidates are probed, in order, when no --config flag is given.
var configCandidates = []string{"bob.yaml", "bob.yml", "bob.json", "bob.toml"}

// Config is the merged tool configuration. Keys match flag names.
type Config struct {
	Src         string   `koanf:"src"`
	Types       []string `koanf:"type"`
	Spec        string   `koanf:"spec"`
	Out         string   `koanf:"out"`
	Prefix      string   `koanf:"prefix"`
	Strategy    string   `koanf:"strategy"`
	MaxRequired int      `koanf:"max-required"`
	Suffix      string   `koanf:"suffix"`
	DumpSchema  bool     `koanf:"dump-schema"`
	Verbose     bool     `koanf:"verbose"`
}

// loadConfig layers configuration the usual way: built-in defaults, then an
// optional config file, then flags.
func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"src":          ".",
		"strategy":     "",
		"max-required": generate.DefaultMaxRequired,
		"suffix":       defaultSuffix,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load default configuration").
			WithTextCode("CONFIG_DEFAULTS_FAILED")
	}

	configPath, _ := flags.GetString("config")
	path, parser, err := configFile(configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "failed to load config file").
				WithTextCode("CONFIG_FILE_FAILED").
				WithMetadata(map[string]any{"path": path})
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to merge flags").
			WithTextCode("CONFIG_FLAGS_FAILED")
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to unmarshal configuration").
			WithTextCode("CONFIG_UNMARSHAL_FAILED")
	}
	return cfg, nil
}

// configFile resolves the config file to load and its parser. An explicit
// path must exist; the probed candidates are optional.
func configFile(explicit string) (string, koanf.Parser, error) {
	if strings.TrimSpace(explicit) != "" {
		parser, err := parserFor(explicit)
		if err != nil {
			return "", nil, err
		}
		if _, err := os.Stat(explicit); err != nil {
			return "", nil, errors.Wrap(err, errors.CategoryValidation, "config file not found").
				WithTextCode("CONFIG_FILE_MISSING").
				WithMetadata(map[string]any{"path": explicit})
		}
		return explicit, parser, nil
	}

	for _, candidate := range configCandidates {
		if _, err := os.Stat(candidate); err == nil {
			parser, err := parserFor(candidate)
			if err != nil {
				return "", nil, err
			}
			return candidate, parser, nil
		}
	}
	return "", nil, nil
}

// parserFor picks the koanf parser matching a config file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, errors.New("unsupported config file type", errors.CategoryValidation).
			WithTextCode("CONFIG_FILE_TYPE").
			WithMetadata(map[string]any{
				"path":  path,
				"ext":   ext,
				"valid": []string{".yaml", ".yml", ".json", ".toml"},
			})
	}
}
