// Package providerconf loads optional provider endpoint overrides from a
// YAML file. Everything in the file is optional; absent sections fall back
// to the built-in defaults.
package providerconf

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed providers.schema.json
var providersSchemaJSON string

type Config struct {
	Lingva struct {
		Endpoints []string `yaml:"endpoints" json:"endpoints,omitempty"`
	} `yaml:"lingva" json:"lingva,omitempty"`
	MyMemory struct {
		Endpoint string `yaml:"endpoint" json:"endpoint,omitempty"`
	} `yaml:"mymemory" json:"mymemory,omitempty"`
	Local struct {
		Endpoint string `yaml:"endpoint" json:"endpoint,omitempty"`
		Model    string `yaml:"model" json:"model,omitempty"`
	} `yaml:"local" json:"local,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// Load reads and validates a provider override file. An empty path returns a
// zero Config so callers can use defaults without branching.
func Load(path string) (*Config, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return &Config{}, nil
	}

	raw, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	return Parse(raw)
}

// Parse validates YAML content against the embedded schema and decodes it.
func Parse(raw []byte) (*Config, error) {
	var value any
	if err := yaml.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("decode providers YAML: %w", err)
	}
	if value == nil {
		return &Config{}, nil
	}

	// The schema validator wants JSON-shaped values; round-trip through
	// encoding/json to normalize yaml's map types.
	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize providers document: %w", err)
	}
	var jsonValue any
	if err := json.Unmarshal(normalized, &jsonValue); err != nil {
		return nil, fmt.Errorf("normalize providers document: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load providers schema: %w", err)
	}
	if err := schema.Validate(jsonValue); err != nil {
		return nil, fmt.Errorf("providers file validation failed: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode providers YAML: %w", err)
	}
	if err := validateSemantics(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("providers.schema.json", strings.NewReader(providersSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("providers.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}
		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func validateSemantics(cfg *Config) error {
	for i, endpoint := range cfg.Lingva.Endpoints {
		if err := validateEndpoint(fmt.Sprintf("lingva.endpoints[%d]", i), endpoint); err != nil {
			return err
		}
	}
	if cfg.MyMemory.Endpoint != "" {
		if err := validateEndpoint("mymemory.endpoint", cfg.MyMemory.Endpoint); err != nil {
			return err
		}
	}
	if cfg.Local.Endpoint != "" {
		if err := validateEndpoint("local.endpoint", cfg.Local.Endpoint); err != nil {
			return err
		}
	}
	return nil
}

func validateEndpoint(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s is not a valid http(s) URL", fieldName)
	}
	return nil
}
