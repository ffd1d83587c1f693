// Package ruleset decodes rule sets and documents from JSON or YAML and
// validates rule sets against the embedded JSON schema.
//
// YAML input is converted to JSON first so that both formats decode through
// the same path and produce identical Go values (float64 numbers,
// map[string]any objects).
package ruleset

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ggerhardt/ajre-rules-engine/internal/types"
)

//go:embed all:schemas
var schemaFS embed.FS

const schemaID = "rules.schema.json"

var (
	// ErrDecode indicates input that is neither valid JSON nor valid YAML.
	ErrDecode = errors.New("decode failed")

	// ErrSchema indicates a rule set that violates the rule schema.
	ErrSchema = errors.New("rule set does not match schema")
)

// SchemaError represents a single schema validation error.
type SchemaError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e SchemaError) String() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationError lists every schema violation of a rule set.
type ValidationError struct {
	Errors []SchemaError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, se := range e.Errors {
		msgs[i] = se.String()
	}
	return fmt.Sprintf("%s: %s", ErrSchema, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrSchema
}

// Loader decodes and validates rule sets.
type Loader struct {
	schema *jsonschema.Schema
}

// NewLoader creates a loader with the embedded rule schema compiled.
func NewLoader() (*Loader, error) {
	data, err := schemaFS.ReadFile("schemas/" + schemaID)
	if err != nil {
		return nil, fmt.Errorf("read embedded schema: %w", err)
	}

	var schemaDoc any
	if err := json.Unmarshal(data, &schemaDoc); err != nil {
		return nil, fmt.Errorf("parse embedded schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaID, schemaDoc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	schema, err := c.Compile(schemaID)
	if err != nil {
		return nil, fmt.Errorf("compile rule schema: %w", err)
	}

	return &Loader{schema: schema}, nil
}

// DecodeRules decodes a JSON or YAML rule set. The input is either a list of
// rules or an object with a "rules" list.
func (l *Loader) DecodeRules(data []byte) ([]types.Rule, error) {
	raw, err := toJSON(data)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if errs := l.ValidateDocument(doc); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	if _, ok := doc.(map[string]any); ok {
		var wrapped struct {
			Rules []types.Rule `json:"rules"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return wrapped.Rules, nil
	}

	var rules []types.Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return rules, nil
}

// ValidateDocument validates an already-decoded rule set against the schema.
func (l *Loader) ValidateDocument(doc any) []SchemaError {
	err := l.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []SchemaError{{Message: err.Error()}}
	}

	return collectErrors(validationErr)
}

// LoadRulesFile reads and decodes a rule set file.
func (l *Loader) LoadRulesFile(path string) ([]types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", filepath.Base(path), err)
	}

	rules, err := l.DecodeRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rules, nil
}

// DecodeDocument decodes a JSON or YAML document into the generic form the
// engine evaluates against.
func DecodeDocument(data []byte) (types.Document, error) {
	raw, err := toJSON(data)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return doc, nil
}

// LoadDocumentFile reads and decodes a document file.
func LoadDocumentFile(path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", filepath.Base(path), err)
	}

	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// toJSON converts YAML input to JSON. Input that already looks like JSON is
// returned unchanged.
func toJSON(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed, nil
	}

	out, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

// collectErrors recursively collects all leaf validation errors from a ValidationError.
func collectErrors(ve *jsonschema.ValidationError) []SchemaError {
	var errs []SchemaError

	instancePath := "/" + strings.Join(ve.InstanceLocation, "/")
	if len(ve.InstanceLocation) == 0 {
		instancePath = ""
	}

	if len(ve.Causes) == 0 {
		if msg := ve.Error(); msg != "" {
			errs = append(errs, SchemaError{Path: instancePath, Message: msg})
		}
		return errs
	}

	for _, cause := range ve.Causes {
		errs = append(errs, collectErrors(cause)...)
	}
	return errs
}
