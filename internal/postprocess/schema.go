package postprocess

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema validates the JSON form of objects against a JSON schema chosen by
// Go type. Types without a schema pass.
type Schema struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]*jsonschema.Schema
}

func NewSchema() *Schema {
	return &Schema{schemas: map[reflect.Type]*jsonschema.Schema{}}
}

func (*Schema) Name() string { return "schema" }

// Register compiles schemaJSON and uses it for values of t. t may be the
// struct type or a pointer to it.
func (s *Schema) Register(t reflect.Type, schemaJSON string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	var schemaDoc any
	if err := json.Unmarshal([]byte(schemaJSON), &schemaDoc); err != nil {
		return fmt.Errorf("schema for %s: parse schema JSON: %w", t, err)
	}
	compiler := jsonschema.NewCompiler()
	url := "mem://schemas/" + strings.ReplaceAll(t.String(), "*", "") + ".json"
	if err := compiler.AddResource(url, schemaDoc); err != nil {
		return fmt.Errorf("schema for %s: add resource: %w", t, err)
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("schema for %s: %w", t, err)
	}

	s.mu.Lock()
	s.schemas[t] = sch
	s.mu.Unlock()
	return nil
}

func (s *Schema) Process(obj any) error {
	t := reflect.TypeOf(obj)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.RLock()
	sch, ok := s.schemas[t]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	// Round-trip through JSON to normalize types for validation.
	raw, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("schema validation: marshal: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("schema validation: unmarshal: %w", err)
	}
	if err := sch.Validate(normalized); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}
