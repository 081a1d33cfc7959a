// Package schemas provides JSON Schema validation for the shapes returned by
// each generation stage. Schemas are embedded at compile time; they constrain
// structure (required keys, types, enums) while configurable counts are
// enforced by the stage executors.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Stage schema names, matching the embedded *.schema.json files.
const (
	StagePersona   = "persona"
	StageStructure = "structure"
	StageLesson    = "lesson"
	StageExtras    = "extras"
)

// ValidationError represents a schema validation failure with field paths
type ValidationError struct {
	Stage  string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s response failed schema validation:\n", ve.Stage))
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// compiled caches parsed schemas; they are static so compile-once is safe.
var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

func schemaFor(stage string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if schema, ok := compiled[stage]; ok {
		return schema, nil
	}

	data, err := schemaFiles.ReadFile(stage + ".schema.json")
	if err != nil {
		return nil, fmt.Errorf("unknown stage schema %q: %w", stage, err)
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s schema: %w", stage, err)
	}

	compiled[stage] = schema
	return schema, nil
}

// ValidateStage validates a JSON document against the named stage's schema.
// Returns a *ValidationError describing every offending field on mismatch.
func ValidateStage(stage string, document []byte) error {
	schema, err := schemaFor(stage)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationError{
			Stage: stage,
			Errors: []FieldError{
				{Field: "(root)", Message: fmt.Sprintf("document is not valid JSON: %v", err)},
			},
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Stage:  stage,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
