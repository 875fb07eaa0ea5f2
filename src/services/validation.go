package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationService validates configuration settings against the JSON schema of their feature
type ValidationService struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// NewValidationService creates a validation service with an empty schema cache
func NewValidationService() *ValidationService {
	return &ValidationService{schemas: make(map[string]*gojsonschema.Schema)}
}

// ValidateSettings validates a settings document against schema.
// An empty schema accepts any JSON object; empty settings are treated as {}.
func (vs *ValidationService) ValidateSettings(schema, settings json.RawMessage) error {
	settings = normalizeSettings(settings)
	if !json.Valid(settings) {
		return &SchemaValidationError{
			Message: "Settings are not a valid JSON document",
			Errors:  []ValidationError{{Field: "(root)", Error: "invalid JSON"}},
		}
	}
	if len(bytes.TrimSpace(schema)) == 0 {
		return nil
	}

	compiled, err := vs.compile(schema)
	if err != nil {
		return err
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(settings))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var validationErrors []ValidationError
		for _, desc := range result.Errors() {
			validationErrors = append(validationErrors, ValidationError{
				Field: desc.Field(),
				Error: desc.Description(),
			})
		}
		return &SchemaValidationError{
			Message: "Configuration settings do not match the feature schema",
			Errors:  validationErrors,
		}
	}
	return nil
}

// compile returns the cached schema for raw, compiling it on first use
func (vs *ValidationService) compile(raw json.RawMessage) (*gojsonschema.Schema, error) {
	key := string(raw)

	vs.mu.RLock()
	s, ok := vs.schemas[key]
	vs.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile feature schema: %w", err)
	}

	vs.mu.Lock()
	vs.schemas[key] = s
	vs.mu.Unlock()
	return s, nil
}

func normalizeSettings(settings json.RawMessage) json.RawMessage {
	if len(bytes.TrimSpace(settings)) == 0 || bytes.Equal(bytes.TrimSpace(settings), []byte("null")) {
		return json.RawMessage(`{}`)
	}
	return settings
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// SchemaValidationError represents schema validation failure with details
type SchemaValidationError struct {
	Message string            `json:"message"`
	Errors  []ValidationError `json:"validation_errors"`
}

func (e *SchemaValidationError) Error() string {
	return e.Message
}

// IsSchemaValidationError checks if an error is a schema validation error
func IsSchemaValidationError(err error) bool {
	var sve *SchemaValidationError
	return errors.As(err, &sve)
}
