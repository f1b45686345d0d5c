package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/cloudprompt/aws-devops-agent/internal/logging"
)

// Schema is a loaded parameter schema for one {service, operation} pair
type Schema struct {
	Raw      json.RawMessage
	compiled *gojsonschema.Schema
}

// Store loads JSON schemas from a directory, keyed by
// "{service}_{operation}_schema.json". Absence of a schema is not an error;
// it only disables the advisory validation step.
type Store struct {
	schemaDir string
	logger    *logging.Logger

	mu    sync.RWMutex
	cache map[string]*Schema
}

// NewStore creates a schema store over the given directory
func NewStore(schemaDir string, logger *logging.Logger) *Store {
	return &Store{
		schemaDir: schemaDir,
		logger:    logger,
		cache:     make(map[string]*Schema),
	}
}

// Load returns the schema for the service and operation, or ok=false when no
// schema file exists
func (s *Store) Load(service, operationType string) (*Schema, bool) {
	key := fmt.Sprintf("%s_%s_schema", service, operationType)

	s.mu.RLock()
	if cached, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return cached, cached != nil
	}
	s.mu.RUnlock()

	schema := s.loadFromDisk(key)

	s.mu.Lock()
	s.cache[key] = schema
	s.mu.Unlock()

	return schema, schema != nil
}

func (s *Store) loadFromDisk(key string) *Schema {
	if s.schemaDir == "" {
		s.logger.Warn("Schema directory not configured")
		return nil
	}

	filePath := filepath.Join(s.schemaDir, key+".json")

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.WithField("schema_file", filePath).Warn("Schema file not found")
		} else {
			s.logger.WithError(err).WithField("schema_file", filePath).Error("Error loading schema")
		}
		return nil
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		s.logger.WithError(err).WithField("schema_file", filePath).Error("Error compiling schema")
		return nil
	}

	return &Schema{Raw: json.RawMessage(data), compiled: compiled}
}

// Validate checks a document against the schema and returns the list of
// violations. Violations here are advisory; callers log them as warnings.
func (sc *Schema) Validate(document interface{}) ([]string, error) {
	result, err := sc.compiled.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	issues := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		issues[i] = desc.String()
	}
	return issues, nil
}
