package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudprompt/aws-devops-agent/internal/logging"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"InstanceType": {"type": "string"},
		"MinCount": {"type": "integer", "minimum": 1}
	},
	"required": ["InstanceType"]
}`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ec2_create_schema.json"), []byte(testSchema), 0o644))
	return NewStore(dir, logging.NewLogger("error", "text"))
}

func TestLoad(t *testing.T) {
	store := newTestStore(t)

	schema, ok := store.Load("ec2", "create")
	require.True(t, ok)
	assert.NotEmpty(t, schema.Raw)
}

func TestLoadMissingSchema(t *testing.T) {
	store := newTestStore(t)

	_, ok := store.Load("ec2", "lifecycle")
	assert.False(t, ok)

	// Negative results are cached too
	_, ok = store.Load("ec2", "lifecycle")
	assert.False(t, ok)
}

func TestLoadEmptyDir(t *testing.T) {
	store := NewStore("", logging.NewLogger("error", "text"))

	_, ok := store.Load("ec2", "create")
	assert.False(t, ok)
}

func TestSchemaValidate(t *testing.T) {
	store := newTestStore(t)
	schema, ok := store.Load("ec2", "create")
	require.True(t, ok)

	issues, err := schema.Validate(map[string]interface{}{
		"InstanceType": "t2.micro",
		"MinCount":     1,
	})
	require.NoError(t, err)
	assert.Empty(t, issues)

	issues, err = schema.Validate(map[string]interface{}{
		"MinCount": 0,
	})
	require.NoError(t, err)
	assert.Len(t, issues, 2)
}

func TestLoadInvalidSchemaFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ec2_create_schema.json"), []byte("not a schema"), 0o644))

	store := NewStore(dir, logging.NewLogger("error", "text"))
	_, ok := store.Load("ec2", "create")
	assert.False(t, ok)
}
