package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateGroupSchemas(t *testing.T) {
	for _, group := range schemaGroups() {
		t.Run(group.Name, func(t *testing.T) {
			schema := generateGroupSchema(group)
			defs, ok := schema["$defs"].(map[string]any)
			require.True(t, ok)
			assert.NotEmpty(t, defs)
			assert.Contains(t, schema["$id"], group.Name)
		})
	}
}

func TestDialectSchemaDefinitions(t *testing.T) {
	schema := generateGroupSchema(schemaGroups()[0])
	defs := schema["$defs"].(map[string]any)
	assert.Contains(t, defs, "Dialect")
	assert.Contains(t, defs, "FlavorsResponse")
}

func TestWriteSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sniff.json")
	require.NoError(t, writeSchema(generateGroupSchema(schemaGroups()[1]), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "Sniff API Types", decoded["title"])
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Records", capitalize("records"))
	assert.Equal(t, "", capitalize(""))
}
