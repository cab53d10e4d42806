package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestReplaceKeyReferences_Simple(t *testing.T) {
	kvMap := map[string]string{"gemini_api_key": "sk-12345"}

	result := ReplaceKeyReferences("api_key = {gemini_api_key}", kvMap, arbor.NewLogger())
	assert.Equal(t, "api_key = sk-12345", result)
}

func TestReplaceKeyReferences_Multiple(t *testing.T) {
	kvMap := map[string]string{
		"gemini_api_key":   "sk-g",
		"pinecone_api_key": "sk-p",
	}

	result := ReplaceKeyReferences("gemini={gemini_api_key} pinecone={pinecone_api_key}", kvMap, arbor.NewLogger())
	assert.Equal(t, "gemini=sk-g pinecone=sk-p", result)
}

func TestReplaceKeyReferences_MissingKeyLeftUnchanged(t *testing.T) {
	kvMap := map[string]string{"other_key": "value"}

	result := ReplaceKeyReferences("api_key = {missing-key}", kvMap, arbor.NewLogger())
	assert.Equal(t, "api_key = {missing-key}", result)
}

func TestReplaceKeyReferences_InvalidSyntaxLeftUnchanged(t *testing.T) {
	kvMap := map[string]string{"invalid key": "value"}

	// Space in key name - doesn't match the reference pattern
	result := ReplaceKeyReferences("api_key = {invalid key}", kvMap, arbor.NewLogger())
	assert.Equal(t, "api_key = {invalid key}", result)
}

func TestReplaceKeyReferences_NoReferences(t *testing.T) {
	kvMap := map[string]string{"key": "value"}

	result := ReplaceKeyReferences("api_key = static-value", kvMap, arbor.NewLogger())
	assert.Equal(t, "api_key = static-value", result)

	assert.Equal(t, "", ReplaceKeyReferences("", kvMap, arbor.NewLogger()))
}

func TestReplaceKeyReferences_MultipleOccurrences(t *testing.T) {
	kvMap := map[string]string{"key": "value"}

	result := ReplaceKeyReferences("{key} and {key} and {key}", kvMap, arbor.NewLogger())
	assert.Equal(t, "value and value and value", result)
}

func TestReplaceKeyReferences_HyphensAndUnderscores(t *testing.T) {
	kvMap := map[string]string{
		"key123":  "value1",
		"key-123": "value2",
		"key_123": "value3",
	}

	result := ReplaceKeyReferences("{key123} {key-123} {key_123}", kvMap, arbor.NewLogger())
	assert.Equal(t, "value1 value2 value3", result)
}

func TestReplaceInStruct_NestedConfig(t *testing.T) {
	kvMap := map[string]string{
		"gemini_api_key":   "sk-g",
		"pinecone_api_key": "sk-p",
	}

	config := NewDefaultConfig()
	config.Gemini.APIKey = "{gemini_api_key}"
	config.Index.Pinecone.APIKey = "{pinecone_api_key}"

	err := ReplaceInStruct(config, kvMap, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, "sk-g", config.Gemini.APIKey)
	assert.Equal(t, "sk-p", config.Index.Pinecone.APIKey)
	// Fields without references are untouched
	assert.Equal(t, "gemini-2.0-flash", config.Gemini.Model)
}

func TestReplaceInStruct_SliceOfStrings(t *testing.T) {
	kvMap := map[string]string{"docs_dir": "/srv/policies"}

	type testConfig struct {
		Paths []string
	}

	config := &testConfig{Paths: []string{"{docs_dir}", "static-path"}}

	err := ReplaceInStruct(config, kvMap, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/policies", "static-path"}, config.Paths)
}

func TestReplaceInStruct_UnexportedFieldSkipped(t *testing.T) {
	kvMap := map[string]string{"key": "value"}

	type testConfig struct {
		Exported   string
		unexported string
	}

	config := &testConfig{Exported: "{key}", unexported: "{key}"}

	err := ReplaceInStruct(config, kvMap, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, "value", config.Exported)
	assert.Equal(t, "{key}", config.unexported)
}

func TestReplaceInStruct_NilPointerHandled(t *testing.T) {
	kvMap := map[string]string{"key": "value"}

	type inner struct {
		Field string
	}
	type testConfig struct {
		Name  string
		Inner *inner
	}

	config := &testConfig{Name: "{key}"}

	err := ReplaceInStruct(config, kvMap, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, "value", config.Name)
	assert.Nil(t, config.Inner)
}

func TestReplaceInStruct_RequiresStructPointer(t *testing.T) {
	kvMap := map[string]string{"key": "value"}

	type testConfig struct {
		Name string
	}

	err := ReplaceInStruct(testConfig{Name: "{key}"}, kvMap, arbor.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a pointer")

	str := "test"
	err = ReplaceInStruct(&str, kvMap, arbor.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a struct pointer")
}
