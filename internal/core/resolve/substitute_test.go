package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Substitute Tests
// =============================================================================

func TestSubstitute_Simple(t *testing.T) {
	vars := map[string]string{"DB_HOST": "localhost"}
	result := Substitute("${DB_HOST}", vars)
	assert.Equal(t, "localhost", result)
}

func TestSubstitute_WithDefault_Found(t *testing.T) {
	vars := map[string]string{"PORT": "3000"}
	result := Substitute("${PORT:-8080}", vars)
	assert.Equal(t, "3000", result)
}

func TestSubstitute_WithDefault_NotFound(t *testing.T) {
	result := Substitute("${PORT:-8080}", map[string]string{})
	assert.Equal(t, "8080", result)
}

func TestSubstitute_NotFound_NoDefault(t *testing.T) {
	result := Substitute("${MISSING}", map[string]string{})
	assert.Equal(t, "${MISSING}", result) // Returns original
}

func TestSubstitute_Multiple(t *testing.T) {
	vars := map[string]string{"HOST": "db", "PORT": "5432"}
	result := Substitute("postgres://${HOST}:${PORT}", vars)
	assert.Equal(t, "postgres://db:5432", result)
}

func TestSubstitute_NoPlaceholders(t *testing.T) {
	result := Substitute("plain text", map[string]string{"KEY": "value"})
	assert.Equal(t, "plain text", result)
}

func TestSubstitute_EmptyDefault(t *testing.T) {
	result := Substitute("${EMPTY:-}", map[string]string{})
	assert.Equal(t, "", result)
}

func TestSubstitute_NilVariables(t *testing.T) {
	result := Substitute("${VAR:-default}", nil)
	assert.Equal(t, "default", result)
}

func TestSubstitute_MixedContent(t *testing.T) {
	vars := map[string]string{"APP_NAME": "myapp", "VERSION": "1.0"}
	result := Substitute("Starting ${APP_NAME} version ${VERSION}...", vars)
	assert.Equal(t, "Starting myapp version 1.0...", result)
}
