package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/echomind/internal/profile"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1", placeholder(1))
	assert.Equal(t, "$1, $2, $3", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}

func TestNonNil(t *testing.T) {
	assert.Equal(t, []string{}, nonNil(nil))
	assert.Equal(t, []string{"a"}, nonNil([]string{"a"}))
}

func TestNewDB_RequiresDSN(t *testing.T) {
	_, err := NewDB(&profile.Profile{Driver: "postgres"})
	assert.Error(t, err)
}

func TestSchema_DeclaresCascade(t *testing.T) {
	assert.Contains(t, schema, "REFERENCES conversation(id) ON DELETE CASCADE")
	assert.Contains(t, schema, "CHECK (NOT is_dismissed OR is_surfaced)")
}
