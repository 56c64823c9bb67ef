package strutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain object", `{"a":1}`, `{"a":1}`, true},
		{"embedded in prose", `blah {"emotion":"joy"} blah`, `{"emotion":"joy"}`, true},
		{"nested object", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`, true},
		{"brace inside string", `{"t":"a } b"}`, `{"t":"a } b"}`, true},
		{"escaped quote inside string", `{"t":"say \"}\" now"}`, `{"t":"say \"}\" now"}`, true},
		{"skips invalid fragment", `use {x} then {"ok":true}`, `{"ok":true}`, true},
		{"first of several objects", `{"a":1} and {"b":2}`, `{"a":1}`, true},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"object inside unclosed brace", `{ note {"a":1}`, `{"a":1}`, true},
		{"no braces", "nothing here", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONObject_LongUnbalancedInput(t *testing.T) {
	input := strings.Repeat("{", 1<<20) + `{"a":1}`
	got, ok := ExtractJSONObject(input)
	assert.False(t, ok)
	assert.Empty(t, got)

	got, ok = ExtractJSONObject(strings.Repeat("{ ", 100) + `{"a":1}`)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, got)
}
