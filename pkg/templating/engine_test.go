package templating

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		grammar Grammar
		want    []string
	}{
		{
			name:    "no placeholders",
			text:    `{"id": 1}`,
			grammar: Any,
			want:    []string{},
		},
		{
			name:    "order and duplicates kept",
			text:    `{"a": "{{b}}", "c": "{{a}}", "d": "{{b}}"}`,
			grammar: Input,
			want:    []string{"b", "a", "b"},
		},
		{
			name:    "input grammar skips generated",
			text:    `{"id": "{{gen:uuid}}", "user": "{{user_id}}"}`,
			grammar: Input,
			want:    []string{"user_id"},
		},
		{
			name:    "any grammar includes generated",
			text:    `{"id": "{{gen:uuid}}", "user": "{{user-id}}"}`,
			grammar: Any,
			want:    []string{"gen:uuid", "user-id"},
		},
		{
			name:    "whitespace and punctuation are not identifiers",
			text:    `{{ spaced }} {{dot.ted}} {{}} {{ok}}`,
			grammar: Any,
			want:    []string{"ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.text, tt.grammar))
		})
	}
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, Unique([]string{"b", "a", "b", "a"}))
	assert.Empty(t, Unique(nil))
}

func TestSubstitute_NoPlaceholdersIsIdentity(t *testing.T) {
	e := NewEngine()
	texts := []string{
		"",
		`{"url": "https://example.com", "body": {"a": [1, 2, 3]}}`,
		`{ single braces } and {{ spaced }}`,
	}
	for _, text := range texts {
		got, err := e.Substitute(text, Values{"x": "y"})
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestSubstitute_Values(t *testing.T) {
	e := NewEngine()
	values := Values{
		"order_id": "42",
		"count":    json.Number("7"),
		"price":    9.5,
		"active":   true,
		"quote":    `say "hi"`,
	}

	got, err := e.Substitute(
		`{"id": "{{order_id}}", "n": "{{count}}", "p": "{{price}}", "a": "{{active}}", "q": "{{quote}}", "again": "{{order_id}}"}`,
		values,
	)
	require.NoError(t, err)
	assert.Equal(t, `{"id": "42", "n": "7", "p": "9.5", "a": "true", "q": "say \"hi\"", "again": "42"}`, got)
	assert.True(t, json.Valid([]byte(got)))
}

func TestSubstitute_IsNotRecursive(t *testing.T) {
	e := NewEngine()
	got, err := e.Substitute(`{"a": "{{a}}", "b": "{{b}}"}`, Values{
		"a": "{{b}}",
		"b": "{{a}}",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a": "{{b}}", "b": "{{a}}"}`, got)
}

func TestSubstitute_Unresolved(t *testing.T) {
	e := NewEngine()

	_, err := e.Substitute(`{"id": "{{missing}}"}`, Values{})
	require.ErrorIs(t, err, ErrUnresolvedPlaceholder)
	assert.Contains(t, err.Error(), "missing")

	_, err = e.Substitute(`{"id": "{{missing}}"}`, nil)
	require.ErrorIs(t, err, ErrUnresolvedPlaceholder)

	_, err = e.Substitute(`{"id": "{{gen:nope}}"}`, nil)
	require.ErrorIs(t, err, ErrUnresolvedPlaceholder)
}

func TestSubstitute_InvalidValue(t *testing.T) {
	e := NewEngine()
	_, err := e.Substitute(`"{{obj}}"`, Values{"obj": map[string]any{"a": 1}})
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestSubstitute_GeneratedUUID(t *testing.T) {
	e := NewEngine()

	first, err := e.Substitute("{{gen:uuid}}", nil)
	require.NoError(t, err)
	second, err := e.Substitute("{{gen:uuid}}", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	_, err = uuid.Parse(first)
	assert.NoError(t, err)
	_, err = uuid.Parse(second)
	assert.NoError(t, err)
}

func TestSubstitute_GeneratedSharedWithinCall(t *testing.T) {
	calls := 0
	e := NewEngine(WithUUIDFunc(func() string {
		calls++
		return "fixed-uuid"
	}))

	got, err := e.Substitute(`{{gen:uuid}}/{{gen:uuid}}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed-uuid/fixed-uuid", got)
	assert.Equal(t, 1, calls)
}

func TestSubstitute_GeneratedTimestamp(t *testing.T) {
	e := NewEngine()
	got, err := e.Substitute("{{gen:timestamp}}", nil)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]+$`), got)

	fixed := NewEngine(WithClock(fixedClock{t: time.Unix(1700000000, 0)}))
	got, err = fixed.Substitute(`{"at": "{{gen:timestamp}}"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"at": "1700000000"}`, got)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in      any
		want    string
		wantErr bool
	}{
		{in: "plain", want: "plain"},
		{in: "tab\there", want: `tab\there`},
		{in: "<html>", want: "<html>"},
		{in: int64(12), want: "12"},
		{in: 3, want: "3"},
		{in: 1.25, want: "1.25"},
		{in: false, want: "false"},
		{in: nil, wantErr: true},
		{in: []any{1}, wantErr: true},
		{in: map[string]any{}, wantErr: true},
	}

	for _, tt := range tests {
		got, err := FormatValue(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidValue, "value %#v", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
