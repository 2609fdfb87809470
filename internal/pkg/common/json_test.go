package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, ExtractJSONObject(`{"a": 1}`))
	assert.Equal(t, `{"a": 1}`, ExtractJSONObject("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, ExtractJSONObject("prefix {\"a\": 1} suffix"))
	// Without braces the input comes back unchanged for the caller to reject.
	assert.Equal(t, "no json here", ExtractJSONObject("no json here"))
	assert.Equal(t, "", ExtractJSONObject(""))
}

func TestQuoteJSONKeys(t *testing.T) {
	assert.Equal(t, `{"a": 1, "b_c": [{"d": 2}]}`, QuoteJSONKeys(`{a: 1, b_c: [{d: 2}]}`))
	// Quoted keys and string values stay as they are.
	assert.Equal(t, `{"a": "x: y"}`, QuoteJSONKeys(`{"a": "x: y"}`))
}

func TestParseJSONStrictRejectsUnknownFields(t *testing.T) {
	type target struct {
		Name string `json:"name"`
	}
	var v target
	require.NoError(t, ParseJSON(`{"name": "a", "extra": 1}`, &v))
	assert.Error(t, ParseJSONStrict(`{"name": "a", "extra": 1}`, &v))
	require.NoError(t, ParseJSONStrict(`{"name": "b"}`, &v))
	assert.Equal(t, "b", v.Name)
}

func TestParseJSONRejectsTrailingData(t *testing.T) {
	type target struct {
		Name string `json:"name"`
	}
	var v target
	assert.Error(t, ParseJSON(`{"name": "a"} {"name": "b"}`, &v))
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, out)
}
