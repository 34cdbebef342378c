package convert

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestGet(t *testing.T) {
	m := decode(t, `{"name":"general","count":3,"nsfw":false,"tags":["a"]}`)

	assert.Equal(t, "general", Get(m, "name", "default"))
	assert.Equal(t, float64(3), Get(m, "count", float64(0)))
	assert.Equal(t, false, Get(m, "nsfw", true))
	assert.Equal(t, []any{"a"}, Get[[]any](m, "tags", nil))

	// Missing key or wrong type falls back
	assert.Equal(t, "default", Get(m, "missing", "default"))
	assert.Equal(t, 7, Get(m, "count", 7))
	assert.Equal(t, "x", Get(m, "nsfw", "x"))
}

func TestGet_NilMap(t *testing.T) {
	assert.Equal(t, "d", Get[string](nil, "k", "d"))
}

func TestAs(t *testing.T) {
	m := map[string]any{"s": "v", "n": nil}

	s, ok := As[string](m, "s")
	assert.True(t, ok)
	assert.Equal(t, "v", s)

	_, ok = As[string](m, "n")
	assert.False(t, ok)

	_, ok = As[int](m, "s")
	assert.False(t, ok)
}

func TestGetSnowflake(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
		key  string
		want Snowflake
	}{
		{"default key", map[string]any{"id": "175928847299117063"}, "", 175928847299117063},
		{"custom key", map[string]any{"channel_id": "41771983423143937"}, "channel_id", 41771983423143937},
		{"missing", map[string]any{}, "", 0},
		{"null", map[string]any{"id": nil}, "", 0},
		{"not a number", map[string]any{"id": "abc"}, "", 0},
		{"negative", map[string]any{"id": "-5"}, "", 0},
		{"numeric value", map[string]any{"id": float64(12345)}, "", 12345},
		{"already a snowflake", map[string]any{"id": Snowflake(9)}, "", 9},
		{"slice is rejected", map[string]any{"id": []int{1}}, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSnowflake(tt.m, tt.key))
		})
	}
}

func TestSnowflake_String(t *testing.T) {
	id, err := ParseSnowflake("175928847299117063")
	require.NoError(t, err)
	assert.Equal(t, "175928847299117063", id.String())

	_, err = ParseSnowflake("")
	assert.Error(t, err)
}

func TestLenientGetters(t *testing.T) {
	m := decode(t, `{"count":"42","flag":"true","num":5,"bad":{}}`)

	assert.Equal(t, 42, GetInt(m, "count", -1))
	assert.Equal(t, 5, GetInt(m, "num", -1))
	assert.Equal(t, -1, GetInt(m, "bad", -1))
	assert.Equal(t, -1, GetInt(m, "missing", -1))

	assert.True(t, GetBool(m, "flag", false))
	assert.False(t, GetBool(m, "missing", false))

	assert.Equal(t, "5", GetString(m, "num", ""))
	assert.Equal(t, "42", GetString(m, "count", ""))
	assert.Equal(t, "fallback", GetString(m, "bad", "fallback"))
	assert.Equal(t, "fallback", GetString(m, "missing", "fallback"))
}
