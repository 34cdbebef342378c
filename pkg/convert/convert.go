// Package convert reads typed values out of decoded JSON objects
package convert

import (
	"strconv"

	"github.com/spf13/cast"
)

// DefaultIDKey is the key GetSnowflake reads when none is given
const DefaultIDKey = "id"

// Snowflake is a 64-bit resource identifier transmitted as a decimal string
type Snowflake uint64

// String returns the decimal form of the snowflake
func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// ParseSnowflake parses a decimal snowflake
func ParseSnowflake(s string) (Snowflake, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Snowflake(n), nil
}

// Get returns m[key] as a T, or def when the key is missing or holds another type
func Get[T any](m map[string]any, key string, def T) T {
	if v, ok := As[T](m, key); ok {
		return v
	}
	return def
}

// As returns m[key] as a T and whether the key held a T
func As[T any](m map[string]any, key string) (T, bool) {
	v, ok := m[key].(T)
	return v, ok
}

// GetSnowflake returns the snowflake stored under key, or 0 when the key is
// missing or does not hold a valid identifier. An empty key means DefaultIDKey.
func GetSnowflake(m map[string]any, key string) Snowflake {
	if key == "" {
		key = DefaultIDKey
	}

	switch v := m[key].(type) {
	case nil:
		return 0
	case string:
		id, err := ParseSnowflake(v)
		if err != nil {
			return 0
		}
		return id
	case Snowflake:
		return v
	default:
		n, err := cast.ToUint64E(v)
		if err != nil {
			return 0
		}
		return Snowflake(n)
	}
}

// GetString coerces m[key] to a string, or returns def
func GetString(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

// GetInt coerces m[key] to an int, or returns def
func GetInt(m map[string]any, key string, def int) int {
	v, ok := m[key]
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

// GetBool coerces m[key] to a bool, or returns def
func GetBool(m map[string]any, key string, def bool) bool {
	v, ok := m[key]
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}
