package filesystem

import (
	"math"
	"strconv"
	"strings"
)

// Params wraps decoded tool parameters. JSON numbers arrive as float64.
type Params map[string]interface{}

// String returns a required, non-empty string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key].(string)
	if !ok || v == "" {
		return "", invalidf("%s parameter required", key)
	}
	return v, nil
}

// OptString returns a string parameter or def when absent.
func (p Params) OptString(key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}

// OptBool returns a bool parameter or def when absent. "true"/"false"
// strings are accepted.
func (p Params) OptBool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// OptInt returns an integer parameter or def when absent or malformed.
func (p Params) OptInt(key string, def int) int {
	n, err := p.Int(key)
	if err != nil {
		return def
	}
	return n
}

// Int returns a required integer parameter.
func (p Params) Int(key string) (int, error) {
	switch v := p[key].(type) {
	case nil:
		return 0, invalidf("%s parameter required", key)
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, nil
		}
	}
	return 0, invalidf("%s must be an integer", key)
}

// Strings returns a string list parameter.
func (p Params) Strings(key string) []string {
	raw, ok := p[key].([]interface{})
	if !ok {
		if list, ok := p[key].([]string); ok {
			return list
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
