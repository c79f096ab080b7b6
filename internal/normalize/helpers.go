package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// asMap decodes one record into a generic map. Upstream schemas shift often
// enough that typed structs per source would churn constantly; generic maps
// plus first-non-empty pickers keep the adapters short.
func asMap(item json.RawMessage) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(item, &m); err != nil {
		return nil
	}
	return m
}

// pickStr returns the first non-empty string among the given keys.
func pickStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					return s
				}
			}
		}
	}
	return ""
}

// pickInt returns the first numeric value among the given keys. JSON numbers
// arrive as float64; numeric strings are accepted too.
func pickInt(m map[string]any, keys ...string) *int {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			i := int(n)
			return &i
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				return &i
			}
		}
	}
	return nil
}

// pickNum returns the first raw numeric value among the given keys.
func pickNum(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if n, ok := v.(float64); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// subMap returns a nested object value, or nil.
func subMap(m map[string]any, key string) map[string]any {
	if v, ok := m[key]; ok {
		if sub, ok := v.(map[string]any); ok {
			return sub
		}
	}
	return nil
}

// dateOf derives a YYYY-MM-DD date from an ISO datetime string.
func dateOf(datetime string) string {
	if len(datetime) >= 10 {
		return datetime[:10]
	}
	return ""
}

// formatAmount renders a numeric price without a trailing ".00".
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// firstNonEmpty returns the first non-empty string argument.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
