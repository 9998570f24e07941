package settings

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"olza-admin/internal/models"
)

// SanitizeKey lowercases v and drops everything outside [a-z0-9_-].
func SanitizeKey(v string) string {
	v = strings.ToLower(v)
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Sanitize cleans a raw value about to be stored under key. The two selection
// keys are normalized; every other key passes through unchanged.
func Sanitize(key string, raw interface{}) interface{} {
	switch key {
	case models.KeySelectedCountries:
		return SanitizeCodes(raw)
	case models.KeySelectedProviders:
		return SanitizeProviderMap(raw)
	}
	return raw
}

// SanitizeCodes normalizes a list of codes, dropping empties and keeping the
// first occurrence of duplicates. Anything that is not a list yields an empty list.
func SanitizeCodes(raw interface{}) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, item := range toList(raw) {
		code := SanitizeKey(scalarString(item))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// SanitizeProviderMap normalizes a country -> provider codes map. Country keys
// that sanitize to nothing are dropped; non-list provider values become empty lists.
func SanitizeProviderMap(raw interface{}) map[string][]string {
	out := make(map[string][]string)

	switch m := raw.(type) {
	case map[string][]string:
		for _, country := range sortedKeys(m) {
			if code := SanitizeKey(country); code != "" {
				out[code] = SanitizeCodes(m[country])
			}
		}
	case map[string]interface{}:
		for _, country := range sortedKeys(m) {
			if code := SanitizeKey(country); code != "" {
				out[code] = SanitizeCodes(m[country])
			}
		}
	}

	return out
}

func toList(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return v
	case []string:
		list := make([]interface{}, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list
	}
	return nil
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
