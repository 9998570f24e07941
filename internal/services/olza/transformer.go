package olza

import (
	"strings"

	"olza-admin/internal/models"
	"olza-admin/internal/settings"

	"github.com/tidwall/gjson"
)

const unexpectedResponseMessage = "Unexpected response from the Olza API."

// ParseCountries reads a /countries body into countries in upstream order.
//
// Accepted shapes, optionally wrapped in {"data": ...}:
//
//	{"countries": [{"code": "cz", "name": "Czechia"}, ...]}
//	{"cz": {"name": "Czechia"}, "sk": "Slovakia"}
//	["cz", "sk"]
//
// An error envelope ({"status", "message"} without "countries") is returned
// as an upstream error carrying the message. Anything else yields no countries.
func ParseCountries(body []byte) ([]CountryEntry, error) {
	data, ok := unwrapData(body)
	if !ok {
		return []CountryEntry{}, nil
	}

	if data.IsObject() && present(data.Get("status")) && present(data.Get("message")) && !present(data.Get("countries")) {
		message := sanitizeText(scalarText(data.Get("message")))
		if message == "" {
			message = unexpectedResponseMessage
		}
		return nil, models.NewUpstreamError(message, settings.SanitizeKey(scalarText(data.Get("status"))))
	}

	if countries := data.Get("countries"); data.IsObject() && present(countries) {
		data = countries
	}

	out := []CountryEntry{}
	index := make(map[string]int)

	forEachEntry(data, func(key string, numericKey bool, value gjson.Result) {
		var code, label string

		switch {
		case value.IsObject():
			code = objectCode(value, key, numericKey)
			label = sanitizeText(nonEmpty(value.Get("name")))
			if label == "" {
				label = sanitizeText(nonEmpty(value.Get("title")))
			}
		case value.Type == gjson.String:
			if numericKey {
				code = settings.SanitizeKey(value.Str)
			} else {
				code = settings.SanitizeKey(key)
			}
			label = sanitizeText(value.Str)
		}

		if code == "" {
			return
		}
		if label == "" {
			label = strings.ToUpper(code)
		}

		// A repeated code keeps its first position and takes the later label.
		if i, seen := index[code]; seen {
			out[i].Label = label
			return
		}
		index[code] = len(out)
		out = append(out, CountryEntry{Code: code, Label: label})
	})

	return out, nil
}

// ParseProviders reads the "speditions" collection of a /config body.
// Entries without a usable code are dropped; order is kept.
func ParseProviders(body []byte) []models.Provider {
	providers := []models.Provider{}

	data, ok := unwrapData(body)
	if !ok || !data.IsObject() {
		return providers
	}

	speditions := data.Get("speditions")
	if !present(speditions) {
		return providers
	}

	forEachEntry(speditions, func(key string, numericKey bool, value gjson.Result) {
		var code, label string

		switch {
		case value.IsObject():
			code = objectCode(value, key, numericKey)
			label = sanitizeText(nonEmpty(value.Get("name")))
		case value.Type == gjson.String:
			code = settings.SanitizeKey(value.Str)
		}

		if code == "" {
			return
		}
		if label == "" {
			label = strings.ToUpper(code)
		}
		providers = append(providers, models.Provider{Code: code, Label: label})
	})

	return providers
}

// unwrapData parses body and steps into a non-null "data" member when there is one.
// ok is false when body is not a JSON object or array.
func unwrapData(body []byte) (gjson.Result, bool) {
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() && !root.IsArray() {
		return gjson.Result{}, false
	}
	if root.IsObject() {
		if data := root.Get("data"); present(data) {
			return data, true
		}
	}
	return root, true
}

// forEachEntry walks an object or array in document order. Array positions
// are reported as numeric keys.
func forEachEntry(collection gjson.Result, fn func(key string, numericKey bool, value gjson.Result)) {
	switch {
	case collection.IsArray():
		for _, value := range collection.Array() {
			fn("", true, value)
		}
	case collection.IsObject():
		collection.ForEach(func(key, value gjson.Result) bool {
			fn(key.String(), isNumeric(key.String()), value)
			return true
		})
	}
}

// objectCode resolves an entry code: the "code" member first, then a
// non-numeric collection key.
func objectCode(value gjson.Result, key string, numericKey bool) string {
	if code := settings.SanitizeKey(nonEmpty(value.Get("code"))); code != "" {
		return code
	}
	if !numericKey {
		return settings.SanitizeKey(key)
	}
	return ""
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// scalarText returns strings and numbers as text; other kinds yield "".
func scalarText(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	}
	return ""
}

// nonEmpty is scalarText with "0" treated as empty.
func nonEmpty(r gjson.Result) string {
	s := scalarText(r)
	if s == "0" {
		return ""
	}
	return s
}
