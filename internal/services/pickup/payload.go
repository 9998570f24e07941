package pickup

import (
	"strings"

	"olza-admin/internal/models"
	"olza-admin/internal/settings"
)

// BuildCountryPayload turns plain country and provider codes into the shape
// the admin page renders. Country labels are the uppercased code; provider
// labels are humanized ("ppl-ps" becomes "Ppl Ps").
func BuildCountryPayload(countries []string, providers map[string][]string) []models.Country {
	payload := []models.Country{}

	for _, raw := range countries {
		code := settings.SanitizeKey(raw)
		if code == "" {
			continue
		}

		entries := []models.Provider{}
		for _, rawProvider := range providers[code] {
			providerCode := settings.SanitizeKey(rawProvider)
			if providerCode == "" {
				continue
			}
			entries = append(entries, models.Provider{
				Code:  providerCode,
				Label: humanize(providerCode),
			})
		}

		payload = append(payload, models.Country{
			Code:      code,
			Label:     strings.ToUpper(code),
			Providers: entries,
		})
	}

	return payload
}

// DefaultPayload is BuildCountryPayload over the built-in selection.
func DefaultPayload() []models.Country {
	defaults := models.DefaultSelection()
	return BuildCountryPayload(defaults.Countries, defaults.Providers)
}

func humanize(code string) string {
	words := strings.Split(strings.ReplaceAll(code, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
