package models

import "time"

// OptionName is the row holding the plugin settings blob.
const OptionName = "olza_options"

// Keys inside the settings blob.
const (
	KeyAPIURL            = "api_url"
	KeyAccessToken       = "access_token"
	KeySelectedCountries = "selected_countries"
	KeySelectedProviders = "selected_providers"
)

// Option is a named JSON document, one row per option.
type Option struct {
	Name      string    `json:"name" gorm:"primaryKey;size:191"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings is the decoded settings blob for one request.
type Settings struct {
	APIURL            string               `json:"api_url"`
	AccessToken       string               `json:"access_token"`
	SelectedCountries []string             `json:"selected_countries"`
	SelectedProviders map[string][]string  `json:"selected_providers"`
	FeeRules          map[string][]FeeRule `json:"fee_rules,omitempty"`

	// CountriesSaved and ProvidersSaved record whether the keys exist in the
	// stored blob. Installs that never saved them run on the defaults.
	CountriesSaved bool `json:"-"`
	ProvidersSaved bool `json:"-"`
}

// HasCredentials reports whether both API URL and token are configured.
func (s *Settings) HasCredentials() bool {
	return s.APIURL != "" && s.AccessToken != ""
}

// Selection is the country/provider default used before the admin saves one.
type Selection struct {
	Countries []string
	Providers map[string][]string
}

// DefaultSelection returns a fresh copy of the built-in selection.
func DefaultSelection() Selection {
	return Selection{
		Countries: []string{"cz"},
		Providers: map[string][]string{
			"cz": {"ppl-ps", "wedo-box"},
		},
	}
}
