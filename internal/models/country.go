package models

// Provider is a shipping carrier ("spedition") offered in a country.
type Provider struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Country is a destination country together with its available providers.
type Country struct {
	Code      string     `json:"code"`
	Label     string     `json:"label"`
	Providers []Provider `json:"providers"`
}

// ProviderCodes returns the provider codes in order.
func ProviderCodes(providers []Provider) []string {
	codes := make([]string, 0, len(providers))
	for _, p := range providers {
		codes = append(codes, p.Code)
	}
	return codes
}
