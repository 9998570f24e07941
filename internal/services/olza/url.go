package olza

import (
	"errors"
	"net/url"
	"strings"
)

var ErrInvalidURL = errors.New("invalid url")

// ValidateURL accepts absolute URLs only and collapses doubled slashes after
// the scheme separator, so "https://api.example//v1//countries" becomes
// "https://api.example/v1/countries".
func ValidateURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidURL
	}

	scheme, rest, found := strings.Cut(raw, "://")
	if !found {
		return strings.ReplaceAll(raw, "//", "/"), nil
	}
	return scheme + "://" + strings.ReplaceAll(rest, "//", "/"), nil
}

// endpointURL joins an endpoint name onto the base URL and validates the result.
func endpointURL(base, endpoint string) (string, error) {
	return ValidateURL(strings.TrimRight(base, "/\\") + "/" + endpoint)
}
