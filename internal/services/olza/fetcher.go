// Package olza is the client side of the Olza logistics API: HTTP access to
// /countries, /config and /find, and normalization of their loosely shaped
// JSON into countries and providers.
package olza

import (
	"context"
	"net/http"

	"olza-admin/internal/logger"
	"olza-admin/internal/models"
)

const endpointsErrorMessage = "Unable to determine the Olza API endpoints."

type Fetcher struct {
	timeouts   Timeouts
	httpClient *http.Client
	logger     *logger.Logger
}

// NewFetcher builds a Fetcher. httpClient may be nil.
func NewFetcher(timeouts Timeouts, httpClient *http.Client, logger *logger.Logger) *Fetcher {
	return &Fetcher{
		timeouts:   timeouts,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Client returns an API client for the given credentials. An unusable base
// URL is a configuration error.
func (f *Fetcher) Client(apiBaseURL, accessToken string) (*Client, error) {
	client, err := NewClient(apiBaseURL, accessToken, f.timeouts, f.httpClient, f.logger)
	if err != nil {
		return nil, models.NewConfigurationError(endpointsErrorMessage)
	}
	return client, nil
}

// FetchCountriesAndProviders lists the countries the account can ship to,
// each with the providers its /config reports.
//
// A failed /countries call yields an empty list, as does a response with no
// countries in it. An error envelope from /countries is returned as an
// upstream error. A failed /config call leaves that country with no providers,
// and once ctx is done the remaining countries are kept without calling /config.
func (f *Fetcher) FetchCountriesAndProviders(ctx context.Context, apiBaseURL, accessToken string) ([]models.Country, error) {
	client, err := f.Client(apiBaseURL, accessToken)
	if err != nil {
		return nil, err
	}

	resp, err := client.Countries(ctx)
	if err != nil {
		f.logger.Warn("Failed to fetch countries: %v", err)
		return []models.Country{}, nil
	}

	entries, err := ParseCountries(resp.Body)
	if err != nil {
		f.logger.Warn("Olza countries endpoint reported an error: %v", err)
		return nil, err
	}

	countries := make([]models.Country, 0, len(entries))
	canceled := false
	for _, entry := range entries {
		providers := []models.Provider{}

		if !canceled && ctx.Err() != nil {
			canceled = true
			f.logger.Warn("Country listing canceled, remaining countries have no providers: %v", ctx.Err())
		}
		if !canceled {
			resp, err := client.Config(ctx, entry.Code)
			if err != nil {
				f.logger.Warn("Failed to fetch configuration for %s: %v", entry.Code, err)
			} else {
				providers = ParseProviders(resp.Body)
			}
		}

		countries = append(countries, models.Country{
			Code:      entry.Code,
			Label:     entry.Label,
			Providers: providers,
		})
	}

	f.logger.Info("Fetched %d countries from Olza", len(countries))
	return countries, nil
}
