// Package pickup implements the two admin sync actions: listing the countries
// and providers the Olza account offers, and refreshing the local pickup
// point cache files.
package pickup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"olza-admin/internal/events"
	"olza-admin/internal/logger"
	"olza-admin/internal/models"
	"olza-admin/internal/services/olza"
	"olza-admin/internal/settings"
	"olza-admin/internal/storage"

	"github.com/google/uuid"
)

// Source tags of an options payload.
const (
	SourceAPI      = "api"
	SourceFallback = "fallback"
)

// User-facing messages.
const (
	MsgCredentials   = "Please verify APP URL & Access Token."
	MsgEndpoints     = "Unable to determine the Olza API endpoints."
	MsgSelectCountry = "Please select at least one country before refreshing the data."
	MsgOptionsFailed = "Unable to load available options from the Olza API."
)

const (
	publishTimeout      = 5 * time.Second
	statusErrorTemplate = "upstream returned status %d"
)

// AvailableOptions is the payload of ListAvailableOptions.
type AvailableOptions struct {
	Countries []models.Country `json:"countries"`
	Source    string           `json:"source"`
	Message   string           `json:"message,omitempty"`
}

type Service struct {
	fetcher        *olza.Fetcher
	files          *storage.FileStore
	publisher      events.Publisher
	fallbackNotice string
	logger         *logger.Logger
}

func NewService(fetcher *olza.Fetcher, files *storage.FileStore, publisher events.Publisher, fallbackNotice string, logger *logger.Logger) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Service{
		fetcher:        fetcher,
		files:          files,
		publisher:      publisher,
		fallbackNotice: fallbackNotice,
		logger:         logger,
	}
}

// ListAvailableOptions returns the countries and providers the configured
// account offers. When the API yields nothing, the built-in defaults are
// returned with source "fallback" and the fallback notice.
func (s *Service) ListAvailableOptions(ctx context.Context, cfg *models.Settings) (*AvailableOptions, error) {
	if !cfg.HasCredentials() {
		return nil, models.NewConfigurationError(MsgCredentials)
	}

	countries, err := s.fetcher.FetchCountriesAndProviders(ctx, cfg.APIURL, cfg.AccessToken)
	if err != nil {
		if appErr, ok := models.AsAppError(err); ok && strings.TrimSpace(appErr.Message) != "" {
			return nil, appErr
		}
		s.logger.Error("Failed to load available options: %v", err)
		return nil, models.NewUpstreamError(MsgOptionsFailed, "")
	}

	if len(countries) == 0 {
		s.logger.Warn("Olza API returned no countries, serving defaults")
		return &AvailableOptions{
			Countries: DefaultPayload(),
			Source:    SourceFallback,
			Message:   s.fallbackNotice,
		}, nil
	}

	return &AvailableOptions{
		Countries: countries,
		Source:    SourceAPI,
	}, nil
}

// RefreshPickupPointFiles downloads the configuration of every selected
// country and the pickup points of every selected provider into the data
// directory. Failures of single downloads are reported, not returned; the
// returned error covers only problems found before any download starts.
func (s *Service) RefreshPickupPointFiles(ctx context.Context, cfg *models.Settings) (*Report, error) {
	if !cfg.HasCredentials() {
		return nil, models.NewConfigurationError(MsgCredentials)
	}

	countries := settings.SanitizeCodes(cfg.SelectedCountries)
	if len(countries) == 0 {
		return nil, models.NewValidationError(MsgSelectCountry)
	}
	providers := settings.SanitizeProviderMap(cfg.SelectedProviders)

	client, err := s.fetcher.Client(cfg.APIURL, cfg.AccessToken)
	if err != nil {
		return nil, err
	}
	for _, endpoint := range []string{olza.EndpointConfig, olza.EndpointFind} {
		if _, err := client.Endpoint(endpoint); err != nil {
			return nil, models.NewConfigurationError(MsgEndpoints)
		}
	}

	if err := s.files.Ensure(); err != nil {
		s.logger.Error("Pickup point data dir unavailable: %v", err)
	}

	report := &Report{
		RunID:     uuid.New().String(),
		Countries: len(countries),
		StartedAt: time.Now().UTC(),
	}
	s.logger.Info("Refresh %s started for %v", report.RunID, countries)

	var results []unitResult
	for _, country := range countries {
		results = append(results, s.refreshCountry(ctx, client, cfg, providers, country)...)
	}

	merge(report, results)
	report.FinishedAt = time.Now().UTC()

	s.logger.Info("Refresh %s finished: success=%v files=%d errors=%d",
		report.RunID, report.Success, report.FilesWritten, len(report.Errors))
	s.publish(ctx, report)

	return report, nil
}

func (s *Service) refreshCountry(ctx context.Context, client *olza.Client, cfg *models.Settings, selected map[string][]string, country string) []unitResult {
	label := strings.ToUpper(country)

	resp, err := client.Config(ctx, country)
	if err != nil {
		return []unitResult{failed(fmt.Sprintf("Failed to retrieve configuration for %s: %v", label, err))}
	}
	if !resp.OK() {
		return []unitResult{failed(fmt.Sprintf("Failed to retrieve configuration for %s: "+statusErrorTemplate, label, resp.StatusCode))}
	}
	if len(resp.Body) == 0 {
		return []unitResult{failed(fmt.Sprintf("Empty configuration response for %s.", label))}
	}

	var results []unitResult
	if path, err := s.files.SaveCountry(country, resp.Body); err != nil {
		s.logger.Error("Failed to save %s: %v", storage.CountryFile(country), err)
		results = append(results, failed(fmt.Sprintf("Failed to save configuration for %s: %v", label, err)))
	} else {
		results = append(results, succeeded(fmt.Sprintf("Configuration for %s saved.", label), path))
	}

	if !json.Valid(resp.Body) {
		return append(results, failed(fmt.Sprintf("Invalid configuration JSON for %s.", label)))
	}

	codes := providerCodes(cfg, selected, country, models.ProviderCodes(olza.ParseProviders(resp.Body)))
	if len(codes) == 0 {
		return append(results, succeeded(fmt.Sprintf("No providers selected for %s.", label), ""))
	}

	for _, provider := range codes {
		results = append(results, s.refreshProvider(ctx, client, country, provider))
	}
	return results
}

func (s *Service) refreshProvider(ctx context.Context, client *olza.Client, country, provider string) unitResult {
	label := strings.ToUpper(country)

	resp, err := client.Find(ctx, country, provider)
	if err != nil {
		return failed(fmt.Sprintf("Failed to fetch pickup points for %s (%s): %v", label, provider, err))
	}
	if !resp.OK() {
		return failed(fmt.Sprintf("Failed to fetch pickup points for %s (%s): "+statusErrorTemplate, label, provider, resp.StatusCode))
	}
	if len(resp.Body) == 0 {
		return failed(fmt.Sprintf("Empty pickup point response for %s (%s).", label, provider))
	}

	path, err := s.files.SaveProvider(country, provider, resp.Body)
	if err != nil {
		s.logger.Error("Failed to save %s: %v", storage.ProviderFile(country, provider), err)
		return failed(fmt.Sprintf("Failed to save pickup points for %s (%s): %v", label, provider, err))
	}
	return succeeded(fmt.Sprintf("Spedition %s for %s saved.", provider, label), path)
}

// providerCodes picks the providers to download for a country: the saved
// selection, else the defaults while no selection was ever saved, else every
// available provider. Selections are intersected with what is available.
func providerCodes(cfg *models.Settings, selected map[string][]string, country string, available []string) []string {
	if codes := selected[country]; len(codes) > 0 {
		return intersect(codes, available)
	}
	if !cfg.ProvidersSaved {
		if codes, ok := models.DefaultSelection().Providers[country]; ok {
			return intersect(codes, available)
		}
	}
	return available
}

// intersect keeps the elements of a that are in b, in a's order.
func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	out := []string{}
	for _, v := range a {
		if in[v] {
			out = append(out, v)
		}
	}
	return out
}

func (s *Service) publish(ctx context.Context, report *Report) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := events.NewEvent(events.TypePickupPointsRefreshed, report.RunID, report)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish refresh report %s: %v", report.RunID, err)
	}
}
