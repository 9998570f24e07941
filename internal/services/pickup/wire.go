package pickup

import (
	"net/http"

	"olza-admin/internal/config"
	"olza-admin/internal/events"
	"olza-admin/internal/logger"
	"olza-admin/internal/services/olza"
	"olza-admin/internal/storage"
)

// NewFromConfig builds the service from the process configuration.
func NewFromConfig(cfg *config.Config, publisher events.Publisher, logger *logger.Logger) *Service {
	timeouts := olza.Timeouts{
		Countries: cfg.CountriesTimeout,
		Config:    cfg.ConfigTimeout,
		Find:      cfg.FindTimeout,
	}
	fetcher := olza.NewFetcher(timeouts, &http.Client{}, logger)
	return NewService(fetcher, storage.NewFileStore(cfg.DataDir), publisher, cfg.FallbackNotice, logger)
}
