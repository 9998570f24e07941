package handlers

import (
	"context"
	"net/http"

	"olza-admin/internal/logger"
	"olza-admin/internal/services/pickup"
	"olza-admin/internal/settings"

	"github.com/gin-gonic/gin"
)

// SyncHandler serves the two actions the settings page calls in the background.
type SyncHandler struct {
	store  *settings.Store
	pickup *pickup.Service
	logger *logger.Logger
}

func NewSyncHandler(store *settings.Store, pickup *pickup.Service, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		store:  store,
		pickup: pickup,
		logger: logger,
	}
}

// AvailableOptions lists the countries and providers of the configured account.
func (h *SyncHandler) AvailableOptions(c *gin.Context) {
	cfg, err := h.store.Load(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	options, err := h.pickup.ListAvailableOptions(c.Request.Context(), cfg)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, options)
}

// PickupPointFiles refreshes the pickup point cache. The refresh runs to the
// end even when the browser gives up waiting.
func (h *SyncHandler) PickupPointFiles(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())

	cfg, err := h.store.Load(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	report, err := h.pickup.RefreshPickupPointFiles(ctx, cfg)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if !report.Success {
		respond(c, http.StatusBadGateway, false, report)
		return
	}
	respondOK(c, report)
}
