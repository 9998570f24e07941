package handlers

import (
	"olza-admin/internal/logger"
	"olza-admin/internal/models"
	"olza-admin/internal/settings"

	"github.com/gin-gonic/gin"
)

const msgInvalidSettings = "Settings must be a JSON object."

type SettingsHandler struct {
	store  *settings.Store
	logger *logger.Logger
}

func NewSettingsHandler(store *settings.Store, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:  store,
		logger: logger,
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	cfg, err := h.store.Load(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, cfg)
}

// Update merges the posted keys into the stored settings. Keys that are not
// posted keep their value.
func (h *SettingsHandler) Update(c *gin.Context) {
	var values map[string]interface{}
	if err := c.ShouldBindJSON(&values); err != nil || values == nil {
		respondError(c, h.logger, models.NewValidationError(msgInvalidSettings))
		return
	}
	delete(values, "nonce")

	cfg, err := h.store.Save(c.Request.Context(), values)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Settings updated via API (%d keys)", len(values))
	respondOK(c, cfg)
}
