package handlers

import (
	"strings"

	"olza-admin/internal/logger"
	"olza-admin/internal/models"
	"olza-admin/internal/settings"

	"github.com/gin-gonic/gin"
)

const (
	msgMissingFeeSettings = "Please provide a fee settings id."
	msgUnknownFeeSettings = "No fee rules are saved under this settings id."
	msgInvalidAmount      = "Please provide a valid basket amount."
)

// FeeQuote is the fee the first matching rule assigns to a basket amount.
type FeeQuote struct {
	SettingsID string          `json:"settings_id"`
	Amount     float64         `json:"amount"`
	Matched    bool            `json:"matched"`
	Fee        float64         `json:"fee"`
	Rule       *models.FeeRule `json:"rule,omitempty"`
}

type FeeHandler struct {
	store  *settings.Store
	logger *logger.Logger
}

func NewFeeHandler(store *settings.Store, logger *logger.Logger) *FeeHandler {
	return &FeeHandler{
		store:  store,
		logger: logger,
	}
}

// Quote evaluates the rules saved under settings_id against amount.
func (h *FeeHandler) Quote(c *gin.Context) {
	id := strings.TrimSpace(c.Query("settings_id"))
	if id == "" {
		respondError(c, h.logger, models.NewValidationError(msgMissingFeeSettings))
		return
	}
	amount, err := models.ParseAmount(c.Query("amount"))
	if err != nil || amount < 0 {
		respondError(c, h.logger, models.NewValidationError(msgInvalidAmount))
		return
	}

	cfg, err := h.store.Load(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	rules, ok := cfg.FeeRules[id]
	if !ok {
		respondError(c, h.logger, models.NewValidationError(msgUnknownFeeSettings))
		return
	}

	quote := FeeQuote{SettingsID: id, Amount: amount}
	if rule, matched := models.MatchFee(rules, amount); matched {
		quote.Matched = true
		quote.Fee = rule.Fee
		quote.Rule = &rule
	}
	respondOK(c, quote)
}
