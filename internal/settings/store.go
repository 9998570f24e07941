// Package settings persists the plugin settings blob and sanitizes what the
// admin saves into it.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"olza-admin/internal/logger"
	"olza-admin/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewStore(db *gorm.DB, logger *logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Activate creates the settings blob with the default selection when it does
// not exist yet. An existing blob is left alone.
func (s *Store) Activate(ctx context.Context) error {
	_, found, err := s.readBlob(ctx, s.db)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	defaults := models.DefaultSelection()
	blob := map[string]json.RawMessage{}
	if err := setValue(blob, models.KeySelectedCountries, defaults.Countries); err != nil {
		return err
	}
	if err := setValue(blob, models.KeySelectedProviders, defaults.Providers); err != nil {
		return err
	}

	s.logger.Info("Creating %s with default country selection", models.OptionName)
	return s.writeBlob(ctx, s.db, blob)
}

// Load returns the stored settings. The selection keys fall back to the
// defaults only when the key was never saved; a saved empty list stays empty.
func (s *Store) Load(ctx context.Context) (*models.Settings, error) {
	blob, _, err := s.readBlob(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return decodeSettings(blob, s.logger), nil
}

// Save sanitizes each value and merges it into the stored blob.
// Keys not present in values keep their stored value.
func (s *Store) Save(ctx context.Context, values map[string]interface{}) (*models.Settings, error) {
	var saved map[string]json.RawMessage

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		blob, _, err := s.readBlob(ctx, tx)
		if err != nil {
			return err
		}
		for key, raw := range values {
			if err := setValue(blob, key, Sanitize(key, raw)); err != nil {
				return err
			}
		}
		saved = blob
		return s.writeBlob(ctx, tx, blob)
	})
	if err != nil {
		return nil, err
	}

	return decodeSettings(saved, s.logger), nil
}

func (s *Store) readBlob(ctx context.Context, db *gorm.DB) (map[string]json.RawMessage, bool, error) {
	var opt models.Option
	err := db.WithContext(ctx).First(&opt, "name = ?", models.OptionName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return map[string]json.RawMessage{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", models.OptionName, err)
	}

	blob := map[string]json.RawMessage{}
	if strings.TrimSpace(opt.Value) == "" {
		return blob, true, nil
	}
	if err := json.Unmarshal([]byte(opt.Value), &blob); err != nil {
		// A corrupt blob is treated like a fresh install rather than locking the admin out.
		s.logger.Error("Stored %s is not a JSON object: %v", models.OptionName, err)
		return map[string]json.RawMessage{}, true, nil
	}
	return blob, true, nil
}

func (s *Store) writeBlob(ctx context.Context, db *gorm.DB, blob map[string]json.RawMessage) error {
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", models.OptionName, err)
	}

	opt := models.Option{Name: models.OptionName, Value: string(data)}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&opt).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", models.OptionName, err)
	}
	return nil
}

func setValue(blob map[string]json.RawMessage, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	blob[key] = data
	return nil
}

func decodeSettings(blob map[string]json.RawMessage, log *logger.Logger) *models.Settings {
	settings := &models.Settings{
		APIURL:      strings.TrimSpace(decodeString(blob[models.KeyAPIURL])),
		AccessToken: strings.TrimSpace(decodeString(blob[models.KeyAccessToken])),
		FeeRules:    map[string][]models.FeeRule{},
	}

	defaults := models.DefaultSelection()

	if raw, ok := blob[models.KeySelectedCountries]; ok {
		settings.CountriesSaved = true
		settings.SelectedCountries = SanitizeCodes(decodeAny(raw))
	} else {
		settings.SelectedCountries = defaults.Countries
	}

	if raw, ok := blob[models.KeySelectedProviders]; ok {
		settings.ProvidersSaved = true
		settings.SelectedProviders = SanitizeProviderMap(decodeAny(raw))
	} else {
		settings.SelectedProviders = defaults.Providers
	}

	for key, raw := range blob {
		if isKnownKey(key) || !looksLikeRuleList(raw) {
			continue
		}
		var rules []models.FeeRule
		if err := json.Unmarshal(raw, &rules); err != nil {
			log.Warn("Ignoring fee rules under %q: %v", key, err)
			continue
		}
		settings.FeeRules[key] = rules
	}

	return settings
}

func isKnownKey(key string) bool {
	switch key {
	case models.KeyAPIURL, models.KeyAccessToken, models.KeySelectedCountries, models.KeySelectedProviders:
		return true
	}
	return false
}

// looksLikeRuleList reports whether raw is a JSON array of objects carrying a condition.
func looksLikeRuleList(raw json.RawMessage) bool {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := item["condition"]; !ok {
			return false
		}
	}
	return true
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func decodeAny(raw json.RawMessage) interface{} {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
