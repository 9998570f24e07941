package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FeeCondition compares the basket amount against a rule's amount.
type FeeCondition string

const (
	FeeConditionEqual            FeeCondition = "equal"
	FeeConditionLess             FeeCondition = "less"
	FeeConditionLessThanEqual    FeeCondition = "less_than_equal"
	FeeConditionGreater          FeeCondition = "greater"
	FeeConditionGreaterThanEqual FeeCondition = "greater_than_equal"
)

// FeeConditions lists the conditions in the order the settings page offers them.
var FeeConditions = []FeeCondition{
	FeeConditionEqual,
	FeeConditionLess,
	FeeConditionLessThanEqual,
	FeeConditionGreater,
	FeeConditionGreaterThanEqual,
}

// Label is the display text used by the settings page.
func (c FeeCondition) Label() string {
	switch c {
	case FeeConditionEqual:
		return "Equal"
	case FeeConditionLess:
		return "Less"
	case FeeConditionLessThanEqual:
		return "Less than Equal"
	case FeeConditionGreater:
		return "Greater"
	case FeeConditionGreaterThanEqual:
		return "Greater than Equal"
	}
	return string(c)
}

func (c FeeCondition) Valid() bool {
	for _, known := range FeeConditions {
		if c == known {
			return true
		}
	}
	return false
}

// FeeRule maps a basket-amount condition to a shipping fee.
type FeeRule struct {
	Amount    float64      `json:"amount"`
	Condition FeeCondition `json:"condition"`
	Fee       float64      `json:"fee"`
}

// Matches reports whether basket satisfies the rule's condition.
func (r FeeRule) Matches(basket float64) bool {
	switch r.Condition {
	case FeeConditionEqual:
		return basket == r.Amount
	case FeeConditionLess:
		return basket < r.Amount
	case FeeConditionLessThanEqual:
		return basket <= r.Amount
	case FeeConditionGreater:
		return basket > r.Amount
	case FeeConditionGreaterThanEqual:
		return basket >= r.Amount
	}
	return false
}

// MatchFee returns the fee of the first rule matching basket.
func MatchFee(rules []FeeRule, basket float64) (FeeRule, bool) {
	for _, rule := range rules {
		if rule.Matches(basket) {
			return rule, true
		}
	}
	return FeeRule{}, false
}

// UnmarshalJSON accepts amounts and fees as numbers or numeric strings; the
// settings form posts everything as strings and blank inputs mean zero.
func (r *FeeRule) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount    json.RawMessage `json:"amount"`
		Condition string          `json:"condition"`
		Fee       json.RawMessage `json:"fee"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	amount, err := parseLooseNumber(raw.Amount)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	fee, err := parseLooseNumber(raw.Fee)
	if err != nil {
		return fmt.Errorf("fee: %w", err)
	}

	r.Amount = amount
	r.Condition = FeeCondition(raw.Condition)
	r.Fee = fee
	return nil
}

func parseLooseNumber(raw json.RawMessage) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return 0, nil
		}
	}
	return ParseAmount(s)
}

// ParseAmount parses a decimal amount, accepting a comma as decimal separator.
func ParseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
