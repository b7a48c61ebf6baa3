package services

import (
	"fmt"
	"math"
	"slices"
	"strings"

	apperrors "brewsignal/internal/errors"
	"brewsignal/internal/indicator"
	"brewsignal/pkg/contracts/domain"
)

// ValidateBundle checks what the engines cannot degrade around
func ValidateBundle(b domain.EntityBundle) error {
	var errs apperrors.ValidationErrors
	if strings.TrimSpace(b.EntityID) == "" {
		errs.Add("entity_id", "is required", b.EntityID)
	}
	if b.AsOf.IsZero() {
		errs.Add("as_of", "is required", nil)
	}
	for _, key := range sortedKeys(b.Overrides) {
		checkOverride(&errs, "overrides", key, b.Overrides[key])
	}
	if errs.HasErrors() {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid entity bundle", errs).
			WithContext("invalid_fields", errs.Fields())
	}
	return nil
}

// ValidateOverrides checks a dry-run patch: known keys, values within [0, 1]
func ValidateOverrides(patch map[string]float64) error {
	var errs apperrors.ValidationErrors
	for _, key := range sortedKeys(patch) {
		checkOverride(&errs, "overrides", key, patch[key])
	}
	if errs.HasErrors() {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid override patch", errs).
			WithContext("invalid_fields", errs.Fields())
	}
	return nil
}

func checkOverride(errs *apperrors.ValidationErrors, prefix, key string, v float64) {
	field := fmt.Sprintf("%s.%s", prefix, key)
	if !indicator.IsOverrideKey(key) {
		errs.Add(field, "unknown override key", key)
		return
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		errs.Add(field, "must be within [0, 1]", v)
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
