// Package filter holds the pure selection functions behind the dashboard views:
// which features, clients, usages and categories are shown.
package filter

import (
	"sort"
	"strings"

	"feature-dashboard/src/models"

	"github.com/samber/lo"
)

// StatusSelector selects features by activation status
type StatusSelector string

const (
	StatusActive   StatusSelector = "ACTIVE"
	StatusInactive StatusSelector = "INACTIVE"
	StatusAll      StatusSelector = ""
)

// ParseStatusSelector maps ACTIVE and INACTIVE (any case) to their selector; everything else selects all
func ParseStatusSelector(s string) StatusSelector {
	switch StatusSelector(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive
	case StatusInactive:
		return StatusInactive
	}
	return StatusAll
}

// UniversalFeatureKeys are the features shown in the separate "Allgemein" group
var UniversalFeatureKeys = []string{"header", "footer"}

// IsUniversal reports whether the feature belongs to the universal group
func IsUniversal(f models.Feature) bool {
	return lo.Contains(UniversalFeatureKeys, f.Key)
}

// FeaturesPerStatus keeps the features matching the status selector.
//
// INACTIVE also keeps features without any category or tag configuration,
// whatever their client-level status is.
func FeaturesPerStatus(features []models.Feature, selector StatusSelector) []models.Feature {
	switch selector {
	case StatusActive:
		return lo.Filter(features, func(f models.Feature, _ int) bool {
			values := f.Status.Values()
			return lo.Contains(values, models.StatusEnabled) ||
				lo.Contains(values, models.StatusEnabledAndDisabled)
		})
	case StatusInactive:
		return lo.Filter(features, func(f models.Feature, _ int) bool {
			values := f.Status.Values()
			return lo.Contains(values, models.StatusDisabled) ||
				lo.Contains(values, models.StatusEnabledAndDisabled) ||
				lo.EveryBy(values[1:], func(v models.StatusValue) bool { return v == models.StatusNone })
		})
	default:
		return features
	}
}

// SelectedFeatures returns the features of one group (universal or not) that pass the
// status selector and, when selected is non-empty, are part of the selection (by id).
// Relative order is preserved.
func SelectedFeatures(features []models.Feature, selector StatusSelector, universal bool, selected []models.Feature) []models.Feature {
	out := lo.Filter(FeaturesPerStatus(features, selector), func(f models.Feature, _ int) bool {
		return IsUniversal(f) == universal
	})

	if len(selected) == 0 {
		return out
	}
	return lo.Filter(out, func(f models.Feature, _ int) bool {
		return lo.ContainsBy(selected, func(s models.Feature) bool { return s.ID == f.ID })
	})
}

// SortByName returns a copy of features sorted alphabetically by name
func SortByName(features []models.Feature) []models.Feature {
	out := append([]models.Feature(nil), features...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
