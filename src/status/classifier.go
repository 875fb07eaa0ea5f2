// Package status maps feature and usage activation states to display tokens.
package status

import (
	"feature-dashboard/src/models"

	"github.com/samber/lo"
)

// Palette is a main/light color pair of the theme
type Palette struct {
	Main  string `json:"main"`
	Light string `json:"light,omitempty"`
}

// Theme carries the palette tokens the classifier draws from
type Theme struct {
	Success    Palette
	Warning    Palette
	Error      Palette
	MediumGray Palette
	LightGray  Palette
}

// DefaultTheme returns the dashboard palette
func DefaultTheme() Theme {
	return Theme{
		Success:    Palette{Main: "#319e7d", Light: "#e4f1ed"},
		Warning:    Palette{Main: "#fdad0d"},
		Error:      Palette{Main: "#f15653", Light: "#fde8e7"},
		MediumGray: Palette{Main: "#616161", Light: "#e6e6e6"},
		LightGray:  Palette{Main: "#a5a5a5"},
	}
}

// ButtonColors is the foreground/background pair of a feature button
type ButtonColors struct {
	BgColor string `json:"bgColor"`
	Color   string `json:"color"`
}

// ButtonColor returns the button colors for a client-level status.
// Only ENABLED is highlighted; the mixed state is not distinguished here.
func ButtonColor(status models.StatusValue, theme Theme) ButtonColors {
	switch status {
	case models.StatusEnabled:
		return ButtonColors{BgColor: theme.Success.Light, Color: theme.Success.Main}
	case models.StatusDisabled, models.StatusNone:
		return ButtonColors{BgColor: theme.MediumGray.Light, Color: theme.MediumGray.Main}
	default:
		return ButtonColors{BgColor: theme.MediumGray.Light, Color: theme.MediumGray.Main}
	}
}

// IconTint returns the tint of the category/tag icon for a status
func IconTint(status models.StatusValue, theme Theme) string {
	switch status {
	case models.StatusEnabled:
		return theme.Success.Main
	case models.StatusDisabled:
		return theme.Error.Main
	case models.StatusEnabledAndDisabled:
		return theme.Warning.Main
	default:
		return theme.LightGray.Main
	}
}

// Palette names used for the usage tab icons
const (
	ColorGreen     = "id_green"
	ColorOrange    = "id_orange"
	ColorRed       = "id_red"
	ColorLightGray = "id_lightGray"
)

// UsageStatusColor returns the palette name summarizing the active flags of usages
func UsageStatusColor(usages []models.Usage) string {
	label := CountUsages(usages)
	switch {
	case label.Active > 0 && label.Inactive > 0:
		return ColorOrange
	case label.Active > 0:
		return ColorGreen
	case label.Inactive > 0:
		return ColorRed
	}
	return ColorLightGray
}

// CountUsages counts active and inactive usages
func CountUsages(usages []models.Usage) models.UsageLabel {
	active := lo.CountBy(usages, func(u models.Usage) bool { return u.Active })
	return models.UsageLabel{Active: active, Inactive: len(usages) - active}
}

// AggregateStatus derives the level status from the usages on that level
func AggregateStatus(usages []models.Usage) models.StatusValue {
	switch UsageStatusColor(usages) {
	case ColorOrange:
		return models.StatusEnabledAndDisabled
	case ColorGreen:
		return models.StatusEnabled
	case ColorRed:
		return models.StatusDisabled
	}
	return models.StatusNone
}
