package filter

import (
	"fmt"

	"feature-dashboard/src/models"

	"github.com/samber/lo"
)

// SelectedUsages keeps the usages targeting the given level. An unknown level returns the input.
func SelectedUsages(usages []models.Usage, level models.TableView) []models.Usage {
	if _, ok := models.ParseTableView(string(level)); !ok {
		return usages
	}
	return lo.Filter(usages, func(u models.Usage, _ int) bool {
		return u.ID.LevelID(level) != 0
	})
}

// AttachUsages returns copies of the configurations carrying the usages that reference them
func AttachUsages(configurations []models.Configuration, usages []models.Usage) []models.Configuration {
	byConfig := lo.GroupBy(usages, func(u models.Usage) int { return u.ID.ConfigurationID })
	return lo.Map(configurations, func(c models.Configuration, _ int) models.Configuration {
		c.Usages = byConfig[c.ID]
		if c.Usages == nil {
			c.Usages = []models.Usage{}
		}
		return c
	})
}

// UsagesForConfigurations decorates the usages with their configuration name.
// When selected is non-empty only usages of those configurations are kept.
// A usage whose configuration is unknown keeps an empty name.
func UsagesForConfigurations(usages []models.Usage, configurations []models.Configuration, selected []int) []models.UsageWithConfigName {
	names := lo.SliceToMap(configurations, func(c models.Configuration) (int, string) { return c.ID, c.Name })

	kept := usages
	if len(selected) > 0 {
		kept = lo.Filter(usages, func(u models.Usage, _ int) bool {
			return lo.Contains(selected, u.ID.ConfigurationID)
		})
	}

	return lo.Map(kept, func(u models.Usage, _ int) models.UsageWithConfigName {
		return models.UsageWithConfigName{
			Usage:             u,
			ConfigurationName: names[u.ID.ConfigurationID],
			RowID:             RowID(u),
		}
	})
}

// RowID is the stable row key of a usage in the level tables
func RowID(u models.Usage) string {
	return fmt.Sprintf("%d-%d-%d-%d", u.ID.ConfigurationID, u.ID.ClientID, u.ID.CategoryID, u.ID.TagID)
}
