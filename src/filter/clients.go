package filter

import (
	"sort"
	"strings"

	"feature-dashboard/src/models"

	"github.com/samber/lo"
)

// SanitizeClients drops clients without a name or on the blacklist and sorts the
// rest by name. Every client gets an empty feature list.
func SanitizeClients(clients []models.Client, blacklist []int) []models.Client {
	out := lo.FilterMap(clients, func(c models.Client, _ int) (models.Client, bool) {
		if c.Name == "" || lo.Contains(blacklist, c.ID) {
			return models.Client{}, false
		}
		return models.Client{ID: c.ID, Name: c.Name, Features: []models.Feature{}}, true
	})
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// ShownClients returns the selected clients, or all clients when nothing is selected.
// Selected clients are taken from all so their feature statuses are current.
func ShownClients(all, selected []models.Client) []models.Client {
	if len(selected) == 0 {
		return all
	}
	return lo.Filter(all, func(c models.Client, _ int) bool {
		return lo.ContainsBy(selected, func(s models.Client) bool { return s.ID == c.ID })
	})
}

// ClientsByID returns the clients whose id is in ids, in client order
func ClientsByID(clients []models.Client, ids []int) []models.Client {
	return lo.Filter(clients, func(c models.Client, _ int) bool {
		return lo.Contains(ids, c.ID)
	})
}

// FeaturesByName returns the catalog features whose name is in names, in catalog order
func FeaturesByName(features []models.Feature, names []string) []models.Feature {
	return lo.Filter(features, func(f models.Feature, _ int) bool {
		return lo.Contains(names, f.Name)
	})
}
