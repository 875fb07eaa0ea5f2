package filter

import (
	"testing"

	"feature-dashboard/src/models"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func status(client, category, tag models.StatusValue) models.Status {
	return models.Status{Client: client, Category: category, Tag: tag}
}

var mockedFeatures = []models.Feature{
	{ID: 1, Name: "Traffective", Key: "traffective",
		Status: status(models.StatusEnabled, models.StatusNone, models.StatusEnabled)},
	{ID: 2, Name: "In Article Reco", Key: "inArticleReco",
		Status: status(models.StatusDisabled, models.StatusDisabled, models.StatusDisabled)},
	{ID: 3, Name: "Cleverpush", Key: "cleverpush",
		Status: status(models.StatusEnabled, models.StatusNone, models.StatusNone)},
}

func featureIDs(features []models.Feature) []int {
	return lo.Map(features, func(f models.Feature, _ int) int { return f.ID })
}

func TestFeaturesPerStatus(t *testing.T) {
	t.Run("active", func(t *testing.T) {
		assert.Equal(t, []int{1, 3}, featureIDs(FeaturesPerStatus(mockedFeatures, StatusActive)))
	})

	t.Run("inactive", func(t *testing.T) {
		got := FeaturesPerStatus(mockedFeatures, StatusInactive)
		require.NotEmpty(t, got)
		assert.Equal(t, "inArticleReco", got[0].Key)
		// cleverpush has neither category nor tag configuration
		assert.Equal(t, []int{2, 3}, featureIDs(got))
	})

	t.Run("all is identity", func(t *testing.T) {
		assert.Equal(t, mockedFeatures, FeaturesPerStatus(mockedFeatures, StatusAll))
	})

	t.Run("mixed state counts both ways", func(t *testing.T) {
		mixed := []models.Feature{{ID: 9, Key: "x",
			Status: status(models.StatusEnabledAndDisabled, models.StatusEnabled, models.StatusEnabled)}}
		assert.Len(t, FeaturesPerStatus(mixed, StatusActive), 1)
		assert.Len(t, FeaturesPerStatus(mixed, StatusInactive), 1)
	})
}

func TestParseStatusSelector(t *testing.T) {
	assert.Equal(t, StatusActive, ParseStatusSelector("ACTIVE"))
	assert.Equal(t, StatusInactive, ParseStatusSelector("inactive"))
	assert.Equal(t, StatusAll, ParseStatusSelector("ALL"))
	assert.Equal(t, StatusAll, ParseStatusSelector(""))
	assert.Equal(t, StatusAll, ParseStatusSelector("bogus"))
}

func TestSelectedFeatures(t *testing.T) {
	features := append([]models.Feature{
		{ID: 10, Name: "Header", Key: "header", Status: status(models.StatusEnabled, models.StatusNone, models.StatusNone)},
		{ID: 11, Name: "Footer", Key: "footer", Status: status(models.StatusDisabled, models.StatusNone, models.StatusNone)},
	}, mockedFeatures...)

	t.Run("universal group", func(t *testing.T) {
		assert.Equal(t, []int{10, 11}, featureIDs(SelectedFeatures(features, StatusAll, true, nil)))
		assert.Equal(t, []int{10}, featureIDs(SelectedFeatures(features, StatusActive, true, nil)))
	})

	t.Run("other group", func(t *testing.T) {
		assert.Equal(t, []int{1, 2, 3}, featureIDs(SelectedFeatures(features, StatusAll, false, nil)))
	})

	t.Run("selection intersects by id", func(t *testing.T) {
		selected := []models.Feature{{ID: 3}, {ID: 2}, {ID: 10}}
		assert.Equal(t, []int{2, 3}, featureIDs(SelectedFeatures(features, StatusAll, false, selected)))
		assert.Equal(t, []int{3}, featureIDs(SelectedFeatures(features, StatusActive, false, selected)))
	})

	t.Run("selection outside the group is empty", func(t *testing.T) {
		assert.Empty(t, SelectedFeatures(features, StatusAll, true, []models.Feature{{ID: 1}}))
	})
}

func TestSortByName(t *testing.T) {
	sorted := SortByName(mockedFeatures)
	assert.Equal(t, []int{3, 2, 1}, featureIDs(sorted))
	// input untouched
	assert.Equal(t, []int{1, 2, 3}, featureIDs(mockedFeatures))
}

func TestSanitizeClients(t *testing.T) {
	clients := []models.Client{
		{ID: 3, Name: "Zeitung"},
		{ID: 1, Name: ""},
		{ID: 7, Name: "Blacklisted"},
		{ID: 2, Name: "Anzeiger", Features: []models.Feature{{ID: 1}}},
	}

	got := SanitizeClients(clients, []int{7})
	require.Len(t, got, 2)
	assert.Equal(t, "Anzeiger", got[0].Name)
	assert.Equal(t, "Zeitung", got[1].Name)
	assert.NotNil(t, got[0].Features)
	assert.Empty(t, got[0].Features)
}

func TestShownClients(t *testing.T) {
	all := []models.Client{{ID: 1}, {ID: 2}}
	assert.Equal(t, all, ShownClients(all, nil))
	assert.Equal(t, []models.Client{{ID: 2}}, ShownClients(all, []models.Client{{ID: 2}}))
}

func TestClientsAndFeaturesByKey(t *testing.T) {
	clients := []models.Client{{ID: 1}, {ID: 2}, {ID: 3}}
	assert.Equal(t, []models.Client{{ID: 1}, {ID: 3}}, ClientsByID(clients, []int{3, 1, 99}))

	got := FeaturesByName(mockedFeatures, []string{"Cleverpush", "cleverpush", "Unknown"})
	assert.Equal(t, []int{3}, featureIDs(got))
}

// usages of the feature detail fixture: config 11 on two categories,
// config 12 on the client, config 13 on one category
var detailUsages = []models.Usage{
	{ID: models.UsageID{CategoryID: 123, ConfigurationID: 11}, Active: true},
	{ID: models.UsageID{CategoryID: 456, ConfigurationID: 11}, Active: true},
	{ID: models.UsageID{ClientID: 268, ConfigurationID: 12}, Active: true},
	{ID: models.UsageID{CategoryID: 789, ConfigurationID: 13}, Active: false},
}

func TestSelectedUsages(t *testing.T) {
	config11 := detailUsages[:2]
	assert.Empty(t, SelectedUsages(config11, models.TableViewClient))
	assert.Len(t, SelectedUsages(config11, models.TableViewCategory), 2)
	assert.Empty(t, SelectedUsages(config11, models.TableViewTag))

	assert.Len(t, SelectedUsages(detailUsages, models.TableViewCategory), 3)
	assert.Len(t, SelectedUsages(detailUsages, models.TableViewClient), 1)
	assert.Equal(t, detailUsages, SelectedUsages(detailUsages, "unknown"))
}

func TestAttachUsages(t *testing.T) {
	configs := []models.Configuration{{ID: 11, Name: "A"}, {ID: 12, Name: "B"}, {ID: 14, Name: "unused"}}

	got := AttachUsages(configs, detailUsages)
	require.Len(t, got, 3)
	assert.Len(t, got[0].Usages, 2)
	assert.Len(t, got[1].Usages, 1)
	assert.NotNil(t, got[2].Usages)
	assert.Empty(t, got[2].Usages)
	assert.Nil(t, configs[0].Usages)
}

func TestUsagesForConfigurations(t *testing.T) {
	configs := []models.Configuration{{ID: 11, Name: "Standard"}, {ID: 12, Name: "Sport"}}

	t.Run("no selection keeps all", func(t *testing.T) {
		got := UsagesForConfigurations(detailUsages, configs, nil)
		require.Len(t, got, 4)
		assert.Equal(t, "Standard", got[0].ConfigurationName)
		assert.Equal(t, "Sport", got[2].ConfigurationName)
		assert.Equal(t, "", got[3].ConfigurationName)
		assert.Equal(t, "11-0-123-0", got[0].RowID)
	})

	t.Run("selection restricts", func(t *testing.T) {
		got := UsagesForConfigurations(detailUsages, configs, []int{12})
		require.Len(t, got, 1)
		assert.Equal(t, 268, got[0].ID.ClientID)
	})
}

func TestRowID(t *testing.T) {
	u := models.Usage{ID: models.UsageID{TagID: 5, ConfigurationID: 2}}
	assert.Equal(t, "2-0-0-5", RowID(u))
}

func TestFlattenCategories(t *testing.T) {
	root := models.CmsCategory{ID: 1, Name: "Home", Children: []models.CmsCategory{
		{ID: 2, Name: "Sport", Children: []models.CmsCategory{
			{ID: 4, Name: "Fussball"},
		}},
		{ID: 3, Name: "Politik"},
	}}

	got := FlattenCategories(root)
	assert.Equal(t, []models.CategoryMap{
		{ID: 1, Name: "Home"},
		{ID: 2, Name: "Sport"},
		{ID: 4, Name: "Fussball"},
		{ID: 3, Name: "Politik"},
	}, got)

	names := CategoryNames(got)
	assert.Equal(t, "Fussball", names[4])
}

func TestFlattenCategoriesRepeatedID(t *testing.T) {
	root := models.CmsCategory{ID: 1, Name: "Home", Children: []models.CmsCategory{
		{ID: 2, Name: "Sport"},
		{ID: 2, Name: "Sport again", Children: []models.CmsCategory{{ID: 5, Name: "hidden"}}},
	}}

	got := FlattenCategories(root)
	assert.Equal(t, []models.CategoryMap{{ID: 1, Name: "Home"}, {ID: 2, Name: "Sport"}}, got)
}
