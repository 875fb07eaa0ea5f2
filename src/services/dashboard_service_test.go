package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"feature-dashboard/src/apiclient"
	"feature-dashboard/src/models"
	"feature-dashboard/src/status"
	"feature-dashboard/src/viewstate"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	mu sync.Mutex

	clients        []models.Client
	overviews      map[int][]models.Feature
	catalog        []models.CatalogFeature
	configurations []models.Configuration
	usages         []models.Usage
	categories     models.CmsCategories
	tags           []models.CmsTag

	clientsErr  error
	catalogErr  error
	overviewErr error
	failing     map[int]bool
	detailErr   error
	writeErr    error

	overviewCalls map[int]int
	clientCalls   int
	detailCalls   int
	createdConfig *models.CreateConfigurationRequest
	updatedConfig *models.Configuration
	createdUsage  *models.Usage
	updatedUsage  *models.UsageTarget
	deletedUsage  *models.UsageTarget
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		clients: []models.Client{
			{ID: 2, Name: "Zeitung"},
			{ID: 1, Name: "Anzeiger"},
			{ID: 3, Name: ""},
			{ID: 99, Name: "Intern"},
		},
		overviews: map[int][]models.Feature{
			1: {
				{ID: 10, Name: "Header", Key: "header", Status: models.Status{Client: models.StatusEnabled, Category: models.StatusNone, Tag: models.StatusNone}},
				{ID: 12, Name: "Paywall", Key: "paywall", Status: models.Status{Client: models.StatusDisabled, Category: models.StatusNone, Tag: models.StatusNone}},
				{ID: 11, Name: "Cleverpush", Key: "cleverpush", Status: models.Status{Client: models.StatusEnabled, Category: models.StatusEnabledAndDisabled, Tag: models.StatusDisabled}},
			},
			2: {
				{ID: 11, Name: "Cleverpush", Key: "cleverpush", Status: models.Status{Client: models.StatusNone, Category: models.StatusNone, Tag: models.StatusNone}},
			},
		},
		catalog: []models.CatalogFeature{
			{ID: 10, Name: "Header", Key: "header"},
			{ID: 11, Name: "Cleverpush", Key: "cleverpush", JSONSchema: json.RawMessage(`{"type":"object","properties":{"channel":{"type":"string"}},"required":["channel"]}`)},
			{ID: 12, Name: "Paywall", Key: "paywall"},
		},
		configurations: []models.Configuration{
			{ID: 21, Name: "Standard", ClientID: 1, FeatureID: 11, Settings: json.RawMessage(`{"channel":"a"}`)},
			{ID: 22, Name: "Sport", ClientID: 1, FeatureID: 11, Settings: json.RawMessage(`{"channel":"b"}`)},
		},
		usages: []models.Usage{
			{ID: models.UsageID{ClientID: 1, ConfigurationID: 21}, Active: true},
			{ID: models.UsageID{CategoryID: 501, ConfigurationID: 22}, Active: true},
			{ID: models.UsageID{CategoryID: 502, ConfigurationID: 21}, Active: false},
			{ID: models.UsageID{TagID: 701, ConfigurationID: 22}, Active: false},
		},
		categories: models.CmsCategories{ClientID: 1, Category: models.CmsCategory{
			ID: 500, Name: "Home", Children: []models.CmsCategory{
				{ID: 501, Name: "Sport"},
				{ID: 502, Name: "Politik"},
			},
		}},
		tags:          []models.CmsTag{{ID: 701, Name: "Wahl", Type: models.CmsTypeEvent}},
		overviewCalls: make(map[int]int),
	}
}

func (f *fakeUpstream) Clients(ctx context.Context) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clientCalls++
	if f.clientsErr != nil {
		return nil, f.clientsErr
	}
	return f.clients, nil
}

func (f *fakeUpstream) Categories(ctx context.Context, clientID int) (models.CmsCategories, error) {
	return f.categories, nil
}

func (f *fakeUpstream) Tags(ctx context.Context, clientID int) ([]models.CmsTag, error) {
	return f.tags, nil
}

func (f *fakeUpstream) Features(ctx context.Context) ([]models.CatalogFeature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalog, nil
}

func (f *fakeUpstream) Overview(ctx context.Context, clientID int) ([]models.Feature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overviewCalls[clientID]++
	if f.overviewErr != nil || f.failing[clientID] {
		return nil, f.overviewErr
	}
	return f.overviews[clientID], nil
}

func (f *fakeUpstream) Feature(ctx context.Context, featureID int) (models.CatalogFeature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	if f.detailErr != nil {
		return models.CatalogFeature{}, f.detailErr
	}
	for _, c := range f.catalog {
		if c.ID == featureID {
			return c, nil
		}
	}
	return models.CatalogFeature{}, &apiclient.StatusError{Code: http.StatusNotFound}
}

func (f *fakeUpstream) Configurations(ctx context.Context, clientID, featureID int) ([]models.Configuration, error) {
	return f.configurations, nil
}

func (f *fakeUpstream) Usages(ctx context.Context, clientID, featureID int) ([]models.Usage, error) {
	return f.usages, nil
}

func (f *fakeUpstream) CreateConfiguration(ctx context.Context, req models.CreateConfigurationRequest) (models.Configuration, error) {
	f.createdConfig = &req
	if f.writeErr != nil {
		return models.Configuration{}, f.writeErr
	}
	return models.Configuration{ID: 23, Name: req.Name, ClientID: req.ClientID, FeatureID: req.FeatureID, Settings: req.Settings}, nil
}

func (f *fakeUpstream) UpdateConfiguration(ctx context.Context, cfg models.Configuration) (models.Configuration, error) {
	f.updatedConfig = &cfg
	return cfg, f.writeErr
}

func (f *fakeUpstream) CreateUsage(ctx context.Context, usage models.Usage) (models.Usage, error) {
	f.createdUsage = &usage
	return usage, f.writeErr
}

func (f *fakeUpstream) UpdateUsage(ctx context.Context, target models.UsageTarget, usage models.Usage) error {
	f.updatedUsage = &target
	return f.writeErr
}

func (f *fakeUpstream) DeleteUsage(ctx context.Context, target models.UsageTarget) error {
	f.deletedUsage = &target
	return f.writeErr
}

func newTestService(api *fakeUpstream) *DashboardService {
	return NewDashboardService(api, NewValidationService(), DashboardOptions{Blacklist: []int{99}, Concurrency: 2})
}

func TestClientList(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)

	view := ds.ClientList(context.Background(), sess)

	assert.False(t, view.Loading)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 2, view.Shown)
	assert.Equal(t, "ALL", view.Status)
	assert.Equal(t, "/", view.Location)
	require.Len(t, view.Clients, 2)

	card := view.Clients[0]
	assert.Equal(t, "Anzeiger", card.Name)
	assert.Equal(t, "id-clt-1", card.Anchor)
	require.Len(t, card.Universal, 1)
	assert.Equal(t, "header", card.Universal[0].Key)
	require.Len(t, card.Features, 2)
	assert.Equal(t, "Cleverpush", card.Features[0].Name)
	assert.Equal(t, "Paywall", card.Features[1].Name)

	theme := status.DefaultTheme()
	clever := card.Features[0]
	assert.Equal(t, "/feature/1/cleverpush", clever.Link)
	assert.Equal(t, theme.Success.Main, clever.Color)
	assert.Equal(t, theme.Success.Light, clever.BgColor)
	assert.Equal(t, theme.Warning.Main, clever.CategoryTint)
	assert.Equal(t, theme.Error.Main, clever.TagTint)

	assert.Equal(t, "Zeitung", view.Clients[1].Name)
}

func TestClientListCachesOverviews(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)
	ctx := context.Background()

	ds.ClientList(ctx, sess)
	ds.ClientList(ctx, sess)
	assert.Equal(t, 1, api.clientCalls)
	assert.Equal(t, 1, api.overviewCalls[1])
	assert.Equal(t, 1, api.overviewCalls[2])

	sess.Store.SetClientIDInView(2)
	ds.ClientList(ctx, sess)
	assert.Equal(t, 1, api.overviewCalls[1])
	assert.Equal(t, 2, api.overviewCalls[2])
}

func TestClientListDegradesOnReadErrors(t *testing.T) {
	api := newFakeUpstream()
	api.overviewErr = errors.New("boom")
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)

	view := ds.ClientList(context.Background(), sess)
	require.Len(t, view.Clients, 2)
	assert.Empty(t, view.Clients[0].Features)
	assert.False(t, sess.Store.FeaturesLoaded(1))

	api.clientsErr = errors.New("down")
	api.clients = nil
	empty := newTestService(api).ClientList(context.Background(), viewstate.NewSession("t", nil))
	assert.Equal(t, 0, empty.Total)
	assert.Empty(t, empty.Clients)
}

func TestClientListHydratesFromQuery(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	query := url.Values{viewstate.ParamClients: {"2"}, viewstate.ParamFeatures: {"Cleverpush"}}
	sess := viewstate.NewSession("s", query)

	view := ds.ClientList(context.Background(), sess)
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 1, view.Shown)
	require.Len(t, view.Clients, 1)
	assert.Equal(t, "Zeitung", view.Clients[0].Name)
	require.Len(t, view.Clients[0].Features, 1)
	assert.Contains(t, view.Clients[0].Features[0].Link, "fltr-clients=2")
}

func TestClientListHydratesAfterFailedLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("client list", func(t *testing.T) {
		api := newFakeUpstream()
		api.clientsErr = errors.New("down")
		api.catalogErr = errors.New("down")
		ds := newTestService(api)
		sess := viewstate.NewSession("s", url.Values{
			viewstate.ParamClients:  {"2"},
			viewstate.ParamFeatures: {"Cleverpush"},
		})

		view := ds.ClientList(ctx, sess)
		assert.Equal(t, 0, view.Total)
		assert.False(t, sess.Query.Hydrated())

		fv := ds.UpdateFilters(ctx, sess, models.FilterRequest{Status: "ACTIVE"})
		assert.False(t, fv.Persisted)
		assert.Equal(t, "/?fltr-clients=2&fltr-features=Cleverpush", fv.Location)

		api.mu.Lock()
		api.clientsErr, api.catalogErr = nil, nil
		api.mu.Unlock()

		view = ds.ClientList(ctx, sess)
		assert.True(t, sess.Query.Hydrated())
		assert.Equal(t, 2, view.Total)
		assert.Equal(t, 1, view.Shown)
		require.Len(t, view.Clients, 1)
		assert.Equal(t, 2, view.Clients[0].ID)
		assert.Equal(t, "/?fltr-clients=2&fltr-features=Cleverpush", view.Location)

		fv = ds.UpdateFilters(ctx, sess, models.FilterRequest{Status: "ALL"})
		assert.True(t, fv.Persisted)
		assert.Equal(t, []int{2}, fv.Clients)
		assert.Equal(t, []string{"Cleverpush"}, fv.Features)
		assert.Equal(t, "/?fltr-clients=2&fltr-features=Cleverpush", fv.Location)
	})

	t.Run("feature catalog", func(t *testing.T) {
		api := newFakeUpstream()
		api.catalogErr = errors.New("down")
		ds := newTestService(api)
		sess := viewstate.NewSession("s", url.Values{viewstate.ParamFeatures: {"Paywall"}})

		view := ds.ClientList(ctx, sess)
		assert.Equal(t, 2, view.Total)
		assert.False(t, sess.Query.Hydrated())
		assert.Empty(t, sess.Store.FilteredFeatures())

		api.mu.Lock()
		api.catalogErr = nil
		api.mu.Unlock()

		view = ds.ClientList(ctx, sess)
		assert.True(t, sess.Query.Hydrated())
		features := sess.Store.FilteredFeatures()
		require.Len(t, features, 1)
		assert.Equal(t, "Paywall", features[0].Name)
		require.Len(t, view.Clients, 2)
		require.Len(t, view.Clients[0].Features, 1)
		assert.Equal(t, "paywall", view.Clients[0].Features[0].Key)
	})
}

func TestClientListLoadsOverviewsIndependently(t *testing.T) {
	api := newFakeUpstream()
	api.failing = map[int]bool{2: true}
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)

	view := ds.ClientList(context.Background(), sess)
	require.Len(t, view.Clients, 2)
	assert.Len(t, view.Clients[0].Features, 2)
	assert.Empty(t, view.Clients[1].Features)
	assert.True(t, sess.Store.FeaturesLoaded(1))
	assert.False(t, sess.Store.FeaturesLoaded(2))

	api.mu.Lock()
	api.failing = nil
	api.mu.Unlock()

	view = ds.ClientList(context.Background(), sess)
	assert.Len(t, view.Clients[1].Features, 1)
	assert.Equal(t, 1, api.overviewCalls[1])
	assert.Equal(t, 2, api.overviewCalls[2])
}

func TestUpdateFilters(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)

	fv := ds.UpdateFilters(context.Background(), sess, models.FilterRequest{
		Clients:  []int{1},
		Features: []string{"Paywall", "Unbekannt"},
		Status:   "INACTIVE",
	})
	assert.True(t, fv.Persisted)
	assert.Equal(t, []int{1}, fv.Clients)
	assert.Equal(t, []string{"Paywall"}, fv.Features)
	assert.Equal(t, "INACTIVE", fv.Status)
	assert.Equal(t, "/?fltr-clients=1&fltr-features=Paywall", fv.Location)

	view := ds.ClientList(context.Background(), sess)
	require.Len(t, view.Clients, 1)
	require.Len(t, view.Clients[0].Features, 1)
	assert.Equal(t, "paywall", view.Clients[0].Features[0].Key)
	assert.Empty(t, view.Clients[0].Universal)

	fv = ds.UpdateFilters(context.Background(), sess, models.FilterRequest{Clients: []int{}})
	assert.Empty(t, fv.Clients)
	assert.Equal(t, "/?fltr-features=Paywall", fv.Location)
}

func TestFeatureDetail(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", url.Values{viewstate.ParamClients: {"1"}, "other": {"x"}})
	ctx := context.Background()

	view, err := ds.FeatureDetail(ctx, sess, 1, "cleverpush", false)
	require.NoError(t, err)

	assert.Equal(t, 1, sess.Store.ClientIDInView())
	assert.Equal(t, "Anzeiger", view.Client.Name)
	assert.Equal(t, 11, view.Feature.ID)
	require.NotNil(t, view.Status)
	assert.Equal(t, models.StatusEnabledAndDisabled, view.Status.Category)
	assert.Equal(t, models.TableViewClient, view.ActiveTab)
	assert.Equal(t, "/?fltr-clients=1#id-clt-1", view.CloseLocation)

	require.Len(t, view.Configurations, 2)
	assert.Equal(t, models.UsageLabel{Active: 1, Inactive: 1}, view.Configurations[0].UsageLabel)

	require.Len(t, view.Tabs, 3)
	client, category, tag := view.Tabs[0], view.Tabs[1], view.Tabs[2]
	assert.Equal(t, 1, client.Count)
	assert.Equal(t, status.ColorGreen, client.StatusColor)
	assert.Empty(t, client.AlertMessage)
	assert.Equal(t, 2, category.Count)
	assert.Equal(t, status.ColorOrange, category.StatusColor)
	assert.Equal(t, AlertCategory, category.AlertMessage)
	assert.Equal(t, "Sport", category.Rows[0].CategoryName)
	assert.Equal(t, "Sport", category.Rows[0].ConfigurationName)
	assert.Equal(t, 1, tag.Count)
	assert.Equal(t, "Wahl", tag.Rows[0].TagName)
	assert.Equal(t, status.ColorRed, tag.StatusColor)
	assert.Equal(t, models.StatusDisabled, tag.FeatureStatus)

	_, err = ds.FeatureDetail(ctx, sess, 1, "cleverpush", false)
	require.NoError(t, err)
	assert.Equal(t, 1, api.detailCalls)

	_, err = ds.FeatureDetail(ctx, sess, 1, "cleverpush", true)
	require.NoError(t, err)
	assert.Equal(t, 2, api.detailCalls)
}

func TestFeatureDetailSelectedConfiguration(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)

	sess.Detail(1, "cleverpush").SelectConfiguration(22)
	view, err := ds.FeatureDetail(context.Background(), sess, 1, "cleverpush", false)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Tabs[0].Count)
	assert.Equal(t, 1, view.Tabs[1].Count)
	assert.Equal(t, 1, view.Tabs[2].Count)
}

func TestFeatureDetailNotFound(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)

	_, err := ds.FeatureDetail(context.Background(), sess, 42, "cleverpush", false)
	require.True(t, IsNotFoundError(err))
	assert.Equal(t, MsgClientNotFound, err.Error())

	_, err = ds.FeatureDetail(context.Background(), sess, 1, "nope", false)
	require.True(t, IsNotFoundError(err))
	assert.Equal(t, MsgFeatureNotFound, err.Error())
}

func TestFeatureDetailUpstreamFailure(t *testing.T) {
	api := newFakeUpstream()
	api.detailErr = errors.New("boom")
	ds := newTestService(api)

	_, err := ds.FeatureDetail(context.Background(), viewstate.NewSession("s", nil), 1, "cleverpush", false)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, MsgDetailFailed, ue.UserMessage())
}

func TestCreateConfiguration(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)
	ctx := context.Background()

	_, err := ds.CreateConfiguration(ctx, sess, 1, "cleverpush", models.ConfigurationForm{Name: "Neu", Settings: json.RawMessage(`{}`)})
	require.True(t, IsSchemaValidationError(err))
	assert.Nil(t, api.createdConfig)

	created, err := ds.CreateConfiguration(ctx, sess, 1, "cleverpush", models.ConfigurationForm{Name: "Neu", Settings: json.RawMessage(`{"channel":"c"}`)})
	require.NoError(t, err)
	assert.Equal(t, 23, created.ID)
	require.NotNil(t, api.createdConfig)
	assert.Equal(t, 1, api.createdConfig.ClientID)
	assert.Equal(t, 11, api.createdConfig.FeatureID)

	detail := sess.Detail(1, "cleverpush")
	assert.Equal(t, []int{23}, detail.Expanded())
	_, cached := detail.Data()
	assert.False(t, cached)
}

func TestCreateConfigurationFailure(t *testing.T) {
	api := newFakeUpstream()
	api.writeErr = &apiclient.StatusError{Code: http.StatusBadRequest}
	ds := newTestService(api)

	_, err := ds.CreateConfiguration(context.Background(), viewstate.NewSession("s", nil), 1, "header", models.ConfigurationForm{Name: "Neu"})
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, MsgConfigurationCreate, ue.UserMessage())
	assert.JSONEq(t, `{}`, string(api.createdConfig.Settings))
}

func TestUpdateConfiguration(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)
	ctx := context.Background()

	_, err := ds.UpdateConfiguration(ctx, sess, 1, "cleverpush", 77, models.ConfigurationForm{Name: "x"})
	require.True(t, IsNotFoundError(err))
	assert.Equal(t, MsgConfigurationMissing, err.Error())

	updated, err := ds.UpdateConfiguration(ctx, sess, 1, "cleverpush", 22, models.ConfigurationForm{Name: "Sport+", Settings: json.RawMessage(`{"channel":"z"}`)})
	require.NoError(t, err)
	assert.Equal(t, "Sport+", updated.Name)
	assert.Nil(t, api.updatedConfig.Usages)

	api.writeErr = errors.New("down")
	_, err = ds.UpdateConfiguration(ctx, sess, 1, "cleverpush", 22, models.ConfigurationForm{Name: "Sport", Settings: json.RawMessage(`{"channel":"z"}`)})
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, MsgConfigurationUpdate, ue.UserMessage())
}

func TestCreateUsage(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)
	ctx := context.Background()

	_, err := ds.CreateUsage(ctx, sess, 1, "cleverpush", models.CreateUsageRequest{ConfigurationID: 22, Level: models.TableViewClient})
	require.NoError(t, err)
	assert.Equal(t, models.UsageID{ClientID: 1, ConfigurationID: 22}, api.createdUsage.ID)
	assert.True(t, api.createdUsage.Active)

	inactive := false
	_, err = ds.CreateUsage(ctx, sess, 1, "cleverpush", models.CreateUsageRequest{ConfigurationID: 22, Level: models.TableViewTag, LevelID: 702, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, models.UsageID{TagID: 702, ConfigurationID: 22}, api.createdUsage.ID)
	assert.False(t, api.createdUsage.Active)
	assert.Equal(t, models.TableViewTag, sess.Detail(1, "cleverpush").ActiveTab())
}

func TestCreateUsageFailures(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)
	req := models.CreateUsageRequest{ConfigurationID: 21, Level: models.TableViewClient}

	api.writeErr = &apiclient.StatusError{Code: http.StatusInternalServerError}
	_, err := ds.CreateUsage(context.Background(), sess, 1, "cleverpush", req)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, MsgUsageExists, ue.UserMessage())

	api.writeErr = &apiclient.StatusError{Code: http.StatusBadRequest}
	_, err = ds.CreateUsage(context.Background(), sess, 1, "cleverpush", req)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, MsgUsageCreate, ue.UserMessage())
}

func TestUsageActionEditAndConfirm(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)
	ctx := context.Background()
	level := models.TableViewCategory
	rowID := "22-0-501-0"

	view, err := ds.UsageAction(ctx, sess, 1, "cleverpush", level, ActionEdit, rowID)
	require.NoError(t, err)
	assert.Equal(t, string(viewstate.FlowEditingRow), view.State)

	_, err = ds.UsageAction(ctx, sess, 1, "cleverpush", level, ActionToggle, "")
	require.NoError(t, err)
	view, err = ds.UsageAction(ctx, sess, 1, "cleverpush", level, ActionSave, "")
	require.NoError(t, err)
	assert.Equal(t, "Willst du die Konfiguration auf der Kategorie Sport wirklich deaktivieren?", view.DialogText)

	view, err = ds.UsageAction(ctx, sess, 1, "cleverpush", level, ActionConfirm, "")
	require.NoError(t, err)
	assert.Equal(t, string(viewstate.FlowIdle), view.State)
	require.NotNil(t, api.updatedUsage)
	assert.Equal(t, 501, api.updatedUsage.ID)
	assert.Equal(t, 22, api.updatedUsage.ConfigurationID)

	_, cached := sess.Detail(1, "cleverpush").Data()
	assert.False(t, cached)
}

func TestUsageActionDeleteFailure(t *testing.T) {
	api := newFakeUpstream()
	ds := newTestService(api)
	sess := viewstate.NewSession("s", nil)
	ctx := context.Background()

	_, err := ds.UsageAction(ctx, sess, 1, "cleverpush", models.TableViewTag, ActionDelete, "22-0-0-701")
	require.NoError(t, err)

	api.writeErr = errors.New("down")
	view, err := ds.UsageAction(ctx, sess, 1, "cleverpush", models.TableViewTag, ActionConfirm, "")
	require.NoError(t, err)
	assert.Equal(t, string(viewstate.FlowError), view.State)
	assert.Equal(t, MsgUsageDelete, view.Error)

	view, err = ds.UsageAction(ctx, sess, 1, "cleverpush", models.TableViewTag, ActionDismiss, "")
	require.NoError(t, err)
	assert.Equal(t, string(viewstate.FlowIdle), view.State)
}

func TestUsageActionErrors(t *testing.T) {
	ds := newTestService(newFakeUpstream())
	sess := viewstate.NewSession("s", nil)
	ctx := context.Background()

	_, err := ds.UsageAction(ctx, sess, 1, "cleverpush", models.TableViewClient, ActionEdit, "0-0-0-0")
	assert.True(t, IsNotFoundError(err))

	_, err = ds.UsageAction(ctx, sess, 1, "cleverpush", models.TableViewClient, ActionSave, "")
	assert.True(t, IsInvalidTransition(err))

	_, err = ds.UsageAction(ctx, sess, 1, "cleverpush", models.TableViewClient, "explode", "")
	assert.True(t, IsInvalidTransition(err))
}
