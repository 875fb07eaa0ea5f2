package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"feature-dashboard/src/apiclient"
	"feature-dashboard/src/filter"
	"feature-dashboard/src/logging"
	"feature-dashboard/src/metrics"
	"feature-dashboard/src/models"
	"feature-dashboard/src/status"
	"feature-dashboard/src/viewstate"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Upstream is the subset of the API client the dashboard reads and writes through
type Upstream interface {
	Clients(ctx context.Context) ([]models.Client, error)
	Categories(ctx context.Context, clientID int) (models.CmsCategories, error)
	Tags(ctx context.Context, clientID int) ([]models.CmsTag, error)
	Features(ctx context.Context) ([]models.CatalogFeature, error)
	Overview(ctx context.Context, clientID int) ([]models.Feature, error)
	Feature(ctx context.Context, featureID int) (models.CatalogFeature, error)
	Configurations(ctx context.Context, clientID, featureID int) ([]models.Configuration, error)
	Usages(ctx context.Context, clientID, featureID int) ([]models.Usage, error)
	CreateConfiguration(ctx context.Context, req models.CreateConfigurationRequest) (models.Configuration, error)
	UpdateConfiguration(ctx context.Context, cfg models.Configuration) (models.Configuration, error)
	CreateUsage(ctx context.Context, usage models.Usage) (models.Usage, error)
	UpdateUsage(ctx context.Context, target models.UsageTarget, usage models.Usage) error
	DeleteUsage(ctx context.Context, target models.UsageTarget) error
}

// Usage flow actions
const (
	ActionEdit    = "edit"
	ActionToggle  = "toggle"
	ActionSave    = "save"
	ActionDelete  = "delete"
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
	ActionDismiss = "dismiss"
)

// Tab hints shown above the category and tag tables
const (
	AlertCategory = "Nicht konfigurierte Kategorien erhalten automatisch die Konfiguration des Mandanten/Tags"
	AlertTag      = "Nicht konfigurierte Tags erhalten automatisch die Konfiguration des Mandanten/der Kategorie"
)

// DashboardOptions tune the dashboard service
type DashboardOptions struct {
	Blacklist   []int
	Concurrency int
	Theme       status.Theme
}

// DashboardService builds the dashboard views from the upstream APIs and the session state
type DashboardService struct {
	api         Upstream
	validation  *ValidationService
	blacklist   []int
	concurrency int
	theme       status.Theme
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(api Upstream, validation *ValidationService, opts DashboardOptions) *DashboardService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.Theme == (status.Theme{}) {
		opts.Theme = status.DefaultTheme()
	}
	return &DashboardService{
		api:         api,
		validation:  validation,
		blacklist:   opts.Blacklist,
		concurrency: opts.Concurrency,
		theme:       opts.Theme,
	}
}

// LoadFeatureCatalog fills the session's feature list once. A failed read leaves it empty.
func (ds *DashboardService) LoadFeatureCatalog(ctx context.Context, sess *viewstate.Session) {
	if len(sess.Store.FeatureList()) > 0 {
		return
	}
	catalog, err := ds.api.Features(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Could not load feature catalog")
		return
	}
	sess.Store.SetFeatureList(lo.Map(catalog, func(f models.CatalogFeature, _ int) models.Feature {
		return f.Feature()
	}))
}

// LoadClients fills the session's client list and the feature statuses of every client.
//
// The client list is fetched while the session has none. Feature statuses are
// fetched for clients that have none yet and always for the client in view.
// Read failures are logged and leave the affected list empty; LoadClients itself never fails.
func (ds *DashboardService) LoadClients(ctx context.Context, sess *viewstate.Session) {
	store := sess.Store

	if !store.ClientsLoaded() || len(store.Clients()) == 0 {
		store.StartLoadingClients()
		raw, err := ds.api.Clients(ctx)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Could not load clients")
		}
		store.SetClients(filter.SanitizeClients(raw, ds.blacklist))
	}

	inView := store.ClientIDInView()
	// no shared context: one failing overview must not cancel the others
	var g errgroup.Group
	g.SetLimit(ds.concurrency)
	for _, c := range store.Clients() {
		if store.FeaturesLoaded(c.ID) && c.ID != inView {
			continue
		}
		clientID := c.ID
		g.Go(func() error {
			features, err := ds.api.Overview(ctx, clientID)
			if err != nil {
				logging.Ctx(ctx).Error().Err(err).Int("client_id", clientID).Msg("Could not load client features")
				return nil
			}
			store.SetClientFeatures(clientID, features)
			return nil
		})
	}
	//nolint:errcheck // each overview logs its own failure and returns nil
	g.Wait()
}

// ClientList builds the main list of the session
func (ds *DashboardService) ClientList(ctx context.Context, sess *viewstate.Session) models.ClientListView {
	ds.LoadFeatureCatalog(ctx, sess)
	ds.LoadClients(ctx, sess)
	sess.Query.Hydrate(sess.Store)

	store := sess.Store
	all := store.Clients()
	shown := filter.ShownClients(all, store.FilteredClients())
	selector := store.FeatureStatus()
	selected := store.FilteredFeatures()
	filterQuery := sess.Query.FilterQuery()

	cards := lo.Map(shown, func(c models.Client, _ int) models.ClientCard {
		universal := filter.SelectedFeatures(c.Features, selector, true, selected)
		rest := filter.SortByName(filter.SelectedFeatures(c.Features, selector, false, selected))
		return models.ClientCard{
			ID:        c.ID,
			Name:      c.Name,
			Anchor:    ClientAnchor(c.ID),
			Universal: ds.buttons(c.ID, universal, filterQuery),
			Features:  ds.buttons(c.ID, rest, filterQuery),
		}
	})

	return models.ClientListView{
		Loading:  store.ClientsLoading(),
		Total:    len(all),
		Shown:    len(shown),
		Status:   statusName(selector),
		Location: location("/", sess.Query.Location(), ""),
		Clients:  cards,
	}
}

func (ds *DashboardService) buttons(clientID int, features []models.Feature, query url.Values) []models.FeatureButton {
	return lo.Map(features, func(f models.Feature, _ int) models.FeatureButton {
		colors := status.ButtonColor(f.Status.Client, ds.theme)
		return models.FeatureButton{
			ID:           f.ID,
			Name:         f.Name,
			Key:          f.Key,
			Status:       f.Status,
			Link:         location(fmt.Sprintf("/feature/%d/%s", clientID, f.Key), query, ""),
			Color:        colors.Color,
			BgColor:      colors.BgColor,
			CategoryTint: status.IconTint(f.Status.Category, ds.theme),
			TagTint:      status.IconTint(f.Status.Tag, ds.theme),
		}
	})
}

// Features returns the feature catalog of the session
func (ds *DashboardService) Features(ctx context.Context, sess *viewstate.Session) []models.Feature {
	ds.LoadFeatureCatalog(ctx, sess)
	return sess.Store.FeatureList()
}

// UpdateFilters replaces the filter selections and writes them into the location.
// Nil lists leave the selection unchanged, empty lists clear it.
func (ds *DashboardService) UpdateFilters(ctx context.Context, sess *viewstate.Session, req models.FilterRequest) models.FilterView {
	ds.LoadFeatureCatalog(ctx, sess)
	ds.LoadClients(ctx, sess)
	sess.Query.Hydrate(sess.Store)

	store := sess.Store
	if req.Clients != nil {
		store.SetFilteredClients(filter.ClientsByID(store.Clients(), req.Clients))
	}
	if req.Features != nil {
		store.SetFilteredFeatures(filter.FeaturesByName(store.FeatureList(), req.Features))
	}
	if req.Status != "" {
		store.SetFeatureStatus(filter.ParseStatusSelector(req.Status))
	}

	query, persisted := sess.Query.Persist(store)
	return models.FilterView{
		Clients:   lo.Map(store.FilteredClients(), func(c models.Client, _ int) int { return c.ID }),
		Features:  lo.Map(store.FilteredFeatures(), func(f models.Feature, _ int) string { return f.Name }),
		Status:    statusName(store.FeatureStatus()),
		Location:  location("/", query, ""),
		Persisted: persisted,
	}
}

// detailContext resolves the client and feature of a detail view and its cached data
type detailContext struct {
	client models.Client
	view   *viewstate.DetailView
	data   viewstate.DetailData
}

func (ds *DashboardService) resolveDetail(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, refresh bool) (*detailContext, error) {
	sess.Store.SetClientIDInView(clientID)
	ds.LoadFeatureCatalog(ctx, sess)
	ds.LoadClients(ctx, sess)

	client, ok := sess.Store.Client(clientID)
	if !ok {
		return nil, &NotFoundError{Resource: "client", Message: MsgClientNotFound}
	}
	feature, ok := sess.Store.FeatureByKey(featureKey)
	if !ok {
		return nil, &NotFoundError{Resource: "feature", Message: MsgFeatureNotFound}
	}

	view := sess.Detail(clientID, featureKey)
	data, cached := view.Data()
	if !cached || refresh {
		var err error
		if data, err = ds.fetchDetail(ctx, clientID, feature.ID); err != nil {
			logging.Ctx(ctx).Error().Err(err).
				Int("client_id", clientID).
				Int("feature_id", feature.ID).
				Msg("Could not get feature details")
			return nil, &UserError{Message: MsgDetailFailed, Err: err}
		}
		view.SetData(data)
	}
	return &detailContext{client: client, view: view, data: data}, nil
}

// fetchDetail reads the feature, its configurations and usages, and the client's
// categories and tags. Categories and tags degrade to empty lists.
func (ds *DashboardService) fetchDetail(ctx context.Context, clientID, featureID int) (viewstate.DetailData, error) {
	var data viewstate.DetailData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f, err := ds.api.Feature(gctx, featureID)
		data.Feature = f
		return err
	})
	g.Go(func() error {
		configs, err := ds.api.Configurations(gctx, clientID, featureID)
		data.Configurations = configs
		return err
	})
	g.Go(func() error {
		usages, err := ds.api.Usages(gctx, clientID, featureID)
		data.Usages = usages
		return err
	})
	g.Go(func() error {
		cats, err := ds.api.Categories(gctx, clientID)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Int("client_id", clientID).Msg("Could not load categories")
			data.Categories = []models.CategoryMap{}
			return nil
		}
		data.Categories = filter.FlattenCategories(cats.Category)
		return nil
	})
	g.Go(func() error {
		tags, err := ds.api.Tags(gctx, clientID)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Int("client_id", clientID).Msg("Could not load tags")
			tags = []models.CmsTag{}
		}
		data.Tags = tags
		return nil
	})

	if err := g.Wait(); err != nil {
		return viewstate.DetailData{}, err
	}
	return data, nil
}

// FeatureDetail builds the configuration detail view of a client feature.
// Cached upstream data is reused unless refresh is set or a write invalidated it.
func (ds *DashboardService) FeatureDetail(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, refresh bool) (models.FeatureDetailView, error) {
	dc, err := ds.resolveDetail(ctx, sess, clientID, featureKey, refresh)
	if err != nil {
		return models.FeatureDetailView{}, err
	}
	return ds.detailView(sess, featureKey, dc), nil
}

func (ds *DashboardService) detailView(sess *viewstate.Session, featureKey string, dc *detailContext) models.FeatureDetailView {
	expanded := dc.view.Expanded()
	configs := filter.AttachUsages(dc.data.Configurations, dc.data.Usages)

	var featureStatus *models.Status
	if f, ok := lo.Find(dc.client.Features, func(f models.Feature) bool { return f.Key == featureKey }); ok {
		s := f.Status
		featureStatus = &s
	}

	tabs := lo.Map(models.TableViews, func(level models.TableView, _ int) models.UsageTab {
		rows := ds.rows(dc, level)
		usages := lo.Map(rows, func(r models.UsageRow, _ int) models.Usage { return r.Usage })
		tab := models.UsageTab{
			Level:       level,
			Count:       len(rows),
			StatusColor: status.UsageStatusColor(usages),
			Rows:        rows,
		}
		if featureStatus != nil {
			tab.FeatureStatus = levelStatus(*featureStatus, level)
		}
		switch level {
		case models.TableViewCategory:
			tab.AlertMessage = AlertCategory
		case models.TableViewTag:
			tab.AlertMessage = AlertTag
		}
		if flow, ok := dc.view.Flow(level); ok {
			tab.Flow = flow.View()
		}
		return tab
	})

	return models.FeatureDetailView{
		Client:  models.ClientRef{ID: dc.client.ID, Name: dc.client.Name},
		Feature: dc.data.Feature,
		Status:  featureStatus,
		Configurations: lo.Map(configs, func(c models.Configuration, _ int) models.ConfigurationView {
			return models.ConfigurationView{
				Configuration: c,
				Expanded:      lo.Contains(expanded, c.ID),
				UsageLabel:    status.CountUsages(c.Usages),
			}
		}),
		SelectedConfiguration: dc.view.SelectedConfiguration(),
		Expanded:              expanded,
		ActiveTab:             dc.view.ActiveTab(),
		Tabs:                  tabs,
		CloseLocation:         location("/", sess.Query.FilterQuery(), ClientAnchor(dc.client.ID)),
	}
}

// rows returns the usage rows of level, restricted to the selected configuration
func (ds *DashboardService) rows(dc *detailContext, level models.TableView) []models.UsageRow {
	var selected []int
	if id := dc.view.SelectedConfiguration(); id != 0 {
		selected = []int{id}
	}
	categoryNames := filter.CategoryNames(dc.data.Categories)
	tagNames := lo.SliceToMap(dc.data.Tags, func(t models.CmsTag) (int, string) { return t.ID, t.Name })

	usages := filter.UsagesForConfigurations(filter.SelectedUsages(dc.data.Usages, level), dc.data.Configurations, selected)
	return lo.Map(usages, func(u models.UsageWithConfigName, _ int) models.UsageRow {
		return models.UsageRow{
			UsageWithConfigName: u,
			CategoryName:        categoryNames[u.ID.CategoryID],
			TagName:             tagNames[u.ID.TagID],
		}
	})
}

// SetExpanded expands or collapses a configuration of the sidebar
func (ds *DashboardService) SetExpanded(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, configurationID int, expanded bool) (models.FeatureDetailView, error) {
	dc, err := ds.resolveDetail(ctx, sess, clientID, featureKey, false)
	if err != nil {
		return models.FeatureDetailView{}, err
	}
	action := viewstate.ExpandedAction{Type: viewstate.ExpandedRemove, ID: configurationID}
	if expanded {
		action.Type = viewstate.ExpandedAdd
	}
	dc.view.Dispatch(action)
	return ds.detailView(sess, featureKey, dc), nil
}

// SelectTab switches the usage table shown in the detail view
func (ds *DashboardService) SelectTab(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, level models.TableView) (models.FeatureDetailView, error) {
	dc, err := ds.resolveDetail(ctx, sess, clientID, featureKey, false)
	if err != nil {
		return models.FeatureDetailView{}, err
	}
	dc.view.SetActiveTab(level)
	return ds.detailView(sess, featureKey, dc), nil
}

// SelectConfiguration restricts the usage tables to one configuration. Zero shows all.
func (ds *DashboardService) SelectConfiguration(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, configurationID int) (models.FeatureDetailView, error) {
	dc, err := ds.resolveDetail(ctx, sess, clientID, featureKey, false)
	if err != nil {
		return models.FeatureDetailView{}, err
	}
	dc.view.SelectConfiguration(configurationID)
	return ds.detailView(sess, featureKey, dc), nil
}

// CreateConfiguration validates the settings against the feature schema and adds
// the configuration to the client feature in view. The new configuration is expanded.
func (ds *DashboardService) CreateConfiguration(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, form models.ConfigurationForm) (models.Configuration, error) {
	dc, err := ds.resolveDetail(ctx, sess, clientID, featureKey, false)
	if err != nil {
		return models.Configuration{}, err
	}
	if err := ds.validation.ValidateSettings(dc.data.Feature.JSONSchema, form.Settings); err != nil {
		return models.Configuration{}, err
	}

	created, err := ds.api.CreateConfiguration(ctx, models.CreateConfigurationRequest{
		Name:      form.Name,
		ClientID:  clientID,
		FeatureID: dc.data.Feature.ID,
		Settings:  normalizeSettings(form.Settings),
	})
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("client_id", clientID).Str("feature", featureKey).Msg("Could not create configuration")
		return models.Configuration{}, &UserError{Message: MsgConfigurationCreate, Err: err}
	}

	dc.view.Dispatch(viewstate.ExpandedAction{Type: viewstate.ExpandedAdd, ID: created.ID})
	dc.view.Invalidate()
	return created, nil
}

// UpdateConfiguration validates and replaces name and settings of a configuration
func (ds *DashboardService) UpdateConfiguration(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, configurationID int, form models.ConfigurationForm) (models.Configuration, error) {
	dc, err := ds.resolveDetail(ctx, sess, clientID, featureKey, false)
	if err != nil {
		return models.Configuration{}, err
	}
	cfg, ok := lo.Find(dc.data.Configurations, func(c models.Configuration) bool { return c.ID == configurationID })
	if !ok {
		return models.Configuration{}, &NotFoundError{Resource: "configuration", Message: MsgConfigurationMissing}
	}
	if err := ds.validation.ValidateSettings(dc.data.Feature.JSONSchema, form.Settings); err != nil {
		return models.Configuration{}, err
	}

	cfg.Name = form.Name
	cfg.Settings = normalizeSettings(form.Settings)
	cfg.Usages = nil
	updated, err := ds.api.UpdateConfiguration(ctx, cfg)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("configuration_id", configurationID).Msg("Could not update configuration")
		return models.Configuration{}, &UserError{Message: MsgConfigurationUpdate, Err: err}
	}

	dc.view.Invalidate()
	return updated, nil
}

// CreateUsage binds a configuration to a level of the client in view. On the
// client level the level id defaults to the client. The created level's tab is selected.
func (ds *DashboardService) CreateUsage(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, req models.CreateUsageRequest) (models.Usage, error) {
	dc, err := ds.resolveDetail(ctx, sess, clientID, featureKey, false)
	if err != nil {
		return models.Usage{}, err
	}

	levelID := req.LevelID
	if req.Level == models.TableViewClient && levelID == 0 {
		levelID = clientID
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	usage := models.Usage{
		ID:     models.UsageID{ConfigurationID: req.ConfigurationID}.WithTarget(req.Level, levelID),
		Active: active,
	}

	created, err := ds.api.CreateUsage(ctx, usage)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("client_id", clientID).Str("level", string(req.Level)).Msg("Could not create usage")
		if apiclient.IsStatus(err, http.StatusInternalServerError) {
			return models.Usage{}, &UserError{Message: MsgUsageExists, Err: err}
		}
		return models.Usage{}, &UserError{Message: MsgUsageCreate, Err: err}
	}

	dc.view.SetActiveTab(req.Level)
	dc.view.Invalidate()
	return created, nil
}

// UsageAction applies a flow action to the usage table of level and returns the flow state.
// edit and delete address a row by its row id.
func (ds *DashboardService) UsageAction(ctx context.Context, sess *viewstate.Session, clientID int, featureKey string, level models.TableView, action, rowID string) (models.UsageFlowView, error) {
	dc, err := ds.resolveDetail(ctx, sess, clientID, featureKey, false)
	if err != nil {
		return models.UsageFlowView{}, err
	}
	flow, ok := dc.view.Flow(level)
	if !ok {
		return models.UsageFlowView{}, &NotFoundError{Resource: "level", Message: fmt.Sprintf("unknown level %q", level)}
	}

	findRow := func() (models.UsageRow, error) {
		row, ok := lo.Find(ds.rows(dc, level), func(r models.UsageRow) bool { return r.RowID == rowID })
		if !ok {
			return models.UsageRow{}, &NotFoundError{Resource: "usage", Message: fmt.Sprintf("usage %q not found", rowID)}
		}
		return row, nil
	}

	switch action {
	case ActionEdit:
		row, ferr := findRow()
		if ferr != nil {
			return models.UsageFlowView{}, ferr
		}
		err = flow.Edit(row)
	case ActionToggle:
		err = flow.Toggle()
	case ActionSave:
		err = flow.RequestSave()
	case ActionDelete:
		row, ferr := findRow()
		if ferr != nil {
			return models.UsageFlowView{}, ferr
		}
		err = flow.RequestDelete(row)
	case ActionConfirm:
		err = flow.Confirm(ctx, &usageMutator{api: ds.api, level: level})
	case ActionCancel:
		flow.Cancel()
	case ActionDismiss:
		err = flow.Dismiss()
	default:
		return models.UsageFlowView{}, fmt.Errorf("unknown usage action %q: %w", action, viewstate.ErrInvalidTransition)
	}

	view := flow.View()
	if err != nil && !IsUserError(err) {
		return view, err
	}
	return view, nil
}

// usageMutator performs the confirmed usage writes and records their outcome
type usageMutator struct {
	api   Upstream
	level models.TableView
}

func (m *usageMutator) UpdateUsage(ctx context.Context, target models.UsageTarget, usage models.Usage) error {
	err := m.api.UpdateUsage(ctx, target, usage)
	metrics.RecordUsageConfirmation(string(m.level), "update", err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("level", string(m.level)).Int("id", target.ID).Msg("Could not update usage")
		return &UserError{Message: MsgUsageUpdate, Err: err}
	}
	return nil
}

func (m *usageMutator) DeleteUsage(ctx context.Context, target models.UsageTarget) error {
	err := m.api.DeleteUsage(ctx, target)
	metrics.RecordUsageConfirmation(string(m.level), "delete", err)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("level", string(m.level)).Int("id", target.ID).Msg("Could not delete usage")
		return &UserError{Message: MsgUsageDelete, Err: err}
	}
	return nil
}

// ClientAnchor is the fragment id of a client card
func ClientAnchor(clientID int) string {
	return "id-clt-" + strconv.Itoa(clientID)
}

func levelStatus(s models.Status, level models.TableView) models.StatusValue {
	switch level {
	case models.TableViewCategory:
		return s.Category
	case models.TableViewTag:
		return s.Tag
	}
	return s.Client
}

func statusName(s filter.StatusSelector) string {
	if s == filter.StatusAll {
		return "ALL"
	}
	return string(s)
}

func location(path string, query url.Values, fragment string) string {
	u := url.URL{Path: path, RawQuery: query.Encode(), Fragment: fragment}
	return u.String()
}

// IsInvalidTransition reports whether a flow action did not apply to the current state
func IsInvalidTransition(err error) bool {
	return errors.Is(err, viewstate.ErrInvalidTransition)
}
