package contract

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"feature-dashboard/src/apiclient"
	"feature-dashboard/src/handlers"
	"feature-dashboard/src/models"
	"feature-dashboard/src/services"
	"feature-dashboard/src/storage"
	"feature-dashboard/src/viewstate"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServers starts the settings backend on a seeded database and the
// dashboard in front of it. The returned client keeps the session cookie.
func setupTestServers(t *testing.T) (string, *http.Client) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "contract.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, storage.RunMigrations(db, ""))

	fixture, err := storage.LoadFixture("../../fixtures/db.json")
	require.NoError(t, err)
	store := storage.NewSQLiteStore(db)
	require.NoError(t, store.Seed(context.Background(), fixture))

	configHandler := handlers.NewConfigHandler(services.NewConfigService(store, services.NewValidationService()))
	backendEcho := handlers.New()
	configHandler.Register(backendEcho.Group(""))
	backend := httptest.NewServer(backendEcho)
	t.Cleanup(backend.Close)

	api := apiclient.New(apiclient.Endpoints{
		CMSClients:     backend.URL + "/clients",
		Features:       backend.URL + "/features",
		OverviewBase:   backend.URL + "/overview",
		Configurations: backend.URL + "/configurations",
		Usages:         backend.URL + "/usages",
	}, apiclient.Options{Timeout: 5 * time.Second, BreakerFailures: 5, BreakerTimeout: time.Minute})

	dashboard := services.NewDashboardService(api, services.NewValidationService(), services.DashboardOptions{
		Blacklist: []int{20},
	})
	dashboardHandler := handlers.NewDashboardHandler(dashboard, viewstate.NewSessions(time.Hour), false)
	dashboardEcho := handlers.New()
	dashboardHandler.Register(dashboardEcho.Group("/api/v1"))
	frontend := httptest.NewServer(dashboardEcho)
	t.Cleanup(frontend.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return frontend.URL, &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func call(t *testing.T, client *http.Client, method, url, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// TestClientListContract tests GET /api/v1/clients with a session opened on a filter query
func TestClientListContract(t *testing.T) {
	base, client := setupTestServers(t)

	code, body := call(t, client, http.MethodGet, base+"/api/v1/clients?fltr-features=Cleverpush", "")
	require.Equal(t, http.StatusOK, code)

	var view models.ClientListView
	require.NoError(t, json.Unmarshal(body, &view))

	// blacklisted and unnamed clients are dropped
	assert.Equal(t, 1, view.Total)
	require.Len(t, view.Clients, 1)
	assert.Equal(t, 10, view.Clients[0].ID)
	assert.Empty(t, view.Clients[0].Universal)
	require.Len(t, view.Clients[0].Features, 1)
	assert.Equal(t, "/feature/10/cleverpush?fltr-features=Cleverpush", view.Clients[0].Features[0].Link)
	assert.Equal(t, models.StatusEnabledAndDisabled, view.Clients[0].Features[0].Status.Category)
}

// TestUsageEditContract walks a usage through edit, toggle, save and confirm
func TestUsageEditContract(t *testing.T) {
	base, client := setupTestServers(t)
	detail := base + "/api/v1/clients/10/features/cleverpush"
	actions := detail + "/usages/tag/"

	code, _ := call(t, client, http.MethodGet, detail, "")
	require.Equal(t, http.StatusOK, code)

	code, body := call(t, client, http.MethodPost, actions+"edit", `{"rowId": "3-0-0-1001"}`)
	require.Equal(t, http.StatusOK, code, string(body))
	var flow models.UsageFlowView
	require.NoError(t, json.Unmarshal(body, &flow))
	assert.Equal(t, "editing-row", flow.State)
	require.NotNil(t, flow.WorkingActive)
	assert.False(t, *flow.WorkingActive)

	code, _ = call(t, client, http.MethodPost, actions+"toggle", "")
	require.Equal(t, http.StatusOK, code)

	code, body = call(t, client, http.MethodPost, actions+"save", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &flow))
	assert.Equal(t, "confirm-pending", flow.State)
	assert.Contains(t, flow.DialogText, "Bundestagswahl")

	code, body = call(t, client, http.MethodPost, actions+"confirm", "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &flow))
	assert.Equal(t, "idle", flow.State)

	code, body = call(t, client, http.MethodGet, detail, "")
	require.Equal(t, http.StatusOK, code)
	var view models.FeatureDetailView
	require.NoError(t, json.Unmarshal(body, &view))
	require.Len(t, view.Tabs[2].Rows, 1)
	assert.True(t, view.Tabs[2].Rows[0].Active)
	assert.Equal(t, "Bundestagswahl", view.Tabs[2].Rows[0].TagName)
}

// TestConfigurationContract tests that a created configuration is visible to a refreshed detail view
func TestConfigurationContract(t *testing.T) {
	base, client := setupTestServers(t)
	detail := base + "/api/v1/clients/10/features/header"

	code, body := call(t, client, http.MethodPost, detail+"/configurations", `{"name": "Sticky", "settings": {"sticky": true}}`)
	require.Equal(t, http.StatusCreated, code, string(body))

	var created models.Configuration
	require.NoError(t, json.Unmarshal(body, &created))

	code, body = call(t, client, http.MethodPost, detail+"/usages", `{"configurationId": `+strconv.Itoa(created.ID)+`, "level": "category", "levelId": 103, "active": false}`)
	require.Equal(t, http.StatusCreated, code, string(body))

	code, body = call(t, client, http.MethodGet, detail+"?refresh=true", "")
	require.Equal(t, http.StatusOK, code)
	var view models.FeatureDetailView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Len(t, view.Configurations, 2)
	assert.Equal(t, models.TableViewCategory, view.ActiveTab)
	require.Len(t, view.Tabs[1].Rows, 1)
	assert.Equal(t, "Fußball", view.Tabs[1].Rows[0].CategoryName)
	assert.Equal(t, "Sticky", view.Tabs[1].Rows[0].ConfigurationName)
}
