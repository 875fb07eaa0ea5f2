package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"feature-dashboard/src/models"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]recorded) {
	t.Helper()
	var mu sync.Mutex
	calls := &[]recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		*calls = append(*calls, recorded{r.Method, r.URL.Path, r.URL.RawQuery, string(body)})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := New(Endpoints{
		CMSClients:     srv.URL + "/clients",
		Features:       srv.URL + "/features",
		OverviewBase:   srv.URL + "/overview",
		Configurations: srv.URL + "/configurations",
		Usages:         srv.URL + "/usages",
	}, Options{Timeout: 2 * time.Second, BreakerFailures: 2, BreakerTimeout: time.Minute})
	return c, calls
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestReadEndpoints(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/clients":
			writeJSON(w, 200, []models.Client{{ID: 1, Name: "Anzeiger"}})
		case "/clients/1/categories":
			writeJSON(w, 200, models.CmsCategories{ClientID: 1, Category: models.CmsCategory{ID: 5, Name: "Home"}})
		case "/clients/1/tags":
			writeJSON(w, 200, []models.CmsTag{{ID: 9, Name: "Wahl", Type: models.CmsTypeEvent}})
		case "/features":
			writeJSON(w, 200, []models.CatalogFeature{{ID: 3, Name: "Cleverpush", Key: "cleverpush"}})
		case "/features/3":
			writeJSON(w, 200, models.CatalogFeature{ID: 3, Key: "cleverpush", JSONSchema: json.RawMessage(`{"type":"object"}`)})
		case "/overview/1":
			writeJSON(w, 200, []models.Feature{{ID: 3, Key: "cleverpush", Status: models.Status{Client: models.StatusEnabled}}})
		case "/configurations/client/1/feature/3":
			writeJSON(w, 200, []models.Configuration{{ID: 11, Name: "Standard"}})
		case "/usages/client/1/feature/3":
			writeJSON(w, 200, []models.Usage{{ID: models.UsageID{ClientID: 1, ConfigurationID: 11}, Active: true}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	clients, err := c.Clients(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Anzeiger", clients[0].Name)

	cats, err := c.Categories(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, cats.Category.ID)

	tags, err := c.Tags(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.CmsTypeEvent, tags[0].Type)

	features, err := c.Features(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cleverpush", features[0].Key)

	feature, err := c.Feature(ctx, 3)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object"}`, string(feature.JSONSchema))

	overview, err := c.Overview(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEnabled, overview[0].Status.Client)

	configs, err := c.Configurations(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 11, configs[0].ID)

	usages, err := c.Usages(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, usages[0].Active)

	assert.Len(t, *calls, 8)
}

func TestStatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such client", http.StatusNotFound)
	})

	_, err := c.Overview(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "/overview/99")
}

func TestUsageWrites(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":{"clientId":0,"categoryId":123,"tagId":0,"configurationId":11},"active":true}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	created, err := c.CreateUsage(ctx, models.Usage{ID: models.UsageID{CategoryID: 123, ConfigurationID: 11}, Active: true})
	require.NoError(t, err)
	assert.Equal(t, 123, created.ID.CategoryID)

	target := models.UsageTarget{Level: models.TableViewCategory, ID: 456, ConfigurationID: 11}
	require.NoError(t, c.UpdateUsage(ctx, target, models.Usage{ID: models.UsageID{CategoryID: 123, ConfigurationID: 11}}))
	require.NoError(t, c.DeleteUsage(ctx, models.UsageTarget{Level: models.TableViewTag, ID: 9, ConfigurationID: 13}))

	require.Len(t, *calls, 3)
	assert.Equal(t, "/usages/", (*calls)[0].path)
	assert.JSONEq(t, `{"id":{"clientId":0,"categoryId":123,"tagId":0,"configurationId":11},"active":true}`, (*calls)[0].body)

	assert.Equal(t, http.MethodPut, (*calls)[1].method)
	assert.Equal(t, "/usages", (*calls)[1].path)
	assert.Equal(t, "category-id=456&configuration-id=11", (*calls)[1].query)
	assert.JSONEq(t, `{"id":{"clientId":0,"categoryId":456,"tagId":0,"configurationId":11},"active":false}`, (*calls)[1].body)

	assert.Equal(t, http.MethodDelete, (*calls)[2].method)
	assert.Equal(t, "configuration-id=13&tag-id=9", (*calls)[2].query)
	assert.Empty(t, (*calls)[2].body)
}

func TestConfigurationWrites(t *testing.T) {
	c, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusCreated, models.Configuration{ID: 42, Name: "Neu", ClientID: 1, FeatureID: 3})
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	created, err := c.CreateConfiguration(ctx, models.CreateConfigurationRequest{
		Name: "Neu", ClientID: 1, FeatureID: 3, Settings: json.RawMessage(`{"enabled":true}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 42, created.ID)
	assert.JSONEq(t, `{"name":"Neu","clientId":1,"featureId":3,"settings":{"enabled":true}}`, (*calls)[0].body)

	updated, err := c.UpdateConfiguration(ctx, models.Configuration{ID: 42, Name: "Umbenannt", Settings: json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Equal(t, "Umbenannt", updated.Name)
	assert.Equal(t, "/configurations/42", (*calls)[1].path)
}

func TestCoalescesIdenticalGets(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		writeJSON(w, 200, []models.CatalogFeature{{ID: 1}})
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			features, err := c.Features(context.Background())
			assert.NoError(t, err)
			assert.Len(t, features, 1)
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
}

func TestCoalescedGetSurvivesCanceledLeader(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		writeJSON(w, 200, []models.CatalogFeature{{ID: 1}})
	})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.Features(leaderCtx)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 10*time.Millisecond)

	type result struct {
		features []models.CatalogFeature
		err      error
	}
	follower := make(chan result, 1)
	go func() {
		features, err := c.Features(context.Background())
		follower <- result{features, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(release)
	res := <-follower
	require.NoError(t, res.err)
	assert.Len(t, res.features, 1)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCircuitBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := c.Features(ctx)
		assert.True(t, IsStatus(err, http.StatusBadGateway))
	}

	_, err := c.Features(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), hits.Load())

	// the CMS breaker is independent
	_, err = c.Clients(ctx)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 4; i++ {
		_, err := c.Feature(context.Background(), 1)
		assert.True(t, IsNotFound(err))
	}
}
