package viewstate

import (
	"net/url"
	"strconv"
	"strings"
	"sync"

	"feature-dashboard/src/filter"
	"feature-dashboard/src/models"

	"github.com/samber/lo"
)

// Query parameters carrying the filter selections
const (
	ParamClients  = "fltr-clients"
	ParamFeatures = "fltr-features"
)

// QuerySync keeps the filter selections and the location query in step.
//
// Hydrate reads the initial query into the store once the client list has
// loaded non-empty; Persist writes the store back into the query. Persist is refused
// until hydration happened, unless the session started without any query.
type QuerySync struct {
	mu           sync.Mutex
	query        url.Values
	initialEmpty bool
	hydrated     bool
}

// NewQuerySync starts a synchronizer from the query the session was opened with
func NewQuerySync(initial url.Values) *QuerySync {
	q := url.Values{}
	for k, v := range initial {
		q[k] = append([]string(nil), v...)
	}
	return &QuerySync{query: q, initialEmpty: len(initial) == 0}
}

// Hydrated reports whether the load path has run
func (q *QuerySync) Hydrated() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.hydrated
}

// Hydrate initializes the store's filter selections from the query. It does
// nothing until the store holds a non-empty client list, and a feature
// selection additionally waits for the feature catalog. It runs only once and
// reports whether this call hydrated.
func (q *QuerySync) Hydrate(store *Store) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.hydrated || len(store.Clients()) == 0 {
		return false
	}
	names := splitParam(q.query, ParamFeatures)
	if len(names) > 0 && len(store.FeatureList()) == 0 {
		return false
	}

	if ids := parseIDs(splitParam(q.query, ParamClients)); len(ids) > 0 {
		store.SetFilteredClients(filter.ClientsByID(store.Clients(), ids))
	}
	if len(names) > 0 {
		store.SetFilteredFeatures(filter.FeaturesByName(store.FeatureList(), names))
	}

	q.hydrated = true
	return true
}

// Retarget replaces the filter parameters still waiting for hydration with
// those of query. It does nothing once the session has hydrated.
func (q *QuerySync) Retarget(query url.Values) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.hydrated {
		return
	}
	for _, k := range []string{ParamClients, ParamFeatures} {
		if v, ok := query[k]; ok {
			q.query[k] = append([]string(nil), v...)
			q.initialEmpty = false
		}
	}
}

// Persist rebuilds the query from the store's selections. The second result
// is false when persisting is not allowed yet; the query is left untouched then.
func (q *QuerySync) Persist(store *Store) (url.Values, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.hydrated && !q.initialEmpty {
		return cloneValues(q.query), false
	}

	next := url.Values{}
	for k, v := range q.query {
		if k != ParamClients && k != ParamFeatures {
			next[k] = v
		}
	}

	if clients := store.FilteredClients(); len(clients) > 0 {
		ids := lo.Map(clients, func(c models.Client, _ int) string { return strconv.Itoa(c.ID) })
		next.Set(ParamClients, strings.Join(ids, ","))
	}
	if features := store.FilteredFeatures(); len(features) > 0 {
		names := lo.Map(features, func(f models.Feature, _ int) string { return f.Name })
		next.Set(ParamFeatures, strings.Join(names, ","))
	}

	q.query = next
	return cloneValues(next), true
}

// Location returns the current query
func (q *QuerySync) Location() url.Values {
	q.mu.Lock()
	defer q.mu.Unlock()
	return cloneValues(q.query)
}

// FilterQuery returns only the filter parameters of the current query
func (q *QuerySync) FilterQuery() url.Values {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := url.Values{}
	for _, k := range []string{ParamClients, ParamFeatures} {
		if v, ok := q.query[k]; ok {
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}

// Selection returns the filter selections carried by query. A nil list means
// the parameter is absent; a present but empty parameter yields an empty list.
func Selection(query url.Values) (clients []int, features []string) {
	if _, ok := query[ParamClients]; ok {
		clients = append([]int{}, parseIDs(splitParam(query, ParamClients))...)
	}
	if _, ok := query[ParamFeatures]; ok {
		features = append([]string{}, splitParam(query, ParamFeatures)...)
	}
	return clients, features
}

// splitParam accepts both "a,b" and repeated parameters
func splitParam(query url.Values, key string) []string {
	var out []string
	for _, v := range query[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseIDs(values []string) []int {
	return lo.FilterMap(values, func(v string, _ int) (int, bool) {
		id, err := strconv.Atoi(v)
		return id, err == nil
	})
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
