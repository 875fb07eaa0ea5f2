// Package viewstate holds the per-session state of the dashboard views: the
// shared filter store, the URL query synchronizer, the expanded configuration
// list and the usage confirmation flows.
package viewstate

import (
	"sync"

	"feature-dashboard/src/filter"
	"feature-dashboard/src/models"
)

// Store is the application state shared by the views of one session.
// Read it through the selector methods and change it through the actions.
type Store struct {
	mu sync.RWMutex

	clients          []models.Client
	clientsLoading   bool
	clientsLoaded    bool
	featureList      []models.Feature
	filteredClients  []models.Client
	filteredFeatures []models.Feature
	featureStatus    filter.StatusSelector
	clientIDInView   int
	featuresLoaded   map[int]bool
}

// NewStore creates an empty store in loading state
func NewStore() *Store {
	return &Store{
		clients:        []models.Client{},
		clientsLoading: true,
		featureStatus:  filter.StatusAll,
		featuresLoaded: make(map[int]bool),
	}
}

// Clients returns the loaded clients
func (s *Store) Clients() []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Client(nil), s.clients...)
}

// ClientsLoading reports whether the client list is still being fetched
func (s *Store) ClientsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientsLoading
}

// ClientsLoaded reports whether a client list load has finished at least once
func (s *Store) ClientsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientsLoaded
}

// FeatureList returns the feature catalog
func (s *Store) FeatureList() []models.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Feature(nil), s.featureList...)
}

// FilteredClients returns the chosen clients
func (s *Store) FilteredClients() []models.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Client(nil), s.filteredClients...)
}

// FilteredFeatures returns the chosen features
func (s *Store) FilteredFeatures() []models.Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Feature(nil), s.filteredFeatures...)
}

// FeatureStatus returns the status selector
func (s *Store) FeatureStatus() filter.StatusSelector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.featureStatus
}

// ClientIDInView returns the client of the open detail view, 0 when none
func (s *Store) ClientIDInView() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientIDInView
}

// Client returns the loaded client with id
func (s *Store) Client(id int) (models.Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		if c.ID == id {
			return c, true
		}
	}
	return models.Client{}, false
}

// FeatureByKey returns the catalog feature with key
func (s *Store) FeatureByKey(key string) (models.Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.featureList {
		if f.Key == key {
			return f, true
		}
	}
	return models.Feature{}, false
}

// StartLoadingClients marks the client list as being fetched
func (s *Store) StartLoadingClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientsLoading = true
}

// SetClients replaces the client list and ends the loading state
func (s *Store) SetClients(clients []models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients = append([]models.Client{}, clients...)
	s.clientsLoading = false
	s.clientsLoaded = true
}

// FeaturesLoaded reports whether the feature statuses of a client were fetched
func (s *Store) FeaturesLoaded(clientID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.featuresLoaded[clientID]
}

// SetClientFeatures replaces the feature statuses of one client
func (s *Store) SetClientFeatures(clientID int, features []models.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.featuresLoaded[clientID] = true
	for i := range s.clients {
		if s.clients[i].ID == clientID {
			s.clients[i].Features = append([]models.Feature{}, features...)
			return
		}
	}
}

// SetFeatureList replaces the feature catalog
func (s *Store) SetFeatureList(features []models.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.featureList = append([]models.Feature{}, features...)
}

// SetFilteredClients replaces the chosen clients
func (s *Store) SetFilteredClients(clients []models.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filteredClients = append([]models.Client(nil), clients...)
}

// SetFilteredFeatures replaces the chosen features
func (s *Store) SetFilteredFeatures(features []models.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filteredFeatures = append([]models.Feature(nil), features...)
}

// SetFeatureStatus replaces the status selector
func (s *Store) SetFeatureStatus(status filter.StatusSelector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.featureStatus = status
}

// SetClientIDInView records the client of the open detail view
func (s *Store) SetClientIDInView(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientIDInView = id
}
