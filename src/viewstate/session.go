package viewstate

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"feature-dashboard/src/models"

	"github.com/google/uuid"
)

// DetailData is the upstream data a detail view renders
type DetailData struct {
	Feature        models.CatalogFeature
	Configurations []models.Configuration
	Usages         []models.Usage
	Categories     []models.CategoryMap
	Tags           []models.CmsTag
}

// DetailView is the state of one open feature detail view
type DetailView struct {
	mu sync.Mutex

	expanded              []int
	activeTab             models.TableView
	selectedConfiguration int
	data                  *DetailData
	flows                 map[models.TableView]*UsageFlow
}

func newDetailView() *DetailView {
	d := &DetailView{
		expanded:  []int{},
		activeTab: models.TableViewClient,
		flows:     make(map[models.TableView]*UsageFlow, len(models.TableViews)),
	}
	for _, level := range models.TableViews {
		d.flows[level] = NewUsageFlow(level, d.markStale)
	}
	return d
}

// Dispatch applies an expanded-list action
func (d *DetailView) Dispatch(action ExpandedAction) []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expanded = ReduceExpanded(d.expanded, action)
	return append([]int(nil), d.expanded...)
}

// Expanded returns the expanded configuration ids
func (d *DetailView) Expanded() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int{}, d.expanded...)
}

// ActiveTab returns the selected level tab
func (d *DetailView) ActiveTab() models.TableView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeTab
}

// SetActiveTab selects a level tab
func (d *DetailView) SetActiveTab(level models.TableView) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.activeTab = level
}

// SelectedConfiguration returns the configuration the usage tables are restricted to, 0 for all
func (d *DetailView) SelectedConfiguration() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selectedConfiguration
}

// SelectConfiguration restricts the usage tables to one configuration, 0 for all
func (d *DetailView) SelectConfiguration(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selectedConfiguration = id
}

// Flow returns the usage flow of level
func (d *DetailView) Flow(level models.TableView) (*UsageFlow, bool) {
	f, ok := d.flows[level]
	return f, ok
}

// Data returns the cached upstream data; false when it must be fetched
func (d *DetailView) Data() (DetailData, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data == nil {
		return DetailData{}, false
	}
	return *d.data, true
}

// SetData caches freshly fetched upstream data
func (d *DetailView) SetData(data DetailData) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = &data
}

// Invalidate drops the cached data so the next render refetches it
func (d *DetailView) Invalidate() {
	d.markStale()
}

func (d *DetailView) markStale() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = nil
}

// Session is the view state of one dashboard user
type Session struct {
	ID    string
	Store *Store
	Query *QuerySync

	mu       sync.Mutex
	details  map[string]*DetailView
	lastSeen time.Time
}

// NewSession creates a session opened with query
func NewSession(id string, query url.Values) *Session {
	return &Session{
		ID:       id,
		Store:    NewStore(),
		Query:    NewQuerySync(query),
		details:  make(map[string]*DetailView),
		lastSeen: time.Now(),
	}
}

// Detail returns the detail view state of a client feature, creating it on first use
func (s *Session) Detail(clientID int, featureKey string) *DetailView {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%d/%s", clientID, featureKey)
	d, ok := s.details[key]
	if !ok {
		d = newDetailView()
		s.details[key] = d
	}
	return d
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Sessions is the registry of live sessions
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessions creates a registry expiring sessions idle for longer than ttl
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session opened with query
func (r *Sessions) Create(query url.Values) *Session {
	s := NewSession(uuid.NewString(), query)
	s.touch(r.now())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	return s
}

// Get returns a live session and refreshes its expiry
func (r *Sessions) Get(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}

	now := r.now()
	if r.ttl > 0 && s.idleSince(now) > r.ttl {
		r.remove(id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Len returns the number of registered sessions
func (r *Sessions) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops expired sessions and returns how many were removed
func (r *Sessions) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > r.ttl {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *Sessions) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}
