package models

// SuccessResponse represents the standard success response format
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// UsageLabel counts active and inactive usages ("aktiviert n", "deaktiviert m")
type UsageLabel struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// ClientListView is the main list: the clients to show with their feature groups
type ClientListView struct {
	Loading  bool         `json:"loading"`
	Total    int          `json:"total"`
	Shown    int          `json:"shown"`
	Status   string       `json:"status"`
	Location string       `json:"location"`
	Clients  []ClientCard `json:"clients"`
}

// ClientCard is one client of the main list. Universal holds the "Allgemein"
// group, Features the alphabetically sorted rest.
type ClientCard struct {
	ID        int             `json:"id"`
	Name      string          `json:"name"`
	Anchor    string          `json:"anchor"`
	Universal []FeatureButton `json:"universal"`
	Features  []FeatureButton `json:"features"`
}

// FeatureButton is a feature entry of a client card
type FeatureButton struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Key          string `json:"key"`
	Status       Status `json:"status"`
	Link         string `json:"link"`
	Color        string `json:"color"`
	BgColor      string `json:"bgColor"`
	CategoryTint string `json:"categoryTint"`
	TagTint      string `json:"tagTint"`
}

// FilterView is the filter state after an update together with the synchronized location
type FilterView struct {
	Clients   []int    `json:"clients"`
	Features  []string `json:"features"`
	Status    string   `json:"status"`
	Location  string   `json:"location"`
	Persisted bool     `json:"persisted"`
}

// ClientRef is the minimal client identity shown in the detail header
type ClientRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// FeatureDetailView is the configuration detail view of one client feature
type FeatureDetailView struct {
	Client                ClientRef           `json:"client"`
	Feature               CatalogFeature      `json:"feature"`
	Status                *Status             `json:"status,omitempty"`
	Configurations        []ConfigurationView `json:"configurations"`
	SelectedConfiguration int                 `json:"selectedConfiguration,omitempty"`
	Expanded              []int               `json:"expanded"`
	ActiveTab             TableView           `json:"activeTab"`
	Tabs                  []UsageTab          `json:"tabs"`
	CloseLocation         string              `json:"closeLocation"`
}

// ConfigurationView is a configuration of the detail sidebar
type ConfigurationView struct {
	Configuration
	Expanded   bool       `json:"expanded"`
	UsageLabel UsageLabel `json:"usageLabel"`
}

// UsageTab is one level tab of the detail view
type UsageTab struct {
	Level         TableView     `json:"level"`
	Count         int           `json:"count"`
	StatusColor   string        `json:"statusColor"`
	FeatureStatus StatusValue   `json:"featureStatus,omitempty"`
	AlertMessage  string        `json:"alertMessage,omitempty"`
	Rows          []UsageRow    `json:"rows"`
	Flow          UsageFlowView `json:"flow"`
}

// UsageRow is a usage as shown in a level table
type UsageRow struct {
	UsageWithConfigName
	CategoryName string `json:"categoryName,omitempty"`
	TagName      string `json:"tagName,omitempty"`
}

// UsageFlowView exposes the edit/delete confirmation state of a level table
type UsageFlowView struct {
	State         string                 `json:"state"`
	EditRow       string                 `json:"editRow,omitempty"`
	WorkingActive *bool                  `json:"workingActive,omitempty"`
	UnsavedChange bool                   `json:"unsavedChange"`
	DialogOpen    bool                   `json:"dialogOpen"`
	DialogText    string                 `json:"dialogText,omitempty"`
	ConfirmLabel  string                 `json:"confirmLabel,omitempty"`
	Pending       *UsageToModifyOrDelete `json:"pending,omitempty"`
	Error         string                 `json:"error,omitempty"`
}
