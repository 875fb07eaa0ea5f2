package models

import "encoding/json"

// CreateConfigurationRequest is the request body for creating a configuration.
// The same shape is posted to the settings API.
// swagger:model
type CreateConfigurationRequest struct {
	Name      string          `json:"name" validate:"required,max=100"`
	ClientID  int             `json:"clientId" validate:"required,gt=0"`
	FeatureID int             `json:"featureId" validate:"required,gt=0"`
	Settings  json.RawMessage `json:"settings"`
}

// ConfigurationForm is the dashboard form for adding or editing a configuration
// of the client feature in view
// swagger:model
type ConfigurationForm struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Settings json.RawMessage `json:"settings"`
}

// UpdateConfigurationRequest is the request body for updating a configuration
// swagger:model
type UpdateConfigurationRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Settings json.RawMessage `json:"settings"`
}

// CreateUsageRequest is the dashboard form for adding a usage. For the client
// level the level id defaults to the client in view.
// swagger:model
type CreateUsageRequest struct {
	ConfigurationID int       `json:"configurationId" validate:"required,gt=0"`
	Level           TableView `json:"level" validate:"required,oneof=client category tag"`
	LevelID         int       `json:"levelId" validate:"gte=0"`
	Active          *bool     `json:"active"`
}

// FilterRequest replaces the filter selections of the client list
// swagger:model
type FilterRequest struct {
	Clients  []int    `json:"clients"`
	Features []string `json:"features"`
	Status   string   `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE ALL"`
}

// UsageRowRequest addresses a usage row of the detail view
// swagger:model
type UsageRowRequest struct {
	RowID string `json:"rowId" validate:"required"`
}

// TabRequest selects the usage table of the detail view
// swagger:model
type TabRequest struct {
	Level TableView `json:"level" validate:"required,oneof=client category tag"`
}
