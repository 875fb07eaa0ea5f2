package models

import (
	"encoding/json"
	"time"
)

// StatusValue is the activation state of a feature on one organizational level
type StatusValue string

const (
	StatusEnabled            StatusValue = "ENABLED"
	StatusDisabled           StatusValue = "DISABLED"
	StatusEnabledAndDisabled StatusValue = "ENABLED_AND_DISABLED"
	StatusNone               StatusValue = "NONE"
)

// Status holds the activation state of a feature for the client, category and tag levels
type Status struct {
	Client   StatusValue `json:"client"`
	Category StatusValue `json:"category"`
	Tag      StatusValue `json:"tag"`
}

// Values returns the three level values in client, category, tag order
func (s Status) Values() []StatusValue {
	return []StatusValue{s.Client, s.Category, s.Tag}
}

// Feature is a toggleable product capability as listed for a client
type Feature struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Key    string `json:"key"`
	Status Status `json:"status"`
}

// Client is a tenant organization. Features is populated after the client list loads.
type Client struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Features []Feature `json:"features"`
}

// CatalogFeature is an entry of the feature catalog
type CatalogFeature struct {
	ID          int             `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Key         string          `json:"key" db:"key"`
	ShortName   string          `json:"shortName,omitempty" db:"short_name"`
	Description string          `json:"description,omitempty" db:"description"`
	JSONSchema  json.RawMessage `json:"jsonSchema,omitempty" db:"json_schema"`
}

// Feature converts the catalog entry into a Feature without status
func (f CatalogFeature) Feature() Feature {
	return Feature{ID: f.ID, Name: f.Name, Key: f.Key}
}

// FeatureDetail is a catalog feature together with the client's configurations
type FeatureDetail struct {
	CatalogFeature
	Configurations []Configuration `json:"configurations"`
}

// Configuration is a named settings bundle of a feature, scoped to a client
type Configuration struct {
	ID        int             `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	ClientID  int             `json:"clientId" db:"client_id"`
	FeatureID int             `json:"featureId,omitempty" db:"feature_id"`
	Created   *time.Time      `json:"created,omitempty" db:"created"`
	Modified  *time.Time      `json:"modified,omitempty" db:"modified"`
	Settings  json.RawMessage `json:"settings" db:"settings"`
	Usages    []Usage         `json:"usages,omitempty"`
}
