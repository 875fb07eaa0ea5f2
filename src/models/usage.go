package models

import (
	"fmt"
	"time"
)

// TableView is one of the three organizational levels a usage can target
type TableView string

const (
	TableViewClient   TableView = "client"
	TableViewCategory TableView = "category"
	TableViewTag      TableView = "tag"
)

// TableViews lists the levels in tab order
var TableViews = []TableView{TableViewClient, TableViewCategory, TableViewTag}

// ParseTableView returns the level for name and whether it is known
func ParseTableView(name string) (TableView, bool) {
	switch TableView(name) {
	case TableViewClient, TableViewCategory, TableViewTag:
		return TableView(name), true
	}
	return "", false
}

// TargetParam is the query parameter name that addresses a usage on the level
func (v TableView) TargetParam() string {
	switch v {
	case TableViewCategory:
		return "category-id"
	case TableViewTag:
		return "tag-id"
	default:
		return "client-id"
	}
}

// UsageID is the composite identity of a usage. Exactly one of ClientID,
// CategoryID and TagID is non-zero.
type UsageID struct {
	ClientID        int `json:"clientId" db:"client_id"`
	CategoryID      int `json:"categoryId" db:"category_id"`
	TagID           int `json:"tagId" db:"tag_id"`
	ConfigurationID int `json:"configurationId" db:"configuration_id"`
}

// Level returns the level whose id field is set, or "" when none is
func (id UsageID) Level() TableView {
	switch {
	case id.ClientID != 0:
		return TableViewClient
	case id.CategoryID != 0:
		return TableViewCategory
	case id.TagID != 0:
		return TableViewTag
	}
	return ""
}

// LevelID returns the id field for the level
func (id UsageID) LevelID(level TableView) int {
	switch level {
	case TableViewClient:
		return id.ClientID
	case TableViewCategory:
		return id.CategoryID
	case TableViewTag:
		return id.TagID
	}
	return 0
}

// WithTarget returns a copy targeting levelID on level; the other level fields are zeroed
func (id UsageID) WithTarget(level TableView, levelID int) UsageID {
	out := UsageID{ConfigurationID: id.ConfigurationID}
	switch level {
	case TableViewCategory:
		out.CategoryID = levelID
	case TableViewTag:
		out.TagID = levelID
	default:
		out.ClientID = levelID
	}
	return out
}

// Validate checks that at most one level field is set
func (id UsageID) Validate() error {
	set := 0
	for _, v := range []int{id.ClientID, id.CategoryID, id.TagID} {
		if v != 0 {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("usage id targets %d levels, expected one", set)
	}
	return nil
}

// Usage binds a configuration to a client, category or tag
type Usage struct {
	ID       UsageID    `json:"id"`
	Active   bool       `json:"active" db:"active"`
	Modified *time.Time `json:"modified,omitempty" db:"modified"`
}

// UsageWithConfigName is a usage decorated with the name of its configuration
type UsageWithConfigName struct {
	Usage
	ConfigurationName string `json:"configurationName"`
	RowID             string `json:"rowId"`
}

// UsageTarget addresses a usage row for update or delete
type UsageTarget struct {
	Level           TableView `json:"level"`
	ID              int       `json:"id"`
	ConfigurationID int       `json:"configurationId"`
	DescriptionText string    `json:"descriptionText"`
}

// UsageToModifyOrDelete is the pending subject of a usage confirmation dialog
type UsageToModifyOrDelete struct {
	UsageTarget
	Usage Usage `json:"usage"`
}
