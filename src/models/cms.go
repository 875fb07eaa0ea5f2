package models

// CmsType is the kind of a CMS tag
type CmsType string

const (
	CmsTypePlaceLocation CmsType = "PLACE_LOCATION"
	CmsTypeEvent         CmsType = "EVENT"
	CmsTypeOrganisation  CmsType = "ORGANISATION"
	CmsTypePerson        CmsType = "PERSON"
	CmsTypeCatchword     CmsType = "CATCHWORD"
)

// CmsCategories is the category tree of a client as returned by the CMS
type CmsCategories struct {
	ClientID int         `json:"clientId"`
	Category CmsCategory `json:"category"`
}

// CmsCategory is a node of the category tree
type CmsCategory struct {
	ID       int           `json:"id" db:"id"`
	Name     string        `json:"name" db:"name"`
	Path     string        `json:"path" db:"path"`
	Children []CmsCategory `json:"children,omitempty"`
}

// CmsTag is a CMS tag of a client
type CmsTag struct {
	ID       int     `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	Type     CmsType `json:"type" db:"type"`
	ClientID int     `json:"clientId" db:"client_id"`
}

// CategoryMap is a flattened category entry
type CategoryMap struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
