package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"feature-dashboard/src/logging"
	"feature-dashboard/src/models"

	"github.com/goccy/go-json"
)

// FixtureClient is a client of the seed fixture together with its CMS data
type FixtureClient struct {
	ID         int                   `json:"id"`
	Name       string                `json:"name"`
	Categories *models.CmsCategories `json:"categories,omitempty"`
	Tags       []models.CmsTag       `json:"tags,omitempty"`
}

// Fixture is the seed document of the settings database
type Fixture struct {
	Clients        []FixtureClient         `json:"clients"`
	Features       []models.CatalogFeature `json:"features"`
	Configurations []models.Configuration  `json:"configurations"`
	Usages         []models.Usage          `json:"usages"`
}

// LoadFixture reads a seed fixture from a JSON file
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Seed writes the fixture into the database in one transaction. Existing rows
// with the same ids are replaced.
func (s *SQLiteStore) Seed(ctx context.Context, f *Fixture) (err error) {
	defer observe("seed", time.Now(), &err)

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, c := range f.Clients {
			if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO clients (id, name) VALUES (?, ?)`, c.ID, c.Name); err != nil {
				return fmt.Errorf("failed to insert client %d: %w", c.ID, err)
			}
			if c.Categories != nil {
				if err := insertCategory(ctx, tx, c.ID, c.Categories.Category, sql.NullInt64{}, 0); err != nil {
					return err
				}
			}
			for _, t := range c.Tags {
				if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO tags (id, client_id, name, type) VALUES (?, ?, ?, ?)`,
					t.ID, c.ID, t.Name, t.Type); err != nil {
					return fmt.Errorf("failed to insert tag %d: %w", t.ID, err)
				}
			}
		}

		for _, feat := range f.Features {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO features (id, name, "key", short_name, description, json_schema)
				VALUES (?, ?, ?, ?, ?, ?)`,
				feat.ID, feat.Name, feat.Key, feat.ShortName, feat.Description, string(feat.JSONSchema)); err != nil {
				return fmt.Errorf("failed to insert feature %d: %w", feat.ID, err)
			}
		}

		now := formatTimestamp(time.Now())
		features := make(map[int]int, len(f.Configurations))
		for _, c := range f.Configurations {
			settings := string(c.Settings)
			if settings == "" {
				settings = "{}"
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO configurations (id, name, client_id, feature_id, settings, created, modified)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.ID, c.Name, c.ClientID, c.FeatureID, settings, now, now); err != nil {
				return fmt.Errorf("failed to insert configuration %d: %w", c.ID, err)
			}
			features[c.ID] = c.FeatureID
		}

		for _, u := range f.Usages {
			featureID, ok := features[u.ID.ConfigurationID]
			if !ok {
				return fmt.Errorf("usage references unknown configuration %d", u.ID.ConfigurationID)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO usages (configuration_id, feature_id, client_id, category_id, tag_id, active, modified)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				u.ID.ConfigurationID, featureID, u.ID.ClientID, u.ID.CategoryID, u.ID.TagID, u.Active, now); err != nil {
				return fmt.Errorf("failed to insert usage: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logging.Info().
		Int("clients", len(f.Clients)).
		Int("features", len(f.Features)).
		Int("configurations", len(f.Configurations)).
		Int("usages", len(f.Usages)).
		Msg("Settings database seeded")
	return nil
}

func insertCategory(ctx context.Context, tx *sql.Tx, clientID int, c models.CmsCategory, parent sql.NullInt64, position int) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO categories (id, client_id, parent_id, name, path, position)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, clientID, parent, c.Name, c.Path, position); err != nil {
		return fmt.Errorf("failed to insert category %d: %w", c.ID, err)
	}
	for i, child := range c.Children {
		if err := insertCategory(ctx, tx, clientID, child, sql.NullInt64{Int64: int64(c.ID), Valid: true}, i); err != nil {
			return err
		}
	}
	return nil
}
