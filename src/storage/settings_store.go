package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"feature-dashboard/src/models"
	"feature-dashboard/src/status"

	"github.com/goccy/go-json"
)

const featureColumns = `id, name, "key", short_name, description, json_schema`

func scanFeature(scan func(dest ...interface{}) error) (models.CatalogFeature, error) {
	var f models.CatalogFeature
	var schema string
	if err := scan(&f.ID, &f.Name, &f.Key, &f.ShortName, &f.Description, &schema); err != nil {
		return f, err
	}
	if schema != "" {
		f.JSONSchema = json.RawMessage(schema)
	}
	return f, nil
}

// ListFeatures returns the feature catalog ordered by id
func (s *SQLiteStore) ListFeatures(ctx context.Context) (features []models.CatalogFeature, err error) {
	defer observe("list_features", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, `SELECT `+featureColumns+` FROM features ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer closeRows(rows)

	features = []models.CatalogFeature{}
	for rows.Next() {
		f, err := scanFeature(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		features = append(features, f)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating features: %w", err)
	}
	return features, nil
}

// GetFeature returns a catalog entry with its JSON schema
func (s *SQLiteStore) GetFeature(ctx context.Context, featureID int) (feature models.CatalogFeature, err error) {
	defer observe("get_feature", time.Now(), &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+featureColumns+` FROM features WHERE id = ?`, featureID)
	feature, err = scanFeature(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CatalogFeature{}, notFound("feature", featureID)
	}
	if err != nil {
		return models.CatalogFeature{}, fmt.Errorf("failed to get feature: %w", err)
	}
	return feature, nil
}

// Overview returns every catalog feature with its status for the client. The
// status of each level is aggregated from the active flags of the usages on that level.
func (s *SQLiteStore) Overview(ctx context.Context, clientID int) (overview []models.Feature, err error) {
	defer observe("overview", time.Now(), &err)

	if err = s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}

	catalog, err := s.ListFeatures(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.feature_id, u.client_id, u.category_id, u.tag_id, u.configuration_id, u.active
		FROM usages u
		JOIN configurations c ON c.id = u.configuration_id
		WHERE c.client_id = ?`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query usages: %w", err)
	}
	defer closeRows(rows)

	byFeature := make(map[int][]models.Usage)
	for rows.Next() {
		var featureID int
		var u models.Usage
		if err := rows.Scan(&featureID, &u.ID.ClientID, &u.ID.CategoryID, &u.ID.TagID, &u.ID.ConfigurationID, &u.Active); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		byFeature[featureID] = append(byFeature[featureID], u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usages: %w", err)
	}

	overview = make([]models.Feature, 0, len(catalog))
	for _, f := range catalog {
		feature := f.Feature()
		usages := byFeature[f.ID]
		feature.Status = models.Status{
			Client:   status.AggregateStatus(levelUsages(usages, models.TableViewClient)),
			Category: status.AggregateStatus(levelUsages(usages, models.TableViewCategory)),
			Tag:      status.AggregateStatus(levelUsages(usages, models.TableViewTag)),
		}
		overview = append(overview, feature)
	}
	return overview, nil
}

func levelUsages(usages []models.Usage, level models.TableView) []models.Usage {
	var out []models.Usage
	for _, u := range usages {
		if u.ID.LevelID(level) != 0 {
			out = append(out, u)
		}
	}
	return out
}

const configurationColumns = `id, name, client_id, feature_id, settings, created, modified`

func scanConfiguration(scan func(dest ...interface{}) error) (models.Configuration, error) {
	var c models.Configuration
	var settings, created, modified string
	if err := scan(&c.ID, &c.Name, &c.ClientID, &c.FeatureID, &settings, &created, &modified); err != nil {
		return c, err
	}
	c.Settings = json.RawMessage(settings)

	createdAt, err := parseTimestamp(created)
	if err != nil {
		return c, fmt.Errorf("failed to parse created: %w", err)
	}
	modifiedAt, err := parseTimestamp(modified)
	if err != nil {
		return c, fmt.Errorf("failed to parse modified: %w", err)
	}
	c.Created = &createdAt
	c.Modified = &modifiedAt
	return c, nil
}

// ListConfigurations returns the configurations of a client feature
func (s *SQLiteStore) ListConfigurations(ctx context.Context, clientID, featureID int) (configs []models.Configuration, err error) {
	defer observe("list_configurations", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+configurationColumns+`
		FROM configurations
		WHERE client_id = ? AND feature_id = ?
		ORDER BY id`, clientID, featureID)
	if err != nil {
		return nil, fmt.Errorf("failed to query configurations: %w", err)
	}
	defer closeRows(rows)

	configs = []models.Configuration{}
	for rows.Next() {
		c, err := scanConfiguration(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan configuration: %w", err)
		}
		configs = append(configs, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating configurations: %w", err)
	}
	return configs, nil
}

// GetConfiguration returns one configuration
func (s *SQLiteStore) GetConfiguration(ctx context.Context, id int) (cfg models.Configuration, err error) {
	defer observe("get_configuration", time.Now(), &err)

	row := s.db.QueryRowContext(ctx, `SELECT `+configurationColumns+` FROM configurations WHERE id = ?`, id)
	cfg, err = scanConfiguration(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Configuration{}, notFound("configuration", id)
	}
	if err != nil {
		return models.Configuration{}, fmt.Errorf("failed to get configuration: %w", err)
	}
	return cfg, nil
}

// CreateConfiguration inserts a configuration of a client feature
func (s *SQLiteStore) CreateConfiguration(ctx context.Context, req models.CreateConfigurationRequest) (cfg models.Configuration, err error) {
	defer observe("create_configuration", time.Now(), &err)

	if err = s.requireClient(ctx, req.ClientID); err != nil {
		return models.Configuration{}, err
	}
	now := time.Now()
	settings := string(req.Settings)
	if strings.TrimSpace(settings) == "" {
		settings = "{}"
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO configurations (name, client_id, feature_id, settings, created, modified)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.Name, req.ClientID, req.FeatureID, settings, formatTimestamp(now), formatTimestamp(now))
	if err != nil {
		if isForeignKeyError(err) {
			return models.Configuration{}, notFound("feature", req.FeatureID)
		}
		return models.Configuration{}, fmt.Errorf("failed to insert configuration: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Configuration{}, fmt.Errorf("failed to read configuration id: %w", err)
	}

	created := now.UTC()
	return models.Configuration{
		ID:        int(id),
		Name:      req.Name,
		ClientID:  req.ClientID,
		FeatureID: req.FeatureID,
		Settings:  json.RawMessage(settings),
		Created:   &created,
		Modified:  &created,
	}, nil
}

// UpdateConfiguration replaces name and settings of a configuration
func (s *SQLiteStore) UpdateConfiguration(ctx context.Context, id int, name string, settings json.RawMessage) (cfg models.Configuration, err error) {
	defer observe("update_configuration", time.Now(), &err)

	raw := string(settings)
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE configurations SET name = ?, settings = ?, modified = ? WHERE id = ?`,
		name, raw, formatTimestamp(time.Now()), id)
	if err != nil {
		return models.Configuration{}, fmt.Errorf("failed to update configuration: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Configuration{}, notFound("configuration", id)
	}
	return s.GetConfiguration(ctx, id)
}

// ListUsages returns the usages of the client's configurations of a feature
func (s *SQLiteStore) ListUsages(ctx context.Context, clientID, featureID int) (usages []models.Usage, err error) {
	defer observe("list_usages", time.Now(), &err)

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.client_id, u.category_id, u.tag_id, u.configuration_id, u.active, u.modified
		FROM usages u
		JOIN configurations c ON c.id = u.configuration_id
		WHERE c.client_id = ? AND c.feature_id = ?
		ORDER BY u.configuration_id, u.client_id, u.category_id, u.tag_id`, clientID, featureID)
	if err != nil {
		return nil, fmt.Errorf("failed to query usages: %w", err)
	}
	defer closeRows(rows)

	usages = []models.Usage{}
	for rows.Next() {
		var u models.Usage
		var modified string
		if err := rows.Scan(&u.ID.ClientID, &u.ID.CategoryID, &u.ID.TagID, &u.ID.ConfigurationID, &u.Active, &modified); err != nil {
			return nil, fmt.Errorf("failed to scan usage: %w", err)
		}
		t, err := parseTimestamp(modified)
		if err != nil {
			return nil, fmt.Errorf("failed to parse usage modified: %w", err)
		}
		u.Modified = &t
		usages = append(usages, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating usages: %w", err)
	}
	return usages, nil
}

// CreateUsage binds a configuration to a level target. A feature has at most
// one usage per level target.
func (s *SQLiteStore) CreateUsage(ctx context.Context, usage models.Usage) (created models.Usage, err error) {
	defer observe("create_usage", time.Now(), &err)

	cfg, err := s.GetConfiguration(ctx, usage.ID.ConfigurationID)
	if err != nil {
		return models.Usage{}, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO usages (configuration_id, feature_id, client_id, category_id, tag_id, active, modified)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		usage.ID.ConfigurationID, cfg.FeatureID, usage.ID.ClientID, usage.ID.CategoryID, usage.ID.TagID,
		usage.Active, formatTimestamp(now))
	if err != nil {
		if isUniqueConstraintError(err) {
			level := usage.ID.Level()
			return models.Usage{}, &UsageAlreadyExistsError{FeatureID: cfg.FeatureID, Level: string(level), LevelID: usage.ID.LevelID(level)}
		}
		return models.Usage{}, fmt.Errorf("failed to insert usage: %w", err)
	}

	usage.Modified = &now
	return usage, nil
}

// UpdateUsage sets the active flag of the usage addressed by target
func (s *SQLiteStore) UpdateUsage(ctx context.Context, target models.UsageTarget, active bool) (err error) {
	defer observe("update_usage", time.Now(), &err)

	column, err := levelColumn(target.Level)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE usages SET active = ?, modified = ? WHERE configuration_id = ? AND `+column+` = ?`,
		active, formatTimestamp(time.Now()), target.ConfigurationID, target.ID)
	if err != nil {
		return fmt.Errorf("failed to update usage: %w", err)
	}
	return requireAffected(res, target)
}

// DeleteUsage removes the usage addressed by target
func (s *SQLiteStore) DeleteUsage(ctx context.Context, target models.UsageTarget) (err error) {
	defer observe("delete_usage", time.Now(), &err)

	column, err := levelColumn(target.Level)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM usages WHERE configuration_id = ? AND `+column+` = ?`,
		target.ConfigurationID, target.ID)
	if err != nil {
		return fmt.Errorf("failed to delete usage: %w", err)
	}
	return requireAffected(res, target)
}

func requireAffected(res sql.Result, target models.UsageTarget) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return &NotFoundError{
			Resource: "usage",
			ID:       fmt.Sprintf("%s=%d configuration-id=%d", target.Level.TargetParam(), target.ID, target.ConfigurationID),
		}
	}
	return nil
}

func levelColumn(level models.TableView) (string, error) {
	switch level {
	case models.TableViewClient:
		return "client_id", nil
	case models.TableViewCategory:
		return "category_id", nil
	case models.TableViewTag:
		return "tag_id", nil
	}
	return "", fmt.Errorf("unknown usage level %q", level)
}
