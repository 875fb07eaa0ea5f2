package services

import (
	"context"
	"fmt"

	"feature-dashboard/src/models"
	"feature-dashboard/src/storage"
)

// ConfigService handles the business logic of the settings backend: feature
// configurations, their usages and the CMS reads they are scoped by
type ConfigService struct {
	store             *storage.SQLiteStore
	validationService *ValidationService
}

// NewConfigService creates a new configuration service
func NewConfigService(store *storage.SQLiteStore, validationService *ValidationService) *ConfigService {
	return &ConfigService{
		store:             store,
		validationService: validationService,
	}
}

// InvalidUsageError is returned for a usage that does not target exactly one level
type InvalidUsageError struct {
	Reason string
}

func (e *InvalidUsageError) Error() string {
	return "INVALID_USAGE: " + e.Reason
}

// Clients returns the client directory
func (cs *ConfigService) Clients(ctx context.Context) ([]models.Client, error) {
	return cs.store.ListClients(ctx)
}

// Categories returns the category tree of a client
func (cs *ConfigService) Categories(ctx context.Context, clientID int) (models.CmsCategories, error) {
	return cs.store.GetCategories(ctx, clientID)
}

// Tags returns the tags of a client
func (cs *ConfigService) Tags(ctx context.Context, clientID int) ([]models.CmsTag, error) {
	return cs.store.ListTags(ctx, clientID)
}

// Features returns the feature catalog
func (cs *ConfigService) Features(ctx context.Context) ([]models.CatalogFeature, error) {
	return cs.store.ListFeatures(ctx)
}

// Feature returns one catalog entry with its schema
func (cs *ConfigService) Feature(ctx context.Context, featureID int) (models.CatalogFeature, error) {
	return cs.store.GetFeature(ctx, featureID)
}

// Overview returns the feature statuses of a client
func (cs *ConfigService) Overview(ctx context.Context, clientID int) ([]models.Feature, error) {
	return cs.store.Overview(ctx, clientID)
}

// Configurations lists the configurations of a client feature
func (cs *ConfigService) Configurations(ctx context.Context, clientID, featureID int) ([]models.Configuration, error) {
	return cs.store.ListConfigurations(ctx, clientID, featureID)
}

// CreateConfig creates a configuration after validating its settings against the feature schema
func (cs *ConfigService) CreateConfig(ctx context.Context, req models.CreateConfigurationRequest) (models.Configuration, error) {
	feature, err := cs.store.GetFeature(ctx, req.FeatureID)
	if err != nil {
		return models.Configuration{}, err
	}

	if err := cs.validationService.ValidateSettings(feature.JSONSchema, req.Settings); err != nil {
		return models.Configuration{}, err
	}

	return cs.store.CreateConfiguration(ctx, req)
}

// UpdateConfig replaces name and settings of a configuration. The settings are
// validated against the schema of the configuration's feature.
func (cs *ConfigService) UpdateConfig(ctx context.Context, id int, req models.UpdateConfigurationRequest) (models.Configuration, error) {
	current, err := cs.store.GetConfiguration(ctx, id)
	if err != nil {
		return models.Configuration{}, err
	}

	feature, err := cs.store.GetFeature(ctx, current.FeatureID)
	if err != nil {
		return models.Configuration{}, err
	}

	if err := cs.validationService.ValidateSettings(feature.JSONSchema, req.Settings); err != nil {
		return models.Configuration{}, err
	}

	return cs.store.UpdateConfiguration(ctx, id, req.Name, normalizeSettings(req.Settings))
}

// Usages lists the usages of a client feature
func (cs *ConfigService) Usages(ctx context.Context, clientID, featureID int) ([]models.Usage, error) {
	return cs.store.ListUsages(ctx, clientID, featureID)
}

// CreateUsage binds a configuration to exactly one level target
func (cs *ConfigService) CreateUsage(ctx context.Context, usage models.Usage) (models.Usage, error) {
	if err := usage.ID.Validate(); err != nil {
		return models.Usage{}, &InvalidUsageError{Reason: err.Error()}
	}
	if usage.ID.Level() == "" {
		return models.Usage{}, &InvalidUsageError{Reason: "usage id targets no level"}
	}
	return cs.store.CreateUsage(ctx, usage)
}

// UpdateUsage sets the active flag of the usage addressed by target
func (cs *ConfigService) UpdateUsage(ctx context.Context, target models.UsageTarget, usage models.Usage) error {
	if err := validateTarget(target); err != nil {
		return err
	}
	return cs.store.UpdateUsage(ctx, target, usage.Active)
}

// DeleteUsage removes the usage addressed by target
func (cs *ConfigService) DeleteUsage(ctx context.Context, target models.UsageTarget) error {
	if err := validateTarget(target); err != nil {
		return err
	}
	return cs.store.DeleteUsage(ctx, target)
}

// Ping checks the database connection
func (cs *ConfigService) Ping(ctx context.Context) error {
	return cs.store.Ping(ctx)
}

// Seed loads a fixture into the database
func (cs *ConfigService) Seed(ctx context.Context, fixture *storage.Fixture) error {
	return cs.store.Seed(ctx, fixture)
}

func validateTarget(target models.UsageTarget) error {
	if _, ok := models.ParseTableView(string(target.Level)); !ok {
		return &InvalidUsageError{Reason: fmt.Sprintf("unknown level %q", target.Level)}
	}
	if target.ID <= 0 || target.ConfigurationID <= 0 {
		return &InvalidUsageError{Reason: fmt.Sprintf("%s and configuration-id are required", target.Level.TargetParam())}
	}
	return nil
}
