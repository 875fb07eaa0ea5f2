package handlers

import (
	"errors"
	"net/http"

	"feature-dashboard/src/logging"
	"feature-dashboard/src/models"
	"feature-dashboard/src/services"
	"feature-dashboard/src/storage"

	"github.com/labstack/echo/v4"
)

// ConfigHandler serves the settings backend: the CMS client directory, the
// feature catalog, configurations and usages
type ConfigHandler struct {
	configService *services.ConfigService
}

// NewConfigHandler creates a new configuration handler
func NewConfigHandler(configService *services.ConfigService) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
	}
}

// Register mounts the settings routes on g
func (ch *ConfigHandler) Register(g *echo.Group) {
	g.GET("/clients", ch.ListClients)
	g.GET("/clients/:clientId/categories", ch.GetCategories)
	g.GET("/clients/:clientId/tags", ch.ListTags)
	g.GET("/features", ch.ListFeatures)
	g.GET("/features/:featureId", ch.GetFeature)
	g.GET("/overview/:clientId", ch.Overview)
	g.GET("/configurations/client/:clientId/feature/:featureId", ch.ListConfigurations)
	g.POST("/configurations/", ch.CreateConfig)
	g.POST("/configurations", ch.CreateConfig)
	g.PUT("/configurations/:configurationId", ch.UpdateConfig)
	g.GET("/usages/client/:clientId/feature/:featureId", ch.ListUsages)
	g.POST("/usages/", ch.CreateUsage)
	g.POST("/usages", ch.CreateUsage)
	g.PUT("/usages", ch.UpdateUsage)
	g.DELETE("/usages", ch.DeleteUsage)
}

// ListClients handles GET /clients
//
//	@Summary	List clients
//	@Tags		cms
//	@Produce	json
//	@Success	200	{array}		models.Client
//	@Failure	500	{object}	models.ErrorResponse
//	@Router		/clients [get]
func (ch *ConfigHandler) ListClients(c echo.Context) error {
	clients, err := ch.configService.Clients(c.Request().Context())
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, clients)
}

// GetCategories handles GET /clients/{clientId}/categories
//
//	@Summary	Category tree of a client
//	@Tags		cms
//	@Produce	json
//	@Param		clientId	path		int	true	"Client id"
//	@Success	200			{object}	models.CmsCategories
//	@Failure	404			{object}	models.ErrorResponse
//	@Router		/clients/{clientId}/categories [get]
func (ch *ConfigHandler) GetCategories(c echo.Context) error {
	clientID, handled, err := intParam(c, "clientId", c.Param("clientId"))
	if handled {
		return err
	}
	tree, err := ch.configService.Categories(c.Request().Context(), clientID)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, tree)
}

// ListTags handles GET /clients/{clientId}/tags
//
//	@Summary	Tags of a client
//	@Tags		cms
//	@Produce	json
//	@Param		clientId	path		int	true	"Client id"
//	@Success	200			{array}		models.CmsTag
//	@Failure	404			{object}	models.ErrorResponse
//	@Router		/clients/{clientId}/tags [get]
func (ch *ConfigHandler) ListTags(c echo.Context) error {
	clientID, handled, err := intParam(c, "clientId", c.Param("clientId"))
	if handled {
		return err
	}
	tags, err := ch.configService.Tags(c.Request().Context(), clientID)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, tags)
}

// ListFeatures handles GET /features
//
//	@Summary	Feature catalog
//	@Tags		features
//	@Produce	json
//	@Success	200	{array}	models.CatalogFeature
//	@Router		/features [get]
func (ch *ConfigHandler) ListFeatures(c echo.Context) error {
	features, err := ch.configService.Features(c.Request().Context())
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, features)
}

// GetFeature handles GET /features/{featureId}
//
//	@Summary	Feature with JSON schema
//	@Tags		features
//	@Produce	json
//	@Param		featureId	path		int	true	"Feature id"
//	@Success	200			{object}	models.CatalogFeature
//	@Failure	404			{object}	models.ErrorResponse
//	@Router		/features/{featureId} [get]
func (ch *ConfigHandler) GetFeature(c echo.Context) error {
	featureID, handled, err := intParam(c, "featureId", c.Param("featureId"))
	if handled {
		return err
	}
	feature, err := ch.configService.Feature(c.Request().Context(), featureID)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, feature)
}

// Overview handles GET /overview/{clientId}
//
//	@Summary		Feature statuses of a client
//	@Description	Every catalog feature with its client, category and tag status aggregated from the usages.
//	@Tags			features
//	@Produce		json
//	@Param			clientId	path		int	true	"Client id"
//	@Success		200			{array}		models.Feature
//	@Failure		404			{object}	models.ErrorResponse
//	@Router			/overview/{clientId} [get]
func (ch *ConfigHandler) Overview(c echo.Context) error {
	clientID, handled, err := intParam(c, "clientId", c.Param("clientId"))
	if handled {
		return err
	}
	features, err := ch.configService.Overview(c.Request().Context(), clientID)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, features)
}

// ListConfigurations handles GET /configurations/client/{clientId}/feature/{featureId}
//
//	@Summary	Configurations of a client feature
//	@Tags		configurations
//	@Produce	json
//	@Param		clientId	path	int	true	"Client id"
//	@Param		featureId	path	int	true	"Feature id"
//	@Success	200			{array}	models.Configuration
//	@Router		/configurations/client/{clientId}/feature/{featureId} [get]
func (ch *ConfigHandler) ListConfigurations(c echo.Context) error {
	clientID, featureID, handled, err := clientFeatureParams(c)
	if handled {
		return err
	}
	configs, err := ch.configService.Configurations(c.Request().Context(), clientID, featureID)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, configs)
}

// CreateConfig handles POST /configurations/
//
//	@Summary		Create a configuration
//	@Description	Validates the settings against the feature's JSON schema and stores the configuration.
//	@Tags			configurations
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.CreateConfigurationRequest	true	"Configuration"
//	@Success		201		{object}	models.Configuration
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		404		{object}	models.ErrorResponse
//	@Failure		422		{object}	models.ErrorResponse
//	@Router			/configurations/ [post]
//
//	@Example request
//	{
//	  "name": "Standard",
//	  "clientId": 10,
//	  "featureId": 3,
//	  "settings": {"channelId": "wa-main"}
//	}
func (ch *ConfigHandler) CreateConfig(c echo.Context) error {
	var req models.CreateConfigurationRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}

	config, err := ch.configService.CreateConfig(c.Request().Context(), req)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusCreated, config)
}

// UpdateConfig handles PUT /configurations/{configurationId}
//
//	@Summary	Update a configuration
//	@Tags		configurations
//	@Accept		json
//	@Produce	json
//	@Param		configurationId	path		int									true	"Configuration id"
//	@Param		body			body		models.UpdateConfigurationRequest	true	"Name and settings"
//	@Success	200				{object}	models.Configuration
//	@Failure	404				{object}	models.ErrorResponse
//	@Failure	422				{object}	models.ErrorResponse
//	@Router		/configurations/{configurationId} [put]
func (ch *ConfigHandler) UpdateConfig(c echo.Context) error {
	id, handled, err := intParam(c, "configurationId", c.Param("configurationId"))
	if handled {
		return err
	}
	var req models.UpdateConfigurationRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}

	config, err := ch.configService.UpdateConfig(c.Request().Context(), id, req)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, config)
}

// ListUsages handles GET /usages/client/{clientId}/feature/{featureId}
//
//	@Summary	Usages of a client feature
//	@Tags		usages
//	@Produce	json
//	@Param		clientId	path	int	true	"Client id"
//	@Param		featureId	path	int	true	"Feature id"
//	@Success	200			{array}	models.Usage
//	@Router		/usages/client/{clientId}/feature/{featureId} [get]
func (ch *ConfigHandler) ListUsages(c echo.Context) error {
	clientID, featureID, handled, err := clientFeatureParams(c)
	if handled {
		return err
	}
	usages, err := ch.configService.Usages(c.Request().Context(), clientID, featureID)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusOK, usages)
}

// CreateUsage handles POST /usages/
//
//	@Summary		Create a usage
//	@Description	Binds a configuration to a client, category or tag. A second usage of the feature on the same target fails with 500.
//	@Tags			usages
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Usage	true	"Usage"
//	@Success		201		{object}	models.Usage
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		500		{object}	models.ErrorResponse
//	@Router			/usages/ [post]
func (ch *ConfigHandler) CreateUsage(c echo.Context) error {
	var usage models.Usage
	if err := c.Bind(&usage); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Request body must be valid JSON",
			map[string]string{"parse_error": err.Error()})
	}

	created, err := ch.configService.CreateUsage(c.Request().Context(), usage)
	if err != nil {
		return ch.handleError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateUsage handles PUT /usages?{level}-id=&configuration-id=
//
//	@Summary	Update a usage
//	@Tags		usages
//	@Accept		json
//	@Param		client-id			query	int				false	"Client id"
//	@Param		category-id			query	int				false	"Category id"
//	@Param		tag-id				query	int				false	"Tag id"
//	@Param		configuration-id	query	int				true	"Configuration id"
//	@Param		body				body	models.Usage	true	"Usage"
//	@Success	204
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/usages [put]
func (ch *ConfigHandler) UpdateUsage(c echo.Context) error {
	target, handled, err := usageTarget(c)
	if handled {
		return err
	}
	var usage models.Usage
	if err := (&echo.DefaultBinder{}).BindBody(c, &usage); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Request body must be valid JSON",
			map[string]string{"parse_error": err.Error()})
	}

	if err := ch.configService.UpdateUsage(c.Request().Context(), target, usage); err != nil {
		return ch.handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteUsage handles DELETE /usages?{level}-id=&configuration-id=
//
//	@Summary	Delete a usage
//	@Tags		usages
//	@Param		client-id			query	int	false	"Client id"
//	@Param		category-id			query	int	false	"Category id"
//	@Param		tag-id				query	int	false	"Tag id"
//	@Param		configuration-id	query	int	true	"Configuration id"
//	@Success	204
//	@Failure	404	{object}	models.ErrorResponse
//	@Router		/usages [delete]
func (ch *ConfigHandler) DeleteUsage(c echo.Context) error {
	target, handled, err := usageTarget(c)
	if handled {
		return err
	}
	if err := ch.configService.DeleteUsage(c.Request().Context(), target); err != nil {
		return ch.handleError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Health handles GET /health
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/health [get]
func (ch *ConfigHandler) Health(c echo.Context) error {
	if err := ch.configService.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "error",
			"database": "disconnected",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "connected",
	})
}

// usageTarget reads the level id and configuration id query parameters
func usageTarget(c echo.Context) (models.UsageTarget, bool, error) {
	for _, level := range models.TableViews {
		raw := c.QueryParam(level.TargetParam())
		if raw == "" {
			continue
		}
		id, handled, err := intParam(c, level.TargetParam(), raw)
		if handled {
			return models.UsageTarget{}, true, err
		}
		cfgID, handled, err := intParam(c, "configuration-id", c.QueryParam("configuration-id"))
		if handled {
			return models.UsageTarget{}, true, err
		}
		return models.UsageTarget{Level: level, ID: id, ConfigurationID: cfgID}, false, nil
	}
	return models.UsageTarget{}, true, errorJSON(c, http.StatusBadRequest, "MISSING_REQUIRED_FIELD",
		"One of client-id, category-id or tag-id is required", nil)
}

func clientFeatureParams(c echo.Context) (clientID, featureID int, handled bool, err error) {
	if clientID, handled, err = intParam(c, "clientId", c.Param("clientId")); handled {
		return
	}
	featureID, handled, err = intParam(c, "featureId", c.Param("featureId"))
	return
}

// handleError converts service errors to appropriate HTTP responses
func (ch *ConfigHandler) handleError(c echo.Context, err error) error {
	var schemaErr *services.SchemaValidationError
	var invalidUsage *services.InvalidUsageError
	switch {
	case storage.IsUsageAlreadyExists(err):
		// the dashboard reports a duplicate usage on HTTP 500
		return errorJSON(c, http.StatusInternalServerError, "USAGE_ALREADY_EXISTS", err.Error(), nil)
	case storage.IsNotFound(err):
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.As(err, &invalidUsage):
		return errorJSON(c, http.StatusBadRequest, "INVALID_USAGE", invalidUsage.Reason, nil)
	case errors.As(err, &schemaErr):
		return errorJSON(c, http.StatusUnprocessableEntity, "SCHEMA_VALIDATION_FAILED", schemaErr.Message,
			map[string][]services.ValidationError{"validation_errors": schemaErr.Errors})
	default:
		logging.Ctx(c.Request().Context()).Error().Err(err).Msg("settings request failed")
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred", nil)
	}
}
