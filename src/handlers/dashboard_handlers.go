package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"feature-dashboard/src/logging"
	"feature-dashboard/src/metrics"
	"feature-dashboard/src/models"
	"feature-dashboard/src/services"
	"feature-dashboard/src/viewstate"

	"github.com/labstack/echo/v4"
)

// SessionCookie names the cookie carrying the dashboard session id
const SessionCookie = "dashboard_session"

const sessionKey = "session"

// DashboardHandler serves the dashboard views over the session state
type DashboardHandler struct {
	dashboard *services.DashboardService
	sessions  *viewstate.Sessions
	secure    bool
}

// NewDashboardHandler creates a new dashboard handler. secure marks the session cookie Secure.
func NewDashboardHandler(dashboard *services.DashboardService, sessions *viewstate.Sessions, secure bool) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		sessions:  sessions,
		secure:    secure,
	}
}

// Register mounts the dashboard routes on g behind the session middleware
func (dh *DashboardHandler) Register(g *echo.Group) {
	g.Use(dh.Session)

	g.GET("/clients", dh.ListClients)
	g.GET("/features", dh.ListFeatures)
	g.PUT("/filters", dh.UpdateFilters)

	detail := g.Group("/clients/:clientId/features/:featureKey")
	detail.GET("", dh.FeatureDetail)
	detail.PUT("/tab", dh.SelectTab)
	detail.POST("/configurations", dh.CreateConfiguration)
	detail.PUT("/configurations/:configurationId", dh.UpdateConfiguration)
	detail.POST("/configurations/:configurationId/expanded", dh.Expand)
	detail.DELETE("/configurations/:configurationId/expanded", dh.Collapse)
	detail.POST("/usages", dh.CreateUsage)
	detail.POST("/usages/:level/:action", dh.UsageAction)
}

// Session resolves the session of the request from its cookie. Requests without
// a live session start a new one opened with the request's query.
func (dh *DashboardHandler) Session(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var sess *viewstate.Session
		if cookie, err := c.Cookie(SessionCookie); err == nil {
			sess, _ = dh.sessions.Get(cookie.Value)
		}
		if sess == nil {
			sess = dh.sessions.Create(c.QueryParams())
			metrics.ActiveSessions.Set(float64(dh.sessions.Len()))
			c.SetCookie(&http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   dh.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		c.Set(sessionKey, sess)
		return next(c)
	}
}

// SweepSessions drops expired sessions every interval until done is closed
func (dh *DashboardHandler) SweepSessions(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if removed := dh.sessions.Sweep(); removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Expired sessions swept")
			}
			metrics.ActiveSessions.Set(float64(dh.sessions.Len()))
		}
	}
}

func session(c echo.Context) *viewstate.Session {
	return c.Get(sessionKey).(*viewstate.Session)
}

// ListClients handles GET /api/v1/clients
//
//	@Summary		Client list
//	@Description	Clients shown under the current filters, each with its universal features and the remaining features sorted by name.
//	@Tags			dashboard
//	@Produce		json
//	@Param			fltr-clients	query		string	false	"Comma separated client ids"
//	@Param			fltr-features	query		string	false	"Comma separated feature names"
//	@Param			status			query		string	false	"Feature status filter"	Enums(ACTIVE, INACTIVE, ALL)
//	@Success		200				{object}	models.ClientListView
//	@Router			/api/v1/clients [get]
func (dh *DashboardHandler) ListClients(c echo.Context) error {
	ctx := c.Request().Context()
	sess := session(c)

	// a shared link overrides the selections the session holds
	req := models.FilterRequest{Status: c.QueryParam("status")}
	req.Clients, req.Features = viewstate.Selection(c.QueryParams())
	if req.Status != "" {
		if err := c.Validate(&req); err != nil {
			return errorJSON(c, http.StatusBadRequest, "INVALID_PARAMETER", "status must be ACTIVE, INACTIVE or ALL",
				map[string]string{"provided": req.Status})
		}
	}
	if req.Clients != nil || req.Features != nil {
		sess.Query.Retarget(c.QueryParams())
	}
	if req.Status != "" || req.Clients != nil || req.Features != nil {
		dh.dashboard.UpdateFilters(ctx, sess, req)
	}
	return c.JSON(http.StatusOK, dh.dashboard.ClientList(ctx, sess))
}

// ListFeatures handles GET /api/v1/features
//
//	@Summary	Feature catalog
//	@Tags		dashboard
//	@Produce	json
//	@Success	200	{array}	models.Feature
//	@Router		/api/v1/features [get]
func (dh *DashboardHandler) ListFeatures(c echo.Context) error {
	return c.JSON(http.StatusOK, dh.dashboard.Features(c.Request().Context(), session(c)))
}

// UpdateFilters handles PUT /api/v1/filters
//
//	@Summary		Update filters
//	@Description	Replaces the client, feature and status selections. Omitted lists stay unchanged, empty lists clear the selection.
//	@Tags			dashboard
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.FilterRequest	true	"Filter selections"
//	@Success		200		{object}	models.FilterView
//	@Failure		400		{object}	models.ErrorResponse
//	@Router			/api/v1/filters [put]
//
//	@Example request
//	{
//	  "clients": [10, 20],
//	  "features": ["Header"],
//	  "status": "ACTIVE"
//	}
func (dh *DashboardHandler) UpdateFilters(c echo.Context) error {
	var req models.FilterRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}
	return c.JSON(http.StatusOK, dh.dashboard.UpdateFilters(c.Request().Context(), session(c), req))
}

// FeatureDetail handles GET /api/v1/clients/{clientId}/features/{featureKey}
//
//	@Summary	Feature detail
//	@Tags		detail
//	@Produce	json
//	@Param		clientId		path		int		true	"Client id"
//	@Param		featureKey		path		string	true	"Feature key"
//	@Param		configuration	query		int		false	"Restrict the usage tables to one configuration, 0 for all"
//	@Param		refresh			query		bool	false	"Refetch the upstream data"
//	@Success	200				{object}	models.FeatureDetailView
//	@Failure	404				{object}	models.ErrorResponse
//	@Failure	502				{object}	models.ErrorResponse
//	@Router		/api/v1/clients/{clientId}/features/{featureKey} [get]
func (dh *DashboardHandler) FeatureDetail(c echo.Context) error {
	clientID, handled, err := intParam(c, "clientId", c.Param("clientId"))
	if handled {
		return err
	}
	refresh, _ := strconv.ParseBool(c.QueryParam("refresh"))

	ctx := c.Request().Context()
	sess := session(c)
	key := c.Param("featureKey")

	view, err := dh.dashboard.FeatureDetail(ctx, sess, clientID, key, refresh)
	if err != nil {
		return dh.handleError(c, err)
	}
	if raw := c.QueryParam("configuration"); raw != "" {
		configurationID, convErr := strconv.Atoi(raw)
		if convErr != nil || configurationID < 0 {
			return errorJSON(c, http.StatusBadRequest, "INVALID_PARAMETER", "configuration must be a non-negative integer",
				map[string]string{"provided": raw})
		}
		if view, err = dh.dashboard.SelectConfiguration(ctx, sess, clientID, key, configurationID); err != nil {
			return dh.handleError(c, err)
		}
	}
	return c.JSON(http.StatusOK, view)
}

// SelectTab handles PUT /api/v1/clients/{clientId}/features/{featureKey}/tab
//
//	@Summary	Select usage table
//	@Tags		detail
//	@Accept		json
//	@Produce	json
//	@Param		clientId	path		int					true	"Client id"
//	@Param		featureKey	path		string				true	"Feature key"
//	@Param		body		body		models.TabRequest	true	"Level"
//	@Success	200			{object}	models.FeatureDetailView
//	@Router		/api/v1/clients/{clientId}/features/{featureKey}/tab [put]
func (dh *DashboardHandler) SelectTab(c echo.Context) error {
	clientID, handled, err := intParam(c, "clientId", c.Param("clientId"))
	if handled {
		return err
	}
	var req models.TabRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}
	view, err := dh.dashboard.SelectTab(c.Request().Context(), session(c), clientID, c.Param("featureKey"), req.Level)
	if err != nil {
		return dh.handleError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// CreateConfiguration handles POST /api/v1/clients/{clientId}/features/{featureKey}/configurations
//
//	@Summary		Add configuration
//	@Description	Validates the settings against the feature schema and creates the configuration. The new configuration is expanded.
//	@Tags			detail
//	@Accept			json
//	@Produce		json
//	@Param			clientId	path		int							true	"Client id"
//	@Param			featureKey	path		string						true	"Feature key"
//	@Param			body		body		models.ConfigurationForm	true	"Configuration"
//	@Success		201			{object}	models.Configuration
//	@Failure		422			{object}	models.ErrorResponse
//	@Failure		502			{object}	models.ErrorResponse
//	@Router			/api/v1/clients/{clientId}/features/{featureKey}/configurations [post]
func (dh *DashboardHandler) CreateConfiguration(c echo.Context) error {
	clientID, handled, err := intParam(c, "clientId", c.Param("clientId"))
	if handled {
		return err
	}
	var form models.ConfigurationForm
	if handled, err := bindAndValidate(c, &form); handled {
		return err
	}
	created, err := dh.dashboard.CreateConfiguration(c.Request().Context(), session(c), clientID, c.Param("featureKey"), form)
	if err != nil {
		return dh.handleError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UpdateConfiguration handles PUT /api/v1/clients/{clientId}/features/{featureKey}/configurations/{configurationId}
//
//	@Summary	Edit configuration
//	@Tags		detail
//	@Accept		json
//	@Produce	json
//	@Param		clientId		path		int							true	"Client id"
//	@Param		featureKey		path		string						true	"Feature key"
//	@Param		configurationId	path		int							true	"Configuration id"
//	@Param		body			body		models.ConfigurationForm	true	"Configuration"
//	@Success	200				{object}	models.Configuration
//	@Failure	404				{object}	models.ErrorResponse
//	@Failure	422				{object}	models.ErrorResponse
//	@Router		/api/v1/clients/{clientId}/features/{featureKey}/configurations/{configurationId} [put]
func (dh *DashboardHandler) UpdateConfiguration(c echo.Context) error {
	clientID, configurationID, handled, err := detailIDs(c)
	if handled {
		return err
	}
	var form models.ConfigurationForm
	if handled, err := bindAndValidate(c, &form); handled {
		return err
	}
	updated, err := dh.dashboard.UpdateConfiguration(c.Request().Context(), session(c), clientID, c.Param("featureKey"), configurationID, form)
	if err != nil {
		return dh.handleError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Expand handles POST .../configurations/{configurationId}/expanded
//
//	@Summary	Expand configuration
//	@Tags		detail
//	@Produce	json
//	@Param		clientId		path		int		true	"Client id"
//	@Param		featureKey		path		string	true	"Feature key"
//	@Param		configurationId	path		int		true	"Configuration id"
//	@Success	200				{object}	models.FeatureDetailView
//	@Router		/api/v1/clients/{clientId}/features/{featureKey}/configurations/{configurationId}/expanded [post]
func (dh *DashboardHandler) Expand(c echo.Context) error {
	return dh.setExpanded(c, true)
}

// Collapse handles DELETE .../configurations/{configurationId}/expanded
//
//	@Summary	Collapse configuration
//	@Tags		detail
//	@Produce	json
//	@Param		clientId		path		int		true	"Client id"
//	@Param		featureKey		path		string	true	"Feature key"
//	@Param		configurationId	path		int		true	"Configuration id"
//	@Success	200				{object}	models.FeatureDetailView
//	@Router		/api/v1/clients/{clientId}/features/{featureKey}/configurations/{configurationId}/expanded [delete]
func (dh *DashboardHandler) Collapse(c echo.Context) error {
	return dh.setExpanded(c, false)
}

func (dh *DashboardHandler) setExpanded(c echo.Context, expanded bool) error {
	clientID, configurationID, handled, err := detailIDs(c)
	if handled {
		return err
	}
	view, err := dh.dashboard.SetExpanded(c.Request().Context(), session(c), clientID, c.Param("featureKey"), configurationID, expanded)
	if err != nil {
		return dh.handleError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// CreateUsage handles POST /api/v1/clients/{clientId}/features/{featureKey}/usages
//
//	@Summary		Add usage
//	@Description	Binds a configuration to the client, a category or a tag. On the client level the level id defaults to the client in view.
//	@Tags			detail
//	@Accept			json
//	@Produce		json
//	@Param			clientId	path		int							true	"Client id"
//	@Param			featureKey	path		string						true	"Feature key"
//	@Param			body		body		models.CreateUsageRequest	true	"Usage"
//	@Success		201			{object}	models.Usage
//	@Failure		409			{object}	models.ErrorResponse
//	@Failure		502			{object}	models.ErrorResponse
//	@Router			/api/v1/clients/{clientId}/features/{featureKey}/usages [post]
func (dh *DashboardHandler) CreateUsage(c echo.Context) error {
	clientID, handled, err := intParam(c, "clientId", c.Param("clientId"))
	if handled {
		return err
	}
	var req models.CreateUsageRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}
	created, err := dh.dashboard.CreateUsage(c.Request().Context(), session(c), clientID, c.Param("featureKey"), req)
	if err != nil {
		return dh.handleError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// UsageAction handles POST /api/v1/clients/{clientId}/features/{featureKey}/usages/{level}/{action}
//
//	@Summary		Usage table action
//	@Description	Drives the edit and delete confirmation of a usage table. edit and delete need the row id in the body.
//	@Tags			detail
//	@Accept			json
//	@Produce		json
//	@Param			clientId	path		int						true	"Client id"
//	@Param			featureKey	path		string					true	"Feature key"
//	@Param			level		path		string					true	"Level"		Enums(client, category, tag)
//	@Param			action		path		string					true	"Action"	Enums(edit, toggle, save, delete, confirm, cancel, dismiss)
//	@Param			body		body		models.UsageRowRequest	false	"Row"
//	@Success		200			{object}	models.UsageFlowView
//	@Failure		409			{object}	models.ErrorResponse
//	@Router			/api/v1/clients/{clientId}/features/{featureKey}/usages/{level}/{action} [post]
func (dh *DashboardHandler) UsageAction(c echo.Context) error {
	clientID, handled, err := intParam(c, "clientId", c.Param("clientId"))
	if handled {
		return err
	}
	level, ok := models.ParseTableView(c.Param("level"))
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PARAMETER", "level must be client, category or tag",
			map[string]string{"provided": c.Param("level")})
	}

	action := c.Param("action")
	var req models.UsageRowRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST_FORMAT", "Request body must be valid JSON",
			map[string]string{"parse_error": err.Error()})
	}
	if (action == services.ActionEdit || action == services.ActionDelete) && req.RowID == "" {
		return errorJSON(c, http.StatusBadRequest, "VALIDATION_FAILED", "rowId is required for "+action,
			map[string]string{"rowId": "required"})
	}

	view, err := dh.dashboard.UsageAction(c.Request().Context(), session(c), clientID, c.Param("featureKey"), level, action, req.RowID)
	if err != nil {
		return dh.handleError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Health handles GET /health of the dashboard
func (dh *DashboardHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": dh.sessions.Len(),
	})
}

func detailIDs(c echo.Context) (clientID, configurationID int, handled bool, err error) {
	if clientID, handled, err = intParam(c, "clientId", c.Param("clientId")); handled {
		return
	}
	configurationID, handled, err = intParam(c, "configurationId", c.Param("configurationId"))
	return
}

// handleError converts dashboard errors to HTTP responses
func (dh *DashboardHandler) handleError(c echo.Context, err error) error {
	var notFound *services.NotFoundError
	var userErr *services.UserError
	var schemaErr *services.SchemaValidationError
	switch {
	case errors.As(err, &notFound):
		return errorJSON(c, http.StatusNotFound, "NOT_FOUND", notFound.Message,
			map[string]string{"resource": notFound.Resource})
	case errors.As(err, &schemaErr):
		return errorJSON(c, http.StatusUnprocessableEntity, "SCHEMA_VALIDATION_FAILED", schemaErr.Message,
			map[string][]services.ValidationError{"validation_errors": schemaErr.Errors})
	case errors.As(err, &userErr):
		if userErr.Message == services.MsgUsageExists {
			return errorJSON(c, http.StatusConflict, "USAGE_ALREADY_EXISTS", userErr.Message, nil)
		}
		return errorJSON(c, http.StatusBadGateway, "UPSTREAM_FAILED", userErr.Message, nil)
	case services.IsInvalidTransition(err):
		return errorJSON(c, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	default:
		logging.Ctx(c.Request().Context()).Error().Err(err).Msg("dashboard request failed")
		return errorJSON(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An unexpected error occurred", nil)
	}
}
