package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"feature-dashboard/src/logging"
	"feature-dashboard/src/metrics"
	"feature-dashboard/src/models"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// JSONSerializer is an echo serializer backed by goccy/go-json
type JSONSerializer struct{}

// Serialize encodes i as the response body
func (JSONSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

// Deserialize decodes the request body into i
func (JSONSerializer) Deserialize(c echo.Context, i interface{}) error {
	err := json.NewDecoder(c.Request().Body).Decode(i)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

// RequestValidator validates request DTOs by their validate tags
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator that reports json field names
func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// New creates an echo instance with the shared middleware stack
func New() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = JSONSerializer{}
	e.Validator = NewRequestValidator()

	e.Use(middleware.Recover())
	e.Use(logging.RequestID())
	e.Use(logging.RequestLogger())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORS())
	return e
}

// bindAndValidate binds the request body into req and validates it. On
// failure the error response is already written and handled is true.
func bindAndValidate(c echo.Context, req interface{}) (handled bool, err error) {
	if err := c.Bind(req); err != nil {
		return true, c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST_FORMAT",
				Message: "Request body must be valid JSON",
				Details: map[string]string{"parse_error": err.Error()},
			},
		})
	}
	if err := c.Validate(req); err != nil {
		return true, c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.ErrorDetail{
				Code:    "VALIDATION_FAILED",
				Message: "Request body failed validation",
				Details: fieldErrors(err),
			},
		})
	}
	return false, nil
}

func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["error"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// intParam parses a positive integer path or query value. On failure the
// error response is already written and handled is true.
func intParam(c echo.Context, name, value string) (id int, handled bool, err error) {
	id, convErr := strconv.Atoi(value)
	if convErr != nil || id <= 0 {
		return 0, true, c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.ErrorDetail{
				Code:    "INVALID_PARAMETER",
				Message: fmt.Sprintf("%s must be a positive integer", name),
				Details: map[string]string{"provided": value},
			},
		})
	}
	return id, false, nil
}

func errorJSON(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, models.ErrorResponse{
		Success: false,
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
