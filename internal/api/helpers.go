package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/talkincode/productapi/internal/domain"
	"github.com/talkincode/productapi/internal/webserver"
	"go.uber.org/zap"
)

// ok writes a 200 JSON response.
func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// fail writes {"error": msg}. code and detail only reach the log.
func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("path", c.Path()),
	}
	if detail != nil {
		fields = append(fields, zap.Any("detail", detail))
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error(msg, fields...)
	} else {
		zap.L().Debug(msg, fields...)
	}
	return c.JSON(status, webserver.ErrorResponse{Error: msg})
}

// failInput maps a rejected input to a 400, everything else to a 500 without detail.
func failInput(c echo.Context, err error) error {
	var ie *domain.InputError
	if errors.As(err, &ie) {
		code := "INVALID_REQUEST"
		if errors.Is(err, domain.ErrInvalidQuery) {
			code = "INVALID_QUERY"
		}
		return fail(c, http.StatusBadRequest, code, ie.Message, nil)
	}
	return failStorage(c, err)
}

// failBody reports a body that could not be read, decoded or validated.
func failBody(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return err
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return handleValidationError(c, err)
	}
	var ie *domain.InputError
	if errors.As(err, &ie) {
		return failInput(c, err)
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
}

func failStorage(c echo.Context, err error) error {
	return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Internal server error", err.Error())
}

// readBody decodes a JSON object body into a field map. An absent body is an empty map.
func readBody(c echo.Context) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := new(echo.DefaultBinder).BindBody(c, &body); err != nil {
		return nil, err
	}
	if body == nil {
		body = map[string]interface{}{}
	}
	return body, nil
}

// decodeBody strictly decodes the field map into dst: a JSON type that does not
// match the destination field is rejected rather than coerced. Unknown keys are ignored.
func decodeBody(body map[string]interface{}, dst interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: false,
		Result:           dst,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(body); err != nil {
		return domain.NewValidationError("Invalid data types")
	}
	return nil
}

// handleValidationError renders a validator failure as a 400.
func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
	}
	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "Missing required fields"
	case "notblank":
		msg = "Field '" + fe.Field() + "' must not be empty"
	case "gte":
		msg = "Field '" + fe.Field() + "' must be greater than or equal to " + fe.Param()
	case "max":
		msg = "Field '" + fe.Field() + "' must be at most " + fe.Param() + " characters"
	default:
		msg = "Invalid value for field '" + fe.Field() + "'"
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", msg, err.Error())
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
