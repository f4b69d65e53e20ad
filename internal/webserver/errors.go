package webserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// httpErrorHandler renders every unhandled error as {"error": message}.
// Unmatched paths and methods both read as a missing endpoint.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := "Internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch status {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			status = http.StatusNotFound
			msg = "Endpoint not found"
		default:
			if m := cast.ToString(he.Message); m != "" {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		}
	} else {
		zap.L().Error("unhandled request error",
			zap.String("uri", c.Request().RequestURI),
			zap.Error(err))
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, ErrorResponse{Error: msg})
	}
	if werr != nil {
		zap.L().Warn("failed to write error response", zap.Error(werr))
	}
}
