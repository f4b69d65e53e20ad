package webserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/talkincode/productapi/internal/app"
	"github.com/talkincode/productapi/internal/store"
	"go.uber.org/zap"
)

const storeContextKey = "productapi.store"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ReadinessGate rejects API traffic with 503 until the application is Ready.
func ReadinessGate(rp app.ReadinessProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rp.IsReady() {
				return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Service not ready"})
			}
			return next(c)
		}
	}
}

// InjectStore places the store handle in the request context for handlers.
func InjectStore(sp app.StoreProvider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(storeContextKey, sp.Store())
			return next(c)
		}
	}
}

// GetStore returns the store injected by InjectStore.
func GetStore(c echo.Context) store.Store {
	st, _ := c.Get(storeContextKey).(store.Store)
	return st
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				zap.L().Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			zap.L().Debug("request", fields...)
			return nil
		},
	})
}
