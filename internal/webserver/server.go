package webserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/talkincode/productapi/internal/app"
	"go.uber.org/zap"
)

const apiPrefix = "/api"

// WebServer owns the echo instance and the /api route group.
type WebServer struct {
	appCtx app.AppContext
	root   *echo.Echo
	api    *echo.Group
	routes []RouteInfo
}

// RouteInfo describes a registered API route for the index page.
type RouteInfo struct {
	Method string
	Path   string
}

func NewWebServer(appCtx app.AppContext) *WebServer {
	cfg := appCtx.Config()
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.System.Debug
	e.JSONSerializer = JSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	if cfg.Web.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.Web.BodyLimit))
	}
	if cfg.Web.RequestTimeout > 0 {
		// Store calls observe the deadline; handlers report it as a storage failure.
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
			Timeout: cfg.Web.RequestTimeout,
		}))
	}

	s := &WebServer{appCtx: appCtx, root: e}

	e.GET("/", s.index)
	e.GET("/healthz", s.healthz)

	s.api = e.Group(apiPrefix, ReadinessGate(appCtx))
	if secret := cfg.Web.JwtSecret; secret != "" {
		s.api.Use(echojwt.WithConfig(echojwt.Config{
			SigningKey: []byte(secret),
			Skipper: func(c echo.Context) bool {
				m := c.Request().Method
				return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
			},
			ErrorHandler: func(c echo.Context, err error) error {
				zap.L().Debug("rejected token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
			},
		}))
	}
	s.api.Use(InjectStore(appCtx))
	return s
}

// Echo exposes the underlying instance, mainly for tests.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Routes returns the API routes in registration order.
func (s *WebServer) Routes() []RouteInfo {
	return s.routes
}

func (s *WebServer) add(method, path string, h echo.HandlerFunc) {
	s.api.Add(method, path, h)
	s.routes = append(s.routes, RouteInfo{Method: method, Path: apiPrefix + path})
}

func (s *WebServer) ApiGET(path string, h echo.HandlerFunc) {
	s.add(http.MethodGet, path, h)
}

func (s *WebServer) ApiPOST(path string, h echo.HandlerFunc) {
	s.add(http.MethodPost, path, h)
}

func (s *WebServer) ApiPUT(path string, h echo.HandlerFunc) {
	s.add(http.MethodPut, path, h)
}

func (s *WebServer) ApiPATCH(path string, h echo.HandlerFunc) {
	s.add(http.MethodPatch, path, h)
}

func (s *WebServer) ApiDELETE(path string, h echo.HandlerFunc) {
	s.add(http.MethodDelete, path, h)
}

// Start blocks serving on the configured address until Shutdown.
func (s *WebServer) Start() error {
	addr := s.appCtx.Config().Addr()
	zap.L().Info("http server listening", zap.String("addr", addr))
	if err := s.root.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

func (s *WebServer) index(c echo.Context) error {
	var b strings.Builder
	b.WriteString("<h1>")
	b.WriteString(s.appCtx.Config().System.Appid)
	b.WriteString(" API</h1>\n<p>Endpoints:</p>\n<ul>\n")
	for _, r := range s.routes {
		b.WriteString("    <li>")
		b.WriteString(r.Method)
		b.WriteString(" ")
		b.WriteString(r.Path)
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
	return c.HTML(http.StatusOK, b.String())
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	CheckedAt string `json:"checkedAt,omitempty"`
}

func (s *WebServer) healthz(c echo.Context) error {
	h := s.appCtx.Health()
	resp := healthResponse{Status: s.appCtx.State().String(), Database: "unknown"}
	if !h.CheckedAt.IsZero() {
		resp.CheckedAt = h.CheckedAt.UTC().Format(time.RFC3339)
		resp.Database = "ok"
		if h.Err != nil {
			resp.Database = "unreachable"
		}
	}
	status := http.StatusOK
	if !s.appCtx.IsReady() {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
