// Package webserver hosts the storefront HTTP API. Handlers register
// themselves through ApiGET and friends before the server is built.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/smarthealth/storefront/pkg/common"
	"go.uber.org/zap"
)

const ApiPrefix = "/api/v1"

type Options struct {
	Host      string
	Port      int
	JwtSecret string
	AdminRole string
	Debug     bool
}

type WebServer struct {
	root *echo.Echo
	opts Options
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// NewWebServer builds an echo instance with every registered route mounted.
func NewWebServer(opts Options) *WebServer {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Debug = opts.Debug
	e.Validator = &requestValidator{validate: validator.New()}
	e.HTTPErrorHandler = httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: common.UUID,
	}))
	e.Use(accessLog())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group(ApiPrefix)
	auth := jwtMiddleware(opts.JwtSecret)
	admin := requireRole(opts.AdminRole)
	for _, r := range registered() {
		var mws []echo.MiddlewareFunc
		switch r.access {
		case accessUser:
			mws = append(mws, auth)
		case accessAdmin:
			mws = append(mws, auth, admin)
		}
		mws = append(mws, r.middleware...)
		api.Add(r.method, r.path, r.handler, mws...)
	}

	return &WebServer{root: e, opts: opts}
}

// Echo exposes the underlying router, mainly for tests.
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

// Start blocks serving HTTP until Shutdown is called.
func (s *WebServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	zap.S().Infof("Prepare to start web server at %s", addr)
	err := s.root.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
		if he.Internal != nil {
			err = he.Internal
		}
	}
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("namespace", "http"),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	body := ErrorResponse{Error: msg, Code: statusCode(status)}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		zap.L().Error("write error response", zap.String("namespace", "http"), zap.Error(err))
	}
}

func statusCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusServiceUnavailable:
		return "UNAVAILABLE"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}

func accessLog() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.L().Info("request",
				zap.String("namespace", "http"),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency.Round(time.Microsecond)),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
				zap.String("user_id", UserID(c)),
			)
			return nil
		},
	})
}
