package webserver

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

type access int

const (
	accessUser access = iota
	accessPublic
	accessAdmin
)

type route struct {
	method     string
	path       string
	handler    echo.HandlerFunc
	access     access
	middleware []echo.MiddlewareFunc
}

var (
	routesMu  sync.Mutex
	apiRoutes []route
)

func addRoute(method, path string, h echo.HandlerFunc, a access, m []echo.MiddlewareFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	apiRoutes = append(apiRoutes, route{method: method, path: path, handler: h, access: a, middleware: m})
}

func registered() []route {
	routesMu.Lock()
	defer routesMu.Unlock()
	out := make([]route, len(apiRoutes))
	copy(out, apiRoutes)
	return out
}

// ApiGET registers an authenticated GET route under /api/v1
func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodGet, path, h, accessUser, m)
}

// ApiPOST registers an authenticated POST route under /api/v1
func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPost, path, h, accessUser, m)
}

// ApiPUT registers an authenticated PUT route under /api/v1
func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPut, path, h, accessUser, m)
}

// ApiDELETE registers an authenticated DELETE route under /api/v1
func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodDelete, path, h, accessUser, m)
}

// PublicGET registers a GET route that needs no session
func PublicGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodGet, path, h, accessPublic, m)
}

// PublicPOST registers a POST route that needs no session
func PublicPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPost, path, h, accessPublic, m)
}

// AdminPOST registers a POST route restricted to the admin role
func AdminPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPost, path, h, accessAdmin, m)
}

// AdminPUT registers a PUT route restricted to the admin role
func AdminPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPut, path, h, accessAdmin, m)
}

// AdminDELETE registers a DELETE route restricted to the admin role
func AdminDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodDelete, path, h, accessAdmin, m)
}

// AdminGET registers a GET route restricted to the admin role
func AdminGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodGet, path, h, accessAdmin, m)
}
