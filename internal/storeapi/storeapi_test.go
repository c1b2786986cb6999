package storeapi

import (
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/smarthealth/storefront/config"
	"github.com/smarthealth/storefront/internal/app"
	"github.com/smarthealth/storefront/internal/testutil"
	"github.com/smarthealth/storefront/internal/webserver"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret = "storeapi-test-secret"
	shopper    = "shopper-1"
)

type fixture struct {
	t   *testing.T
	app *app.Application
	db  *gorm.DB
	mr  *miniredis.Miniredis
	srv *webserver.WebServer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.Auth.JwtSecret = testSecret

	a := app.NewApplication(cfg)
	db := testutil.NewDB(t)
	a.OverrideDB(db)
	mr := miniredis.RunT(t)
	a.OverrideRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	a.InitServices()
	t.Cleanup(a.Release)

	Init(a)
	srv := webserver.NewWebServer(webserver.Options{JwtSecret: testSecret, AdminRole: cfg.Auth.AdminRole})
	return &fixture{t: t, app: a, db: db, mr: mr, srv: srv}
}

func (f *fixture) token(userID, role string) string {
	f.t.Helper()
	tok, err := webserver.IssueToken(testSecret, userID, role, time.Hour)
	require.NoError(f.t, err)
	return tok
}

// do sends a request as userID; an empty userID sends no token.
func (f *fixture) do(method, path, userID, role, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	req := httptest.NewRequest(method, webserver.ApiPrefix+path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+f.token(userID, role))
	}
	rec := httptest.NewRecorder()
	f.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available *int   `json:"available"`
}

type pagedBody[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
}

func idStr(id int64) string {
	return strconv.FormatInt(id, 10)
}
