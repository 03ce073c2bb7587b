package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/phone_shop/internal/inventory"
	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/service"
	"github.com/Skotchmaster/phone_shop/internal/testutil"
	"github.com/Skotchmaster/phone_shop/pkg/tokens"
)

var testSecret = []byte("test-secret")

type testEnv struct {
	T    *testing.T
	E    *echo.Echo
	Fx   *testutil.Fixtures
	City *models.City

	Catalog  *CatalogHTTP
	Orders   *OrderHTTP
	Users    *UserHTTP
	Comments *CommentHTTP
	Wishlist *WishlistHTTP
	Vendors  *VendorHTTP
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	r := &repo.GormRepo{DB: db}
	ledger := inventory.NewLedger(db)
	catalog := &service.CatalogService{Repo: r, Ledger: ledger}

	env := &testEnv{
		T:        t,
		E:        echo.New(),
		Fx:       testutil.NewFixtures(t, db),
		Catalog:  &CatalogHTTP{Svc: catalog},
		Orders:   &OrderHTTP{Svc: &service.OrderService{Repo: r, Ledger: ledger, Catalog: catalog}},
		Users:    &UserHTTP{Svc: &service.UserService{Repo: r}},
		Comments: &CommentHTTP{Svc: &service.CommentService{Repo: r}},
		Wishlist: &WishlistHTTP{Svc: &service.WishlistService{Repo: r}},
		Vendors:  &VendorHTTP{Svc: &service.VendorService{Repo: r, Ledger: ledger, Catalog: catalog}},
	}
	env.City = env.Fx.City("Moscow")

	Register(env.E, &Deps{
		CatalogHandler:  env.Catalog,
		OrderHandler:    env.Orders,
		UserHandler:     env.Users,
		CommentHandler:  env.Comments,
		WishlistHandler: env.Wishlist,
		VendorHandler:   env.Vendors,
		JWTSecret:       testSecret,
	})
	return env
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return rec, env.E.NewContext(req, rec)
}

// serve sends the request through the router, middleware included.
func (env *testEnv) serve(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	rec, c := env.doJSONRequest(method, path, body, cookies...)
	env.E.ServeHTTP(rec, c.Request())
	return rec
}

func (env *testEnv) cookieFor(u *models.User) *http.Cookie {
	token, err := tokens.NewAccessToken(u.ID, u.Role, time.Minute, testSecret)
	require.NoError(env.T, err)
	return &http.Cookie{Name: "accessToken", Value: token, Path: "/"}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	return he.Code
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
