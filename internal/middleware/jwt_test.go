package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/autodrive/test-drive-portal/internal/model"
	"github.com/autodrive/test-drive-portal/internal/utils"
)

func authedServer(t *testing.T, secret string) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("", JWTAuth(secret))
	g.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"name": c.Get("user_name")})
	})
	g.GET("/sales", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, RequireRole(model.RoleSales))
	return e
}

func getWithToken(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuth(t *testing.T) {
	const secret = "s3cret"
	e := authedServer(t, secret)

	at, err := utils.NewAccessToken(secret, 1, model.RoleClient, "Budi", 15)
	if err != nil {
		t.Fatal(err)
	}

	if rec := getWithToken(e, "/me", at.Token); rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, body %s", rec.Code, rec.Body)
	}
	if rec := getWithToken(e, "/me", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", rec.Code)
	}
	if rec := getWithToken(e, "/me", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("malformed token: status = %d", rec.Code)
	}

	wrong, _ := utils.NewAccessToken("other-secret", 1, model.RoleClient, "Budi", 15)
	if rec := getWithToken(e, "/me", wrong.Token); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: status = %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	const secret = "s3cret"
	e := authedServer(t, secret)

	client, _ := utils.NewAccessToken(secret, 1, model.RoleClient, "Budi", 15)
	if rec := getWithToken(e, "/sales", client.Token); rec.Code != http.StatusForbidden {
		t.Fatalf("client on sales route: status = %d, want 403", rec.Code)
	}

	sales, _ := utils.NewAccessToken(secret, 2, model.RoleSales, "Sari", 15)
	if rec := getWithToken(e, "/sales", sales.Token); rec.Code != http.StatusOK {
		t.Fatalf("sales on sales route: status = %d", rec.Code)
	}
}
