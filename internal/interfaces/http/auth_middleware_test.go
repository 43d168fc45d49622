package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/taller-api/internal/application/dto"
	"github.com/jhoicas/taller-api/internal/domain/entity"
	apphttp "github.com/jhoicas/taller-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/taller-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "taller-api-test"
	testExpMin    = 60
)

// gateApp monta las mismas compuertas de rol que el router.
func gateApp() *fiber.App {
	app := fiber.New()
	auth := apphttp.AuthMiddleware(testJWTSecret)
	ok := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	}
	app.Get("/abierta", auth, ok)
	app.Get("/admin", auth, apphttp.RequireRole(entity.RoleAdmin), ok)
	app.Get("/ventas", auth, apphttp.RequireRole(entity.RoleAdmin, entity.RoleVendedor), ok)
	app.Get("/api/notifications/stream", auth, ok)
	return app
}

func signedToken(t *testing.T, secret, role string, expMin int) string {
	t.Helper()
	tok, err := pkgjwt.Generate(secret, testUserID, testCompanyID, role, testIssuer, expMin)
	require.NoError(t, err)
	return tok
}

func get(t *testing.T, app *fiber.App, path, authHeader string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body dto.ErrorResponse
	if resp.StatusCode != http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestRequireRole_MatrizDeRoles(t *testing.T) {
	app := gateApp()
	cases := []struct {
		role string
		path string
		want int
	}{
		{entity.RoleAdmin, "/abierta", http.StatusOK},
		{entity.RoleAdmin, "/admin", http.StatusOK},
		{entity.RoleAdmin, "/ventas", http.StatusOK},
		{entity.RoleVendedor, "/abierta", http.StatusOK},
		{entity.RoleVendedor, "/admin", http.StatusForbidden},
		{entity.RoleVendedor, "/ventas", http.StatusOK},
		{entity.RoleTecnico, "/abierta", http.StatusOK},
		{entity.RoleTecnico, "/admin", http.StatusForbidden},
		{entity.RoleTecnico, "/ventas", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.role+tc.path, func(t *testing.T) {
			status, body := get(t, app, tc.path, "Bearer "+signedToken(t, testJWTSecret, tc.role, testExpMin))
			assert.Equal(t, tc.want, status)
			if tc.want == http.StatusForbidden {
				assert.Equal(t, apphttp.CodeForbidden, body.Code)
				assert.Contains(t, body.Message, tc.role)
			}
		})
	}
}

func TestAuthMiddleware_Rechazos(t *testing.T) {
	app := gateApp()
	cases := map[string]struct {
		path   string
		header string
		code   string
	}{
		"sin cabecera":       {"/abierta", "", "MISSING_TOKEN"},
		"esquema distinto":   {"/abierta", "Token abc", "INVALID_TOKEN"},
		"token malformado":   {"/abierta", "Bearer token.invalido.aqui", "INVALID_TOKEN"},
		"token expirado":     {"/abierta", "Bearer " + signedToken(t, testJWTSecret, entity.RoleAdmin, -1), "INVALID_TOKEN"},
		"otro secreto":       {"/abierta", "Bearer " + signedToken(t, "otro-secreto", entity.RoleAdmin, testExpMin), "INVALID_TOKEN"},
		"token sin rol":      {"/admin", "Bearer " + signedToken(t, testJWTSecret, "", testExpMin), "MISSING_ROLE"},
		"query fuera stream": {"/abierta?access_token=" + signedToken(t, testJWTSecret, entity.RoleAdmin, testExpMin), "", "MISSING_TOKEN"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			status, body := get(t, app, tc.path, tc.header)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestAuthMiddleware_CargaClaims(t *testing.T) {
	app := gateApp()
	tok := signedToken(t, testJWTSecret, entity.RoleTecnico, testExpMin)
	cases := map[string]struct {
		path   string
		header string
	}{
		"cabecera":        {"/abierta", "Bearer " + tok},
		"query en stream": {"/api/notifications/stream?access_token=" + tok, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, map[string]string{
				"user_id":    testUserID,
				"company_id": testCompanyID,
				"role":       entity.RoleTecnico,
			}, body)
		})
	}
}
