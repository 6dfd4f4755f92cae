package serverutils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseUserID(t *testing.T) {
	id := uuid.New()
	good := signToken(t, jwt.MapClaims{"user_id": id.String(), "exp": time.Now().Add(time.Hour).Unix()}, testSecret)

	got, err := ParseUserID(good, testSecret)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUserID(good, "other-secret")
	assert.Error(t, err)

	expired := signToken(t, jwt.MapClaims{"user_id": id.String(), "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)
	_, err = ParseUserID(expired, testSecret)
	assert.Error(t, err)

	noSubject := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	_, err = ParseUserID(noSubject, testSecret)
	assert.Error(t, err)
}

func TestJwtMiddlewareSetsCaller(t *testing.T) {
	id := uuid.New()
	app := fiber.New()
	app.Get("/me", NewJwtMiddleware(testSecret), func(ctx *fiber.Ctx) error {
		caller, err := UserID(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(caller.String())
	})

	req := httptest.NewRequest("GET", "/me", nil)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	token := signToken(t, jwt.MapClaims{"user_id": id.String(), "exp": time.Now().Add(time.Hour).Unix()}, testSecret)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	req = httptest.NewRequest("GET", "/me?token="+token, nil)
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	res, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}
