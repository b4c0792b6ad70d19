package telemetry

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicAuthHeaders(t *testing.T) {
	headers := BasicAuthHeaders("12345", "secret")
	// base64("12345:secret")
	assert.Equal(t, "Basic MTIzNDU6c2VjcmV0", headers["Authorization"])

	assert.Nil(t, BasicAuthHeaders("", "secret"))
	assert.Nil(t, BasicAuthHeaders("12345", ""))
}

func TestInitializeDisabled(t *testing.T) {
	provider, err := Initialize(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, provider)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestFiberMiddlewarePassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(FiberMiddleware())
	app.Get("/ping", func(c *fiber.Ctx) error {
		SetSpanAttributes(c)
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
