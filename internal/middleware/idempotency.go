package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// redisOpTimeout bounds each Redis call, not the request
const redisOpTimeout = 2 * time.Second

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// IdempotencyMiddleware replays the response of a mutating request when the same
// X-Correlation-ID is seen again within ttl. Keys are scoped per account.
func IdempotencyMiddleware(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Only apply to mutating methods
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get("X-Correlation-ID")
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%d:%s:%s", GetAccountID(c), c.Path(), correlationID)

		getCtx, cancelGet := context.WithTimeout(context.Background(), redisOpTimeout)
		raw, err := redisClient.Get(getCtx, key).Bytes()
		cancelGet()
		if err == nil && len(raw) > 0 {
			var cached cachedResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				c.Set("X-Idempotent-Replay", "true")
				c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
				return c.Status(cached.Status).Send(cached.Body)
			}
		}

		if err := c.Next(); err != nil {
			return err
		}

		// Cache successful responses (2xx status codes)
		statusCode := c.Response().StatusCode()
		if statusCode < 200 || statusCode >= 300 {
			return nil
		}

		// The response buffer is reused by fasthttp, so copy before storing
		body := append([]byte(nil), c.Response().Body()...)
		raw, err = json.Marshal(cachedResponse{Status: statusCode, Body: body})
		if err != nil {
			return nil
		}
		// The handler may have run for longer than the timeout, so the Set gets its own context
		setCtx, cancelSet := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancelSet()
		if err := redisClient.Set(setCtx, key, raw, ttl).Err(); err != nil {
			log.Printf("[idempotency] failed to store response for %s: %v", correlationID, err)
		}
		return nil
	}
}
