package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/healthweb/planboard/internal/domain"
	"github.com/healthweb/planboard/internal/telemetry"
)

// Context keys for storing account info
const (
	AccountIDKey   = telemetry.AccountIDLocal
	RoleKey        = "role"
	AccessTokenKey = "accessToken"
)

// VerifyPlanToken validates the plan API's JWT and extracts its claims.
// The raw token is kept so upstream week fetches can be made on behalf of the caller.
func VerifyPlanToken(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization token",
			})
		}

		// Extract token (format: "Bearer <token>")
		tokenString := authHeader
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenString = authHeader[7:]
		}

		token, err := jwt.ParseWithClaims(tokenString, &domain.PlanClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		claims, ok := token.Claims.(*domain.PlanClaims)
		if !ok || !token.Valid || claims.AccountID <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token claims",
			})
		}

		c.Locals(AccountIDKey, claims.AccountID)
		c.Locals(RoleKey, claims.Role)
		c.Locals(AccessTokenKey, tokenString)
		c.SetUserContext(domain.WithAccessToken(c.UserContext(), tokenString))

		return c.Next()
	}
}

// AuthorizeRole checks that the account has one of the allowed roles
func AuthorizeRole(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(RoleKey).(string)
		if !ok || role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No role found in token",
			})
		}

		for _, allowed := range allowedRoles {
			if role == allowed {
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":          "Insufficient permissions",
			"required_roles": allowedRoles,
		})
	}
}

// GetAccountID returns the account id stored by VerifyPlanToken, 0 when absent
func GetAccountID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(AccountIDKey).(int64)
	return id
}

// GetAccessToken returns the caller's raw bearer token
func GetAccessToken(c *fiber.Ctx) string {
	token, _ := c.Locals(AccessTokenKey).(string)
	return token
}
