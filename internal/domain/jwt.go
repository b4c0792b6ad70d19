package domain

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// Account roles issued by the plan API
const (
	RoleUser    = "USER"
	RoleTrainer = "TRAINER"
	RoleAdmin   = "ADMIN"
)

// PlanClaims represents the JWT claims issued by the plan API
type PlanClaims struct {
	AccountID int64  `json:"accId"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type accessTokenKey struct{}

// WithAccessToken stores the caller's bearer token so upstream calls can forward it
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext returns the bearer token stored by WithAccessToken
func AccessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}
