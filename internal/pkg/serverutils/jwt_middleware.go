package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const userIDLocal = "user_id"

var ErrInvalidToken = errors.New("invalid token")

// ParseUserID verifies an HMAC signed token and returns its subject. The user
// id is read from the "user_id" claim, falling back to "sub".
func ParseUserID(tokenStr, secret string) (string, error) {
	if tokenStr == "" {
		return "", fmt.Errorf("%w: missing token", ErrInvalidToken)
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}

	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		return uid, nil
	}
	if sub, err := claims.GetSubject(); err == nil && sub != "" {
		return sub, nil
	}
	return "", fmt.Errorf("%w: token missing user_id", ErrInvalidToken)
}

// BearerToken extracts the token from the ?token= query or the Authorization header.
func BearerToken(ctx *fiber.Ctx) string {
	if tokenStr := ctx.Query("token"); tokenStr != "" {
		return tokenStr
	}
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

func JwtMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		userID, err := ParseUserID(BearerToken(ctx), secret)
		if err != nil {
			return ctx.Status(fiber.StatusUnauthorized).JSON(
				ErrorResponse(fiber.StatusUnauthorized, "auth_failed", err.Error()),
			)
		}
		ctx.Locals(userIDLocal, userID)
		return ctx.Next()
	}
}

// UserID returns the identity stored by JwtMiddleware.
func UserID(ctx *fiber.Ctx) string {
	uid, _ := ctx.Locals(userIDLocal).(string)
	return uid
}
