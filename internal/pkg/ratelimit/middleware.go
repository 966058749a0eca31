package ratelimit

import (
	"nexus-chat-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

// Middleware rejects with 429 once the caller's identity exceeds the window.
// The identity is the authenticated user id, or the client IP before auth.
func Middleware(limiter Limiter, onReject func(surface string)) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		key, _ := ctx.Locals("user_id").(string)
		if key == "" {
			key = "ip:" + ctx.IP()
		}

		ok, err := limiter.Allow(ctx.UserContext(), key)
		if err != nil {
			return err
		}
		if !ok {
			if onReject != nil {
				onReject("http")
			}
			return ctx.Status(fiber.StatusTooManyRequests).JSON(
				serverutils.ErrorResponse(fiber.StatusTooManyRequests, "rate_limited", "too many requests, slow down"),
			)
		}
		return ctx.Next()
	}
}
