package auth

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

// RequireSession ensures the caller is logged in.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return loginRequired(c)
		}
		return c.Next()
	}
}

// RequireAdmin ensures the caller is logged in and is an admin according to storage.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return loginRequired(c)
		}
		if principal.User == nil || !principal.User.IsAdmin {
			return apperrors.NewForbidden("Admin access required.")
		}
		return c.Next()
	}
}

func loginRequired(c *fiber.Ctx) error {
	redirect := "/login?next=" + url.QueryEscape(c.Path())
	return apperrors.NewLoginRequired("Please log in to continue.", redirect)
}
