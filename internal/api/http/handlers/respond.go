package handlers

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-booking/internal/auth"
	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

// envelope is the success body: a human-readable message, where a browser
// should go next, and the payload.
type envelope struct {
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Data     any    `json:"data,omitempty"`
}

func respond(c *fiber.Ctx, status int, message, redirect string, data any) error {
	return c.Status(status).JSON(envelope{Message: message, Redirect: redirect, Data: data})
}

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewLoginRequired("Please log in to continue.", "/login")
	}
	return p, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// safeNext returns next only when it is a path on this site.
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}
