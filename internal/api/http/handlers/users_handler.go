package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-booking/internal/api/dto"
	"github.com/spec-kit/clinic-booking/internal/auth"
	"github.com/spec-kit/clinic-booking/internal/service"
)

// UsersHandler exposes account, session and password reset endpoints.
type UsersHandler struct {
	identity *service.IdentityService
	sessions *auth.SessionMiddleware
}

// NewUsersHandler constructs handler.
func NewUsersHandler(identity *service.IdentityService, sessions *auth.SessionMiddleware) *UsersHandler {
	return &UsersHandler{identity: identity, sessions: sessions}
}

// RegisterForm handles GET /register.
func (h *UsersHandler) RegisterForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"fields": []string{"name", "email", "password", "confirm"}})
}

// Register handles POST /register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.identity.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Registration successful. Please log in.", "/login", dto.NewUserResponse(user))
}

// LoginForm handles GET /login.
func (h *UsersHandler) LoginForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"fields": []string{"email", "password"},
		"next":   safeNext(c.Query("next")),
	})
}

// Login handles POST /login. The redirect honors ?next= only for same-site paths.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.identity.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, session, err := h.sessions.StartSession(c, user)
	if err != nil {
		return err
	}

	next := safeNext(c.Query("next"))
	if next == "" {
		next = safeNext(req.Next)
	}
	if next == "" {
		next = "/"
	}
	return respond(c, http.StatusOK, fmt.Sprintf("Welcome, %s!", user.Name), next, fiber.Map{
		"user":    dto.NewUserResponse(user),
		"session": dto.SessionResponse{Token: token, ExpiresAt: session.ExpiresAt},
	})
}

// Logout handles GET /logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	h.sessions.EndSession(c)
	return respond(c, http.StatusOK, "Logged out.", "/", nil)
}

// Profile handles GET /profile.
func (h *UsersHandler) Profile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", "", dto.NewUserResponse(p.User))
}

// UpdateProfile handles POST /profile and refreshes the session cookie.
func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.identity.UpdateProfile(c.UserContext(), p.Identity(), service.ProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		NewPassword:     req.NewPassword,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		return err
	}
	if _, _, err := h.sessions.StartSession(c, user); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile updated.", "/profile", dto.NewUserResponse(user))
}

// MakeAdmin handles GET /make_admin/:email.
func (h *UsersHandler) MakeAdmin(c *fiber.Ctx) error {
	user, err := h.identity.PromoteToAdmin(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, fmt.Sprintf("%s is now admin.", user.Email), "/", dto.NewUserResponse(user))
}

// ResetForm handles GET /reset.
func (h *UsersHandler) ResetForm(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"fields": []string{"email"}})
}

// RequestReset handles POST /reset. The answer never reveals whether the account exists.
func (h *UsersHandler) RequestReset(c *fiber.Ctx) error {
	var req dto.ResetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.identity.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "If that email exists, a reset link has been sent.", "/login", nil)
}

// ResetTokenForm handles GET /reset/:token.
func (h *UsersHandler) ResetTokenForm(c *fiber.Ctx) error {
	user, err := h.identity.ValidateResetToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"email":  user.Email,
		"fields": []string{"password", "confirm"},
	})
}

// ResetPassword handles POST /reset/:token.
func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.identity.ResetPassword(c.UserContext(), c.Params("token"), req.Password, req.Confirm); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Password updated. Please log in.", "/login", nil)
}
