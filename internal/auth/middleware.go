package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/repository"
	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"

	// SessionCookie carries the signed session token.
	SessionCookie = "session"
)

// Principal represents the authenticated caller for one request.
type Principal struct {
	Session domain.Session
	User    *domain.User
}

// Identity returns the caller identity as stored, not as cached in the cookie.
func (p *Principal) Identity() domain.Identity {
	return p.User.Identity()
}

// SessionMiddleware validates session tokens and loads principals.
type SessionMiddleware struct {
	sessions *SessionManager
	users    repository.UserRepository
	revoked  RevocationStore
	logger   *zap.Logger
	secure   bool
}

// NewSessionMiddleware constructs middleware. revoked may be nil when no Redis is configured.
func NewSessionMiddleware(sessions *SessionManager, users repository.UserRepository, revoked RevocationStore, logger *zap.Logger, secureCookie bool) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, users: users, revoked: revoked, logger: logger, secure: secureCookie}
}

// Load attaches the principal when the request carries a valid session.
// Anonymous requests pass through; stale or revoked cookies are cleared.
func (m *SessionMiddleware) Load(c *fiber.Ctx) error {
	raw, fromCookie := sessionToken(c)
	if raw == "" {
		return c.Next()
	}

	session, err := m.sessions.Parse(raw)
	if err != nil {
		m.dropCookie(c, fromCookie)
		return c.Next()
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(c.UserContext(), session.ID)
		if err != nil {
			m.logger.Warn("session revocation lookup failed", zap.Error(err))
		} else if revoked {
			m.dropCookie(c, fromCookie)
			return c.Next()
		}
	}

	user, err := m.users.GetByID(c.UserContext(), session.Identity.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			m.dropCookie(c, fromCookie)
			return c.Next()
		}
		return apperrors.ToDomainError(err)
	}

	c.Locals(principalKey, &Principal{Session: session, User: user})
	return c.Next()
}

// StartSession issues a session for user, sets the cookie and returns the token.
func (m *SessionMiddleware) StartSession(c *fiber.Ctx, user *domain.User) (string, domain.Session, error) {
	token, session, err := m.sessions.Issue(user.Identity())
	if err != nil {
		return "", domain.Session{}, err
	}
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return token, session, nil
}

// EndSession revokes the caller's session, if any, and clears the cookie.
func (m *SessionMiddleware) EndSession(c *fiber.Ctx) {
	if principal, ok := PrincipalFromContext(c); ok && m.revoked != nil {
		ttl := time.Until(principal.Session.ExpiresAt)
		if err := m.revoked.Revoke(c.UserContext(), principal.Session.ID, ttl); err != nil {
			m.logger.Warn("session revoke failed", zap.Error(err))
		}
	}
	c.ClearCookie(SessionCookie)
}

func (m *SessionMiddleware) dropCookie(c *fiber.Ctx, fromCookie bool) {
	if fromCookie {
		c.ClearCookie(SessionCookie)
	}
}

func sessionToken(c *fiber.Ctx) (string, bool) {
	if cookie := c.Cookies(SessionCookie); cookie != "" {
		return cookie, true
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1]), false
	}
	return "", false
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
