package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/clinic-booking/internal/domain"
	"github.com/spec-kit/clinic-booking/internal/repository"
	"github.com/spec-kit/clinic-booking/internal/repository/memory"
	apperrors "github.com/spec-kit/clinic-booking/pkg/util/errorutil"
)

type fakeRevocations struct {
	mu  sync.Mutex
	ids map[string]time.Duration
}

func (f *fakeRevocations) Revoke(_ context.Context, id string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[id] = ttl
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok, nil
}

type gateFixture struct {
	app      *fiber.App
	sessions *SessionManager
	store    *memory.Store
	revoked  *fakeRevocations
}

func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()
	store := memory.NewStore()
	sessions := NewSessionManager("test-secret", time.Hour)
	revoked := &fakeRevocations{ids: map[string]time.Duration{}}
	mw := NewSessionMiddleware(sessions, store.Users(), revoked, zap.NewNop(), false)

	app := fiber.New(fiber.Config{Immutable: true, ErrorHandler: func(c *fiber.Ctx, err error) error {
		var de *apperrors.DomainError
		if errors.As(err, &de) {
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code, "details": de.Details})
		}
		return fiber.DefaultErrorHandler(c, err)
	}})
	app.Use(mw.Load)
	app.Get("/private", RequireSession(), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(principal.Identity().Name)
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/logout", func(c *fiber.Ctx) error {
		mw.EndSession(c)
		return c.SendStatus(http.StatusNoContent)
	})
	return &gateFixture{app: app, sessions: sessions, store: store, revoked: revoked}
}

func (f *gateFixture) user(t *testing.T, email string, admin bool) (*domain.User, string) {
	t.Helper()
	user := &domain.User{Name: "User " + email, Email: email, PasswordHash: "x", IsAdmin: admin}
	require.NoError(t, f.store.Users().Create(context.Background(), user))
	token, _, err := f.sessions.Issue(user.Identity())
	require.NoError(t, err)
	return user, token
}

func (f *gateFixture) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	}
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestRequireSession(t *testing.T) {
	f := newGateFixture(t)
	_, token := f.user(t, "a@x.com", false)

	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/private", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/private", "garbage").StatusCode)
	assert.Equal(t, http.StatusOK, f.get(t, "/private", token).StatusCode)
}

func TestRequireSessionAcceptsBearer(t *testing.T) {
	f := newGateFixture(t)
	_, token := f.user(t, "a@x.com", false)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireAdminUsesStoredFlag(t *testing.T) {
	f := newGateFixture(t)
	user, token := f.user(t, "a@x.com", false)

	assert.Equal(t, http.StatusForbidden, f.get(t, "/admin", token).StatusCode)

	_, err := f.store.Users().SetAdmin(context.Background(), user.Email)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, f.get(t, "/admin", token).StatusCode)
}

func TestRequireAdminIgnoresStaleClaim(t *testing.T) {
	f := newGateFixture(t)
	user, _ := f.user(t, "a@x.com", false)

	forged, _, err := f.sessions.Issue(domain.Identity{ID: user.ID, Name: user.Name, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, f.get(t, "/admin", forged).StatusCode)
}

func TestSessionForDeletedUserIsAnonymous(t *testing.T) {
	f := newGateFixture(t)
	user, token := f.user(t, "a@x.com", true)
	f.store.DeleteUser(user.ID)

	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/admin", token).StatusCode)
}

func TestEndSessionRevokes(t *testing.T) {
	f := newGateFixture(t)
	_, token := f.user(t, "a@x.com", false)

	resp := f.get(t, "/logout", token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, f.revoked.ids, 1)

	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/private", token).StatusCode)
}

type unavailableUsers struct {
	repository.UserRepository
}

func (unavailableUsers) GetByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("connection refused")
}

func TestLoadStorageFailureIsInternalError(t *testing.T) {
	sessions := NewSessionManager("test-secret", time.Hour)
	mw := NewSessionMiddleware(sessions, unavailableUsers{}, nil, zap.NewNop(), false)
	app := fiber.New(fiber.Config{Immutable: true, ErrorHandler: func(c *fiber.Ctx, err error) error {
		var de *apperrors.DomainError
		if !errors.As(err, &de) {
			return fiber.DefaultErrorHandler(c, err)
		}
		return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
	}})
	app.Use(mw.Load)
	app.Get("/private", RequireSession(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	token, _, err := sessions.Issue(domain.Identity{ID: "7d0f5a44-5b7e-4f0e-9c59-1d2c8f3a9b10", Name: "Alice"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
