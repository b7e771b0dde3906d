package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/clinic-booking/internal/domain"
)

const sessionIssuer = "clinic-booking"

// SessionManager issues and validates signed session tokens.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager builds a new manager.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// SessionClaims describes the session JWT payload. Name and admin flag are a
// cache for display only; access checks re-read the user from storage.
type SessionClaims struct {
	UserID  string `json:"uid"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"adm"`
	jwt.RegisteredClaims
}

// TTL returns the lifetime of newly issued sessions.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Issue builds and signs a session for the identity.
func (sm *SessionManager) Issue(identity domain.Identity) (string, domain.Session, error) {
	issuedAt := sm.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		Identity:  identity,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(sm.ttl),
	}
	claims := &SessionClaims{
		UserID:  identity.ID,
		Name:    identity.Name,
		IsAdmin: identity.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Issuer:    sessionIssuer,
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(sm.secret)
	if err != nil {
		return "", domain.Session{}, err
	}
	return tokenString, session, nil
}

// Parse validates a session token and returns the session it describes.
func (sm *SessionManager) Parse(tokenStr string) (domain.Session, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return sm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(sm.now),
	)
	if err != nil {
		return domain.Session{}, err
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || claims.UserID == "" || claims.ID == "" {
		return domain.Session{}, errors.New("invalid session claims")
	}
	session := domain.Session{
		ID:        claims.ID,
		Identity:  domain.Identity{ID: claims.UserID, Name: claims.Name, IsAdmin: claims.IsAdmin},
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}
