package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/clinic-booking/internal/domain"
)

// ResetNamespace tags reset tokens so no other signed token is accepted as one.
const ResetNamespace = "password-reset"

// ResetTokenTTL is the fixed validity window of a reset token.
const ResetTokenTTL = 3600 * time.Second

var (
	ErrResetTokenExpired = errors.New("reset token expired")
	ErrResetTokenInvalid = errors.New("reset token invalid")
)

// ResetClaims is the payload of a password reset token.
type ResetClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ResetTokenManager issues stateless, time-limited password reset tokens.
type ResetTokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewResetTokenManager builds a manager signing with secret.
func NewResetTokenManager(secret string) *ResetTokenManager {
	return &ResetTokenManager{secret: []byte(secret), now: time.Now}
}

// WithClock swaps the time source; used to pin issuance and validation times.
func (rm *ResetTokenManager) WithClock(now func() time.Time) *ResetTokenManager {
	return &ResetTokenManager{secret: rm.secret, now: now}
}

// Issue signs a token proving control of email for ResetTokenTTL.
func (rm *ResetTokenManager) Issue(email string) (string, time.Time, error) {
	issuedAt := rm.now()
	expiresAt := issuedAt.Add(ResetTokenTTL)
	claims := &ResetClaims{
		Email: domain.NormalizeEmail(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{ResetNamespace},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(rm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Validate returns the email embedded in a reset token.
func (rm *ResetTokenManager) Validate(tokenStr string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &ResetClaims{}, func(token *jwt.Token) (interface{}, error) {
		return rm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(ResetNamespace),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(rm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrResetTokenExpired
		}
		return "", ErrResetTokenInvalid
	}
	claims, ok := parsed.Claims.(*ResetClaims)
	if !ok || !parsed.Valid || claims.Email == "" {
		return "", ErrResetTokenInvalid
	}
	return claims.Email, nil
}
