package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("ADMIN_EMAILS", "")
	for _, key := range []string{"APP_HOST", "APP_PORT", "HTTP_REQUEST_TIMEOUT_SECONDS", "SESSION_TTL_MINUTES", "SESSION_COOKIE_SECURE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, devSecret, cfg.Auth.SecretKey)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL())
	assert.Empty(t, cfg.Notification.AdminEmails)
	assert.False(t, cfg.Auth.CookieSecure)
}

func TestLoadAdminEmailsAndDatabaseURL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ADMIN_EMAILS", " vet@clinic.test, ,front@clinic.test ")
	t.Setenv("DATABASE_URL", "postgres://clinic@localhost/clinic")
	t.Setenv("APP_BASE_URL", "https://clinic.test/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"vet@clinic.test", "front@clinic.test"}, cfg.Notification.AdminEmails)
	assert.Equal(t, "postgres://clinic@localhost/clinic", cfg.Postgres.DSN)
	assert.Equal(t, "https://clinic.test", cfg.App.BaseURL)
}

func TestLoadBootstrapAdmins(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("BOOTSTRAP_ADMIN_EMAILS", "owner@clinic.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"owner@clinic.test"}, cfg.Auth.BootstrapAdmins)
}

func TestLoadRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidMailPort(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("MAIL_PORT", "smtp")

	_, err := Load()
	assert.Error(t, err)
}

func TestMailEnabled(t *testing.T) {
	assert.False(t, MailConfig{Server: "smtp.example.com"}.Enabled())
	assert.True(t, MailConfig{Server: "smtp.example.com", DefaultSender: "clinic@example.com"}.Enabled())
}
