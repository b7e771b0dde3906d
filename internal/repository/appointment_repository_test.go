package repository

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/clinic-booking/internal/domain"
)

func TestBuildAppointmentQueryAdminFilters(t *testing.T) {
	status := domain.AppointmentStatusPending
	term := "50%_off"
	date := "2024-05-01"

	query, args := buildAppointmentQuery(AppointmentFilter{
		Status:               &status,
		SearchTerm:           &term,
		Date:                 &date,
		ExcludeHiddenByAdmin: true,
	})

	assert.Contains(t, query, "a.status=$1")
	assert.Contains(t, query, "a.date=$2")
	assert.Contains(t, query, "a.hidden_by_admin = FALSE")
	assert.NotContains(t, query, "a.hidden_by_user = FALSE")
	assert.Contains(t, query, "LOWER(u.name) LIKE $3")
	assert.True(t, strings.HasSuffix(query, "ORDER BY a.date ASC, a.time ASC, a.status ASC, a.created_at ASC"))
	assert.Equal(t, []any{status, date, `%50\%\_off%`}, args)
}

func TestBuildAppointmentQueryUserListing(t *testing.T) {
	userID := "7d0f5a44-5b7e-4f0e-9c59-1d2c8f3a9b10"

	query, args := buildAppointmentQuery(AppointmentFilter{
		UserID:              &userID,
		ExcludeHiddenByUser: true,
		Limit:               5,
	})

	assert.Contains(t, query, "a.user_id=$1")
	assert.Contains(t, query, "a.hidden_by_user = FALSE")
	assert.True(t, strings.HasSuffix(query, "LIMIT 5"))
	assert.Equal(t, []any{userID}, args)
}

// The tests below need a migrated Postgres database.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresAppointmentLifecycle(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	appts := NewAppointmentRepository(pool)

	owner := &domain.User{Name: "Repo Owner", Email: "repo-" + strings.ToLower(t.Name()) + "@example.com", PasswordHash: "x"}
	require.NoError(t, users.Create(ctx, owner))
	t.Cleanup(func() { _, _ = pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, owner.ID) })

	err := users.Create(ctx, &domain.User{Name: "Dup", Email: owner.Email, PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	appt := &domain.Appointment{UserID: owner.ID, Service: "Checkup", Date: "2024-05-01", Time: "10:00", Status: domain.AppointmentStatusPending}
	require.NoError(t, appts.Create(ctx, appt))

	updated, err := appts.UpdateStatus(ctx, appt.ID, domain.AppointmentStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusConfirmed, updated.Status)
	assert.Equal(t, "Repo Owner", updated.OwnerName)
	assert.Equal(t, "", updated.PetName)

	require.NoError(t, appts.HideForUser(ctx, appt.ID, owner.ID))
	listed, err := appts.ListWithFilter(ctx, AppointmentFilter{UserID: &owner.ID, ExcludeHiddenByUser: true})
	require.NoError(t, err)
	assert.Empty(t, listed)

	require.NoError(t, appts.Delete(ctx, appt.ID))
	_, err = appts.GetByID(ctx, appt.ID)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
