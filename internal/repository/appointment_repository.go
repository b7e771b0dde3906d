package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/clinic-booking/internal/domain"
)

// AppointmentFilter captures listing parameters. Nil fields are not filtered on.
type AppointmentFilter struct {
	UserID               *string
	Status               *domain.AppointmentStatus
	SearchTerm           *string
	Date                 *string
	FromDate             *string
	ExcludeHiddenByUser  bool
	ExcludeHiddenByAdmin bool
	Limit                int
}

// AppointmentRepository encapsulates appointment persistence. Mutations are
// single statements so concurrent requests rely on row-level atomicity only.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) (*domain.Appointment, error)
	HideForUser(ctx context.Context, id, userID string) error
	SetHiddenByAdmin(ctx context.Context, id string, hidden bool) error
	DeleteOwned(ctx context.Context, id, userID string) error
	Delete(ctx context.Context, id string) error
	ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository instantiates repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `a.id, a.user_id, COALESCE(a.pet_name, ''), a.service, a.date, a.time, a.status,
               a.hidden_by_user, a.hidden_by_admin, a.created_at, u.name, u.email`

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (user_id, pet_name, service, date, time, status, hidden_by_user, hidden_by_admin)
        VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		appt.UserID,
		appt.PetName,
		appt.Service,
		appt.Date,
		appt.Time,
		appt.Status,
		appt.HiddenByUser,
		appt.HiddenByAdmin,
	).Scan(&appt.ID, &appt.CreatedAt)
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
        FROM appointments a JOIN users u ON u.id = a.user_id
        WHERE a.id=$1`
	return scanAppointment(r.pool.QueryRow(ctx, query, id))
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	query := `
        WITH a AS (
            UPDATE appointments SET status=$2 WHERE id=$1
            RETURNING id, user_id, pet_name, service, date, time, status, hidden_by_user, hidden_by_admin, created_at
        )
        SELECT ` + appointmentColumns + `
        FROM a JOIN users u ON u.id = a.user_id`
	return scanAppointment(r.pool.QueryRow(ctx, query, id, status))
}

func (r *appointmentRepository) HideForUser(ctx context.Context, id, userID string) error {
	const query = `UPDATE appointments SET hidden_by_user=TRUE WHERE id=$1 AND user_id=$2`
	return r.execOne(ctx, query, id, userID)
}

func (r *appointmentRepository) SetHiddenByAdmin(ctx context.Context, id string, hidden bool) error {
	const query = `UPDATE appointments SET hidden_by_admin=$2 WHERE id=$1`
	return r.execOne(ctx, query, id, hidden)
}

func (r *appointmentRepository) DeleteOwned(ctx context.Context, id, userID string) error {
	const query = `DELETE FROM appointments WHERE id=$1 AND user_id=$2`
	return r.execOne(ctx, query, id, userID)
}

func (r *appointmentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM appointments WHERE id=$1`
	return r.execOne(ctx, query, id)
}

func (r *appointmentRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepository) ListWithFilter(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error) {
	query, args := buildAppointmentQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *appt)
	}
	return result, rows.Err()
}

func buildAppointmentQuery(filter AppointmentFilter) (string, []any) {
	base := `SELECT ` + appointmentColumns + `
             FROM appointments a JOIN users u ON u.id = a.user_id`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("a.user_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("a.status=$%d", len(args)))
	}
	if filter.Date != nil {
		args = append(args, *filter.Date)
		clauses = append(clauses, fmt.Sprintf("a.date=$%d", len(args)))
	}
	if filter.FromDate != nil {
		args = append(args, *filter.FromDate)
		clauses = append(clauses, fmt.Sprintf("a.date >= $%d", len(args)))
	}
	if filter.ExcludeHiddenByUser {
		clauses = append(clauses, "a.hidden_by_user = FALSE")
	}
	if filter.ExcludeHiddenByAdmin {
		clauses = append(clauses, "a.hidden_by_admin = FALSE")
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + escapeLike(strings.ToLower(strings.TrimSpace(*filter.SearchTerm))) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(u.name) LIKE %[1]s OR LOWER(COALESCE(a.pet_name, '')) LIKE %[1]s OR LOWER(a.service) LIKE %[1]s)",
			placeholder))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY a.date ASC, a.time ASC, a.status ASC, a.created_at ASC`,
		base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	return query, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var appt domain.Appointment
	if err := row.Scan(
		&appt.ID,
		&appt.UserID,
		&appt.PetName,
		&appt.Service,
		&appt.Date,
		&appt.Time,
		&appt.Status,
		&appt.HiddenByUser,
		&appt.HiddenByAdmin,
		&appt.CreatedAt,
		&appt.OwnerName,
		&appt.OwnerEmail,
	); err != nil {
		return nil, err
	}
	return &appt, nil
}
