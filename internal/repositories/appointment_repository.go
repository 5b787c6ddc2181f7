package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elderlink/internal/models"
)

// ErrSlotTaken is returned when a doctor already has a blocking appointment in the window.
var ErrSlotTaken = errors.New("doctor already booked for this time")

type AppointmentRepository struct {
	pool *pgxpool.Pool
}

func NewAppointmentRepository(pool *pgxpool.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

type AppointmentFilter struct {
	FamilyID *uuid.UUID
	DoctorID *uuid.UUID
	Status   string
	Upcoming bool
	Now      time.Time
	Limit    int
	Offset   int
}

const appointmentSelect = `
	SELECT a.id, a.elder_id, a.family_id, a.doctor_id, a.scheduled_at, a.duration_minutes, a.reason,
		a.status, a.status_reason, a.doctor_notes, a.meeting_id, a.meeting_join_url, a.meeting_start_url,
		a.reminder_sent, a.created_at, a.updated_at, e.full_name, d.name
	FROM appointments a
	JOIN elders e ON e.id = a.elder_id
	JOIN users d ON d.id = a.doctor_id
`

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	var a models.Appointment
	err := row.Scan(
		&a.ID,
		&a.ElderID,
		&a.FamilyID,
		&a.DoctorID,
		&a.ScheduledAt,
		&a.DurationMinutes,
		&a.Reason,
		&a.Status,
		&a.StatusReason,
		&a.DoctorNotes,
		&a.MeetingID,
		&a.MeetingJoinURL,
		&a.MeetingStartURL,
		&a.ReminderSent,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ElderName,
		&a.DoctorName,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectAppointments(rows pgx.Rows) ([]models.Appointment, error) {
	defer rows.Close()
	out := []models.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Create books the slot. The doctor's calendar is serialised with a
// transaction-scoped advisory lock so two overlapping bookings cannot both pass the check.
func (r *AppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	a.Prepare()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, a.DoctorID.String()); err != nil {
		return err
	}

	var overlapping bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			  AND status IN ('pending', 'confirmed')
			  AND scheduled_at < $3
			  AND scheduled_at + make_interval(mins => duration_minutes) > $2
		)`, a.DoctorID, a.ScheduledAt, a.EndsAt()).Scan(&overlapping)
	if err != nil {
		return err
	}
	if overlapping {
		return ErrSlotTaken
	}

	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO appointments (id, elder_id, family_id, doctor_id, scheduled_at, duration_minutes, reason,
			status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, a.ID, a.ElderID, a.FamilyID, a.DoctorID, a.ScheduledAt, a.DurationMinutes, a.Reason, string(a.Status), now)
	if err != nil {
		return err
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	return tx.Commit(ctx)
}

func (r *AppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	a, err := scanAppointment(r.pool.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, int64, error) {
	where := []string{"TRUE"}
	args := []any{}
	if filter.FamilyID != nil {
		args = append(args, *filter.FamilyID)
		where = append(where, fmt.Sprintf("a.family_id = $%d", len(args)))
	}
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		where = append(where, fmt.Sprintf("a.doctor_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	order := "a.scheduled_at DESC"
	if filter.Upcoming {
		args = append(args, filter.Now)
		where = append(where, fmt.Sprintf("a.scheduled_at + make_interval(mins => a.duration_minutes) > $%d", len(args)))
		where = append(where, "a.status IN ('pending', 'confirmed')")
		order = "a.scheduled_at ASC"
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments a WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		appointmentSelect, clause, order, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	appointments, err := collectAppointments(rows)
	return appointments, total, err
}

// Transition persists a status change only if the row is still in the from status.
func (r *AppointmentRepository) Transition(ctx context.Context, a *models.Appointment, from models.AppointmentStatus) error {
	a.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET
			status = $3, status_reason = $4, doctor_notes = $5,
			meeting_id = $6, meeting_join_url = $7, meeting_start_url = $8, updated_at = $9
		WHERE id = $1 AND status = $2
	`,
		a.ID,
		string(from),
		string(a.Status),
		a.StatusReason,
		a.DoctorNotes,
		a.MeetingID,
		a.MeetingJoinURL,
		a.MeetingStartURL,
		a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// CountConsultations counts the family's non-void appointments scheduled in [from, to).
func (r *AppointmentRepository) CountConsultations(ctx context.Context, familyID uuid.UUID, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE family_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
		  AND status IN ('pending', 'confirmed', 'completed')
	`, familyID, from, to).Scan(&n)
	return n, err
}

// DueForReminder lists confirmed appointments starting in (now, now+window] without a reminder.
func (r *AppointmentRepository) DueForReminder(ctx context.Context, now time.Time, window time.Duration) ([]models.Appointment, error) {
	rows, err := r.pool.Query(ctx, appointmentSelect+`
		WHERE a.status = 'confirmed' AND a.reminder_sent = false
		  AND a.scheduled_at > $1 AND a.scheduled_at <= $2
		ORDER BY a.scheduled_at
	`, now, now.Add(window))
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// MarkReminderSent claims the reminder. It returns false if another run already claimed it.
func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE appointments SET reminder_sent = true WHERE id = $1 AND reminder_sent = false`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
