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

type EmergencyRepository struct {
	pool *pgxpool.Pool
}

func NewEmergencyRepository(pool *pgxpool.Pool) *EmergencyRepository {
	return &EmergencyRepository{pool: pool}
}

type EmergencyFilter struct {
	FamilyID *uuid.UUID
	// DoctorID restricts to families actively assigned to the doctor.
	DoctorID *uuid.UUID
	Status   string
	Limit    int
	Offset   int
}

const emergencySelect = `
	SELECT a.id, a.elder_id, a.family_id, a.raised_by, a.message, a.latitude, a.longitude, a.status,
		a.acknowledged_by, a.acknowledged_at, a.resolved_by, a.resolved_at, a.resolution_notes, a.created_at,
		e.full_name
	FROM emergency_alerts a
	JOIN elders e ON e.id = a.elder_id
`

func scanEmergency(row pgx.Row) (*models.EmergencyAlert, error) {
	var a models.EmergencyAlert
	err := row.Scan(
		&a.ID,
		&a.ElderID,
		&a.FamilyID,
		&a.RaisedBy,
		&a.Message,
		&a.Latitude,
		&a.Longitude,
		&a.Status,
		&a.AcknowledgedBy,
		&a.AcknowledgedAt,
		&a.ResolvedBy,
		&a.ResolvedAt,
		&a.ResolutionNotes,
		&a.CreatedAt,
		&a.ElderName,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *EmergencyRepository) Create(ctx context.Context, a *models.EmergencyAlert) error {
	a.Prepare()
	a.CreatedAt = time.Now()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO emergency_alerts (id, elder_id, family_id, raised_by, message, latitude, longitude, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.ElderID, a.FamilyID, a.RaisedBy, a.Message, a.Latitude, a.Longitude, string(a.Status), a.CreatedAt)
	return err
}

func (r *EmergencyRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.EmergencyAlert, error) {
	a, err := scanEmergency(r.pool.QueryRow(ctx, emergencySelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *EmergencyRepository) List(ctx context.Context, filter EmergencyFilter) ([]models.EmergencyAlert, int64, error) {
	where := []string{"TRUE"}
	args := []any{}
	if filter.FamilyID != nil {
		args = append(args, *filter.FamilyID)
		where = append(where, fmt.Sprintf("a.family_id = $%d", len(args)))
	}
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		where = append(where, fmt.Sprintf(`a.family_id IN (
			SELECT family_id FROM family_doctor_assignments WHERE doctor_id = $%d AND status = 'active')`, len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM emergency_alerts a WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d`,
		emergencySelect, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	alerts := []models.EmergencyAlert{}
	for rows.Next() {
		a, err := scanEmergency(rows)
		if err != nil {
			return nil, 0, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, total, rows.Err()
}

// Transition persists a status change only if the row is still in the from status.
func (r *EmergencyRepository) Transition(ctx context.Context, a *models.EmergencyAlert, from models.EmergencyStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE emergency_alerts SET
			status = $3, acknowledged_by = $4, acknowledged_at = $5,
			resolved_by = $6, resolved_at = $7, resolution_notes = $8
		WHERE id = $1 AND status = $2
	`,
		a.ID,
		string(from),
		string(a.Status),
		a.AcknowledgedBy,
		a.AcknowledgedAt,
		a.ResolvedBy,
		a.ResolvedAt,
		a.ResolutionNotes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}
