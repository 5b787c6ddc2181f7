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

type AssignmentRepository struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{pool: pool}
}

type AssignmentFilter struct {
	FamilyID *uuid.UUID
	DoctorID *uuid.UUID
	Status   string
}

const assignmentSelect = `
	SELECT a.id, a.family_id, a.doctor_id, a.assigned_by, a.status, a.notes, a.created_at, a.ended_at,
		f.name, d.name
	FROM family_doctor_assignments a
	JOIN users f ON f.id = a.family_id
	JOIN users d ON d.id = a.doctor_id
`

func scanAssignment(row pgx.Row) (*models.Assignment, error) {
	var a models.Assignment
	err := row.Scan(
		&a.ID, &a.FamilyID, &a.DoctorID, &a.AssignedBy, &a.Status, &a.Notes, &a.CreatedAt, &a.EndedAt,
		&a.FamilyName, &a.DoctorName,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	a.Prepare()
	a.CreatedAt = time.Now()
	query := `
		INSERT INTO family_doctor_assignments (id, family_id, doctor_id, assigned_by, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query, a.ID, a.FamilyID, a.DoctorID, a.AssignedBy, a.Status, a.Notes, a.CreatedAt)
	return err
}

func (r *AssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Assignment, error) {
	a, err := scanAssignment(r.pool.QueryRow(ctx, assignmentSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

func (r *AssignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]models.Assignment, error) {
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

	query := assignmentSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY a.created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := []models.Assignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}

func (r *AssignmentRepository) IsActive(ctx context.Context, familyID, doctorID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM family_doctor_assignments
			WHERE family_id = $1 AND doctor_id = $2 AND status = 'active'
		)`, familyID, doctorID).Scan(&exists)
	return exists, err
}

func (r *AssignmentRepository) ActiveDoctorIDs(ctx context.Context, familyID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT doctor_id FROM family_doctor_assignments WHERE family_id = $1 AND status = 'active'`,
		familyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// End flips an active assignment to ended. Ending twice yields ErrStaleState.
func (r *AssignmentRepository) End(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE family_doctor_assignments SET status = 'ended', ended_at = $2 WHERE id = $1 AND status = 'active'`,
		id, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}
