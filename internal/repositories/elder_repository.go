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

type ElderRepository struct {
	pool *pgxpool.Pool
}

func NewElderRepository(pool *pgxpool.Pool) *ElderRepository {
	return &ElderRepository{pool: pool}
}

const elderColumns = `e.id, e.family_id, e.full_name, e.date_of_birth, e.gender, e.blood_type, e.address,
	e.medical_conditions, e.allergies, e.emergency_contact_name, e.emergency_contact_phone,
	e.created_at, e.updated_at`

func scanElder(row pgx.Row) (*models.Elder, error) {
	var e models.Elder
	err := row.Scan(
		&e.ID,
		&e.FamilyID,
		&e.FullName,
		&e.DateOfBirth,
		&e.Gender,
		&e.BloodType,
		&e.Address,
		&e.MedicalConditions,
		&e.Allergies,
		&e.EmergencyContactName,
		&e.EmergencyContactPhone,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectElders(rows pgx.Rows) ([]models.Elder, error) {
	defer rows.Close()
	elders := []models.Elder{}
	for rows.Next() {
		e, err := scanElder(rows)
		if err != nil {
			return nil, err
		}
		elders = append(elders, *e)
	}
	return elders, rows.Err()
}

func (r *ElderRepository) Create(ctx context.Context, e *models.Elder) error {
	e.Prepare()
	now := time.Now()
	query := `
		INSERT INTO elders (id, family_id, full_name, date_of_birth, gender, blood_type, address,
			medical_conditions, allergies, emergency_contact_name, emergency_contact_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.FamilyID,
		e.FullName,
		e.DateOfBirth,
		e.Gender,
		e.BloodType,
		e.Address,
		e.MedicalConditions,
		e.Allergies,
		e.EmergencyContactName,
		e.EmergencyContactPhone,
		now,
	)
	if err != nil {
		return err
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

func (r *ElderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Elder, error) {
	e, err := scanElder(r.pool.QueryRow(ctx, `SELECT `+elderColumns+` FROM elders e WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// ElderFilter narrows List to one family or to the families a doctor is
// actively assigned to. Both nil lists every elder.
type ElderFilter struct {
	FamilyID *uuid.UUID
	DoctorID *uuid.UUID
	Limit    int
	Offset   int
}

func (r *ElderRepository) List(ctx context.Context, filter ElderFilter) ([]models.Elder, int64, error) {
	from := `elders e`
	where := []string{"TRUE"}
	args := []any{}
	order := `e.created_at DESC`
	if filter.FamilyID != nil {
		args = append(args, *filter.FamilyID)
		where = append(where, fmt.Sprintf("e.family_id = $%d", len(args)))
		order = `e.created_at`
	}
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		from += fmt.Sprintf(` JOIN family_doctor_assignments a
			ON a.family_id = e.family_id AND a.status = 'active' AND a.doctor_id = $%d`, len(args))
		order = `e.full_name`
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+from+` WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s, e.id LIMIT $%d OFFSET $%d`,
		elderColumns, from, clause, order, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	elders, err := collectElders(rows)
	return elders, total, err
}

func (r *ElderRepository) CountByFamily(ctx context.Context, familyID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM elders WHERE family_id = $1`, familyID).Scan(&n)
	return n, err
}

func (r *ElderRepository) Update(ctx context.Context, e *models.Elder) error {
	e.Prepare()
	e.UpdatedAt = time.Now()
	query := `
		UPDATE elders SET
			full_name = $2, date_of_birth = $3, gender = $4, blood_type = $5, address = $6,
			medical_conditions = $7, allergies = $8, emergency_contact_name = $9,
			emergency_contact_phone = $10, updated_at = $11
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		e.ID,
		e.FullName,
		e.DateOfBirth,
		e.Gender,
		e.BloodType,
		e.Address,
		e.MedicalConditions,
		e.Allergies,
		e.EmergencyContactName,
		e.EmergencyContactPhone,
		e.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *ElderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM elders WHERE id = $1`, id)
	return err
}
