package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"elderlink/internal/models"
)

type DoctorRepository struct {
	pool *pgxpool.Pool
}

func NewDoctorRepository(pool *pgxpool.Pool) *DoctorRepository {
	return &DoctorRepository{pool: pool}
}

const doctorSelect = `
	SELECT u.id, u.name, u.email, u.phone, u.status,
		p.user_id, p.specialization, p.license_number, p.years_experience,
		p.consultation_fee_cents, p.bio, p.updated_at
	FROM users u
	LEFT JOIN doctor_profiles p ON p.user_id = u.id
	WHERE u.role = 'doctor' AND u.deleted_at IS NULL
`

func scanDoctor(row pgx.Row) (*models.Doctor, error) {
	var (
		d              models.Doctor
		profileUserID  *uuid.UUID
		specialization *string
		license        *string
		years          *int
		fee            *int64
		bio            *string
		updatedAt      *time.Time
	)
	err := row.Scan(
		&d.ID, &d.Name, &d.Email, &d.Phone, &d.Status,
		&profileUserID, &specialization, &license, &years, &fee, &bio, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if profileUserID != nil {
		d.Profile = &models.DoctorProfile{
			UserID:               *profileUserID,
			Specialization:       *specialization,
			LicenseNumber:        *license,
			YearsExperience:      *years,
			ConsultationFeeCents: *fee,
			Bio:                  bio,
			UpdatedAt:            *updatedAt,
		}
	}
	return &d, nil
}

func (r *DoctorRepository) List(ctx context.Context, specialization string) ([]models.Doctor, error) {
	query := doctorSelect + ` AND ($1 = '' OR LOWER(p.specialization) LIKE '%' || LOWER($1) || '%') ORDER BY u.name`
	rows, err := r.pool.Query(ctx, query, specialization)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	doctors := []models.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, *d)
	}
	return doctors, rows.Err()
}

func (r *DoctorRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Doctor, error) {
	d, err := scanDoctor(r.pool.QueryRow(ctx, doctorSelect+` AND u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *DoctorRepository) UpsertProfile(ctx context.Context, p *models.DoctorProfile) error {
	p.UpdatedAt = time.Now()
	query := `
		INSERT INTO doctor_profiles (user_id, specialization, license_number, years_experience, consultation_fee_cents, bio, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			specialization = EXCLUDED.specialization,
			license_number = EXCLUDED.license_number,
			years_experience = EXCLUDED.years_experience,
			consultation_fee_cents = EXCLUDED.consultation_fee_cents,
			bio = EXCLUDED.bio,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.pool.Exec(ctx, query,
		p.UserID,
		p.Specialization,
		p.LicenseNumber,
		p.YearsExperience,
		p.ConsultationFeeCents,
		p.Bio,
		p.UpdatedAt,
	)
	return err
}
