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

type PrescriptionRepository struct {
	pool *pgxpool.Pool
}

func NewPrescriptionRepository(pool *pgxpool.Pool) *PrescriptionRepository {
	return &PrescriptionRepository{pool: pool}
}

type PrescriptionFilter struct {
	DoctorID *uuid.UUID
	FamilyID *uuid.UUID
	// PharmacistID restricts to the open queue plus prescriptions claimed by this pharmacist.
	PharmacistID *uuid.UUID
	Status       string
	Limit        int
	Offset       int
}

// DispatchPlanner decides which batches to draw from. It runs inside the
// dispatch transaction with the stock rows locked.
type DispatchPlanner func(items []models.PrescriptionItem, stock []models.InventoryItem) ([]models.StockAllocation, error)

const prescriptionSelect = `
	SELECT p.id, p.elder_id, p.doctor_id, p.appointment_id, p.pharmacist_id, p.diagnosis, p.notes,
		p.status, p.issued_at, p.dispatched_at, p.delivered_at, p.updated_at,
		e.full_name, e.family_id, d.name
	FROM prescriptions p
	JOIN elders e ON e.id = p.elder_id
	JOIN users d ON d.id = p.doctor_id
`

func scanPrescription(row pgx.Row) (*models.Prescription, error) {
	var p models.Prescription
	err := row.Scan(
		&p.ID,
		&p.ElderID,
		&p.DoctorID,
		&p.AppointmentID,
		&p.PharmacistID,
		&p.Diagnosis,
		&p.Notes,
		&p.Status,
		&p.IssuedAt,
		&p.DispatchedAt,
		&p.DeliveredAt,
		&p.UpdatedAt,
		&p.ElderName,
		&p.FamilyID,
		&p.DoctorName,
	)
	if err != nil {
		return nil, err
	}
	p.Items = []models.PrescriptionItem{}
	return &p, nil
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *models.Prescription) error {
	p.Prepare()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	_, err = tx.Exec(ctx, `
		INSERT INTO prescriptions (id, elder_id, doctor_id, appointment_id, diagnosis, notes, status, issued_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, p.ID, p.ElderID, p.DoctorID, p.AppointmentID, p.Diagnosis, p.Notes, string(p.Status), now)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, item := range p.Items {
		batch.Queue(`
			INSERT INTO prescription_items (id, prescription_id, medicine_name, dosage, frequency, duration_days, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, item.ID, item.PrescriptionID, item.MedicineName, item.Dosage, item.Frequency, item.DurationDays, item.Quantity)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	p.IssuedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *PrescriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Prescription, error) {
	p, err := scanPrescription(r.pool.QueryRow(ctx, prescriptionSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.attachItems(ctx, []*models.Prescription{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PrescriptionRepository) List(ctx context.Context, filter PrescriptionFilter) ([]models.Prescription, int64, error) {
	where := []string{"TRUE"}
	args := []any{}
	if filter.DoctorID != nil {
		args = append(args, *filter.DoctorID)
		where = append(where, fmt.Sprintf("p.doctor_id = $%d", len(args)))
	}
	if filter.FamilyID != nil {
		args = append(args, *filter.FamilyID)
		where = append(where, fmt.Sprintf("e.family_id = $%d", len(args)))
	}
	if filter.PharmacistID != nil {
		args = append(args, *filter.PharmacistID)
		where = append(where, fmt.Sprintf("(p.status = 'pending' OR p.pharmacist_id = $%d)", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("p.status = $%d", len(args)))
	}
	clause := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM prescriptions p JOIN elders e ON e.id = p.elder_id WHERE ` + clause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY p.issued_at DESC LIMIT $%d OFFSET $%d`,
		prescriptionSelect, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	ptrs := []*models.Prescription{}
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		ptrs = append(ptrs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	rows.Close()

	if err := r.attachItems(ctx, ptrs); err != nil {
		return nil, 0, err
	}
	out := make([]models.Prescription, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, *p)
	}
	return out, total, nil
}

func (r *PrescriptionRepository) attachItems(ctx context.Context, prescriptions []*models.Prescription) error {
	if len(prescriptions) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Prescription, len(prescriptions))
	ids := make([]uuid.UUID, 0, len(prescriptions))
	for _, p := range prescriptions {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	items, err := queryItems(ctx, r.pool, ids)
	if err != nil {
		return err
	}
	for _, item := range items {
		if p, ok := byID[item.PrescriptionID]; ok {
			p.Items = append(p.Items, item)
		}
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, ids []uuid.UUID) ([]models.PrescriptionItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, prescription_id, medicine_name, dosage, frequency, duration_days, quantity
		FROM prescription_items WHERE prescription_id = ANY($1)
		ORDER BY medicine_name
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.PrescriptionItem{}
	for rows.Next() {
		var item models.PrescriptionItem
		if err := rows.Scan(
			&item.ID,
			&item.PrescriptionID,
			&item.MedicineName,
			&item.Dosage,
			&item.Frequency,
			&item.DurationDays,
			&item.Quantity,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Transition persists a status change only if the row is still in the from status.
func (r *PrescriptionRepository) Transition(ctx context.Context, p *models.Prescription, from models.PrescriptionStatus) error {
	p.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE prescriptions SET
			status = $3, pharmacist_id = $4, dispatched_at = $5, delivered_at = $6, updated_at = $7
		WHERE id = $1 AND status = $2
	`, p.ID, string(from), string(p.Status), p.PharmacistID, p.DispatchedAt, p.DeliveredAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// Dispatch deducts stock and marks the prescription dispatched atomically.
// The prescription must be processing and claimed by pharmacistID.
func (r *PrescriptionRepository) Dispatch(
	ctx context.Context,
	id, pharmacistID uuid.UUID,
	at time.Time,
	plan DispatchPlanner,
) ([]models.StockAllocation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var (
		status  models.PrescriptionStatus
		claimer *uuid.UUID
	)
	err = tx.QueryRow(ctx,
		`SELECT status, pharmacist_id FROM prescriptions WHERE id = $1 FOR UPDATE`, id,
	).Scan(&status, &claimer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleState
		}
		return nil, err
	}
	if status != models.PrescriptionProcessing || claimer == nil || *claimer != pharmacistID {
		return nil, ErrStaleState
	}

	items, err := queryItems(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `SELECT `+inventoryColumns+` FROM inventory_items
		WHERE pharmacist_id = $1 AND quantity > 0
		ORDER BY expiry_date ASC, created_at ASC
		FOR UPDATE`, pharmacistID)
	if err != nil {
		return nil, err
	}
	stock, err := collectInventory(rows)
	if err != nil {
		return nil, err
	}

	allocations, err := plan(items, stock)
	if err != nil {
		return nil, err
	}

	for _, alloc := range allocations {
		tag, err := tx.Exec(ctx, `
			UPDATE inventory_items SET quantity = quantity - $2, updated_at = $3
			WHERE id = $1 AND quantity >= $2
		`, alloc.InventoryItemID, alloc.Quantity, at)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrInsufficientStock
		}
		err = insertMovement(ctx, tx, &models.StockMovement{
			InventoryItemID: alloc.InventoryItemID,
			ActorID:         pharmacistID,
			Delta:           -alloc.Quantity,
			Kind:            models.MovementDispatch,
			PrescriptionID:  &id,
			CreatedAt:       at,
		})
		if err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE prescriptions SET status = 'dispatched', dispatched_at = $2, updated_at = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return allocations, nil
}

// HandledByMonth counts prescriptions the pharmacist dispatched per YYYY-MM since the given time.
func (r *PrescriptionRepository) HandledByMonth(ctx context.Context, pharmacistID uuid.UUID, since time.Time) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date_trunc('month', dispatched_at), 'YYYY-MM') AS month, COUNT(*)
		FROM prescriptions
		WHERE pharmacist_id = $1 AND dispatched_at IS NOT NULL AND dispatched_at >= $2
		GROUP BY month
	`, pharmacistID, since)
	if err != nil {
		return nil, err
	}
	return collectCounts(rows)
}

func (r *PrescriptionRepository) TopMedicines(ctx context.Context, pharmacistID uuid.UUID, limit int) ([]models.MedicineUsage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT MIN(i.medicine_name), SUM(i.quantity)::BIGINT AS total
		FROM prescription_items i
		JOIN prescriptions p ON p.id = i.prescription_id
		WHERE p.pharmacist_id = $1 AND p.status IN ('dispatched', 'delivered')
		GROUP BY LOWER(TRIM(i.medicine_name))
		ORDER BY total DESC, MIN(i.medicine_name) ASC
		LIMIT $2
	`, pharmacistID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	usage := []models.MedicineUsage{}
	for rows.Next() {
		var u models.MedicineUsage
		if err := rows.Scan(&u.MedicineName, &u.Quantity); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

func collectCounts(rows pgx.Rows) (map[string]int64, error) {
	defer rows.Close()
	counts := map[string]int64{}
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}
