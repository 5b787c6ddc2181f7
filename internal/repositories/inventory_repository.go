package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"elderlink/internal/models"
)

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

type InventoryFilter struct {
	PharmacistID *uuid.UUID
	Search       string
	LowStock     bool
	Limit        int
	Offset       int
}

const inventoryColumns = `id, pharmacist_id, medicine_name, generic_name, manufacturer, batch_number,
	quantity, unit, unit_price_cents, reorder_level, expiry_date, created_at, updated_at`

func scanInventoryItem(row pgx.Row) (*models.InventoryItem, error) {
	var i models.InventoryItem
	err := row.Scan(
		&i.ID,
		&i.PharmacistID,
		&i.MedicineName,
		&i.GenericName,
		&i.Manufacturer,
		&i.BatchNumber,
		&i.Quantity,
		&i.Unit,
		&i.UnitPriceCents,
		&i.ReorderLevel,
		&i.ExpiryDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func collectInventory(rows pgx.Rows) ([]models.InventoryItem, error) {
	defer rows.Close()
	items := []models.InventoryItem{}
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *InventoryRepository) Create(ctx context.Context, item *models.InventoryItem) error {
	item.Prepare()
	now := time.Now()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO inventory_items (id, pharmacist_id, medicine_name, generic_name, manufacturer, batch_number,
			quantity, unit, unit_price_cents, reorder_level, expiry_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
	`,
		item.ID,
		item.PharmacistID,
		item.MedicineName,
		item.GenericName,
		item.Manufacturer,
		item.BatchNumber,
		item.Quantity,
		item.Unit,
		item.UnitPriceCents,
		item.ReorderLevel,
		item.ExpiryDate,
		now,
	)
	if err != nil {
		return err
	}
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := scanInventoryItem(r.pool.QueryRow(ctx, `SELECT `+inventoryColumns+` FROM inventory_items WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *InventoryRepository) List(ctx context.Context, filter InventoryFilter) ([]models.InventoryItem, int64, error) {
	where := []string{"TRUE"}
	args := []any{}
	if filter.PharmacistID != nil {
		args = append(args, *filter.PharmacistID)
		where = append(where, fmt.Sprintf("pharmacist_id = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		where = append(where, fmt.Sprintf(
			"(LOWER(medicine_name) LIKE $%[1]d OR LOWER(COALESCE(generic_name, '')) LIKE $%[1]d)", len(args)))
	}
	if filter.LowStock {
		where = append(where, "quantity <= reorder_level")
	}
	clause := strings.Join(where, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inventory_items WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM inventory_items WHERE %s ORDER BY medicine_name, expiry_date LIMIT $%d OFFSET $%d`,
		inventoryColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectInventory(rows)
	return items, total, err
}

// ListByPharmacist returns all batches owned by the pharmacist, earliest expiry first.
func (r *InventoryRepository) ListByPharmacist(ctx context.Context, pharmacistID uuid.UUID) ([]models.InventoryItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+inventoryColumns+` FROM inventory_items
		WHERE pharmacist_id = $1 ORDER BY expiry_date ASC, created_at ASC`, pharmacistID)
	if err != nil {
		return nil, err
	}
	return collectInventory(rows)
}

func (r *InventoryRepository) PharmacistIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT pharmacist_id FROM inventory_items`)
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

func (r *InventoryRepository) Update(ctx context.Context, item *models.InventoryItem) error {
	item.Prepare()
	item.UpdatedAt = time.Now()
	tag, err := r.pool.Exec(ctx, `
		UPDATE inventory_items SET
			medicine_name = $2, generic_name = $3, manufacturer = $4, batch_number = $5, quantity = $6,
			unit = $7, unit_price_cents = $8, reorder_level = $9, expiry_date = $10, updated_at = $11
		WHERE id = $1
	`,
		item.ID,
		item.MedicineName,
		item.GenericName,
		item.Manufacturer,
		item.BatchNumber,
		item.Quantity,
		item.Unit,
		item.UnitPriceCents,
		item.ReorderLevel,
		item.ExpiryDate,
		item.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// Adjust applies delta atomically and returns the updated row.
// A result below zero yields ErrInsufficientStock and leaves the row untouched.
// Adjust changes the quantity and records the movement in one transaction.
func (r *InventoryRepository) Adjust(ctx context.Context, id uuid.UUID, delta int, actorID uuid.UUID, reason string) (*models.InventoryItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	item, err := scanInventoryItem(tx.QueryRow(ctx, `
		UPDATE inventory_items SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING `+inventoryColumns, id, delta))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInsufficientStock
		}
		return nil, err
	}

	err = insertMovement(ctx, tx, &models.StockMovement{
		InventoryItemID: id,
		ActorID:         actorID,
		Delta:           delta,
		Kind:            models.MovementAdjustment,
		Reason:          nonEmpty(reason),
		CreatedAt:       item.UpdatedAt,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return item, nil
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertMovement(ctx context.Context, db execer, m *models.StockMovement) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	_, err := db.Exec(ctx, `
		INSERT INTO stock_movements (id, inventory_item_id, actor_id, delta, kind, reason, prescription_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.InventoryItemID, m.ActorID, m.Delta, m.Kind, m.Reason, m.PrescriptionID, m.CreatedAt)
	return err
}

// Movements lists a batch's ledger, newest first.
func (r *InventoryRepository) Movements(ctx context.Context, itemID uuid.UUID, limit, offset int) ([]models.StockMovement, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements WHERE inventory_item_id = $1`, itemID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, inventory_item_id, actor_id, delta, kind, reason, prescription_id, created_at
		FROM stock_movements WHERE inventory_item_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, itemID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	movements := []models.StockMovement{}
	for rows.Next() {
		var m models.StockMovement
		err := rows.Scan(&m.ID, &m.InventoryItemID, &m.ActorID, &m.Delta, &m.Kind, &m.Reason, &m.PrescriptionID, &m.CreatedAt)
		if err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}

func (r *InventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM inventory_items WHERE id = $1`, id)
	return err
}
