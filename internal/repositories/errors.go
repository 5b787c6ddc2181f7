package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStaleState is returned by conditional updates whose WHERE guard no
// longer matches, i.e. the row changed underneath the caller.
var ErrStaleState = errors.New("record was modified concurrently")

// ErrInsufficientStock is returned when a stock decrement would go negative.
var ErrInsufficientStock = errors.New("insufficient stock")

const uniqueViolation = "23505"

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
