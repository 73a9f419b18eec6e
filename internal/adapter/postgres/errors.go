package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

// MapError wraps pgx/pgconn errors with the table they came from.
// context.DeadlineExceeded and context.Canceled are NOT mapped, they pass through.
func MapError(err error, table string) error {
	if err == nil {
		return nil
	}

	// context errors pass through as-is
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", table, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23514", "23502": // check_violation, not_null_violation
			return fmt.Errorf("%s: %s: %w", table, pgErr.Message, domain.ErrMalformedRow)
		}
		return fmt.Errorf("%s: %s (SQLSTATE %s): %w", table, pgErr.Message, pgErr.Code, err)
	}

	// Everything else: wrap with context
	return fmt.Errorf("%s: %w", table, err)
}
