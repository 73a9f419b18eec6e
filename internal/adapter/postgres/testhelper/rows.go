package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CountRows returns the number of rows of table published under runID.
// table must be one of the row store tables.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string, runID uuid.UUID) int {
	t.Helper()

	var n int
	err := pool.QueryRow(
		context.Background(),
		`SELECT count(*) FROM `+table+` WHERE run_id = $1`,
		runID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("testhelper: count %s: %v", table, err)
	}
	return n
}
