// Package sqlite publishes finished deck rows to a local SQLite file, for
// builds that want queryable output without a database server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver for database/sql
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
	"github.com/heartmarshall/kotoba-decks/migrations"
	"github.com/heartmarshall/kotoba-decks/pkg/ctxutil"
)

// Store provides deck row persistence backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the database at path and applies the embedded
// migrations.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	// One writer; the build is single-threaded anyway.
	db.SetMaxOpenConns(1)

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("goose new provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied",
			slog.String("adapter", "sqlite"),
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
		)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveVocabRows writes one batch of vocabulary rows in a transaction,
// replacing rows with the same run, surface, reading and rank. The run ID
// comes from ctx.
func (s *Store) SaveVocabRows(ctx context.Context, rows []domain.VocabRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	runID, ok := ctxutil.RunIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrNoRunID
	}

	query := sq.Insert("vocab_rows").
		Options("OR REPLACE").
		Columns("run_id", "surface", "reading", "russian", "english", "rank")
	for _, r := range rows {
		query = query.Values(runID.String(), r.Surface, r.Reading, r.Russian, r.English, r.Rank)
	}

	return s.execInTx(ctx, query, "vocab_rows")
}

// SaveAudioRows writes one batch of audio rows in a transaction,
// replacing rows with the same run, word, reading and rank. The run ID
// comes from ctx.
func (s *Store) SaveAudioRows(ctx context.Context, rows []domain.AudioRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	runID, ok := ctxutil.RunIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrNoRunID
	}

	query := sq.Insert("audio_rows").
		Options("OR REPLACE").
		Columns("run_id", "word", "reading", "rank", "audio_tag")
	for _, r := range rows {
		query = query.Values(runID.String(), r.Word, r.Reading, r.Rank, r.AudioTag)
	}

	return s.execInTx(ctx, query, "audio_rows")
}

func (s *Store) execInTx(ctx context.Context, query sq.InsertBuilder, table string) (n int, err error) {
	stmt, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build insert: %w", table, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin transaction: %w", table, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: insert: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", table, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit transaction: %w", table, err)
	}
	return int(affected), nil
}
