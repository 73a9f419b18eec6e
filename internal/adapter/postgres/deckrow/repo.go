// Package deckrow publishes finished deck rows to PostgreSQL.
// Rows are keyed by build run, so every run keeps its own snapshot of both
// decks; saving the same row twice within a run replaces it.
package deckrow

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/kotoba-decks/internal/adapter/postgres"
	"github.com/heartmarshall/kotoba-decks/internal/domain"
	"github.com/heartmarshall/kotoba-decks/pkg/ctxutil"
)

const (
	vocabTable = "vocab_rows"
	audioTable = "audio_rows"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides deck row persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	txm  *postgres.TxManager
}

// New creates a new deck row repository.
func New(pool *pgxpool.Pool, txm *postgres.TxManager) *Repo {
	return &Repo{pool: pool, txm: txm}
}

// SaveVocabRows upserts one batch of vocabulary rows of the run stored in
// ctx inside a single transaction. Returns the number of rows written.
func (r *Repo) SaveVocabRows(ctx context.Context, rows []domain.VocabRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	runID, ok := ctxutil.RunIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrNoRunID
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		query := psql.Insert(vocabTable).
			Columns("run_id", "surface", "reading", "russian", "english", "rank").
			Values(runID, row.Surface, row.Reading, row.Russian, row.English, row.Rank).
			Suffix("ON CONFLICT (run_id, surface, reading, rank) DO UPDATE SET russian = EXCLUDED.russian, english = EXCLUDED.english")

		if err := queue(batch, query); err != nil {
			return 0, fmt.Errorf("%s: %w", vocabTable, err)
		}
	}

	return r.sendInTx(ctx, batch, vocabTable)
}

// SaveAudioRows upserts one batch of audio rows of the run stored in ctx
// inside a single transaction. Returns the number of rows written.
func (r *Repo) SaveAudioRows(ctx context.Context, rows []domain.AudioRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	runID, ok := ctxutil.RunIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrNoRunID
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		query := psql.Insert(audioTable).
			Columns("run_id", "word", "reading", "rank", "audio_tag").
			Values(runID, row.Word, row.Reading, row.Rank, row.AudioTag).
			Suffix("ON CONFLICT (run_id, word, reading, rank) DO UPDATE SET audio_tag = EXCLUDED.audio_tag")

		if err := queue(batch, query); err != nil {
			return 0, fmt.Errorf("%s: %w", audioTable, err)
		}
	}

	return r.sendInTx(ctx, batch, audioTable)
}

// CountRows returns how many rows of each deck were published under runID.
func (r *Repo) CountRows(ctx context.Context, runID uuid.UUID) (vocab, audio int, err error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	for _, c := range []struct {
		table string
		dst   *int
	}{
		{vocabTable, &vocab},
		{audioTable, &audio},
	} {
		sql, args, err := psql.Select("count(*)").From(c.table).Where(sq.Eq{"run_id": runID}).ToSql()
		if err != nil {
			return 0, 0, fmt.Errorf("%s: build query: %w", c.table, err)
		}
		if err := q.QueryRow(ctx, sql, args...).Scan(c.dst); err != nil {
			return 0, 0, postgres.MapError(err, c.table)
		}
	}

	return vocab, audio, nil
}

func queue(batch *pgx.Batch, query sq.InsertBuilder) error {
	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	batch.Queue(sql, args...)
	return nil
}

// sendInTx runs every queued statement of batch in one transaction.
func (r *Repo) sendInTx(ctx context.Context, batch *pgx.Batch, table string) (int, error) {
	var written int

	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)
		results := q.SendBatch(ctx, batch)
		defer results.Close()

		for range batch.Len() {
			tag, err := results.Exec()
			if err != nil {
				return fmt.Errorf("batch exec: %w", err)
			}
			written += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, postgres.MapError(err, table)
	}

	return written, nil
}
