package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
	"github.com/heartmarshall/kotoba-decks/pkg/ctxutil"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out", "decks.db")
	s, err := Open(context.Background(), path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func count(t *testing.T, db *sql.DB, table string, runID uuid.UUID) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM `+table+` WHERE run_id = ?`, runID.String()).Scan(&n))
	return n
}

func TestStore_SaveVocabRows(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)
	ctx := context.Background()
	runID := uuid.New()

	rows := []domain.VocabRow{
		{Surface: "日本", Reading: "にほん", Russian: "Япония", English: "Japan", Rank: 1},
		{Surface: "猫", Reading: "ねこ", English: "cat", Rank: 2},
	}

	n, err := s.SaveVocabRows(ctxutil.WithRunID(ctx, runID), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, count(t, s.db, "vocab_rows", runID))

	var russian string
	require.NoError(t, s.db.QueryRow(
		`SELECT russian FROM vocab_rows WHERE run_id = ? AND surface = ?`, runID.String(), "日本",
	).Scan(&russian))
	assert.Equal(t, "Япония", russian)
}

func TestStore_ReplaceWithinRun(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)
	ctx := context.Background()
	runID := uuid.New()

	_, err := s.SaveAudioRows(ctxutil.WithRunID(ctx, runID), []domain.AudioRow{{Word: "猫", Reading: "ねこ", Rank: 2, AudioTag: "[sound:old.mp3]"}})
	require.NoError(t, err)
	_, err = s.SaveAudioRows(ctxutil.WithRunID(ctx, runID), []domain.AudioRow{{Word: "猫", Reading: "ねこ", Rank: 2, AudioTag: "[sound:new.mp3]"}})
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, s.db, "audio_rows", runID))

	var tag string
	require.NoError(t, s.db.QueryRow(`SELECT audio_tag FROM audio_rows WHERE run_id = ?`, runID.String()).Scan(&tag))
	assert.Equal(t, "[sound:new.mp3]", tag)
}

func TestStore_RunsAreIsolated(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)
	ctx := context.Background()

	row := []domain.AudioRow{{Word: "犬", Reading: "いぬ", Rank: 4}}
	first, second := uuid.New(), uuid.New()

	_, err := s.SaveAudioRows(ctxutil.WithRunID(ctx, first), row)
	require.NoError(t, err)
	_, err = s.SaveAudioRows(ctxutil.WithRunID(ctx, second), row)
	require.NoError(t, err)

	assert.Equal(t, 1, count(t, s.db, "audio_rows", first))
	assert.Equal(t, 1, count(t, s.db, "audio_rows", second))
}

func TestStore_Empty(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)

	n, err := s.SaveVocabRows(ctxutil.WithRunID(context.Background(), uuid.New()), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_RunIDRequired(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveVocabRows(ctx, []domain.VocabRow{{Surface: "空", Reading: "そら", Rank: 300}})
	require.ErrorIs(t, err, domain.ErrNoRunID)
	_, err = s.SaveAudioRows(ctx, []domain.AudioRow{{Word: "空", Reading: "そら", Rank: 300}})
	require.ErrorIs(t, err, domain.ErrNoRunID)
}

func TestStore_InvalidRankRollsBack(t *testing.T) {
	t.Parallel()
	s, _ := openTestStore(t)
	ctx := context.Background()
	runID := uuid.New()

	_, err := s.SaveVocabRows(ctxutil.WithRunID(ctx, runID), []domain.VocabRow{
		{Surface: "良い", Reading: "いい", Rank: 10},
		{Surface: "悪い", Reading: "わるい", Rank: 0},
	})
	require.Error(t, err)
	assert.Zero(t, count(t, s.db, "vocab_rows", runID))
}

func TestOpen_Reopen(t *testing.T) {
	t.Parallel()
	s, path := openTestStore(t)
	runID := uuid.New()

	_, err := s.SaveVocabRows(ctxutil.WithRunID(context.Background(), runID), []domain.VocabRow{{Surface: "空", Reading: "そら", Rank: 300}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(context.Background(), path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 1, count(t, reopened.db, "vocab_rows", runID), "migrations are not re-applied")
}
