// Package builder orchestrates the deck build: it fetches the source
// datasets, joins them by frequency rank, writes the deck files and
// optionally publishes the rows to a RowStore.
package builder

import (
	"context"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

// RowStore persists finished deck rows of one build run.
// All methods use only domain types, no adapter imports.
// The run ID is taken from the context (ctxutil.WithRunID); a context
// without one fails with domain.ErrNoRunID.
// Implemented by deckrow.Repo and sqlite.Store; the caller that opened the
// store closes it.
type RowStore interface {
	// Each call saves one batch; rows already saved for the same run,
	// word, reading and rank are replaced.
	SaveVocabRows(ctx context.Context, rows []domain.VocabRow) (int, error)
	SaveAudioRows(ctx context.Context, rows []domain.AudioRow) (int, error)
}
