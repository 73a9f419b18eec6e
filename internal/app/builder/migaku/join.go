package migaku

import (
	"fmt"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

// SoundTag formats an audio path as an Anki playback tag.
func SoundTag(path string) string {
	return "[sound:" + path + "]"
}

// JoinStats holds join statistics for logging.
type JoinStats struct {
	Seen     int // word already emitted by an earlier entry or file
	Unranked int
	Emitted  int
	NoAudio  int
}

// Join turns decoded entries into ranked audio rows.
//
// seen holds words already emitted and is updated in place so that it can be
// shared across several dictionary files: the first occurrence of a word
// wins. An accent inconsistency in any entry aborts the join.
func Join(entries []domain.AudioEntry, table domain.FrequencyTable, seen map[string]bool) ([]domain.AudioRow, JoinStats, error) {
	var (
		rows  []domain.AudioRow
		stats JoinStats
	)

	for _, e := range entries {
		if seen[e.Word] {
			stats.Seen++
			continue
		}

		selected, err := SelectAudio(e)
		if err != nil {
			return nil, stats, fmt.Errorf("select audio for %q: %w", e.Word, err)
		}

		rank, ok := table.Rank(domain.NewFrequencyKey(e.Word, e.Reading))
		if !ok {
			stats.Unranked++
			continue
		}

		row := domain.AudioRow{
			Word:    e.Word,
			Reading: e.Reading,
			Rank:    rank,
		}
		if len(selected) > 0 {
			row.AudioTag = SoundTag(selected[0])
		} else {
			stats.NoAudio++
		}

		rows = append(rows, row)
		seen[e.Word] = true
		stats.Emitted++
	}

	return rows, stats, nil
}
