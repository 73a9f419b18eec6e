// Package migaku decodes the Migaku pitch-accent audio dictionary and picks,
// for each word, the recording that matches its Tokyo pitch accent.
// Pure function: reader in, domain structs out. No network or database
// dependencies.
package migaku

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

// Positions inside one raw dictionary entry. Positions 2 and 3 are
// undocumented and ignored.
const (
	posWord = iota
	posReading
	_
	_
	posVariants
	posAccentIndices
	posAccentTypes

	// minPositions is the shortest entry that carries variants.
	minPositions = posVariants + 1
)

// Positions inside one raw variant.
const (
	varLabel = iota
	varPitchMarker
	varAudioPath
)

// Stats holds decoder statistics for logging.
type Stats struct {
	TotalEntries int
	ShortEntries int // fewer than minPositions positions
	NoVariants   int
	Decoded      int
}

// DecodeFile opens path and decodes it with Decode.
func DecodeFile(path string) ([]domain.AudioEntry, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode streams a JSON array of positional entries
// [word, reading, ?, ?, variants, accentIndexGroups?, accentTypeGroups?]
// into typed records. Entries that are too short or have no variants are
// skipped and counted.
func Decode(r io.Reader) ([]domain.AudioEntry, Stats, error) {
	dec := json.NewDecoder(r)
	var stats Stats

	tok, err := dec.Token()
	if err != nil {
		return nil, stats, fmt.Errorf("read opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, stats, fmt.Errorf("expected top-level array, got %v", tok)
	}

	var entries []domain.AudioEntry
	for dec.More() {
		stats.TotalEntries++

		var raw []json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, stats, fmt.Errorf("decode entry %d: %w", stats.TotalEntries, err)
		}

		if len(raw) < minPositions {
			stats.ShortEntries++
			continue
		}

		entry, err := decodeEntry(raw)
		if err != nil {
			return nil, stats, fmt.Errorf("decode entry %d: %w", stats.TotalEntries, err)
		}
		if len(entry.Variants) == 0 {
			stats.NoVariants++
			continue
		}

		stats.Decoded++
		entries = append(entries, entry)
	}

	if _, err := dec.Token(); err != nil {
		return nil, stats, fmt.Errorf("read closing token: %w", err)
	}

	return entries, stats, nil
}

// decodeEntry maps the positional fields of one entry onto domain.AudioEntry.
func decodeEntry(raw []json.RawMessage) (domain.AudioEntry, error) {
	var entry domain.AudioEntry

	entry.Word = rawString(raw[posWord])
	entry.Reading = rawString(raw[posReading])

	var variants [][]json.RawMessage
	if err := json.Unmarshal(raw[posVariants], &variants); err != nil {
		return entry, fmt.Errorf("variants: %w", err)
	}
	for _, v := range variants {
		entry.Variants = append(entry.Variants, decodeVariant(v))
	}

	if len(raw) > posAccentIndices {
		if err := json.Unmarshal(raw[posAccentIndices], &entry.AccentIndices); err != nil {
			return entry, fmt.Errorf("accent indices: %w", err)
		}
	}
	if len(raw) > posAccentTypes {
		if err := json.Unmarshal(raw[posAccentTypes], &entry.AccentTypes); err != nil {
			return entry, fmt.Errorf("accent types: %w", err)
		}
	}

	return entry, nil
}

// decodeVariant reads [label, pitchMarker, audioPath]; missing or
// non-string positions become empty strings. A record without the marker
// position is flagged NoMarker.
func decodeVariant(raw []json.RawMessage) domain.Variant {
	var v domain.Variant
	if len(raw) > varLabel {
		v.Label = rawString(raw[varLabel])
	}
	if len(raw) > varPitchMarker {
		v.PitchMarker = rawString(raw[varPitchMarker])
	} else {
		v.NoMarker = true
	}
	if len(raw) > varAudioPath {
		v.AudioPath = rawString(raw[varAudioPath])
	}
	return v
}

// rawString returns the JSON string in raw, or "" for any other value.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
