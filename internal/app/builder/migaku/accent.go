package migaku

import (
	"strconv"
	"strings"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

// firstIndex returns the first element of the first accent index group.
func firstIndex(groups [][]int) (int, bool) {
	if len(groups) > 0 && len(groups[0]) > 0 {
		return groups[0][0], true
	}
	return 0, false
}

// firstType returns the first element of the first accent type group.
func firstType(groups [][]string) (string, bool) {
	if len(groups) > 0 && len(groups[0]) > 0 {
		return groups[0][0], true
	}
	return "", false
}

// IsTokyoAccent reports whether a word follows the standard (Tokyo) pitch
// pattern: accent index 0 or accent type Heiban.
//
// Index 0 is assumed to always be labelled Heiban. An entry breaking that
// assumption yields an error wrapping domain.ErrAccentInconsistency and no
// verdict.
func IsTokyoAccent(indices [][]int, types [][]string) (bool, error) {
	idx, hasIdx := firstIndex(indices)
	typ, hasType := firstType(types)

	if hasIdx && idx == 0 && (!hasType || typ != domain.AccentTypeHeiban) {
		return false, &domain.AccentError{Index: idx, Type: typ}
	}

	return (hasIdx && idx == 0) || (hasType && typ == domain.AccentTypeHeiban), nil
}

// parsePitchMarker parses markers of the form "[N]".
func parsePitchMarker(marker string) (int, bool) {
	marker = strings.TrimSpace(marker)
	if !strings.HasPrefix(marker, "[") || !strings.HasSuffix(marker, "]") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.Trim(marker, "[]"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// SelectAudio returns the audio paths of the variants matching the entry's
// Tokyo pitch accent.
//
// For Tokyo-accent words the variants whose marker equals the expected
// accent index are chosen, skipping variants recorded without a marker;
// when none matches, every variant is returned.
// Other words get their first variant only.
func SelectAudio(entry domain.AudioEntry) ([]string, error) {
	tokyo, err := IsTokyoAccent(entry.AccentIndices, entry.AccentTypes)
	if err != nil {
		return nil, err
	}

	if !tokyo {
		if len(entry.Variants) > 0 && entry.Variants[0].AudioPath != "" {
			return []string{entry.Variants[0].AudioPath}, nil
		}
		return nil, nil
	}

	expected, hasExpected := firstIndex(entry.AccentIndices)

	var selected []string
	for _, v := range entry.Variants {
		if v.NoMarker {
			continue
		}
		n, ok := parsePitchMarker(v.PitchMarker)
		// An absent expected index matches only unparsable markers.
		if ok != hasExpected || (ok && n != expected) {
			continue
		}
		if v.AudioPath != "" {
			selected = append(selected, v.AudioPath)
		}
	}

	if len(selected) == 0 {
		for _, v := range entry.Variants {
			if v.AudioPath != "" {
				selected = append(selected, v.AudioPath)
			}
		}
	}

	return selected, nil
}
