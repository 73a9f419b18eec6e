// Package freqlist loads tab-separated frequency-ranked word lists (jpdb
// export format) into a domain.FrequencyTable.
// Pure function: reader in, table out. No network or database dependencies.
package freqlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

// minFields is the number of leading columns every data line must carry:
// surface form, reading, rank.
const minFields = 3

// LimitMode selects how the loader bounds the table.
type LimitMode string

const (
	// LimitLines stops after a fixed number of data lines.
	LimitLines LimitMode = "lines"
	// LimitRank stops at the first data line whose rank is >= the limit value.
	LimitRank LimitMode = "rank"
)

// Limit caps the number of entries read from the list. A zero Value
// disables the cap.
type Limit struct {
	Mode  LimitMode
	Value int
}

// Valid reports whether the mode is one of the known modes.
func (l Limit) Valid() bool {
	return l.Mode == LimitLines || l.Mode == LimitRank
}

// Stats holds loader statistics for logging.
type Stats struct {
	DataLines      int
	Duplicates     int
	Entries        int
	StoppedAtLimit bool
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string, limit Limit) (domain.FrequencyTable, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.FrequencyTable{}, Stats{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Load(f, limit)
}

// Load reads a frequency list with a header line and columns
// [surface, reading, rank, ...]. The first rank seen for a key wins.
// A data line with fewer than three fields, a non-numeric rank or a blank
// line followed by more data fails with an error wrapping
// domain.ErrMalformedRow.
func Load(r io.Reader, limit Limit) (domain.FrequencyTable, Stats, error) {
	if !limit.Valid() {
		return domain.FrequencyTable{}, Stats{}, fmt.Errorf("unknown limit mode %q", limit.Mode)
	}

	table := domain.NewFrequencyTable(max(limit.Value, 0))
	var stats Stats

	scanner := bufio.NewScanner(r)

	// Skip header row.
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return domain.FrequencyTable{}, stats, fmt.Errorf("read header: %w", err)
		}
		return table, stats, nil
	}

	lineNo := 1
	blankLine := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if blankLine == 0 {
				blankLine = lineNo
			}
			continue
		}

		if limit.Mode == LimitLines && limit.Value > 0 && stats.DataLines >= limit.Value {
			stats.StoppedAtLimit = true
			break
		}

		// Only trailing blank lines are tolerated.
		if blankLine != 0 {
			return domain.FrequencyTable{}, stats, domain.NewRowError(blankLine,
				fmt.Sprintf("expected at least %d tab-separated fields, got a blank line", minFields))
		}

		key, rank, err := parseLine(line, lineNo)
		if err != nil {
			return domain.FrequencyTable{}, stats, err
		}

		if limit.Mode == LimitRank && limit.Value > 0 && rank >= limit.Value {
			stats.StoppedAtLimit = true
			break
		}

		stats.DataLines++
		if !table.Insert(key, rank) {
			stats.Duplicates++
		}
	}

	if err := scanner.Err(); err != nil {
		return domain.FrequencyTable{}, stats, fmt.Errorf("scanner error: %w", err)
	}

	stats.Entries = table.Len()
	return table, stats, nil
}

// parseLine splits a data line into its key and rank.
func parseLine(line string, lineNo int) (domain.FrequencyKey, int, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < minFields {
		return domain.FrequencyKey{}, 0, domain.NewRowError(lineNo,
			fmt.Sprintf("expected at least %d tab-separated fields, got %d", minFields, len(fields)))
	}

	rank, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return domain.FrequencyKey{}, 0, domain.NewRowError(lineNo,
			fmt.Sprintf("rank %q is not an integer", fields[2]))
	}

	return domain.NewFrequencyKey(fields[0], fields[1]), rank, nil
}
