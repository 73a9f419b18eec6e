// Package export sorts ranked rows and writes them as fixed-column TSV/CSV
// deck files.
package export

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

// DefaultRowLimit is the maximum number of rows written to a deck file.
const DefaultRowLimit = 9999

var (
	vocabHeader     = []string{"Kanji", "Reading", "Russian", "English"}
	frequencyColumn = "Frequency"
	audioHeader     = []string{"word", "reading", "word_index", "mp3_tokyo_1"}
)

// SortAndTruncate returns rows sorted ascending by rank (stable, so equal
// ranks keep input order), cut to at most limit rows. The input slice is
// not modified. A limit <= 0 keeps every row.
func SortAndTruncate[T any](rows []T, rank func(T) int, limit int) []T {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return rank(a) - rank(b)
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// VocabRank is the rank accessor for domain.VocabRow.
func VocabRank(r domain.VocabRow) int { return r.Rank }

// AudioRank is the rank accessor for domain.AudioRow.
func AudioRank(r domain.AudioRow) int { return r.Rank }

// DenseVocabRows lays rows out one per rank slot from 1 to limit, the way
// the legacy deck was built: every slot present in the frequency table gets
// its surface form and reading even when JMdict had no matching entry, and a
// later row for the same rank replaces an earlier one. Slots missing from the
// table are written as empty rows. Keys sharing a rank are applied in load
// order, so the last one loaded fills the slot.
func DenseVocabRows(table domain.FrequencyTable, rows []domain.VocabRow, limit int) []domain.VocabRow {
	if limit <= 0 {
		return nil
	}

	dense := make([]domain.VocabRow, limit)
	table.Each(func(key domain.FrequencyKey, rank int) {
		if rank < 1 || rank > limit {
			return
		}
		dense[rank-1] = domain.VocabRow{Surface: key.Surface, Reading: key.Reading, Rank: rank}
	})
	for _, r := range rows {
		if r.Rank < 1 || r.Rank > limit {
			continue
		}
		dense[r.Rank-1] = r
	}
	return dense
}

// VocabOptions controls the TSV vocabulary layout.
type VocabOptions struct {
	WithFrequency bool
}

// WriteVocabTSV writes the header and one tab-separated line per row.
// Every line has the same number of columns.
func WriteVocabTSV(w io.Writer, rows []domain.VocabRow, opts VocabOptions) error {
	header := slices.Clone(vocabHeader)
	if opts.WithFrequency {
		header = append(header, frequencyColumn)
	}
	if err := writeTSVLine(w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	fields := make([]string, len(header))
	for i, r := range rows {
		fields[0] = r.Surface
		fields[1] = r.Reading
		fields[2] = r.Russian
		fields[3] = r.English
		if opts.WithFrequency {
			fields[4] = strconv.Itoa(r.Rank)
		}
		if err := writeTSVLine(w, fields); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return nil
}

// tsvReplacer keeps field text on one line and inside one column.
var tsvReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func writeTSVLine(w io.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := io.WriteString(w, "\t"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, tsvReplacer.Replace(f)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteAudioCSV writes the audio deck: header word,reading,word_index,mp3_tokyo_1
// and one record per row. Rows without audio get an empty last column.
func WriteAudioCSV(w io.Writer, rows []domain.AudioRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(audioHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		record := []string{r.Word, r.Reading, strconv.Itoa(r.Rank), r.AudioTag}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// WriteFile creates path (and its parent directory) and passes a buffered
// writer to fn. The file is flushed and closed before returning.
func WriteFile(path string, fn func(w io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
