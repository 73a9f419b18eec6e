// Package jmdict extracts ranked vocabulary rows from the JMdict dictionary
// export by scanning it line by line.
//
// JMdict is large (hundreds of thousands of entries) and its entries never
// nest, so the scanner tracks a two-state machine instead of decoding the
// document: lines between <entry> and </entry> are accumulated into one
// domain.LexicalEntry, and each finished entry is joined against the
// frequency table immediately.
// Pure function: reader in, domain structs out. No network or database
// dependencies.
package jmdict

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

const (
	// maxLineSize is the buffer size for bufio.Scanner (1 MB).
	maxLineSize = 1 << 20

	// DefaultGlossSeparator joins glosses in the ranked layout.
	DefaultGlossSeparator = "; "
	// LegacyGlossSeparator joins glosses in the dense layout.
	LegacyGlossSeparator = ";; "
)

// Line markers. Each marker occupies a whole line in the JMdict export.
const (
	entryOpen        = "<entry>"
	entryClose       = "</entry>"
	kebOpen          = "<keb>"
	kebClose         = "</keb>"
	rebOpen          = "<reb>"
	rebClose         = "</reb>"
	glossOpen        = "<gloss>"
	glossRussianOpen = `<gloss xml:lang="rus">`
	glossClose       = "</gloss>"
)

type scanState int

const (
	stateOutsideEntry scanState = iota
	stateInsideEntry
)

func (s scanState) String() string {
	switch s {
	case stateOutsideEntry:
		return "outside_entry"
	case stateInsideEntry:
		return "inside_entry"
	default:
		return fmt.Sprintf("scanState(%d)", int(s))
	}
}

// Options controls how matched entries are rendered.
type Options struct {
	GlossSeparator string
}

// Stats holds scanner statistics for logging.
type Stats struct {
	Lines     int
	Entries   int
	Matched   int
	Truncated int // entries cut off by end of input
}

// Extract streams r and returns one row per entry whose (surface, reading)
// key has a nonzero rank in table. Rows are in input order.
func Extract(r io.Reader, table domain.FrequencyTable, opts Options) ([]domain.VocabRow, Stats, error) {
	if opts.GlossSeparator == "" {
		opts.GlossSeparator = DefaultGlossSeparator
	}

	s := &scanner{table: table, opts: opts}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	for sc.Scan() {
		s.stats.Lines++
		s.step(sc.Text())
	}

	if err := sc.Err(); err != nil {
		return nil, s.stats, fmt.Errorf("scanner error at line %d: %w", s.stats.Lines, err)
	}

	if s.state == stateInsideEntry {
		s.stats.Truncated++
	}

	return s.rows, s.stats, nil
}

// scanner is the mutable state of one Extract call.
type scanner struct {
	table domain.FrequencyTable
	opts  Options

	state scanState
	entry domain.LexicalEntry
	rows  []domain.VocabRow
	stats Stats
}

// step feeds one line to the state machine.
func (s *scanner) step(line string) {
	switch s.state {
	case stateOutsideEntry:
		if line == entryOpen {
			s.entry = domain.LexicalEntry{}
			s.state = stateInsideEntry
		}
	case stateInsideEntry:
		if strings.HasPrefix(line, entryClose) {
			s.closeEntry()
			s.state = stateOutsideEntry
			return
		}
		s.accumulate(line)
	}
}

// accumulate applies a line inside an entry to the current accumulator.
// The first keb and the first reb of an entry win.
func (s *scanner) accumulate(line string) {
	if text, ok := between(line, kebOpen, kebClose); ok {
		if s.entry.Surface == "" {
			s.entry.Surface = text
		}
		return
	}
	if text, ok := between(line, rebOpen, rebClose); ok {
		if s.entry.Reading == "" {
			s.entry.Reading = text
		}
		return
	}
	if text, ok := between(line, glossRussianOpen, glossClose); ok {
		s.entry.RussianGlosses = append(s.entry.RussianGlosses, text)
		return
	}
	if text, ok := between(line, glossOpen, glossClose); ok {
		s.entry.EnglishGlosses = append(s.entry.EnglishGlosses, text)
	}
}

// closeEntry joins the finished entry with the frequency table.
func (s *scanner) closeEntry() {
	s.stats.Entries++

	e := s.entry
	if e.Surface == "" {
		e.Surface = e.Reading
	}

	rank, ok := s.table.Rank(e.Key())
	if !ok || rank == 0 {
		return
	}

	s.stats.Matched++
	s.rows = append(s.rows, domain.VocabRow{
		Surface: e.Surface,
		Reading: e.Reading,
		Russian: strings.Join(e.RussianGlosses, s.opts.GlossSeparator),
		English: strings.Join(e.EnglishGlosses, s.opts.GlossSeparator),
		Rank:    rank,
	})
}

// between returns the text of a line of the form open+text+close with XML
// character entities decoded.
func between(line, open, close string) (string, bool) {
	if !strings.HasPrefix(line, open) || !strings.HasSuffix(line, close) {
		return "", false
	}
	if len(line) < len(open)+len(close) {
		return "", false
	}
	return html.UnescapeString(line[len(open) : len(line)-len(close)]), true
}
