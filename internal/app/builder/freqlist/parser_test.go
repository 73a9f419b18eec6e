package freqlist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

const sampleList = "term\treading\tfrequency\tkind\n" +
	"の\tの\t1\tfreq\n" +
	"日本\tにほん\t2\tfreq\n" +
	"日本\tにほん\t3\tfreq\n" +
	"日本\tにっぽん\t4\tfreq\n" +
	"猫\tねこ\t5\tfreq\n"

func key(surface, reading string) domain.FrequencyKey {
	return domain.NewFrequencyKey(surface, reading)
}

func TestLoad_FirstOccurrenceWins(t *testing.T) {
	t.Parallel()

	table, stats, err := Load(strings.NewReader(sampleList), Limit{Mode: LimitLines})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if rank, ok := table.Rank(key("日本", "にほん")); !ok || rank != 2 {
		t.Errorf("日本/にほん rank = (%d, %v), want (2, true)", rank, ok)
	}
	if rank, ok := table.Rank(key("日本", "にっぽん")); !ok || rank != 4 {
		t.Errorf("日本/にっぽん rank = (%d, %v), want (4, true)", rank, ok)
	}
	if stats.DataLines != 5 {
		t.Errorf("DataLines = %d, want 5", stats.DataLines)
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}
	if stats.Entries != 4 || table.Len() != 4 {
		t.Errorf("Entries = %d, Len = %d, want 4", stats.Entries, table.Len())
	}
	if stats.StoppedAtLimit {
		t.Error("StoppedAtLimit should be false without a cap")
	}
}

func TestLoad_HeaderSkipped(t *testing.T) {
	t.Parallel()

	table, _, err := Load(strings.NewReader(sampleList), Limit{Mode: LimitRank})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, ok := table.Rank(key("term", "reading")); ok {
		t.Error("header line must not be loaded as a key")
	}
}

func TestLoad_Limits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		limit       Limit
		wantEntries int
		wantStopped bool
		wantPresent string
		wantAbsent  string
	}{
		{"lines cap 2", Limit{Mode: LimitLines, Value: 2}, 2, true, "日本", "猫"},
		{"lines cap counts duplicates", Limit{Mode: LimitLines, Value: 3}, 2, true, "日本", "猫"},
		{"rank cap exclusive", Limit{Mode: LimitRank, Value: 5}, 3, true, "日本", "猫"},
		{"rank cap above all", Limit{Mode: LimitRank, Value: 100}, 4, false, "猫", ""},
		{"zero disables cap", Limit{Mode: LimitRank, Value: 0}, 4, false, "猫", ""},
	}

	readings := map[string]string{"日本": "にほん", "猫": "ねこ"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table, stats, err := Load(strings.NewReader(sampleList), tt.limit)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if table.Len() != tt.wantEntries {
				t.Errorf("Len = %d, want %d", table.Len(), tt.wantEntries)
			}
			if stats.StoppedAtLimit != tt.wantStopped {
				t.Errorf("StoppedAtLimit = %v, want %v", stats.StoppedAtLimit, tt.wantStopped)
			}
			if _, ok := table.Rank(key(tt.wantPresent, readings[tt.wantPresent])); !ok {
				t.Errorf("%s should be present", tt.wantPresent)
			}
			if tt.wantAbsent != "" {
				if _, ok := table.Rank(key(tt.wantAbsent, readings[tt.wantAbsent])); ok {
					t.Errorf("%s should be absent", tt.wantAbsent)
				}
			}
		})
	}
}

func TestLoad_MalformedRow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"too few fields", "h\n日本\tにほん\t1\n猫\tねこ\n", 3},
		{"non-numeric rank", "h\n日本\tにほん\tone\n", 2},
		{"blank line mid-file", "h\n日本\tにほん\t1\n\n猫\tねこ\t2\n", 3},
		{"whitespace line mid-file", "h\n日本\tにほん\t1\n \t\n\n猫\tねこ\t2\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := Load(strings.NewReader(tt.input), Limit{Mode: LimitLines})
			if !errors.Is(err, domain.ErrMalformedRow) {
				t.Fatalf("expected ErrMalformedRow, got %v", err)
			}
			var rowErr *domain.RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("expected *domain.RowError, got %T", err)
			}
			if rowErr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", rowErr.Line, tt.wantLine)
			}
		})
	}
}

func TestLoad_MalformedRowBeyondLimitIgnored(t *testing.T) {
	t.Parallel()

	input := "h\n日本\tにほん\t1\nbroken\n"
	table, stats, err := Load(strings.NewReader(input), Limit{Mode: LimitLines, Value: 1})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if table.Len() != 1 || !stats.StoppedAtLimit {
		t.Errorf("Len = %d, StoppedAtLimit = %v", table.Len(), stats.StoppedAtLimit)
	}
}

func TestLoad_EmptyAndBlankLines(t *testing.T) {
	t.Parallel()

	table, _, err := Load(strings.NewReader(""), Limit{Mode: LimitLines})
	if err != nil || table.Len() != 0 {
		t.Fatalf("empty input: Len = %d, err = %v", table.Len(), err)
	}

	table, _, err = Load(strings.NewReader("h\n猫\tねこ\t5\n\n\n"), Limit{Mode: LimitLines})
	if err != nil {
		t.Fatalf("trailing blank lines: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}
}

func TestLoad_BlankLineBeyondLimitIgnored(t *testing.T) {
	t.Parallel()

	input := "h\n日本\tにほん\t1\n\n猫\tねこ\t2\n"
	table, _, err := Load(strings.NewReader(input), Limit{Mode: LimitLines, Value: 1})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len = %d, want 1", table.Len())
	}
}

func TestLoad_UnknownMode(t *testing.T) {
	t.Parallel()

	if _, _, err := Load(strings.NewReader(sampleList), Limit{Mode: "bytes"}); err == nil {
		t.Fatal("expected error for unknown limit mode")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "freq.tsv")
	if err := os.WriteFile(path, []byte(sampleList), 0o644); err != nil {
		t.Fatal(err)
	}

	table, _, err := LoadFile(path, Limit{Mode: LimitRank, Value: 10000})
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if table.Len() != 4 {
		t.Errorf("Len = %d, want 4", table.Len())
	}

	if _, _, err := LoadFile(filepath.Join(t.TempDir(), "missing.tsv"), Limit{Mode: LimitRank}); err == nil {
		t.Error("expected error for missing file")
	}
}
