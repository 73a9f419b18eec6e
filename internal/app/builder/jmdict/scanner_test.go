package jmdict

import (
	"errors"
	"strings"
	"testing"

	"github.com/heartmarshall/kotoba-decks/internal/domain"
)

const sampleJMdict = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE JMdict [
<!ENTITY n "noun (common) (futsuumeishi)">
]>
<JMdict>
<entry>
<ent_seq>1464530</ent_seq>
<k_ele>
<keb>日本</keb>
</k_ele>
<k_ele>
<keb>日夲</keb>
</k_ele>
<r_ele>
<reb>にほん</reb>
</r_ele>
<r_ele>
<reb>にっぽん</reb>
</r_ele>
<sense>
<pos>&n;</pos>
<gloss>Japan</gloss>
<gloss xml:lang="rus">Япония</gloss>
<gloss xml:lang="ger">Japan</gloss>
<gloss>land of the rising sun</gloss>
<gloss xml:lang="rus">страна восходящего солнца</gloss>
</sense>
</entry>
<entry>
<ent_seq>1628500</ent_seq>
<r_ele>
<reb>これ</reb>
</r_ele>
<sense>
<gloss>this</gloss>
<gloss>R&amp;D</gloss>
</sense>
</entry>
<entry>
<ent_seq>1467640</ent_seq>
<k_ele>
<keb>猫</keb>
</k_ele>
<r_ele>
<reb>ねこ</reb>
</r_ele>
<sense>
<gloss>cat</gloss>
</sense>
</entry>
</JMdict>
`

func testTable(t *testing.T, ranks map[[2]string]int) domain.FrequencyTable {
	t.Helper()
	table := domain.NewFrequencyTable(len(ranks))
	for k, r := range ranks {
		table.Insert(domain.NewFrequencyKey(k[0], k[1]), r)
	}
	return table
}

func TestExtract_RoundTrip(t *testing.T) {
	t.Parallel()

	table := testTable(t, map[[2]string]int{{"日本", "にほん"}: 5})

	rows, stats, err := Extract(strings.NewReader(sampleJMdict), table, Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d: %+v", len(rows), rows)
	}

	want := domain.VocabRow{
		Surface: "日本",
		Reading: "にほん",
		Russian: "Япония; страна восходящего солнца",
		English: "Japan; land of the rising sun",
		Rank:    5,
	}
	if rows[0] != want {
		t.Errorf("row = %+v, want %+v", rows[0], want)
	}

	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.Matched != 1 {
		t.Errorf("Matched = %d, want 1", stats.Matched)
	}
	if stats.Truncated != 0 {
		t.Errorf("Truncated = %d, want 0", stats.Truncated)
	}
}

func TestExtract_FirstKebAndRebWin(t *testing.T) {
	t.Parallel()

	// Later candidates must never replace the first surface form/reading.
	table := testTable(t, map[[2]string]int{
		{"日夲", "にほん"}:  1,
		{"日本", "にっぽん"}: 2,
	})

	rows, _, err := Extract(strings.NewReader(sampleJMdict), table, Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for non-first candidates, got %+v", rows)
	}
}

func TestExtract_KanaOnlyFallsBackToReading(t *testing.T) {
	t.Parallel()

	table := testTable(t, map[[2]string]int{{"これ", "これ"}: 12})

	rows, _, err := Extract(strings.NewReader(sampleJMdict), table, Options{GlossSeparator: LegacyGlossSeparator})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Surface != "これ" {
		t.Errorf("Surface = %q, want reading fallback %q", rows[0].Surface, "これ")
	}
	if rows[0].English != "this;; R&D" {
		t.Errorf("English = %q, want %q", rows[0].English, "this;; R&D")
	}
	if rows[0].Russian != "" {
		t.Errorf("Russian = %q, want empty", rows[0].Russian)
	}
}

func TestExtract_AbsentKeysProduceNoRows(t *testing.T) {
	t.Parallel()

	table := testTable(t, map[[2]string]int{{"犬", "いぬ"}: 3})

	rows, stats, err := Extract(strings.NewReader(sampleJMdict), table, Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %+v", rows)
	}
	if stats.Entries != 3 || stats.Matched != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestExtract_ZeroRankIgnored(t *testing.T) {
	t.Parallel()

	table := testTable(t, map[[2]string]int{{"猫", "ねこ"}: 0})

	rows, _, err := Extract(strings.NewReader(sampleJMdict), table, Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows for rank 0, got %+v", rows)
	}
}

func TestExtract_TruncatedEntryDropped(t *testing.T) {
	t.Parallel()

	input := "<entry>\n<keb>猫</keb>\n<reb>ねこ</reb>\n<gloss>cat</gloss>\n"
	table := testTable(t, map[[2]string]int{{"猫", "ねこ"}: 1})

	rows, stats, err := Extract(strings.NewReader(input), table, Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("partial entry must not be emitted, got %+v", rows)
	}
	if stats.Truncated != 1 {
		t.Errorf("Truncated = %d, want 1", stats.Truncated)
	}
}

func TestExtract_LinesOutsideEntryIgnored(t *testing.T) {
	t.Parallel()

	input := "<keb>猫</keb>\n<reb>ねこ</reb>\n</entry>\n<entry>\n<reb>いぬ</reb>\n</entry>\n"
	table := testTable(t, map[[2]string]int{
		{"猫", "ねこ"}:   1,
		{"いぬ", "いぬ"}: 2,
	})

	rows, stats, err := Extract(strings.NewReader(input), table, Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 1 || rows[0].Reading != "いぬ" {
		t.Fatalf("expected only the いぬ row, got %+v", rows)
	}
	if stats.Entries != 1 {
		t.Errorf("Entries = %d, want 1", stats.Entries)
	}
}

func TestExtract_AccumulatorResetBetweenEntries(t *testing.T) {
	t.Parallel()

	input := "<entry>\n<keb>猫</keb>\n<reb>ねこ</reb>\n<gloss>cat</gloss>\n</entry>\n" +
		"<entry>\n<reb>ねこ</reb>\n<gloss>kitty</gloss>\n</entry>\n"
	table := testTable(t, map[[2]string]int{
		{"猫", "ねこ"}:   1,
		{"ねこ", "ねこ"}: 2,
	})

	rows, _, err := Extract(strings.NewReader(input), table, Options{})
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[1].Surface != "ねこ" || rows[1].English != "kitty" {
		t.Errorf("second row leaked state from the first: %+v", rows[1])
	}
}

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()

	table := testTable(t, map[[2]string]int{
		{"日本", "にほん"}: 5,
		{"猫", "ねこ"}:   2,
		{"これ", "これ"}:  9,
	})

	first, _, err := Extract(strings.NewReader(sampleJMdict), table, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Extract(strings.NewReader(sampleJMdict), table, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestExtract_ReadError(t *testing.T) {
	t.Parallel()

	_, _, err := Extract(failingReader{}, domain.NewFrequencyTable(0), Options{})
	if err == nil {
		t.Fatal("expected read error to propagate")
	}
}

func TestScanState_String(t *testing.T) {
	t.Parallel()

	if stateOutsideEntry.String() != "outside_entry" || stateInsideEntry.String() != "inside_entry" {
		t.Errorf("unexpected state names: %s, %s", stateOutsideEntry, stateInsideEntry)
	}
}
