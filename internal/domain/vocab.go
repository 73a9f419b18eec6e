package domain

// AccentTypeHeiban is the label of the flat (平板) pitch-accent pattern.
const AccentTypeHeiban = "平板"

// FrequencyKey identifies a vocabulary item by surface form and reading.
type FrequencyKey struct {
	Surface string
	Reading string
}

// NewFrequencyKey builds a key from raw source text, normalizing both parts.
func NewFrequencyKey(surface, reading string) FrequencyKey {
	return FrequencyKey{
		Surface: NormalizeText(surface),
		Reading: NormalizeText(reading),
	}
}

// FrequencyTable maps a vocabulary item to its 1-based frequency rank.
// It is built once by a loader and read-only afterwards. Keys remember the
// order they were inserted in.
type FrequencyTable struct {
	ranks map[FrequencyKey]int
	order *[]FrequencyKey
}

// NewFrequencyTable creates an empty table with room for n keys.
func NewFrequencyTable(n int) FrequencyTable {
	order := make([]FrequencyKey, 0, n)
	return FrequencyTable{ranks: make(map[FrequencyKey]int, n), order: &order}
}

// Insert records rank for key unless the key is already present.
// Returns false when the key was already known (first occurrence wins).
func (t FrequencyTable) Insert(key FrequencyKey, rank int) bool {
	if _, ok := t.ranks[key]; ok {
		return false
	}
	t.ranks[key] = rank
	*t.order = append(*t.order, key)
	return true
}

// Rank returns the rank of key and whether it is present.
func (t FrequencyTable) Rank(key FrequencyKey) (int, bool) {
	r, ok := t.ranks[key]
	return r, ok
}

// Len returns the number of keys in the table.
func (t FrequencyTable) Len() int {
	return len(t.ranks)
}

// Each calls fn for every key in insertion order.
func (t FrequencyTable) Each(fn func(key FrequencyKey, rank int)) {
	if t.order == nil {
		return
	}
	for _, key := range *t.order {
		fn(key, t.ranks[key])
	}
}

// LexicalEntry is the accumulator for one JMdict entry.
type LexicalEntry struct {
	Surface        string // empty for kana-only words
	Reading        string
	EnglishGlosses []string
	RussianGlosses []string
}

// Key returns the join key of the entry. An empty surface form falls back
// to the reading.
func (e LexicalEntry) Key() FrequencyKey {
	surface := e.Surface
	if surface == "" {
		surface = e.Reading
	}
	return NewFrequencyKey(surface, e.Reading)
}

// Variant is one recorded pronunciation of an audio dictionary word.
type Variant struct {
	Label       string
	PitchMarker string // e.g. "[0]"
	AudioPath   string
	NoMarker    bool // the record stopped before the pitch marker position
}

// AudioEntry is a typed view of one Migaku accent dictionary record.
type AudioEntry struct {
	Word          string
	Reading       string
	Variants      []Variant
	AccentIndices [][]int
	AccentTypes   [][]string
}

// VocabRow is one output row of the JMdict deck.
type VocabRow struct {
	Surface string
	Reading string
	Russian string
	English string
	Rank    int
}

// AudioRow is one output row of the audio deck.
type AudioRow struct {
	Word     string
	Reading  string
	Rank     int
	AudioTag string // "[sound:...]" or empty
}
