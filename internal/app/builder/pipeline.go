package builder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/kotoba-decks/internal/adapter/fetch"
	"github.com/heartmarshall/kotoba-decks/internal/app/builder/export"
	"github.com/heartmarshall/kotoba-decks/internal/app/builder/freqlist"
	"github.com/heartmarshall/kotoba-decks/internal/app/builder/jmdict"
	"github.com/heartmarshall/kotoba-decks/internal/app/builder/migaku"
	"github.com/heartmarshall/kotoba-decks/internal/config"
	"github.com/heartmarshall/kotoba-decks/internal/domain"
	"github.com/heartmarshall/kotoba-decks/pkg/ctxutil"
)

// Phase names.
const (
	PhaseJMdict = "jmdict"
	PhaseAudio  = "audio"
)

// allPhases defines the canonical execution order.
var allPhases = []string{PhaseJMdict, PhaseAudio}

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Rows      int // rows in the deck file
	Skipped   int
	Published int
	Duration  time.Duration
	Err       error
}

// Pipeline runs the deck build phases.
type Pipeline struct {
	log     *slog.Logger
	fetcher *fetch.Fetcher
	store   RowStore
	cfg     config.Config
	runID   uuid.UUID
	results map[string]PhaseResult
}

// NewPipeline creates a new Pipeline with a fresh run ID.
// store may be nil, in which case rows are only written to files.
func NewPipeline(log *slog.Logger, fetcher *fetch.Fetcher, store RowStore, cfg config.Config) *Pipeline {
	runID := uuid.New()
	return &Pipeline{
		log:     log.With(slog.String("run_id", runID.String())),
		fetcher: fetcher,
		store:   store,
		cfg:     cfg,
		runID:   runID,
		results: make(map[string]PhaseResult),
	}
}

// RunID identifies this pipeline execution in logs and published rows.
func (p *Pipeline) RunID() uuid.UUID {
	return p.runID
}

// Results returns phase results after Run completes.
func (p *Pipeline) Results() map[string]PhaseResult {
	return p.results
}

// HasErrors returns true if any phase failed.
func (p *Pipeline) HasErrors() bool {
	for _, r := range p.results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Run executes the pipeline. If phases is non-empty, only the listed phases
// run, still in canonical order. An unknown phase name fails before anything
// runs; phase failures are recorded in Results instead of returned.
func (p *Pipeline) Run(ctx context.Context, phases []string) error {
	toRun, err := selectPhases(phases)
	if err != nil {
		return err
	}

	ctx = ctxutil.WithRunID(ctx, p.runID)

	for _, phase := range toRun {
		start := time.Now()
		p.log.Info("starting phase", slog.String("phase", phase))

		phaseCtx := ctxutil.WithPhase(ctx, phase)

		var result PhaseResult
		if err := ctx.Err(); err != nil {
			result = PhaseResult{Err: err}
		} else {
			switch phase {
			case PhaseJMdict:
				result = p.runJMdict(phaseCtx)
			case PhaseAudio:
				result = p.runAudio(phaseCtx)
			}
		}
		result.Duration = time.Since(start)
		p.results[phase] = result

		if result.Err != nil {
			p.log.Warn("phase failed",
				slog.String("phase", phase),
				slog.String("error", result.Err.Error()),
				slog.Duration("duration", result.Duration),
			)
		} else {
			p.log.Info("phase completed",
				slog.String("phase", phase),
				slog.Int("rows", result.Rows),
				slog.Int("skipped", result.Skipped),
				slog.Int("published", result.Published),
				slog.Duration("duration", result.Duration),
			)
		}
	}

	p.log.Info("pipeline completed", slog.Int("phases_run", len(toRun)))
	return nil
}

func selectPhases(phases []string) ([]string, error) {
	if len(phases) == 0 {
		return allPhases, nil
	}

	filter := make(map[string]bool, len(phases))
	for _, ph := range phases {
		if !slices.Contains(allPhases, ph) {
			return nil, fmt.Errorf("unknown phase %q (want one of %v)", ph, allPhases)
		}
		filter[ph] = true
	}

	var filtered []string
	for _, ph := range allPhases {
		if filter[ph] {
			filtered = append(filtered, ph)
		}
	}
	return filtered, nil
}

// runJMdict builds the glossed vocabulary deck.
func (p *Pipeline) runJMdict(ctx context.Context) PhaseResult {
	src := p.cfg.Sources
	if src.JMdictHost == "" || src.JMdictFile == "" {
		return PhaseResult{Skipped: 1, Err: fmt.Errorf("jmdict source: %w", domain.ErrNotConfigured)}
	}

	freqPath, err := p.fetchFrequencyList(ctx)
	if err != nil {
		return PhaseResult{Err: err}
	}

	dictPath, err := p.fetcher.EnsureFTP(ctx, fetch.FTPSource{
		Host: src.JMdictHost,
		Dir:  src.JMdictDir,
		File: src.JMdictFile,
	}, src.JMdictFile)
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("fetch jmdict: %w", err)}
	}

	table, err := p.loadFrequencyTable(freqPath, p.cfg.JMdict.LimitMode, p.cfg.JMdict.LimitValue)
	if err != nil {
		return PhaseResult{Err: err}
	}

	dense := p.cfg.JMdict.Layout == config.LayoutDense
	sep := p.cfg.JMdict.GlossSeparator
	if sep == "" {
		sep = jmdict.DefaultGlossSeparator
		if dense {
			sep = jmdict.LegacyGlossSeparator
		}
	}

	rows, stats, err := extractVocab(dictPath, table, jmdict.Options{GlossSeparator: sep})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("extract jmdict: %w", err)}
	}
	p.log.Info("jmdict scanned",
		slog.Int("lines", stats.Lines),
		slog.Int("entries", stats.Entries),
		slog.Int("matched", stats.Matched),
		slog.Int("truncated", stats.Truncated),
	)

	var deck []domain.VocabRow
	if dense {
		deck = export.DenseVocabRows(table, rows, p.cfg.JMdict.RowLimit)
	} else {
		deck = export.SortAndTruncate(rows, export.VocabRank, p.cfg.JMdict.RowLimit)
	}

	result := PhaseResult{Rows: len(deck), Skipped: stats.Entries - stats.Matched}

	if p.cfg.DryRun {
		p.log.Info("dry run, deck not written", slog.String("output", p.cfg.JMdict.Output))
		return result
	}

	opts := export.VocabOptions{WithFrequency: !dense}
	if err := export.WriteFile(p.cfg.JMdict.Output, func(w io.Writer) error {
		return export.WriteVocabTSV(w, deck, opts)
	}); err != nil {
		return PhaseResult{Err: fmt.Errorf("write deck: %w", err)}
	}
	p.log.Info("deck written", slog.String("output", p.cfg.JMdict.Output), slog.Int("rows", len(deck)))

	if p.store == nil {
		return result
	}

	// Empty slots of the dense layout carry no word.
	publishable := slices.DeleteFunc(slices.Clone(deck), func(r domain.VocabRow) bool {
		return r.Surface == "" && r.Reading == ""
	})
	published, err := batchProcess(publishable, p.cfg.Store.BatchSize, func(batch []domain.VocabRow) (int, error) {
		return p.store.SaveVocabRows(ctx, batch)
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("publish vocab rows: %w", err)}
	}
	result.Published = published

	return result
}

// runAudio builds the pronunciation audio deck.
func (p *Pipeline) runAudio(ctx context.Context) PhaseResult {
	src := p.cfg.Sources
	if src.MigakuBaseURL == "" || len(src.MigakuFiles) == 0 {
		return PhaseResult{Skipped: 1, Err: fmt.Errorf("migaku source: %w", domain.ErrNotConfigured)}
	}

	freqPath, err := p.fetchFrequencyList(ctx)
	if err != nil {
		return PhaseResult{Err: err}
	}

	dictPaths := make([]string, 0, len(src.MigakuFiles))
	for _, name := range src.MigakuFiles {
		u, err := url.JoinPath(src.MigakuBaseURL, name)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("migaku url for %s: %w", name, err)}
		}
		path, err := p.fetcher.EnsureHTTP(ctx, u, name)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("fetch migaku: %w", err)}
		}
		dictPaths = append(dictPaths, path)
	}

	table, err := p.loadFrequencyTable(freqPath, p.cfg.Audio.LimitMode, p.cfg.Audio.LimitValue)
	if err != nil {
		return PhaseResult{Err: err}
	}

	var (
		rows    []domain.AudioRow
		skipped int
	)
	seen := make(map[string]bool)
	for _, path := range dictPaths {
		entries, dstats, err := migaku.DecodeFile(path)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("decode %s: %w", path, err)}
		}

		fileRows, jstats, err := migaku.Join(entries, table, seen)
		if err != nil {
			return PhaseResult{Err: fmt.Errorf("join %s: %w", path, err)}
		}
		p.log.Info("audio dictionary joined",
			slog.String("file", path),
			slog.Int("entries", dstats.TotalEntries),
			slog.Int("decoded", dstats.Decoded),
			slog.Int("emitted", jstats.Emitted),
			slog.Int("no_audio", jstats.NoAudio),
		)

		rows = append(rows, fileRows...)
		skipped += dstats.ShortEntries + dstats.NoVariants + jstats.Seen + jstats.Unranked
	}

	deck := export.SortAndTruncate(rows, export.AudioRank, p.cfg.Audio.RowLimit)
	result := PhaseResult{Rows: len(deck), Skipped: skipped}

	if p.cfg.DryRun {
		p.log.Info("dry run, deck not written", slog.String("output", p.cfg.Audio.Output))
		return result
	}

	if err := export.WriteFile(p.cfg.Audio.Output, func(w io.Writer) error {
		return export.WriteAudioCSV(w, deck)
	}); err != nil {
		return PhaseResult{Err: fmt.Errorf("write deck: %w", err)}
	}
	p.log.Info("deck written", slog.String("output", p.cfg.Audio.Output), slog.Int("rows", len(deck)))

	if p.store == nil {
		return result
	}

	published, err := batchProcess(deck, p.cfg.Store.BatchSize, func(batch []domain.AudioRow) (int, error) {
		return p.store.SaveAudioRows(ctx, batch)
	})
	if err != nil {
		return PhaseResult{Err: fmt.Errorf("publish audio rows: %w", err)}
	}
	result.Published = published

	return result
}

func (p *Pipeline) fetchFrequencyList(ctx context.Context) (string, error) {
	src := p.cfg.Sources
	if src.FrequencyURL == "" || src.FrequencyFile == "" {
		return "", fmt.Errorf("frequency list source: %w", domain.ErrNotConfigured)
	}
	path, err := p.fetcher.EnsureHTTP(ctx, src.FrequencyURL, src.FrequencyFile)
	if err != nil {
		return "", fmt.Errorf("fetch frequency list: %w", err)
	}
	return path, nil
}

func (p *Pipeline) loadFrequencyTable(path, mode string, value int) (domain.FrequencyTable, error) {
	limit := freqlist.Limit{Mode: freqlist.LimitMode(mode), Value: value}
	table, stats, err := freqlist.LoadFile(path, limit)
	if err != nil {
		return domain.FrequencyTable{}, fmt.Errorf("load frequency list: %w", err)
	}
	p.log.Info("frequency table loaded",
		slog.Int("entries", stats.Entries),
		slog.Int("duplicates", stats.Duplicates),
		slog.Bool("stopped_at_limit", stats.StoppedAtLimit),
	)
	return table, nil
}

func extractVocab(path string, table domain.FrequencyTable, opts jmdict.Options) ([]domain.VocabRow, jmdict.Stats, error) {
	rc, err := fetch.OpenMaybeGzip(path)
	if err != nil {
		return nil, jmdict.Stats{}, err
	}
	defer rc.Close()

	return jmdict.Extract(rc, table, opts)
}

// batchProcess splits items into batches and processes each via fn.
func batchProcess[T any](items []T, batchSize int, fn func([]T) (int, error)) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	total := 0
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		n, err := fn(items[i:end])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
