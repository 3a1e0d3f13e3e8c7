package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cratechef/internal/csvio"
	"cratechef/internal/logging"
	"cratechef/internal/normalize"
	"cratechef/internal/store"
)

// Options configures an Importer.
type Options struct {
	// SniffBytes is the sample size for delimiter detection.
	SniffBytes int
}

// Report describes a finished import.
type Report struct {
	RunID     string
	Kind      store.RunKind
	Source    string
	Delimiter rune
	Columns   []string
	Stats     Stats
}

// Importer runs library and history imports against a store.
type Importer struct {
	store  *store.Store
	opts   Options
	logger *slog.Logger
}

// NewImporter returns an Importer. A nil logger discards output.
func NewImporter(st *store.Store, opts Options, logger *slog.Logger) *Importer {
	return &Importer{
		store:  st,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "ingest"),
	}
}

// rowHandler consumes one normalized, accepted row inside the run's
// transaction.
type rowHandler func(ctx context.Context, tx *store.Tx, rec normalize.Record, stats *Stats) error

// ImportLibrary upserts every valid row of a library export. Values land in
// the shared columns and the library slots (bpm_serato, key_serato). A crate
// or playlist column links the track to each comma-separated crate name.
func (i *Importer) ImportLibrary(ctx context.Context, path string) (*Report, error) {
	return i.run(ctx, store.RunKindLibrary, path, func(_ *store.Run) rowHandler {
		return func(ctx context.Context, tx *store.Tx, rec normalize.Record, stats *Stats) error {
			res, err := tx.UpsertTrack(ctx, store.TrackInput{
				Title:  rec.Title,
				Artist: rec.Artist,
				BPM:    rec.BPM,
				Key:    rec.Key,
				Source: store.SourceLibrary,
			})
			if err != nil {
				return err
			}
			stats.record(res)
			for _, name := range splitCrates(rec.Crate) {
				if err := tx.LinkCrate(ctx, res.ID, name); err != nil {
					return err
				}
				stats.CrateLinks++
			}
			return nil
		}
	})
}

// ImportHistory upserts every valid row of a play history export and records
// a transition whenever consecutive accepted rows name different tracks.
func (i *Importer) ImportHistory(ctx context.Context, path string) (*Report, error) {
	return i.run(ctx, store.RunKindHistory, path, func(run *store.Run) rowHandler {
		var extractor *Extractor
		return func(ctx context.Context, tx *store.Tx, rec normalize.Record, stats *Stats) error {
			if extractor == nil {
				extractor = NewExtractor(tx, run.ID)
			}
			res, added, err := extractor.Accept(ctx, rec)
			if err != nil {
				return err
			}
			stats.record(res)
			if added {
				stats.Transitions++
			}
			return nil
		}
	})
}

func (i *Importer) run(ctx context.Context, kind store.RunKind, path string, newHandler func(*store.Run) rowHandler) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if i.store == nil {
		return nil, errors.New("import: store is nil")
	}

	reader, err := csvio.Open(path, csvio.Options{SniffBytes: i.opts.SniffBytes})
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", kind, err)
	}
	defer reader.Close()

	run, err := i.store.BeginRun(ctx, kind, path)
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, i.logger)

	header := reader.Header()
	report := &Report{
		RunID:     run.ID,
		Kind:      kind,
		Source:    path,
		Delimiter: reader.Delimiter(),
		Columns:   header,
		Stats:     newStats(),
	}
	logger.Info("import started",
		logging.String(logging.FieldSource, path),
		logging.String("kind", string(kind)),
		logging.String("delimiter", DelimiterName(report.Delimiter)),
		logging.Any("columns", report.Columns),
	)

	handle := newHandler(run)
	runErr := i.store.WithTx(ctx, func(tx *store.Tx) error {
		stats := newStats()
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := reader.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				if errors.Is(err, csvio.ErrMalformedRow) {
					stats.Rows++
					stats.skip(normalize.SkipMalformed)
					logger.Debug("skipping malformed row", logging.Error(err))
					continue
				}
				return err
			}
			stats.Rows++

			res := normalize.Row(header, raw)
			if !res.OK() {
				stats.skip(res.Skip)
				logger.Debug("skipping row",
					logging.String("reason", string(res.Skip)),
					logging.Int("row", stats.Rows),
				)
				continue
			}
			if err := handle(ctx, tx, res.Record, &stats); err != nil {
				return fmt.Errorf("row %d: %w", stats.Rows, err)
			}
		}
		report.Stats = stats
		return nil
	})
	if runErr != nil {
		runErr = fmt.Errorf("import %s %s: %w", kind, path, runErr)
		// Nothing was committed, so the ledger reports zero writes.
		report.Stats = newStats()
	}

	if err := i.store.FinishRun(context.WithoutCancel(ctx), run, report.Stats.Counters(), runErr); err != nil {
		logging.WarnWithContext(logger, "failed to finish run ledger entry", "run_ledger_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database permissions"),
			logging.String(logging.FieldImpact, "run stays marked as running"),
		)
	}
	if runErr != nil {
		logger.Error("import failed", logging.Error(runErr))
		return report, runErr
	}

	st := report.Stats
	logger.Info("import completed",
		logging.Int("rows", st.Rows),
		logging.Int("valid", st.Valid),
		logging.Int("inserted", st.Inserted),
		logging.Int("updated", st.Updated),
		logging.Int("skipped", st.SkippedTotal()),
		logging.Int("transitions", st.Transitions),
	)
	return report, nil
}

func splitCrates(value string) []string {
	var names []string
	for _, part := range strings.Split(value, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// DelimiterName returns a readable name for a delimiter rune.
func DelimiterName(d rune) string {
	switch d {
	case '\t':
		return "tab"
	case ',':
		return "comma"
	case ';':
		return "semicolon"
	case '|':
		return "pipe"
	default:
		return string(d)
	}
}
