package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cratechef/internal/config"
	"cratechef/internal/logging"
	"cratechef/internal/normalize"
	"cratechef/internal/store"
)

// ErrRootNotFound is returned when the scan root is missing or not a directory.
var ErrRootNotFound = errors.New("scan root not found")

// TagReader reads and normalizes the tags of one file.
type TagReader interface {
	ReadTags(path string) normalize.Result
}

// TrackWriter persists scanned tracks. *store.Store and *store.Tx satisfy it.
type TrackWriter interface {
	UpsertTrack(ctx context.Context, in store.TrackInput) (store.UpsertResult, error)
}

// Progress is passed to Options.Progress for every seen file.
type Progress struct {
	Seen int
	Path string
}

// Options controls a scan.
type Options struct {
	// Extensions is the set of lower-case extensions, with leading dot, that
	// count as audio. Empty means the configured defaults.
	Extensions map[string]struct{}
	// MinFileBytes excludes smaller files as placeholders.
	MinFileBytes int64
	// BadSampleLimit caps Report.BadSamples.
	BadSampleLimit int
	// Limit stops the scan after that many seen files; zero means no limit.
	Limit int
	// DryRun reads tags without writing anything.
	DryRun bool
	// Progress, when set, is called after each seen file.
	Progress func(Progress)
}

// OptionsFromConfig returns scan options seeded from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Extensions:     cfg.ScanExtensionSet(),
		MinFileBytes:   cfg.Scan.MinFileBytes,
		BadSampleLimit: cfg.Scan.BadSampleLimit,
	}
}

// Scanner walks directories and upserts tagged audio files.
type Scanner struct {
	store  *store.Store
	reader TagReader
	opts   Options
	logger *slog.Logger
}

// New returns a Scanner. st may be nil for dry runs.
func New(st *store.Store, reader TagReader, opts Options, logger *slog.Logger) *Scanner {
	if len(opts.Extensions) == 0 {
		defaults := config.Default()
		opts.Extensions = defaults.ScanExtensionSet()
	}
	if opts.BadSampleLimit < 0 {
		opts.BadSampleLimit = 0
	}
	return &Scanner{
		store:  st,
		reader: reader,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks root recursively. A missing or non-directory root fails with
// ErrRootNotFound before any work.
func (s *Scanner) Scan(ctx context.Context, root string) (*Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.reader == nil {
		return nil, errors.New("scan: tag reader is nil")
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}

	report := &Report{
		Root:     root,
		DryRun:   s.opts.DryRun,
		Filtered: make(map[FilterReason]int),
	}

	if s.opts.DryRun {
		logger := s.logger.With(logging.String(logging.FieldSource, root))
		logger.Info("dry-run scan started")
		if err := s.walk(ctx, root, nil, report, logger); err != nil {
			return report, fmt.Errorf("scan %s: %w", root, err)
		}
		s.logSummary(logger, report)
		return report, nil
	}

	if s.store == nil {
		return nil, errors.New("scan: store is nil")
	}
	run, err := s.store.BeginRun(ctx, store.RunKindScan, root)
	if err != nil {
		return nil, err
	}
	report.RunID = run.ID
	ctx = logging.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, s.logger).With(logging.String(logging.FieldSource, root))
	logger.Info("scan started")

	runErr := s.store.WithTx(ctx, func(tx *store.Tx) error {
		return s.walk(ctx, root, tx, report, logger)
	})
	if runErr != nil {
		runErr = fmt.Errorf("scan %s: %w", root, runErr)
		report.Inserted, report.Updated = 0, 0
	}

	counters := store.RunCounters{
		Rows:     report.Seen,
		Valid:    report.Valid,
		Inserted: report.Inserted,
		Updated:  report.Updated,
		Skipped:  report.Bad,
	}
	if err := s.store.FinishRun(context.WithoutCancel(ctx), run, counters, runErr); err != nil {
		logging.WarnWithContext(logger, "failed to finish run ledger entry", "run_ledger_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run stays marked as running"),
		)
	}
	if runErr != nil {
		logger.Error("scan failed", logging.Error(runErr))
		return report, runErr
	}
	s.logSummary(logger, report)
	return report, nil
}

func (s *Scanner) walk(ctx context.Context, root string, w TrackWriter, report *Report, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			report.Filtered[FilterWalkError]++
			logger.Debug("skipping unreadable entry", logging.String("path", path), logging.Error(walkErr))
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if reason, skip := s.filter(path, d); skip {
			report.Filtered[reason]++
			logger.Debug("filtered file", logging.String("path", path), logging.String("reason", string(reason)))
			return nil
		}

		if s.opts.Limit > 0 && report.Seen >= s.opts.Limit {
			report.Limited = true
			return filepath.SkipAll
		}
		report.Seen++

		res := s.reader.ReadTags(path)
		if !res.OK() {
			report.Bad++
			if len(report.BadSamples) < s.opts.BadSampleLimit {
				report.BadSamples = append(report.BadSamples, path)
			}
			logger.Debug("bad audio file", logging.String("path", path), logging.String("reason", string(res.Skip)))
		} else {
			report.Valid++
			if w != nil {
				up, err := w.UpsertTrack(ctx, store.TrackInput{
					Title:    res.Record.Title,
					Artist:   res.Record.Artist,
					FilePath: path,
					BPM:      res.Record.BPM,
					Key:      res.Record.Key,
					Source:   store.SourceTags,
				})
				if err != nil {
					return fmt.Errorf("upsert %s: %w", path, err)
				}
				if up.Inserted {
					report.Inserted++
				} else {
					report.Updated++
				}
			}
		}

		if s.opts.Progress != nil {
			s.opts.Progress(Progress{Seen: report.Seen, Path: path})
		}
		return nil
	})
}

func (s *Scanner) filter(path string, d fs.DirEntry) (FilterReason, bool) {
	name := d.Name()
	if _, ok := s.opts.Extensions[strings.ToLower(filepath.Ext(name))]; !ok {
		return FilterExtension, true
	}
	if strings.HasPrefix(name, ".") {
		return FilterHidden, true
	}
	info, err := os.Stat(path)
	if err != nil {
		return FilterWalkError, true
	}
	if !info.Mode().IsRegular() {
		return FilterWalkError, true
	}
	if info.Size() < s.opts.MinFileBytes {
		return FilterTooSmall, true
	}
	return "", false
}

func (s *Scanner) logSummary(logger *slog.Logger, report *Report) {
	logger.Info("scan completed",
		logging.Int("seen", report.Seen),
		logging.Int("valid", report.Valid),
		logging.Int("upserted", report.Upserted()),
		logging.Int("bad", report.Bad),
		logging.Int("filtered", report.FilteredTotal()),
		logging.Bool("dry_run", report.DryRun),
	)
	if report.Bad > 0 {
		logging.WarnWithContext(logger, "some audio files could not be imported", "scan_bad_files",
			logging.Int("bad", report.Bad),
			logging.Any("samples", report.BadSamples),
			logging.String(logging.FieldErrorHint, "check tags for title and artist"),
			logging.String(logging.FieldImpact, "files were not added to the library"),
		)
	}
}
