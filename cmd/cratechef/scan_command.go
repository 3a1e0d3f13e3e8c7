package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cratechef/internal/audiotag"
	"cratechef/internal/config"
	"cratechef/internal/scanner"
	"cratechef/internal/store"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var root string
	var limit int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a music folder and import tracks from audio tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			root = strings.TrimSpace(root)
			if root == "" {
				return errors.New("scan: --root is required")
			}
			if limit < 0 {
				return fmt.Errorf("scan: --limit must be >= 0, got %d", limit)
			}
			expanded, err := config.ExpandPath(root)
			if err != nil {
				return fmt.Errorf("resolve --root: %w", err)
			}

			run := func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				opts := scanner.OptionsFromConfig(cfg)
				opts.Limit = limit
				opts.DryRun = dryRun

				bar := newScanProgress(cmd.ErrOrStderr())
				if bar != nil {
					opts.Progress = func(scanner.Progress) { _ = bar.Add(1) }
				}

				report, err := scanner.New(st, audiotag.New(), opts, logger).Scan(cmd.Context(), expanded)
				if bar != nil {
					_ = bar.Finish()
				}
				if err != nil {
					return err
				}
				printScanReport(cmd.OutOrStdout(), report)
				return nil
			}

			if dryRun {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				return run(cfg, nil, logger)
			}
			return ctx.withWriter(run)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Music folder to scan recursively")
	cmd.Flags().IntVar(&limit, "limit", 0, "Stop after this many audio files (0 means no limit)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Read tags and report without writing")
	return cmd
}

// newScanProgress returns a spinner-style bar on terminals and nil otherwise.
func newScanProgress(w io.Writer) *progressbar.ProgressBar {
	if !isTerminal(w) {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Scanning audio files..."),
		progressbar.OptionClearOnFinish(),
	)
}

func printScanReport(out io.Writer, report *scanner.Report) {
	pairs := [][2]string{
		{"Root", report.Root},
		{"Dry run", yesNo(report.DryRun)},
		{"Seen", itoa(report.Seen)},
		{"Valid", itoa(report.Valid)},
		{"Upserted", itoa(report.Upserted())},
		{"Bad", itoa(report.Bad)},
		{"Filtered", itoa(report.FilteredTotal())},
	}
	for _, reason := range report.FilterReasons() {
		pairs = append(pairs, [2]string{"  " + string(reason), itoa(report.Filtered[reason])})
	}
	if report.Limited {
		pairs = append(pairs, [2]string{"Stopped at limit", "yes"})
	}
	if report.RunID != "" {
		pairs = append(pairs, [2]string{"Run", report.RunID})
	}
	fmt.Fprintln(out, renderSummary("scan", pairs))

	if len(report.BadSamples) > 0 {
		fmt.Fprintln(out, "Bad file samples:")
		for _, path := range report.BadSamples {
			fmt.Fprintf(out, "  %s\n", path)
		}
	}
}
