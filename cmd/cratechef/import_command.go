package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cratechef/internal/config"
	"cratechef/internal/ingest"
	"cratechef/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var libraryPath string
	var historyPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a library export and/or a play history export",
		Long: "Import reads CSV-like exports from DJ software. --library upserts tracks\n" +
			"(and crate links); --history upserts tracks and records a transition\n" +
			"between consecutive distinct plays. Either or both may be given; each\n" +
			"runs as its own transaction.",
		RunE: func(cmd *cobra.Command, args []string) error {
			libraryPath = strings.TrimSpace(libraryPath)
			historyPath = strings.TrimSpace(historyPath)
			if libraryPath == "" && historyPath == "" {
				return errors.New("nothing to import: pass --library and/or --history")
			}
			return ctx.withWriter(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				importer := ingest.NewImporter(st, ingest.Options{SniffBytes: cfg.Import.SniffBytes}, logger)
				out := cmd.OutOrStdout()

				var errs []error
				if libraryPath != "" {
					report, err := importer.ImportLibrary(cmd.Context(), libraryPath)
					if err != nil {
						errs = append(errs, err)
					} else {
						printImportReport(out, report)
					}
				}
				if historyPath != "" {
					report, err := importer.ImportHistory(cmd.Context(), historyPath)
					if err != nil {
						errs = append(errs, err)
					} else {
						printImportReport(out, report)
					}
				}
				return errors.Join(errs...)
			})
		},
	}

	cmd.Flags().StringVar(&libraryPath, "library", "", "Library export (title, artist, bpm, key, crate columns)")
	cmd.Flags().StringVar(&historyPath, "history", "", "Play history export in playback order")
	return cmd
}

func printImportReport(out io.Writer, report *ingest.Report) {
	st := report.Stats
	pairs := [][2]string{
		{"Source", report.Source},
		{"Delimiter", ingest.DelimiterName(report.Delimiter)},
		{"Rows", itoa(st.Rows)},
		{"Valid", itoa(st.Valid)},
		{"Inserted", itoa(st.Inserted)},
		{"Updated", itoa(st.Updated)},
		{"Skipped", itoa(st.SkippedTotal())},
	}
	for _, reason := range st.SkipReasons() {
		pairs = append(pairs, [2]string{"  " + string(reason), itoa(st.Skipped[reason])})
	}
	switch report.Kind {
	case store.RunKindHistory:
		pairs = append(pairs, [2]string{"Transitions", itoa(st.Transitions)})
	case store.RunKindLibrary:
		pairs = append(pairs, [2]string{"Crate links", itoa(st.CrateLinks)})
	}
	pairs = append(pairs, [2]string{"Run", report.RunID})

	title := fmt.Sprintf("%s import", report.Kind)
	fmt.Fprintln(out, renderSummary(title, pairs))
}
