package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"cratechef/internal/config"
	"cratechef/internal/store"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}
	dbCmd.AddCommand(newDBInitCommand(ctx))
	return dbCmd
}

func newDBInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database or upgrade an existing one in place",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withWriter(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
				report := st.OpenReport()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", st.Path())
				if !report.Changed() {
					fmt.Fprintln(out, "Schema is up to date")
					return nil
				}
				logger.Info("schema updated",
					slog.Int("migrations", len(report.Migrations)),
					slog.Int("columns", len(report.Columns)),
					slog.Int("indexes", len(report.Indexes)),
				)
				printList(out, "Applied migrations", report.Migrations)
				printList(out, "Added columns", report.Columns)
				printList(out, "Created indexes", report.Indexes)
				return nil
			})
		},
	}
}

func printList(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", label, strings.Join(items, ", "))
}
