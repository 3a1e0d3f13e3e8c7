package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"cratechef/internal/config"
	"cratechef/internal/store"
)

const statsRecentRuns = 5

type statsOutput struct {
	Tracks      int64             `json:"tracks"`
	Transitions int64             `json:"transitions"`
	Recent      []recentEdgeView `json:"recent"`
	Runs        []runSummaryView `json:"runs"`
}

type recentEdgeView struct {
	ID       int64  `json:"id"`
	From     string `json:"from"`
	To       string `json:"to"`
	PlayedAt string `json:"played_at,omitempty"`
}

type runSummaryView struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Source    string `json:"source"`
	StartedAt string `json:"started_at"`
	Rows      int    `json:"rows"`
	Inserted  int    `json:"inserted"`
	Updated   int    `json:"updated"`
	Error     string `json:"error,omitempty"`
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var recent int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library counts, recent transitions, and recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withReader(func(cfg *config.Config, st *store.Store) error {
				limit := recent
				if !cmd.Flags().Changed("recent") {
					limit = cfg.API.RecentDefault
				}
				limit = store.ClampRecentLimit(limit)

				counts, err := st.Counts(cmd.Context())
				if err != nil {
					return err
				}
				edges, err := st.RecentTransitions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				runs, err := st.RecentRuns(cmd.Context(), statsRecentRuns)
				if err != nil {
					return err
				}

				view := buildStatsOutput(counts, edges, runs)
				if jsonOut {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(view)
				}
				printStats(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&recent, "recent", 0, "Number of recent transitions to list (1-100; default api.recent_default)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func buildStatsOutput(counts store.Counts, edges []store.RecentTransition, runs []store.Run) statsOutput {
	view := statsOutput{
		Tracks:      counts.Tracks,
		Transitions: counts.Transitions,
		Recent:      make([]recentEdgeView, 0, len(edges)),
		Runs:        make([]runSummaryView, 0, len(runs)),
	}
	for _, e := range edges {
		view.Recent = append(view.Recent, recentEdgeView{
			ID:       e.ID,
			From:     trackLabel(e.PrevTitle, e.PrevArtist),
			To:       trackLabel(e.NextTitle, e.NextArtist),
			PlayedAt: e.PlayedAt,
		})
	}
	for _, r := range runs {
		view.Runs = append(view.Runs, runSummaryView{
			ID:        r.ID,
			Kind:      string(r.Kind),
			Status:    string(r.Status),
			Source:    r.Source,
			StartedAt: r.StartedAt.Local().Format(time.DateTime),
			Rows:      r.Counters.Rows,
			Inserted:  r.Counters.Inserted,
			Updated:   r.Counters.Updated,
			Error:     r.Error,
		})
	}
	return view
}

func printStats(out io.Writer, view statsOutput) {
	fmt.Fprintf(out, "Tracks: %d\nTransitions: %d\n", view.Tracks, view.Transitions)

	if len(view.Recent) > 0 {
		rows := make([][]string, 0, len(view.Recent))
		for _, e := range view.Recent {
			rows = append(rows, []string{fmt.Sprintf("%d", e.ID), e.From, e.To, e.PlayedAt})
		}
		fmt.Fprintln(out, renderTable("Recent transitions",
			[]string{"ID", "From", "To", "Played"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
		))
	}

	if len(view.Runs) > 0 {
		rows := make([][]string, 0, len(view.Runs))
		for _, r := range view.Runs {
			status := r.Status
			if r.Error != "" {
				status += ": " + r.Error
			}
			rows = append(rows, []string{r.StartedAt, r.Kind, status, itoa(r.Rows), itoa(r.Inserted), itoa(r.Updated), r.Source})
		}
		fmt.Fprintln(out, renderTable("Recent runs",
			[]string{"Started", "Kind", "Status", "Rows", "Inserted", "Updated", "Source"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))
	}
}

func trackLabel(title, artist string) string {
	return artist + " - " + title
}
