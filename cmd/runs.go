package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/geoandes/landcover-cli/internal/store"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past accumulation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 50, "max number of runs to display")
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []store.RunRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tYEARS\tPOLYGONS\tROWS\tSTATUS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-----\t--------\t----\t------\t-------\t--------")

	for _, r := range runs {
		dur := (time.Duration(r.DurationMs) * time.Millisecond).Round(time.Millisecond).String()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Years,
			r.Polygons,
			r.Rows,
			r.Status,
			r.CreatedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
