package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect monitoring runs",
}

var (
	runsPromptID string
	runsStatus   string
	runsLimit    int
)

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			PromptID: runsPromptID,
			Status:   model.RunStatus(runsStatus),
			Limit:    runsLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPROMPT\tSTATUS\tCREATED\tERROR")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.PromptID, r.Status, r.CreatedAt.Format(time.RFC3339), truncate(r.Error, 60))
		}
		return w.Flush()
	},
}

var runsGetCmd = &cobra.Command{
	Use:   "get <run-id>",
	Short: "Show one run with its provider responses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		if run == nil {
			return eris.Errorf("run not found: %s", args[0])
		}

		responses, err := st.ListProviderResponses(ctx, run.ID)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"run": run, "responses": responses})
	},
}

func init() {
	runsListCmd.Flags().StringVar(&runsPromptID, "prompt-id", "", "filter by prompt")
	runsListCmd.Flags().StringVar(&runsStatus, "status", "", "filter by status (running|completed|failed)")
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 50, "maximum runs to list")

	runsCmd.AddCommand(runsListCmd, runsGetCmd)
	rootCmd.AddCommand(runsCmd)
}
