package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/brandwatch/internal/model"
)

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Manage tracked brands and view ranked statistics",
}

var brandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show ranked brand statistics for the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		brands, err := st.ListBrands(ctx, cfg.Workspace)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tNAME\tMENTIONS\tSENTIMENT\tPROMINENCE\tALIGNMENT")
		for _, b := range brands {
			fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n",
				b.Rank, b.Name, b.Mentions, b.SentimentScore, b.ProminenceScore, b.Alignment)
		}
		return w.Flush()
	},
}

var (
	trackName        string
	trackURL         string
	trackDescription string
	trackMain        bool
)

var brandsTrackCmd = &cobra.Command{
	Use:   "track",
	Short: "Add a brand to the tracked set",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		tb, err := st.CreateTrackedBrand(ctx, model.TrackedBrand{
			WorkspaceID: cfg.Workspace,
			Name:        trackName,
			URL:         trackURL,
			Description: trackDescription,
			IsMainBrand: trackMain,
			Active:      true,
		})
		if err != nil {
			return err
		}

		fmt.Printf("tracking brand %s (%s)\n", tb.Name, tb.ID)
		return nil
	},
}

func init() {
	brandsTrackCmd.Flags().StringVar(&trackName, "name", "", "brand name")
	brandsTrackCmd.Flags().StringVar(&trackURL, "url", "", "official site URL")
	brandsTrackCmd.Flags().StringVar(&trackDescription, "description", "", "short brand description")
	brandsTrackCmd.Flags().BoolVar(&trackMain, "main", false, "mark as the workspace's main brand")
	_ = brandsTrackCmd.MarkFlagRequired("name")

	brandsCmd.AddCommand(brandsListCmd, brandsTrackCmd)
	rootCmd.AddCommand(brandsCmd)
}
