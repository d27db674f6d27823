package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/brandwatch/internal/model"
	"github.com/sells-group/brandwatch/internal/store"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage tracked prompts",
}

var (
	promptText      string
	promptTopic     string
	promptTags      []string
	promptScheduled bool
)

var promptsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a prompt to the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := st.CreatePrompt(ctx, model.Prompt{
			WorkspaceID: cfg.Workspace,
			Text:        promptText,
			Topic:       promptTopic,
			Tags:        promptTags,
			Active:      true,
			Scheduled:   promptScheduled,
		})
		if err != nil {
			return err
		}

		fmt.Printf("created prompt %s\n", p.ID)
		return nil
	},
}

var promptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List prompts in the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		prompts, err := st.ListPrompts(ctx, store.PromptFilter{WorkspaceID: cfg.Workspace})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tACTIVE\tSCHEDULED\tTOPIC\tTEXT")
		for _, p := range prompts {
			fmt.Fprintf(w, "%s\t%t\t%t\t%s\t%s\n", p.ID, p.Active, p.Scheduled, p.Topic, truncate(p.Text, 60))
		}
		return w.Flush()
	},
}

var (
	toggleActive    bool
	toggleScheduled bool
)

var promptsToggleCmd = &cobra.Command{
	Use:   "toggle <prompt-id>",
	Short: "Set a prompt's active and scheduled flags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.SetPromptFlags(ctx, args[0], toggleActive, toggleScheduled); err != nil {
			return err
		}

		fmt.Printf("prompt %s: active=%t scheduled=%t\n", args[0], toggleActive, toggleScheduled)
		return nil
	},
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	promptsAddCmd.Flags().StringVar(&promptText, "text", "", "prompt text")
	promptsAddCmd.Flags().StringVar(&promptTopic, "topic", "", "prompt topic")
	promptsAddCmd.Flags().StringSliceVar(&promptTags, "tags", nil, "prompt tags")
	promptsAddCmd.Flags().BoolVar(&promptScheduled, "scheduled", false, "include in scheduled runs")
	_ = promptsAddCmd.MarkFlagRequired("text")

	promptsToggleCmd.Flags().BoolVar(&toggleActive, "active", true, "prompt is active")
	promptsToggleCmd.Flags().BoolVar(&toggleScheduled, "scheduled", false, "include in scheduled runs")

	promptsCmd.AddCommand(promptsAddCmd, promptsListCmd, promptsToggleCmd)
	rootCmd.AddCommand(promptsCmd)
}
