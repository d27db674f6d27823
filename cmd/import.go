package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/brandwatch/internal/registry"
	"github.com/sells-group/brandwatch/internal/store"
	"github.com/sells-group/brandwatch/pkg/notion"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import prompts and tracked brands",
}

var seedFile string

var importSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import prompts and tracked brands from a YAML seed file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		seed, err := registry.LoadSeedFile(seedFile)
		if err != nil {
			return err
		}

		created, err := seed.Apply(ctx, st)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d records from %s\n", created, seedFile)
		return nil
	},
}

var importNotionCmd = &cobra.Command{
	Use:   "notion",
	Short: "Import prompts and tracked brands from Notion databases",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Notion.Token == "" || cfg.Notion.PromptDB == "" || cfg.Notion.TrackedBrandDB == "" {
			return eris.New("notion.token, notion.prompt_db and notion.tracked_brand_db are required")
		}

		st, err := importStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		client := notion.NewClient(cfg.Notion.Token)
		created, err := registry.ImportFromNotion(ctx, client, st,
			cfg.Notion.PromptDB, cfg.Notion.TrackedBrandDB, cfg.Workspace)
		if err != nil {
			return err
		}

		fmt.Printf("imported %d records from notion\n", created)
		return nil
	},
}

var importCSVPath string

var importCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Upload prompts from a CSV file into the Notion prompt database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Notion.Token == "" || cfg.Notion.PromptDB == "" {
			return eris.New("notion.token and notion.prompt_db are required")
		}

		client := notion.NewClient(cfg.Notion.Token)
		created, err := notion.ImportPromptsCSV(ctx, client, cfg.Notion.PromptDB, importCSVPath)
		if err != nil {
			return err
		}

		fmt.Printf("uploaded %d prompts from %s\n", created, importCSVPath)
		return nil
	},
}

func importStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("import"); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func init() {
	importSeedCmd.Flags().StringVar(&seedFile, "file", "", "path to the YAML seed file")
	_ = importSeedCmd.MarkFlagRequired("file")

	importCSVCmd.Flags().StringVar(&importCSVPath, "csv", "", "path to the prompts CSV file")
	_ = importCSVCmd.MarkFlagRequired("csv")

	importCmd.AddCommand(importSeedCmd, importNotionCmd, importCSVCmd)
	rootCmd.AddCommand(importCmd)
}
