package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/brandwatch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "brandwatch",
	Short: "Brand mention monitoring across LLM providers",
	Long:  "Sends tracked prompts to multiple LLM providers, extracts structured brand mentions from the answers, and maintains ranked per-brand visibility statistics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
