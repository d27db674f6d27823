package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/brandwatch/internal/pipeline"
)

var runPromptID string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one monitoring run for a prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Pipeline.ExecuteRun(ctx, runPromptID)
		if eris.Is(err, pipeline.ErrRunInFlight) {
			zap.L().Warn("run already in flight", zap.String("prompt_id", runPromptID))
			return nil
		}
		if run != nil {
			zap.L().Info("run finished",
				zap.String("run_id", run.ID),
				zap.String("status", string(run.Status)),
			)
		}
		return err
	},
}

func init() {
	runCmd.Flags().StringVar(&runPromptID, "prompt-id", "", "ID of the prompt to run")
	_ = runCmd.MarkFlagRequired("prompt-id")
	rootCmd.AddCommand(runCmd)
}
