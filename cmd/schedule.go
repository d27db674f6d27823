package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/brandwatch/internal/pipeline"
	"github.com/sells-group/brandwatch/internal/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scheduled prompts on a cron cadence",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		c := cron.New()
		if _, err := c.AddFunc(cfg.Schedule.Cron, func() {
			runScheduledPrompts(ctx, env)
		}); err != nil {
			return eris.Wrapf(err, "invalid cron expression %q", cfg.Schedule.Cron)
		}

		zap.L().Info("scheduler started", zap.String("cron", cfg.Schedule.Cron))
		c.Start()

		<-ctx.Done()
		zap.L().Info("scheduler stopping")

		// Let in-flight runs finish before closing the store.
		stopCtx := c.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(10 * time.Minute):
			zap.L().Warn("scheduler stop timed out")
		}
		return nil
	},
}

// runScheduledPrompts triggers one run for every active scheduled prompt in
// the workspace. Prompts already in flight are skipped, not treated as errors.
func runScheduledPrompts(ctx context.Context, env *pipelineEnv) {
	active, scheduled := true, true
	prompts, err := env.Store.ListPrompts(ctx, store.PromptFilter{
		WorkspaceID: cfg.Workspace,
		Active:      &active,
		Scheduled:   &scheduled,
	})
	if err != nil {
		zap.L().Error("list scheduled prompts", zap.Error(err))
		return
	}
	if len(prompts) == 0 {
		zap.L().Info("no scheduled prompts")
		return
	}

	zap.L().Info("scheduler tick", zap.Int("prompts", len(prompts)))

	for _, p := range prompts {
		run, err := env.Pipeline.ExecuteRun(ctx, p.ID)
		if err != nil {
			if eris.Is(err, pipeline.ErrRunInFlight) {
				zap.L().Warn("prompt still in flight, skipping", zap.String("prompt_id", p.ID))
				continue
			}
			zap.L().Error("scheduled run failed", zap.String("prompt_id", p.ID), zap.Error(err))
			continue
		}
		zap.L().Info("scheduled run finished",
			zap.String("prompt_id", p.ID),
			zap.String("run_id", run.ID),
			zap.String("status", string(run.Status)),
		)
	}
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}
