package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/boyingliu01/pdf-translation/internal/engine"
	"github.com/boyingliu01/pdf-translation/internal/jobs"
	"github.com/boyingliu01/pdf-translation/internal/persistence"
	"github.com/boyingliu01/pdf-translation/internal/pipeline"
	"github.com/boyingliu01/pdf-translation/internal/runner"
	"github.com/boyingliu01/pdf-translation/internal/watch"
	"github.com/boyingliu01/pdf-translation/pkg/log"
	"github.com/boyingliu01/pdf-translation/pkg/sanitize"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch directories and translate new documents on a schedule",
	Long: `Watch scans the configured directories on a cron schedule, enqueues
every document without translated output, and works the queue with a
small worker pool. Queued jobs survive restarts via a local sqlite
database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Watch.Dirs) == 0 {
			return fmt.Errorf("watch requires watch.dirs in %s", cfgFile)
		}

		store, err := persistence.NewSQLiteStore(cfg.Watch.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		r := runner.New(pipeline.New(pipeline.Options{Sanitizer: sanitize.Clean}))
		queue := jobs.NewQueue(cfg.Watch.Workers, store)
		queue.Start(func(ctx context.Context, job *jobs.TranslationJob) error {
			settings, err := buildSettings(cfg, job.Payload.InputFile, job.Payload.OutputDir, job.Payload.LangIn, job.Payload.LangOut)
			if err != nil {
				return err
			}
			result, err := r.Run(ctx, settings, func(ev engine.Event) {
				if ev.Type == engine.EventProgress {
					log.Debug("%s: %.1f%% - %s", job.ID, ev.OverallProgress, ev.Stage)
				}
			})
			if err != nil {
				return err
			}
			log.Info("%s: translated %s -> %s", job.ID, job.Payload.InputFile, result.MonoPath)
			return nil
		})
		defer queue.Stop()

		c := cron.New()
		svc := watch.NewService(watch.Config{
			Dirs:       cfg.Watch.Dirs,
			CronExpr:   cfg.Watch.CronExpr,
			Extensions: cfg.Watch.Extensions,
			LangIn:     cfg.Watch.LangIn,
			LangOut:    cfg.Watch.LangOut,
			OutputDir:  cfg.Watch.OutputDir,
		}, queue, c)
		if err := svc.Schedule(ctx); err != nil {
			return err
		}

		// One scan right away so a fresh start does not wait for the
		// first cron tick.
		if err := svc.Scan(ctx); err != nil {
			log.Error("Initial scan failed: %v", err)
		}

		c.Start()
		log.Info("Watching %v (%s)", cfg.Watch.Dirs, cfg.Watch.CronExpr)

		<-ctx.Done()
		log.Info("Shutting down")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
