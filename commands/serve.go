package commands

import (
	"context"
	"log"
	"os"
	"os/signal"

	"qmaze/reinforcement"
	"qmaze/server"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func ServeCommand(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Train in the background and serve live views of the training",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.trainingConfig(cmd)
			if err != nil {
				return err
			}
			appCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			run, err := newRun(cfg)
			if err != nil {
				return err
			}

			results := make(chan *reinforcement.EpisodeResult)
			history := server.NewHistoryLog()
			srv, err := server.NewServer(appCtx, addr, run.Grid, results, history)
			if err != nil {
				return err
			}

			group, groupCtx := errgroup.WithContext(appCtx)
			group.Go(func() error {
				trainingCtx, cancel, err := cfg.WithTrainingDeadline(groupCtx)
				if err != nil {
					return err
				}
				defer cancel()

				err = run.Trainer.Train(trainingCtx, cfg.Episodes, exportResults(history, results, cfg.ExportEvery))
				if err != nil && trainingCtx.Err() == nil {
					return err
				}
				summary := reinforcement.Summarize(run.Trainer.History(), 100)
				log.Printf("[train] done after %d episodes: success rate %.2f, epsilon %.4f; still serving",
					len(run.Trainer.History()), summary.SuccessRate, summary.FinalExploration)
				return nil
			})
			group.Go(func() error {
				return srv.Serve(groupCtx)
			})
			return group.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", envString("QMAZE_ADDR", ":8080"), "Listen address")
	return cmd
}

// exportResults records every result and offers every nth one to the views. Views
// are idempotent, so a result is dropped rather than stall training when they lag.
func exportResults(
	history *server.HistoryLog,
	results chan<- *reinforcement.EpisodeResult,
	n int,
) reinforcement.ProgressFunc {
	return func(ctx context.Context, result *reinforcement.EpisodeResult) {
		history.Record(result)
		if n < 1 || result.Episode%n != 0 {
			return
		}
		select {
		case results <- result:
		case <-ctx.Done():
		default:
		}
	}
}
