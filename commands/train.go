package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"qmaze/charts"
	"qmaze/maze"
	"qmaze/reinforcement"
	"qmaze/rng"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Artifact file names within a run directory.
const (
	configFile  = "config.yaml"
	historyFile = "history.html"
	mazeFile    = "maze.png"
	qtableFile  = "qtable.bin"
)

func TrainCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train headless, print the learned path and write run artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.trainingConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			run, err := newRun(cfg)
			if err != nil {
				return err
			}
			trainingCtx, cancel, err := cfg.WithTrainingDeadline(ctx)
			if err != nil {
				return err
			}
			defer cancel()

			err = run.Trainer.Train(trainingCtx, cfg.Episodes, logProgress(cfg.ExportEvery*10))
			if err != nil && trainingCtx.Err() == nil {
				return err
			}
			if err != nil {
				log.Printf("[train] stopped early after %d episodes: %v", len(run.Trainer.History()), err)
			}

			out := cmd.OutOrStdout()
			path, err := report(out, run, opts.colors)
			if err != nil {
				return err
			}
			dir, err := writeArtifacts(opts.outDir, cfg, run, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "artifacts: %s\n", dir)
			return nil
		},
	}
}

// newRun pins any unset seed so the run can be reproduced from its saved config.
func newRun(cfg *reinforcement.TrainingConfig) (*reinforcement.Run, error) {
	if cfg.Maze.Seed == nil {
		seed := rng.Entropy().Uint64()
		cfg.Maze.Seed = &seed
	}
	if cfg.AgentSeed == nil {
		seed := rng.Entropy().Uint64()
		cfg.AgentSeed = &seed
	}
	spec, err := cfg.RunSpec(uuid.NewString())
	if err != nil {
		return nil, err
	}
	log.Printf("[train] run %s: %dx%d rooms, maze seed %d, agent seed %d, %d episodes",
		spec.Name, spec.MazeSize, spec.MazeSize, *spec.MazeSeed, *spec.AgentSeed, spec.Episodes)
	return reinforcement.NewRun(spec)
}

// logProgress logs a summary line every n episodes.
func logProgress(n int) reinforcement.ProgressFunc {
	return func(_ context.Context, result *reinforcement.EpisodeResult) {
		if n > 0 && result.Episode%n == 0 {
			log.Printf("[train] episode %d: reward %.1f, steps %d, epsilon %.4f, best path %d",
				result.Episode, result.TotalReward, result.Steps, result.ExplorationRate, len(result.BestPath))
		}
	}
}

// report prints the maze with the greedy path, the policy and the summary, and returns the path.
func report(w io.Writer, run *reinforcement.Run, colors bool) ([]maze.Position, error) {
	path, err := run.Agent.BestPath(run.Env)
	if err != nil {
		return nil, err
	}
	table := run.Agent.QTable()
	if err = maze.Render(w, run.Grid, path, colors); err != nil {
		return nil, err
	}
	fmt.Fprintln(w)
	if err = reinforcement.ShowPolicy(w, run.Grid, table, colors); err != nil {
		return nil, err
	}

	summary := reinforcement.Summarize(run.Trainer.History(), 100)
	solved := len(path) > 0 && path[len(path)-1] == run.Env.Goal()
	fmt.Fprintf(w, "\nepisodes:          %d\n", len(run.Trainer.History()))
	fmt.Fprintf(w, "final epsilon:     %.4f\n", run.Agent.ExplorationRate())
	fmt.Fprintf(w, "avg reward (last %d): %.2f\n", summary.Episodes, summary.MeanReward)
	fmt.Fprintf(w, "avg steps (last %d):  %.2f\n", summary.Episodes, summary.MeanSteps)
	fmt.Fprintf(w, "success rate:      %.2f\n", summary.SuccessRate)
	fmt.Fprintf(w, "best path length:  %d (solved: %t)\n", len(path), solved)
	return path, nil
}

// writeArtifacts writes the config, history chart, maze image and Q-table under outDir/<run-id>.
func writeArtifacts(
	outDir string,
	cfg *reinforcement.TrainingConfig,
	run *reinforcement.Run,
	path []maze.Position,
) (string, error) {
	dir := filepath.Join(outDir, run.Spec.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("artifacts: %w", err)
	}

	if err := cfg.Save(filepath.Join(dir, configFile)); err != nil {
		return "", err
	}

	table := run.Agent.QTable()
	f, err := os.Create(filepath.Join(dir, historyFile))
	if err != nil {
		return "", fmt.Errorf("artifacts: %w", err)
	}
	err = charts.HistoryPage(f, run.Trainer.History(), table, run.Grid)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("history chart: %w", err)
	}

	if err = charts.SaveMazePNG(filepath.Join(dir, mazeFile), run.Grid, path); err != nil {
		return "", err
	}
	if err = table.Save(filepath.Join(dir, qtableFile)); err != nil {
		return "", err
	}
	return dir, nil
}
