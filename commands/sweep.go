package commands

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"qmaze/reinforcement"
	"qmaze/rng"

	"github.com/spf13/cobra"
)

func SweepCommand(opts *options) *cobra.Command {
	var runs, parallelism int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Train independent runs over consecutive seeds in parallel and compare them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.trainingConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			mazeBase := rng.Entropy().Uint64()
			if cfg.Maze.Seed != nil {
				mazeBase = *cfg.Maze.Seed
			}
			agentBase := mazeBase + 1<<32
			if cfg.AgentSeed != nil {
				agentBase = *cfg.AgentSeed
			}
			specs := make([]reinforcement.RunSpec, runs)
			for i := range specs {
				mazeSeed, agentSeed := mazeBase+uint64(i), agentBase+uint64(i)
				cfg.Maze.Seed, cfg.AgentSeed = &mazeSeed, &agentSeed
				if specs[i], err = cfg.RunSpec(fmt.Sprintf("seed-%d", mazeSeed)); err != nil {
					return err
				}
			}

			outcomes, err := reinforcement.Sweep(ctx, specs, parallelism)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tMAZE SEED\tAGENT SEED\tSOLVED\tPATH\tAVG REWARD\tAVG STEPS\tSUCCESS")
			for _, o := range outcomes {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%t\t%d\t%.2f\t%.2f\t%.2f\n",
					o.Spec.Name, *o.Spec.MazeSeed, *o.Spec.AgentSeed, o.Solved, len(o.BestPath),
					o.Summary.MeanReward, o.Summary.MeanSteps, o.Summary.SuccessRate)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 4, "Number of runs")
	cmd.Flags().IntVarP(&parallelism, "parallel", "p", 0, "Concurrent runs; GOMAXPROCS when 0")
	return cmd
}
