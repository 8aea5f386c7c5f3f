package commands

import (
	"fmt"

	"qmaze/maze"
	"qmaze/reinforcement"

	"github.com/spf13/cobra"
)

func PathCommand(opts *options) *cobra.Command {
	var qtablePath string

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the greedy path of a saved Q-table through its regenerated maze",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.trainingConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Maze.Seed == nil {
				return fmt.Errorf("%w: a maze seed is required to regenerate the maze", reinforcement.ErrInvalidConfig)
			}
			spec, err := cfg.RunSpec("path")
			if err != nil {
				return err
			}
			run, err := reinforcement.NewRun(spec)
			if err != nil {
				return err
			}
			table, err := reinforcement.LoadQTable(qtablePath)
			if err != nil {
				return err
			}
			if err = run.Agent.Restore(table); err != nil {
				return err
			}

			path, err := run.Agent.BestPath(run.Env)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err = maze.Render(out, run.Grid, path, opts.colors); err != nil {
				return err
			}
			solved := path[len(path)-1] == run.Env.Goal()
			fmt.Fprintf(out, "path length: %d (solved: %t)\n", len(path), solved)
			for _, p := range path {
				fmt.Fprintf(out, "%v ", p)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out)
			return reinforcement.ShowMaxValues(out, run.Grid, table)
		},
	}
	cmd.Flags().StringVarP(&qtablePath, "qtable", "q", qtableFile, "Q-table written by train")
	return cmd
}
