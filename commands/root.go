package commands

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"qmaze/reinforcement"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	episodes   int
	size       int
	seed       uint64
	agentSeed  uint64
	outDir     string
	colors     bool
}

// GetRootCommand returns the qmaze command tree. A .env file in the working directory,
// if present, is loaded first; QMAZE_* variables provide flag defaults.
func GetRootCommand() *cobra.Command {
	loadEnv()

	opts := &options{}
	rootCommand := &cobra.Command{
		Use:           "qmaze",
		Short:         "Train a tabular Q-learning agent to solve generated mazes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := rootCommand.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", os.Getenv("QMAZE_CONFIG"), "Training config yaml; defaults apply when empty")
	flags.IntVarP(&opts.episodes, "episodes", "e", envInt("QMAZE_EPISODES", 1000), "Number of training episodes")
	flags.IntVar(&opts.size, "size", envInt("QMAZE_SIZE", 10), "Maze size in rooms per side")
	flags.Uint64Var(&opts.seed, "seed", 0, "Maze seed; random when unset")
	flags.Uint64Var(&opts.agentSeed, "agent-seed", 0, "Agent exploration seed; random when unset")
	flags.StringVarP(&opts.outDir, "out", "o", envString("QMAZE_OUT", "results"), "Directory for run artifacts")
	flags.BoolVar(&opts.colors, "colors", true, "Colorize console output")

	// adding the subcommands here
	rootCommand.AddCommand(TrainCommand(opts))
	rootCommand.AddCommand(ServeCommand(opts))
	rootCommand.AddCommand(PathCommand(opts))
	rootCommand.AddCommand(SweepCommand(opts))
	return rootCommand
}

func loadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env could not be loaded: %v", err)
	}
}

func envString(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func envInt(key string, def int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("[config] ignoring %s=%q: %v", key, val, err)
		return def
	}
	return n
}

// trainingConfig resolves the config file, if any, and overlays the flags the user set
// explicitly, or whose defaults came from the environment.
func (opts *options) trainingConfig(cmd *cobra.Command) (*reinforcement.TrainingConfig, error) {
	cfg := reinforcement.DefaultTrainingConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = reinforcement.FromYaml(opts.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("episodes") || opts.configPath == "" {
		cfg.Episodes = opts.episodes
	}
	if flags.Changed("size") || opts.configPath == "" {
		cfg.Maze.Size = opts.size
	}
	if flags.Changed("seed") {
		seed := opts.seed
		cfg.Maze.Seed = &seed
	}
	if flags.Changed("agent-seed") {
		seed := opts.agentSeed
		cfg.AgentSeed = &seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
