package reinforcement

import (
	"fmt"

	"qmaze/grid_world"
	"qmaze/maze"
	"qmaze/rng"
)

// RunSpec describes one self-contained training run. Nil seeds draw from entropy.
type RunSpec struct {
	Name      string
	MazeSize  int
	MazeSeed  *uint64
	AgentSeed *uint64
	Episodes  int
	Hyper     HyperParams
}

// Run is a maze, its environment and a learner wired to a trainer. Nothing is shared
// between runs.
type Run struct {
	Spec    RunSpec
	Grid    *maze.Grid
	Env     *grid_world.GridWorld
	Agent   *QLearner
	Trainer *Trainer
}

// NewRun builds the maze, environment, learner and trainer for spec.
func NewRun(spec RunSpec) (*Run, error) {
	grid, err := maze.Generate(spec.MazeSize, rng.FromOptional(spec.MazeSeed))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", spec.Name, err)
	}
	env, err := grid_world.New(grid)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", spec.Name, err)
	}
	rows, cols := env.Extent()
	agent, err := NewQLearner(rows, cols, spec.Hyper, rng.FromOptional(spec.AgentSeed))
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", spec.Name, err)
	}
	return &Run{
		Spec:    spec,
		Grid:    grid,
		Env:     env,
		Agent:   agent,
		Trainer: NewTrainer(env, agent),
	}, nil
}
