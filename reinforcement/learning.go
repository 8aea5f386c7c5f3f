package reinforcement

/*
Tabular Q-learning over the maze grid world. The agent keeps one action-value per
(row, col, action), explores epsilon-greedily and learns off-policy with the one-step
TD target. The state space is tiny next to the racetrack's position×velocity space, so
a dense table and a single learner suffice; parallelism, where wanted, happens across
independent runs (see Sweep), never inside one.
*/

import (
	"errors"
	"fmt"

	"qmaze/grid_world"
	"qmaze/maze"
	"qmaze/rng"

	"golang.org/x/exp/rand"
)

// Environment is the reset/step contract the learner and trainer need. GridWorld
// satisfies it; nothing here depends on its internals.
type Environment interface {
	Reset() maze.Position
	Step(grid_world.Action) (grid_world.Transition, error)
	Extent() (rows, cols int)
}

var _ Environment = (*grid_world.GridWorld)(nil)

// HyperParams are the learner's scalar parameters.
type HyperParams struct {
	// Alpha is the learning rate.
	Alpha float64
	// Gamma is the discount factor, or how much to value future state values.
	Gamma float64
	// Epsilon is the initial exploration rate.
	Epsilon float64
	// EpsilonDecay multiplies the exploration rate once per episode.
	EpsilonDecay float64
	// EpsilonMin is the exploration floor.
	EpsilonMin float64
}

// DefaultHyperParams returns the standard parameters for the maze problem.
func DefaultHyperParams() HyperParams {
	return HyperParams{
		Alpha:        0.1,
		Gamma:        0.99,
		Epsilon:      1.0,
		EpsilonDecay: 0.995,
		EpsilonMin:   0.01,
	}
}

// ErrInvalidHyperParam is returned for out of range hyperparameters.
var ErrInvalidHyperParam = errors.New("invalid hyperparameter")

func (hp HyperParams) Validate() error {
	switch {
	case hp.Alpha <= 0 || hp.Alpha > 1:
		return fmt.Errorf("%w: alpha %v not in (0,1]", ErrInvalidHyperParam, hp.Alpha)
	case hp.Gamma < 0 || hp.Gamma > 1:
		return fmt.Errorf("%w: gamma %v not in [0,1]", ErrInvalidHyperParam, hp.Gamma)
	case hp.Epsilon < 0 || hp.Epsilon > 1:
		return fmt.Errorf("%w: epsilon %v not in [0,1]", ErrInvalidHyperParam, hp.Epsilon)
	case hp.EpsilonDecay <= 0 || hp.EpsilonDecay > 1:
		return fmt.Errorf("%w: epsilon decay %v not in (0,1]", ErrInvalidHyperParam, hp.EpsilonDecay)
	case hp.EpsilonMin < 0 || hp.EpsilonMin > hp.Epsilon:
		return fmt.Errorf("%w: epsilon floor %v not in [0,%v]", ErrInvalidHyperParam, hp.EpsilonMin, hp.Epsilon)
	}
	return nil
}

// QLearner owns a Q-table and the exploration schedule. It is not safe for
// concurrent use: a table has exactly one writer.
type QLearner struct {
	table   *QTable
	hp      HyperParams
	epsilon float64
	rand    *rand.Rand
}

// NewQLearner returns a learner with a zeroed rows×cols table. A nil source is
// replaced by a clock-seeded one.
func NewQLearner(rows, cols int, hp HyperParams, r *rand.Rand) (*QLearner, error) {
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: %dx%d table", ErrShapeMismatch, rows, cols)
	}
	if r == nil {
		r = rng.Entropy()
	}
	return &QLearner{
		table:   NewQTable(rows, cols),
		hp:      hp,
		epsilon: hp.Epsilon,
		rand:    r,
	}, nil
}

// SelectAction is epsilon-greedy: with probability epsilon a uniformly random
// action, otherwise the greedy one.
func (ql *QLearner) SelectAction(state maze.Position) grid_world.Action {
	if ql.rand.Float64() < ql.epsilon {
		// Exploration: do something random
		return grid_world.Action(ql.rand.Intn(grid_world.NumActions))
	}
	return ql.Greedy(state)
}

// Greedy returns the max-valued action at state, lowest index on ties.
func (ql *QLearner) Greedy(state maze.Position) grid_world.Action {
	return ql.table.ArgMax(state)
}

// Update applies the one-step Q-learning rule. Terminal transitions do not
// bootstrap from the successor.
func (ql *QLearner) Update(
	state maze.Position,
	action grid_world.Action,
	reward float64,
	next maze.Position,
	done bool,
) {
	target := reward
	if !done {
		target += ql.hp.Gamma * ql.table.Max(next)
	}
	i := ql.table.offset(state) + int(action)
	ql.table.values[i] += ql.hp.Alpha * (target - ql.table.values[i])
}

// DecayExploration shrinks epsilon geometrically down to the floor. Call once per episode.
func (ql *QLearner) DecayExploration() {
	ql.epsilon = max(ql.hp.EpsilonMin, ql.epsilon*ql.hp.EpsilonDecay)
}

func (ql *QLearner) ExplorationRate() float64 { return ql.epsilon }
func (ql *QLearner) HyperParams() HyperParams { return ql.hp }

// QTable returns a snapshot of the table; it shares nothing with the learner.
func (ql *QLearner) QTable() *QTable {
	return ql.table.Clone()
}

// Restore installs a copy of a previously saved table of the same shape.
func (ql *QLearner) Restore(table *QTable) error {
	if table.rows != ql.table.rows || table.cols != ql.table.cols {
		return fmt.Errorf("%w: have %dx%d, got %dx%d",
			ErrShapeMismatch, ql.table.rows, ql.table.cols, table.rows, table.cols)
	}
	ql.table = table.Clone()
	return nil
}

// BestPath resets env and follows the greedy policy until the episode ends,
// returning every visited position including the start. A greedy table can
// prefer a cycle, so the rollout is abandoned once the path outgrows the number
// of cells; the partial path is returned, which is not an error.
func (ql *QLearner) BestPath(env Environment) ([]maze.Position, error) {
	rows, cols := env.Extent()
	limit := rows * cols

	state := env.Reset()
	path := []maze.Position{state}
	for {
		t, err := env.Step(ql.Greedy(state))
		if err != nil {
			return path, err
		}
		path = append(path, t.Successor)
		state = t.Successor
		if t.Done || len(path) > limit {
			return path, nil
		}
	}
}
