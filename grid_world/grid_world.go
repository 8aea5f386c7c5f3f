package grid_world

import (
	"errors"
	"fmt"

	"qmaze/maze"
)

// Action is one of the four unit moves. The numeric values double as Q-table
// action indices.
type Action int

const (
	Up Action = iota
	Right
	Down
	Left
)

// NumActions is the size of the action space.
const NumActions = 4

// Actions lists every action in index order.
var Actions = [NumActions]Action{Up, Right, Down, Left}

// Row/col offset per action.
var offsets = [NumActions][2]int{
	Up:    {-1, 0},
	Right: {0, 1},
	Down:  {1, 0},
	Left:  {0, -1},
}

// Valid reports whether a is one of the four defined actions.
func (a Action) Valid() bool {
	return a >= Up && a <= Left
}

func (a Action) String() string {
	switch a {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Rewards
const (
	GoalReward    float64 = 100
	TimeoutReward float64 = -100
	StepReward    float64 = -1
)

// Outcome describes how a step left the episode.
type Outcome int

const (
	Running Outcome = iota
	Success
	Timeout
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Timeout:
		return "timeout"
	}
	return "running"
}

// Transition is a single time step of an agent: do action a in
// state s, observe reward r and successor s'.
type Transition struct {
	State     maze.Position
	Action    Action
	Successor maze.Position
	Reward    float64
	Done      bool
	Outcome   Outcome
}

var (
	// ErrStartNotPath is returned when the entrance cell of a grid is a wall.
	ErrStartNotPath = errors.New("start position must be a path cell")
	// ErrGoalNotPath is returned when the exit cell of a grid is a wall.
	ErrGoalNotPath = errors.New("goal position must be a path cell")
	// ErrInvalidAction is returned by Step for actions outside the action space.
	ErrInvalidAction = errors.New("invalid action")
)

// GridWorld is an episodic environment over an immutable maze grid. The agent
// starts each episode at the entrance and the episode ends at the exit, or when
// the step budget is exhausted.
//
// Bumping into a wall or the boundary costs a full step without moving. This is
// load-bearing for learning speed and must not be special-cased.
type GridWorld struct {
	grid     *maze.Grid
	start    maze.Position
	goal     maze.Position
	maxSteps int

	current    maze.Position
	stepsTaken int
}

// New wraps the grid as an environment. Both the entrance (1,0) and the exit
// (rows-2, cols-1) must be path cells, otherwise no environment is returned.
func New(grid *maze.Grid) (*GridWorld, error) {
	start := maze.Position{Row: 1, Col: 0}
	goal := maze.Position{Row: grid.Rows() - 2, Col: grid.Cols() - 1}
	if !grid.IsPath(start) {
		return nil, fmt.Errorf("%w: %v", ErrStartNotPath, start)
	}
	if !grid.IsPath(goal) {
		return nil, fmt.Errorf("%w: %v", ErrGoalNotPath, goal)
	}

	return &GridWorld{
		grid:     grid,
		start:    start,
		goal:     goal,
		maxSteps: grid.Rows() * grid.Cols() * 2,
		current:  start,
	}, nil
}

// Reset starts a new episode and returns the start position.
func (gw *GridWorld) Reset() maze.Position {
	gw.current = gw.start
	gw.stepsTaken = 0
	return gw.current
}

// Step applies the action. Invalid actions are rejected without touching the
// episode state. Reward and termination are evaluated in a fixed order: reaching
// the goal wins over timing out, which wins over the per-step penalty.
func (gw *GridWorld) Step(action Action) (Transition, error) {
	if !action.Valid() {
		return Transition{}, fmt.Errorf("%w: %d (must be 0, 1, 2 or 3)", ErrInvalidAction, int(action))
	}

	gw.stepsTaken++
	prev := gw.current
	d := offsets[action]
	if candidate := prev.Add(d[0], d[1]); gw.grid.IsPath(candidate) {
		gw.current = candidate
	}

	t := Transition{
		State:     prev,
		Action:    action,
		Successor: gw.current,
	}
	switch {
	case gw.current == gw.goal:
		t.Reward, t.Done, t.Outcome = GoalReward, true, Success
	case gw.stepsTaken >= gw.maxSteps:
		t.Reward, t.Done, t.Outcome = TimeoutReward, true, Timeout
	default:
		t.Reward, t.Outcome = StepReward, Running
	}
	return t, nil
}

// Extent returns the (rows, cols) size of the state space.
func (gw *GridWorld) Extent() (rows, cols int) {
	return gw.grid.Rows(), gw.grid.Cols()
}

func (gw *GridWorld) Grid() *maze.Grid       { return gw.grid }
func (gw *GridWorld) Start() maze.Position    { return gw.start }
func (gw *GridWorld) Goal() maze.Position     { return gw.goal }
func (gw *GridWorld) MaxSteps() int           { return gw.maxSteps }
func (gw *GridWorld) StepsTaken() int         { return gw.stepsTaken }
func (gw *GridWorld) Position() maze.Position { return gw.current }
