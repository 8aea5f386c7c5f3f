package reinforcement

import (
	"errors"
	"testing"

	"qmaze/grid_world"
	"qmaze/maze"
	"qmaze/rng"

	. "github.com/smartystreets/goconvey/convey"
)

// A single corridor from the entrance (1,0) to the exit (3,4).
var corridor = []string{
	"#####",
	"...##",
	"##.##",
	"##...",
	"#####",
}

func corridorEnv() *grid_world.GridWorld {
	g, err := maze.FromStrings(corridor)
	if err != nil {
		panic(err)
	}
	env, err := grid_world.New(g)
	if err != nil {
		panic(err)
	}
	return env
}

func seeded(seed uint64) *uint64 { return &seed }

func TestHyperParams(t *testing.T) {
	Convey("When validating hyperparameters", t, func() {
		So(DefaultHyperParams().Validate(), ShouldBeNil)

		bad := []func(*HyperParams){
			func(hp *HyperParams) { hp.Alpha = 0 },
			func(hp *HyperParams) { hp.Alpha = 1.5 },
			func(hp *HyperParams) { hp.Gamma = -0.1 },
			func(hp *HyperParams) { hp.Epsilon = 2 },
			func(hp *HyperParams) { hp.EpsilonDecay = 0 },
			func(hp *HyperParams) { hp.EpsilonMin = 1.0; hp.Epsilon = 0.5 },
		}
		for _, mutate := range bad {
			hp := DefaultHyperParams()
			mutate(&hp)
			So(errors.Is(hp.Validate(), ErrInvalidHyperParam), ShouldBeTrue)

			ql, err := NewQLearner(5, 5, hp, nil)
			So(ql, ShouldBeNil)
			So(errors.Is(err, ErrInvalidHyperParam), ShouldBeTrue)
		}
	})
}

func TestQLearner(t *testing.T) {
	Convey("Given a fresh learner", t, func() {
		ql, err := NewQLearner(5, 5, DefaultHyperParams(), rng.Seeded(1))
		So(err, ShouldBeNil)
		s := maze.Position{Row: 1, Col: 0}
		next := maze.Position{Row: 1, Col: 1}

		Convey("When all values tie, greedy picks the first action", func() {
			So(ql.Greedy(s), ShouldEqual, grid_world.Up)
		})

		Convey("When updating a non-terminal transition", func() {
			ql.Update(next, grid_world.Right, 10, maze.Position{Row: 1, Col: 2}, true)
			So(ql.QTable().Get(next, grid_world.Right), ShouldAlmostEqual, 1.0)

			ql.Update(s, grid_world.Right, -1, next, false)
			// 0.1 * (-1 + 0.99*1.0 - 0)
			So(ql.QTable().Get(s, grid_world.Right), ShouldAlmostEqual, -0.001)
			So(ql.Greedy(next), ShouldEqual, grid_world.Right)
		})

		Convey("When updating a terminal transition, the successor is ignored", func() {
			ql.Update(next, grid_world.Down, 50, s, true)
			So(ql.QTable().Max(next), ShouldAlmostEqual, 5.0)

			ql.Update(s, grid_world.Right, 100, next, true)
			So(ql.QTable().Get(s, grid_world.Right), ShouldAlmostEqual, 10.0)
		})

		Convey("When decaying exploration many times", func() {
			So(ql.ExplorationRate(), ShouldEqual, 1.0)
			ql.DecayExploration()
			So(ql.ExplorationRate(), ShouldAlmostEqual, 0.995)
			prev := ql.ExplorationRate()
			for i := 0; i < 1000; i++ {
				ql.DecayExploration()
				So(ql.ExplorationRate(), ShouldBeLessThanOrEqualTo, prev)
				prev = ql.ExplorationRate()
			}
			So(ql.ExplorationRate(), ShouldEqual, 0.01)
		})

		Convey("When snapshotting the table", func() {
			snap := ql.QTable()
			ql.Update(s, grid_world.Down, 100, next, true)
			So(snap.IsZero(), ShouldBeTrue)
			So(ql.QTable().IsZero(), ShouldBeFalse)
		})

		Convey("When restoring a table of another shape", func() {
			err := ql.Restore(NewQTable(7, 7))
			So(errors.Is(err, ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("When restoring a table of the same shape", func() {
			other, _ := NewQLearner(5, 5, DefaultHyperParams(), rng.Seeded(2))
			other.Update(s, grid_world.Left, 100, next, true)
			So(ql.Restore(other.QTable()), ShouldBeNil)
			So(ql.QTable().Equal(other.QTable()), ShouldBeTrue)
		})
	})

	Convey("When exploration is disabled", t, func() {
		hp := DefaultHyperParams()
		hp.Epsilon, hp.EpsilonMin = 0, 0
		ql, err := NewQLearner(5, 5, hp, rng.Seeded(3))
		So(err, ShouldBeNil)
		s := maze.Position{Row: 1, Col: 1}
		ql.Update(s, grid_world.Down, 100, s, true)
		for i := 0; i < 50; i++ {
			So(ql.SelectAction(s), ShouldEqual, grid_world.Down)
		}
	})

	Convey("When exploration is certain, every action is eventually drawn", t, func() {
		ql, _ := NewQLearner(5, 5, DefaultHyperParams(), rng.Seeded(4))
		seen := map[grid_world.Action]bool{}
		for i := 0; i < 200; i++ {
			a := ql.SelectAction(maze.Position{Row: 1, Col: 1})
			So(a.Valid(), ShouldBeTrue)
			seen[a] = true
		}
		So(len(seen), ShouldEqual, grid_world.NumActions)
	})
}

func TestBestPath(t *testing.T) {
	Convey("Given a corridor environment", t, func() {
		env := corridorEnv()
		ql, err := NewQLearner(5, 5, DefaultHyperParams(), rng.Seeded(9))
		So(err, ShouldBeNil)

		Convey("When the table is untrained, the rollout is truncated", func() {
			path, err := ql.BestPath(env)
			So(err, ShouldBeNil)
			// Greedy on ties is Up, a wall bump that never terminates.
			So(len(path), ShouldEqual, 5*5+1)
			for _, p := range path {
				So(p, ShouldResemble, maze.Position{Row: 1, Col: 0})
			}
		})

		Convey("When the table encodes the corridor route", func() {
			route := []grid_world.Action{
				grid_world.Right, grid_world.Right, grid_world.Down,
				grid_world.Down, grid_world.Right, grid_world.Right,
			}
			state := env.Reset()
			for _, a := range route {
				tr, err := env.Step(a)
				So(err, ShouldBeNil)
				ql.Update(state, a, 1, tr.Successor, true)
				state = tr.Successor
			}

			path, err := ql.BestPath(env)
			So(err, ShouldBeNil)
			So(path, ShouldResemble, []maze.Position{
				{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 2, Col: 2},
				{Row: 3, Col: 2}, {Row: 3, Col: 3}, {Row: 3, Col: 4},
			})

			again, err := ql.BestPath(env)
			So(err, ShouldBeNil)
			So(again, ShouldResemble, path)
		})
	})
}
