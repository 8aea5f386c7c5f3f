package reinforcement

import (
	"errors"
	"path/filepath"
	"testing"

	"qmaze/grid_world"
	"qmaze/maze"

	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/mat"
)

func TestQTable(t *testing.T) {
	Convey("Given a table with a few learned values", t, func() {
		ql, err := NewQLearner(3, 5, DefaultHyperParams(), nil)
		So(err, ShouldBeNil)
		p := maze.Position{Row: 1, Col: 3}
		ql.Update(p, grid_world.Left, 100, p, true)
		ql.Update(p, grid_world.Down, -50, p, true)
		table := ql.QTable()

		So(table.Get(p, grid_world.Left), ShouldAlmostEqual, 10.0)
		So(table.Values(p), ShouldResemble, []float64{0, 0, -5, 10})
		So(table.ArgMax(p), ShouldEqual, grid_world.Left)

		Convey("When exporting it as a matrix", func() {
			d := table.Dense()
			r, c := d.Dims()
			So(r, ShouldEqual, 3)
			So(c, ShouldEqual, 5*grid_world.NumActions)
			So(d.At(1, 3*grid_world.NumActions+int(grid_world.Left)), ShouldAlmostEqual, 10.0)

			back, err := QTableFromDense(d)
			So(err, ShouldBeNil)
			So(back.Equal(table), ShouldBeTrue)

			_, err = QTableFromDense(mat.NewDense(2, 3, nil))
			So(errors.Is(err, ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("When saving and loading it", func() {
			path := filepath.Join(t.TempDir(), "qtable.bin")
			So(table.Save(path), ShouldBeNil)

			loaded, err := LoadQTable(path)
			So(err, ShouldBeNil)
			rows, cols, actions := loaded.Dims()
			So(rows, ShouldEqual, 3)
			So(cols, ShouldEqual, 5)
			So(actions, ShouldEqual, grid_world.NumActions)
			So(loaded.Equal(table), ShouldBeTrue)

			fresh, _ := NewQLearner(3, 5, DefaultHyperParams(), nil)
			So(fresh.Restore(loaded), ShouldBeNil)
			So(fresh.Greedy(p), ShouldEqual, grid_world.Left)
		})

		Convey("When loading garbage", func() {
			_, err := LoadQTable(filepath.Join(t.TempDir(), "nope.bin"))
			So(err, ShouldNotBeNil)

			var qt QTable
			So(qt.UnmarshalBinary([]byte("not a matrix")), ShouldNotBeNil)
		})
	})
}
