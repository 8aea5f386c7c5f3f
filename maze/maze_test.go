package maze

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"qmaze/rng"

	. "github.com/smartystreets/goconvey/convey"
)

// reachable does a 4-connected BFS over path cells from start.
func reachable(g *Grid, start Position) map[Position]bool {
	seen := map[Position]bool{start: true}
	queue := []Position{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range roomDirections {
			n := p.Add(d[0], d[1])
			if g.IsPath(n) && !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

func countPaths(g *Grid) (n int) {
	g.Visit(func(_ Position, c Cell) {
		if c == Path {
			n++
		}
	})
	return
}

func TestGenerate(t *testing.T) {
	Convey("When generating mazes", t, func() {
		Convey("When the size is below one", func() {
			for _, size := range []int{0, -1, -20} {
				g, err := Generate(size, rng.Seeded(1))
				So(g, ShouldBeNil)
				So(errors.Is(err, ErrInvalidSize), ShouldBeTrue)
			}
		})

		Convey("When the size is valid", func() {
			for size := 1; size <= 12; size++ {
				for seed := uint64(0); seed < 8; seed++ {
					g, err := Generate(size, rng.Seeded(seed))
					So(err, ShouldBeNil)

					dim := 2*size + 1
					So(g.Rows(), ShouldEqual, dim)
					So(g.Cols(), ShouldEqual, dim)
					So(g.Size(), ShouldEqual, size)
					So(g.IsPath(Position{Row: 1, Col: 0}), ShouldBeTrue)
					So(g.IsPath(Position{Row: dim - 2, Col: dim - 1}), ShouldBeTrue)
					So(g.Entrance(), ShouldResemble, Position{Row: 1, Col: 0})
					So(g.Exit(), ShouldResemble, Position{Row: dim - 2, Col: dim - 1})

					seen := reachable(g, g.Entrance())
					for i := 0; i < size; i++ {
						for j := 0; j < size; j++ {
							So(seen[Position{Row: 2*i + 1, Col: 2*j + 1}], ShouldBeTrue)
						}
					}
					So(seen[g.Exit()], ShouldBeTrue)

					// A spanning tree over n² rooms opens n²-1 walls; plus entrance and exit.
					So(countPaths(g), ShouldEqual, 2*size*size+1)
				}
			}
		})

		Convey("When the same seed is used twice", func() {
			a, err := Generate(15, rng.Seeded(42))
			So(err, ShouldBeNil)
			b, err := Generate(15, rng.Seeded(42))
			So(err, ShouldBeNil)
			So(a.Equal(b), ShouldBeTrue)
			So(a.Cells(), ShouldResemble, b.Cells())
		})

		Convey("When different seeds are used", func() {
			a, _ := Generate(15, rng.Seeded(1))
			b, _ := Generate(15, rng.Seeded(2))
			So(a.Equal(b), ShouldBeFalse)
		})

		Convey("When no source is passed", func() {
			g, err := Generate(4, nil)
			So(err, ShouldBeNil)
			So(countPaths(g), ShouldEqual, 2*4*4+1)
		})

		Convey("When the maze is very large", func() {
			g, err := Generate(200, rng.Seeded(3))
			So(err, ShouldBeNil)
			So(len(reachable(g, g.Entrance())), ShouldEqual, 2*200*200+1)
		})
	})
}

func TestGrid(t *testing.T) {
	Convey("When building grids by hand", t, func() {
		Convey("When the input is empty", func() {
			_, err := NewGrid(nil)
			So(err, ShouldEqual, ErrEmptyGrid)
		})

		Convey("When the rows are ragged", func() {
			_, err := NewGrid([][]Cell{{Path, Wall}, {Path}})
			So(err, ShouldEqual, ErrNonRectangular)
		})

		Convey("When the input is mutated after construction", func() {
			cells := [][]Cell{{Path, Wall}, {Wall, Path}}
			g, err := NewGrid(cells)
			So(err, ShouldBeNil)
			cells[0][0] = Wall
			So(g.At(Position{0, 0}), ShouldEqual, Path)

			out := g.Cells()
			out[1][1] = Wall
			So(g.At(Position{1, 1}), ShouldEqual, Path)
		})

		Convey("When reading out of bounds", func() {
			g, _ := FromStrings([]string{"..", ".."})
			So(g.At(Position{-1, 0}), ShouldEqual, Wall)
			So(g.IsPath(Position{0, 2}), ShouldBeFalse)
		})
	})
}

func TestRender(t *testing.T) {
	Convey("When rendering a maze without colors", t, func() {
		g, err := Generate(3, rng.Seeded(9))
		So(err, ShouldBeNil)

		var buf bytes.Buffer
		path := []Position{g.Entrance(), {Row: 1, Col: 1}}
		So(Render(&buf, g, path, false), ShouldBeNil)

		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		So(len(lines), ShouldEqual, 7)
		So(lines[1], ShouldStartWith, entranceGlyph+trailGlyph)
		So(lines[5], ShouldEndWith, exitGlyph)
		So(buf.String(), ShouldNotContainSubstring, "\x1b[")
	})
}
