package reinforcement

import (
	"errors"
	"fmt"
	"os"

	"qmaze/grid_world"
	"qmaze/maze"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when a table's dimensions don't fit its destination.
var ErrShapeMismatch = errors.New("q-table shape mismatch")

// QTable is a dense rows×cols×4 array of action-value estimates, laid out row-major
// with the four action values of a cell contiguous.
type QTable struct {
	rows, cols int
	values     []float64
}

// NewQTable returns a zero-initialized table.
func NewQTable(rows, cols int) *QTable {
	return &QTable{
		rows:   rows,
		cols:   cols,
		values: make([]float64, rows*cols*grid_world.NumActions),
	}
}

// Dims returns the table's (rows, cols, actions) shape.
func (qt *QTable) Dims() (rows, cols, actions int) {
	return qt.rows, qt.cols, grid_world.NumActions
}

func (qt *QTable) offset(p maze.Position) int {
	return (p.Row*qt.cols + p.Col) * grid_world.NumActions
}

// cell returns the live slice of action values at p. Callers must not retain it.
func (qt *QTable) cell(p maze.Position) []float64 {
	i := qt.offset(p)
	return qt.values[i : i+grid_world.NumActions]
}

// Get returns Q(p, a).
func (qt *QTable) Get(p maze.Position, a grid_world.Action) float64 {
	return qt.values[qt.offset(p)+int(a)]
}

// Values returns a copy of the four action values at p.
func (qt *QTable) Values(p maze.Position) []float64 {
	out := make([]float64, grid_world.NumActions)
	copy(out, qt.cell(p))
	return out
}

// Max returns the largest action value at p.
func (qt *QTable) Max(p maze.Position) float64 {
	return floats.Max(qt.cell(p))
}

// ArgMax returns the greedy action at p. Ties resolve to the lowest action index,
// which keeps greedy rollouts deterministic.
func (qt *QTable) ArgMax(p maze.Position) grid_world.Action {
	return grid_world.Action(floats.MaxIdx(qt.cell(p)))
}

// Clone returns a deep copy.
func (qt *QTable) Clone() *QTable {
	out := &QTable{
		rows:   qt.rows,
		cols:   qt.cols,
		values: make([]float64, len(qt.values)),
	}
	copy(out.values, qt.values)
	return out
}

// Equal reports whether both tables have the same shape and values.
func (qt *QTable) Equal(other *QTable) bool {
	if other == nil || qt.rows != other.rows || qt.cols != other.cols {
		return false
	}
	return floats.Equal(qt.values, other.values)
}

// IsZero reports whether every entry is still zero.
func (qt *QTable) IsZero() bool {
	for _, v := range qt.values {
		if v != 0 {
			return false
		}
	}
	return true
}

// Dense exports a copy of the table as a rows×(cols·4) matrix, which is the flat
// layout with one matrix row per grid row.
func (qt *QTable) Dense() *mat.Dense {
	data := make([]float64, len(qt.values))
	copy(data, qt.values)
	return mat.NewDense(qt.rows, qt.cols*grid_world.NumActions, data)
}

// QTableFromDense is the inverse of Dense.
func QTableFromDense(d mat.Matrix) (*QTable, error) {
	r, c := d.Dims()
	if c%grid_world.NumActions != 0 {
		return nil, fmt.Errorf("%w: %d columns is not a multiple of %d", ErrShapeMismatch, c, grid_world.NumActions)
	}
	qt := NewQTable(r, c/grid_world.NumActions)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			qt.values[i*c+j] = d.At(i, j)
		}
	}
	return qt, nil
}

// MarshalBinary encodes the table with gonum's matrix encoding.
func (qt *QTable) MarshalBinary() ([]byte, error) {
	return qt.Dense().MarshalBinary()
}

// UnmarshalBinary decodes a table written by MarshalBinary.
func (qt *QTable) UnmarshalBinary(data []byte) error {
	var d mat.Dense
	if err := d.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("decode q-table: %w", err)
	}
	decoded, err := QTableFromDense(&d)
	if err != nil {
		return err
	}
	*qt = *decoded
	return nil
}

// Save writes the table to path.
func (qt *QTable) Save(path string) error {
	data, err := qt.MarshalBinary()
	if err != nil {
		return err
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save q-table: %w", err)
	}
	return nil
}

// LoadQTable reads a table written by Save.
func LoadQTable(path string) (*QTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load q-table: %w", err)
	}
	qt := &QTable{}
	if err = qt.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return qt, nil
}
