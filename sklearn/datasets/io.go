package datasets

import (
	"encoding/json"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/farout/pkg/errors"
)

// WriteJSON encodes m as a JSON array of arrays, one inner array per row.
func WriteJSON(w io.Writer, m mat.Matrix) error {
	if m == nil {
		return errors.NewValueError("WriteJSON", "matrix must not be nil")
	}
	rows, cols := m.Dims()
	data := make([][]float64, rows)
	for i := range data {
		data[i] = mat.Row(make([]float64, cols), i, m)
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "encode dataset")
	}
	return nil
}

// ReadJSON decodes a JSON array of arrays into a matrix. Every row must
// have the same, non-zero length.
func ReadJSON(r io.Reader) (*mat.Dense, error) {
	var data [][]float64
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, errors.Wrap(errors.NewValueError("ReadJSON", err.Error()), "decode dataset")
	}
	if len(data) == 0 {
		return nil, errors.NewEmptyDataError("ReadJSON")
	}

	cols := len(data[0])
	if cols == 0 {
		return nil, errors.NewValueError("ReadJSON", "rows must not be empty")
	}
	out := mat.NewDense(len(data), cols, nil)
	for i, row := range data {
		if len(row) != cols {
			return nil, errors.Wrapf(errors.NewDimensionError("ReadJSON", cols, len(row), 1), "row %d", i)
		}
		out.SetRow(i, row)
	}
	return out, nil
}

// SaveJSON writes m to the named file with WriteJSON.
func SaveJSON(name string, m mat.Matrix) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", name)
		}
	}()
	return WriteJSON(f, m)
}

// LoadJSON reads the named file with ReadJSON.
func LoadJSON(name string) (*mat.Dense, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	defer f.Close()

	m, err := ReadJSON(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	return m, nil
}

// SplitXY separates a dataset into its feature columns and its trailing
// label column.
func SplitXY(data mat.Matrix) (*mat.Dense, *mat.VecDense, error) {
	if data == nil {
		return nil, nil, errors.NewValueError("SplitXY", "data must not be nil")
	}
	rows, cols := data.Dims()
	if rows == 0 {
		return nil, nil, errors.NewEmptyDataError("SplitXY")
	}
	if cols < 2 {
		return nil, nil, errors.NewValueError("SplitXY", "need at least one feature column and a label column")
	}

	X := mat.NewDense(rows, cols-1, nil)
	y := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols-1; j++ {
			X.Set(i, j, data.At(i, j))
		}
		y.SetVec(i, data.At(i, cols-1))
	}
	return X, y, nil
}

// JoinResults builds the results table: each row is the sample's features
// followed by its expected and predicted labels.
func JoinResults(X, yTrue, yPred mat.Matrix) (*mat.Dense, error) {
	if X == nil || yTrue == nil || yPred == nil {
		return nil, errors.NewValueError("JoinResults", "inputs must not be nil")
	}
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewEmptyDataError("JoinResults")
	}
	for _, y := range []mat.Matrix{yTrue, yPred} {
		r, c := y.Dims()
		if r != rows {
			return nil, errors.NewDimensionError("JoinResults", rows, r, 0)
		}
		if c != 1 {
			return nil, errors.NewDimensionError("JoinResults", 1, c, 1)
		}
	}

	out := mat.NewDense(rows, cols+2, nil)
	for i := 0; i < rows; i++ {
		row := out.RawRowView(i)
		mat.Row(row[:cols], i, X)
		row[cols] = yTrue.At(i, 0)
		row[cols+1] = yPred.At(i, 0)
	}
	return out, nil
}
