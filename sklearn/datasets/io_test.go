package datasets

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/farout/pkg/errors"
)

func TestWriteJSONFormat(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1.5, 2, 0, 3, 4.25, 1})

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, m))
	assert.Equal(t, "[[1.5,2,0],[3,4.25,1]]\n", buf.String())
}

func TestReadJSON(t *testing.T) {
	m, err := ReadJSON(strings.NewReader(`[[1,2,0],[3,4,1]]`))
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{1, 2, 0, 3, 4, 1}), m))

	for name, in := range map[string]string{
		"ragged":    `[[1,2,0],[3,4]]`,
		"empty":     `[]`,
		"null":      `null`,
		"empty row": `[[]]`,
		"not json":  `{"a":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput), "got %v", err)
		})
	}

	_, err = ReadJSON(strings.NewReader(`[]`))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestSaveLoadJSON(t *testing.T) {
	name := filepath.Join(t.TempDir(), "data.json")
	m := mat.NewDense(3, 2, []float64{0.1, 0, 0.2, 1, 0.3, 0})

	require.NoError(t, SaveJSON(name, m))
	got, err := LoadJSON(name)
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, got))

	_, err = LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSplitXY(t *testing.T) {
	data := mat.NewDense(3, 3, []float64{
		1, 2, 0,
		3, 4, 1,
		5, 6, 1,
	})

	X, y, err := SplitXY(data)
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}), X))
	assert.Equal(t, []float64{0, 1, 1}, y.RawVector().Data)

	_, _, err = SplitXY(mat.NewDense(2, 1, []float64{1, 2}))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	_, _, err = SplitXY(nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestJoinResults(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	yTrue := mat.NewVecDense(2, []float64{0, 1})
	yPred := mat.NewDense(2, 1, []float64{0, 0})

	out, err := JoinResults(X, yTrue, yPred)
	require.NoError(t, err)
	want := mat.NewDense(2, 4, []float64{
		1, 2, 0, 0,
		3, 4, 1, 0,
	})
	assert.True(t, mat.Equal(want, out))

	_, err = JoinResults(X, mat.NewVecDense(3, []float64{0, 1, 1}), yPred)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
}
