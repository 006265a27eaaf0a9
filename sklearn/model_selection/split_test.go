package model_selection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/farout/pkg/errors"
)

func indexedData(n int) (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(-i))
		y.SetVec(i, float64(i%2))
	}
	return X, y
}

func TestTrainTestSplitOrdered(t *testing.T) {
	X, y := indexedData(1000)

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y)
	require.NoError(t, err)

	r, _ := XTrain.Dims()
	assert.Equal(t, 900, r)
	r, _ = XTest.Dims()
	assert.Equal(t, 100, r)
	assert.Equal(t, 900, yTrain.Len())
	assert.Equal(t, 100, yTest.Len())

	// The training set is the prefix of the input.
	assert.Equal(t, 0.0, XTrain.At(0, 0))
	assert.Equal(t, 899.0, XTrain.At(899, 0))
	assert.Equal(t, 900.0, XTest.At(0, 0))
	assert.Equal(t, -999.0, XTest.At(99, 1))
	assert.Equal(t, 1.0, yTest.AtVec(1))
}

func TestTrainTestSplitFloor(t *testing.T) {
	X, y := indexedData(15)

	XTrain, XTest, _, _, err := TrainTestSplit(X, y)
	require.NoError(t, err)
	r, _ := XTrain.Dims()
	assert.Equal(t, 13, r, "floor(15*0.9)")
	r, _ = XTest.Dims()
	assert.Equal(t, 2, r)
}

func TestTrainTestSplitShuffle(t *testing.T) {
	X, y := indexedData(200)

	split := func(seed int64) *mat.Dense {
		XTrain, XTest, yTrain, _, err := TrainTestSplit(X, y,
			WithTestSize(0.25), WithShuffle(true), WithRandomState(seed))
		require.NoError(t, err)

		r, _ := XTest.Dims()
		assert.Equal(t, 50, r)
		for i := 0; i < yTrain.Len(); i++ {
			assert.Equal(t, float64(int(XTrain.At(i, 0))%2), yTrain.AtVec(i), "rows stay aligned with labels")
		}
		return XTrain
	}

	a, b := split(9), split(9)
	assert.True(t, mat.Equal(a, b))

	var seen []int
	for i := 0; i < 150; i++ {
		seen = append(seen, int(a.At(i, 0)))
	}
	assert.False(t, sort.IntsAreSorted(seen), "shuffled")
}

func TestTrainTestSplitInvalid(t *testing.T) {
	X, y := indexedData(10)

	tests := []struct {
		name string
		X, y mat.Matrix
		opts []SplitOption
	}{
		{"zero test size", X, y, []SplitOption{WithTestSize(0)}},
		{"full test size", X, y, []SplitOption{WithTestSize(1)}},
		{"empty train", X, y, []SplitOption{WithTestSize(0.95)}},
		{"label rows", X, mat.NewVecDense(3, nil), nil},
		{"label cols", X, mat.NewDense(10, 2, nil), nil},
		{"nil", nil, y, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, _, err := TrainTestSplit(tt.X, tt.y, tt.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput))
		})
	}
}
