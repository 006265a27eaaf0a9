// Package model_selection provides train/test splitting and cross-validation.
package model_selection

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/farout/pkg/errors"
)

// DefaultTestSize keeps the first 90% of rows for training.
const DefaultTestSize = 0.1

type splitConfig struct {
	testSize    float64
	shuffle     bool
	randomState int64
}

// SplitOption is a functional option for TrainTestSplit
type SplitOption func(*splitConfig)

// WithTestSize sets the fraction of rows held out for testing, in (0, 1).
func WithTestSize(f float64) SplitOption {
	return func(c *splitConfig) {
		c.testSize = f
	}
}

// WithShuffle permutes rows before splitting. Without it the split is
// ordered: the training set is a prefix of the input.
func WithShuffle(shuffle bool) SplitOption {
	return func(c *splitConfig) {
		c.shuffle = shuffle
	}
}

// WithRandomState seeds the shuffle. A negative seed draws a fresh one.
func WithRandomState(seed int64) SplitOption {
	return func(c *splitConfig) {
		c.randomState = seed
	}
}

// newRand returns a PCG-backed generator for seed, or a randomly seeded
// one when seed is negative.
func newRand(seed int64) *rand.Rand {
	if seed < 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// TrainTestSplit splits X and the n×1 label column y into training and
// test sets. The training set has floor(n*(1-testSize)) rows.
func TrainTestSplit(X, y mat.Matrix, opts ...SplitOption) (XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense, err error) {
	cfg := splitConfig{testSize: DefaultTestSize, randomState: -1}
	for _, opt := range opts {
		opt(&cfg)
	}

	if X == nil || y == nil {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "X and y must not be nil")
	}
	if !(cfg.testSize > 0 && cfg.testSize < 1) {
		return nil, nil, nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", cfg.testSize)
	}

	n, _ := X.Dims()
	yRows, yCols := y.Dims()
	if n == 0 {
		return nil, nil, nil, nil, errors.NewEmptyDataError("TrainTestSplit")
	}
	if yRows != n {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", n, yRows, 0)
	}
	if yCols != 1 {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", 1, yCols, 1)
	}

	nTrain := int(math.Floor(float64(n) * (1 - cfg.testSize)))
	if nTrain < 1 || nTrain >= n {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit",
			"test_size leaves the training or test set empty")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if cfg.shuffle {
		r := newRand(cfg.randomState)
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	XTrain, yTrain = Subset(X, y, indices[:nTrain])
	XTest, yTest = Subset(X, y, indices[nTrain:])
	return XTrain, XTest, yTrain, yTest, nil
}

// Subset copies the given rows of X and of the label column y.
func Subset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.VecDense) {
	_, cols := X.Dims()
	XSub := mat.NewDense(len(indices), cols, nil)
	ySub := mat.NewVecDense(len(indices), nil)
	for i, idx := range indices {
		mat.Row(XSub.RawRowView(i), idx, X)
		ySub.SetVec(i, y.At(idx, 0))
	}
	return XSub, ySub
}
