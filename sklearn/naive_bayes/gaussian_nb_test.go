package naive_bayes

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/farout/pkg/errors"
	"github.com/YuminosukeSato/farout/pkg/log"
)

// captureWarnings redirects errors.Warn for the duration of the test.
func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &got
}

func quietNB(opts ...GaussianNBOption) *GaussianNB {
	logger, _ := log.NewTestLogger(log.LevelError)
	return NewGaussianNB(append([]GaussianNBOption{WithGNBLogger(logger)}, opts...)...)
}

func separatedData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0.0, 0.1,
		0.2, 0.0,
		0.1, 0.2,
		9.8, 10.0,
		10.1, 9.9,
		10.0, 10.2,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestGaussianNBMeanAndVariance(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{2, 4, 6})
	y := mat.NewDense(3, 1, []float64{7, 7, 7})

	nb := quietNB()
	require.NoError(t, nb.Fit(X, y))

	assert.Equal(t, []int{7}, nb.Classes())
	assert.InDelta(t, 4.0, nb.Theta().At(0, 0), 1e-12)
	assert.InDelta(t, 4.0, nb.Var().At(0, 0), 1e-12, "sample variance uses n-1")
	assert.Equal(t, []float64{3}, nb.ClassCount())
}

func TestGaussianDensityPeak(t *testing.T) {
	for _, v := range []float64{0.25, 1, 4, 100} {
		want := 1 / math.Sqrt(2*math.Pi*v)
		assert.InDelta(t, want, gaussianDensity(3, 3, v), 1e-15, "variance %v", v)
	}
	// 平均から離れるほど密度は下がる
	assert.Less(t, gaussianDensity(5, 3, 1), gaussianDensity(4, 3, 1))
}

func TestGaussianNBFitPredictSeparated(t *testing.T) {
	X, y := separatedData()

	nb := quietNB()
	require.NoError(t, nb.Fit(X, y))
	assert.True(t, nb.IsFitted())
	assert.Equal(t, 2, nb.NClasses())
	assert.Equal(t, 2, nb.NFeatures())

	pred, err := nb.Predict(X)
	require.NoError(t, err)

	rows, _ := X.Dims()
	for i := 0; i < rows; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d", i)

		single, err := nb.PredictSample(mat.Row(nil, i, X))
		require.NoError(t, err)
		assert.Equal(t, pred.At(i, 0), single, "Predict and PredictSample disagree on row %d", i)
	}

	score, err := nb.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestGaussianNBTieGoesToSmallestClass(t *testing.T) {
	// Classes 3 and 5 have identical statistics.
	X := mat.NewDense(4, 1, []float64{0, 2, 0, 2})
	y := mat.NewDense(4, 1, []float64{5, 5, 3, 3})

	nb := quietNB()
	require.NoError(t, nb.Fit(X, y))
	assert.Equal(t, []int{3, 5}, nb.Classes())

	got, err := nb.PredictSample([]float64{1})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)
}

func TestGaussianNBUnderflowSelectsFirstClass(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 0.1, 10, 10.1})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	nb := quietNB()
	require.NoError(t, nb.Fit(X, y))

	// Both density products underflow to 0, so the running maximum never
	// moves off the first class even though class 1 is nearer.
	got, err := nb.PredictSample([]float64{1e6})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestGaussianNBFeatureMismatch(t *testing.T) {
	X, y := separatedData()

	nb := quietNB()
	require.NoError(t, nb.Fit(X, y))

	_, err := nb.PredictSample([]float64{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)

	_, err = nb.Predict(mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	t.Run("first class fallback", func(t *testing.T) {
		fb := quietNB(WithGNBFirstClassFallback(true))
		require.NoError(t, fb.Fit(X, y))

		got, err := fb.PredictSample([]float64{10})
		require.NoError(t, err)
		assert.Equal(t, 0.0, got)

		pred, err := fb.Predict(mat.NewDense(2, 3, []float64{10, 10, 10, 10, 10, 10}))
		require.NoError(t, err)
		assert.Equal(t, 0.0, pred.At(0, 0))
		assert.Equal(t, 0.0, pred.At(1, 0))
	})
}

func TestGaussianNBNotFitted(t *testing.T) {
	nb := quietNB()
	var nf *errors.NotFittedError

	_, err := nb.PredictSample([]float64{1})
	assert.True(t, errors.As(err, &nf))

	_, err = nb.Predict(mat.NewDense(1, 1, []float64{1}))
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, "Predict", nf.Method)

	_, err = nb.PredictProba(mat.NewDense(1, 1, []float64{1}))
	assert.True(t, errors.As(err, &nf))
}

func TestGaussianNBInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		X    mat.Matrix
		y    mat.Matrix
	}{
		{"nil X", nil, mat.NewDense(1, 1, []float64{0})},
		{"empty X", &mat.Dense{}, &mat.Dense{}},
		{"row mismatch", mat.NewDense(3, 1, []float64{1, 2, 3}), mat.NewDense(2, 1, []float64{0, 1})},
		{"y not a column", mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 2, []float64{0, 1, 0, 1})},
		{"NaN feature", mat.NewDense(2, 1, []float64{1, math.NaN()}), mat.NewDense(2, 1, []float64{0, 1})},
		{"fractional label", mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{0, 0.5})},
		{"NaN label", mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{0, math.NaN()})},
		{"infinite label", mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{0, math.Inf(1)})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nb := quietNB()
			err := nb.Fit(tt.X, tt.y)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidInput), "got %v", err)
			assert.False(t, nb.IsFitted())
		})
	}

	nb := quietNB(WithGNBVarSmoothing(-1))
	err := nb.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(2, 1, []float64{0, 1}))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	err = quietNB().Fit(&mat.Dense{}, &mat.Dense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData), "got %v", err)
}

func TestGaussianNBSingleMemberClass(t *testing.T) {
	warnings := captureWarnings(t)
	logger, _ := log.NewTestLogger(log.LevelDebug)

	X := mat.NewDense(3, 2, []float64{
		0, 0,
		1, 1,
		10, 10,
	})
	y := mat.NewDense(3, 1, []float64{0, 0, 1})

	nb := NewGaussianNB(WithGNBLogger(logger))
	require.NoError(t, nb.Fit(X, y), "degenerate variance is not an error")

	assert.True(t, math.IsNaN(nb.Var().At(1, 0)))
	assert.True(t, math.IsNaN(nb.Var().At(1, 1)))
	assert.Equal(t, 10.0, nb.Theta().At(1, 0))

	require.Len(t, *warnings, 2, "one warning per degenerate feature")
	var w *errors.DegenerateVarianceWarning
	require.True(t, errors.As((*warnings)[0], &w))
	assert.Equal(t, 1, w.Class)
	assert.Equal(t, 1, w.Samples)
	assert.True(t, logger.ContainsField(log.ErrorCodeKey, log.ErrorDegenerateVariance))

	// NaN density products never win the comparison.
	got, err := nb.PredictSample([]float64{10, 10})
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	t.Run("smoothing restores the class", func(t *testing.T) {
		smoothed := quietNB(WithGNBVarSmoothing(1e-9))
		require.NoError(t, smoothed.Fit(X, y))
		assert.InDelta(t, 1e-9, smoothed.Var().At(1, 0), 1e-18)

		got, err := smoothed.PredictSample([]float64{10, 10})
		require.NoError(t, err)
		assert.Equal(t, 1.0, got)
	})
}

func TestGaussianNBZeroVarianceWarns(t *testing.T) {
	warnings := captureWarnings(t)

	X := mat.NewDense(4, 1, []float64{3, 3, 7, 8})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	nb := quietNB()
	require.NoError(t, nb.Fit(X, y))
	assert.Equal(t, 0.0, nb.Var().At(0, 0))
	assert.Len(t, *warnings, 1)
}

func TestGaussianNBRefitReplacesState(t *testing.T) {
	nb := quietNB()

	X3 := mat.NewDense(6, 1, []float64{0, 0.5, 5, 5.5, 10, 10.5})
	y3 := mat.NewDense(6, 1, []float64{-1, -1, 2, 2, 4, 4})
	require.NoError(t, nb.Fit(X3, y3))
	assert.Equal(t, []int{-1, 2, 4}, nb.Classes())

	X, y := separatedData()
	require.NoError(t, nb.Fit(X, y))
	assert.Equal(t, []int{0, 1}, nb.Classes())
	assert.Equal(t, 2, nb.NFeatures())
	r, c := nb.Theta().Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
}

func TestGaussianNBPredictProba(t *testing.T) {
	X, y := separatedData()

	nb := quietNB()
	require.NoError(t, nb.Fit(X, y))

	proba, err := nb.PredictProba(X)
	require.NoError(t, err)
	logProba, err := nb.PredictLogProba(X)
	require.NoError(t, err)
	pred, err := nb.Predict(X)
	require.NoError(t, err)

	rows, k := proba.Dims()
	assert.Equal(t, 2, k)
	for i := 0; i < rows; i++ {
		sum := 0.0
		best := 0
		for c := 0; c < k; c++ {
			sum += proba.At(i, c)
			assert.InDelta(t, proba.At(i, c), math.Exp(logProba.At(i, c)), 1e-12)
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
		assert.Equal(t, pred.At(i, 0), float64(nb.Classes()[best]))
	}
}

func TestGaussianNBParallelPredictMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	n := 5000
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 3)
		y.Set(i, 0, label)
		for j := 0; j < 3; j++ {
			X.Set(i, j, rng.NormFloat64()+2*label)
		}
	}

	seq := quietNB(WithGNBParallelThreshold(math.MaxInt))
	par := quietNB(WithGNBParallelThreshold(10))
	require.NoError(t, seq.Fit(X, y))
	require.NoError(t, par.Fit(X, y))

	a, err := seq.Predict(X)
	require.NoError(t, err)
	b, err := par.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a, b))
}

func TestGaussianNBLogging(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelDebug)
	X, y := separatedData()

	nb := NewGaussianNB(WithGNBLogger(logger))
	require.NoError(t, nb.Fit(X, y))
	_, err := nb.Predict(X)
	require.NoError(t, err)

	assert.True(t, logger.ContainsMessage("fit completed"))
	assert.True(t, logger.ContainsField(log.SamplesKey, 6.0))
	assert.True(t, logger.ContainsField(log.ClassesKey, 2.0))
	assert.True(t, logger.ContainsField(log.PredsKey, 6.0))
}

func TestGaussianNBParams(t *testing.T) {
	nb := NewGaussianNB(WithGNBVarSmoothing(1e-9))
	params := nb.GetParams()
	assert.Equal(t, 1e-9, params["var_smoothing"])
	assert.Equal(t, false, params["first_class_fallback"])

	require.NoError(t, nb.SetParams(map[string]interface{}{
		"first_class_fallback": true,
		"parallel_threshold":   50,
	}))
	assert.Equal(t, true, nb.GetParams()["first_class_fallback"])
	assert.Equal(t, 50, nb.GetParams()["parallel_threshold"])

	err := nb.SetParams(map[string]interface{}{"priors": []float64{0.5, 0.5}})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	err = nb.SetParams(map[string]interface{}{"var_smoothing": "small"})
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func BenchmarkGaussianNBPredict(b *testing.B) {
	rng := rand.New(rand.NewPCG(3, 4))
	n := 10000
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, rng.Float64()*10)
		X.Set(i, 1, rng.Float64()*10)
		y.Set(i, 0, float64(i%2))
	}
	nb := quietNB()
	if err := nb.Fit(X, y); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = nb.Predict(X)
	}
}
