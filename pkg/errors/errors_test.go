package errors

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("GaussianNB.PredictSample", 2, 3, 1)

	want := "farout: GaussianNB.PredictSample: dimension mismatch on axis 1 (features). Expected 2, got 3"
	assert.Equal(t, want, err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr), "Error should be castable to *DimensionError")
	assert.Equal(t, 2, dimErr.Expected)
	assert.True(t, Is(err, ErrInvalidInput))

	// スタックトレースの存在確認
	formatted := fmt.Sprintf("%+v", err)
	assert.Contains(t, formatted, "errors_test.go")
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("GaussianNB", "Predict")

	want := "farout: GaussianNB: this model is not fitted yet. Call Fit() before using Predict()"
	assert.Equal(t, want, err.Error())

	var notFittedErr *NotFittedError
	assert.True(t, As(err, &notFittedErr))
	assert.False(t, Is(err, ErrInvalidInput), "not fitted is a usage error, not invalid input")
}

func TestInvalidInputCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"validation", NewValidationError("lower", "must be less than upper", 10.0)},
		{"value", NewValueError("GaussianNB.Fit", "X must not be nil")},
		{"empty", NewEmptyDataError("GaussianNB.Fit")},
		{"dimension", NewDimensionError("GaussianNB.Fit", 10, 9, 0)},
		{"non-finite", NewNumericalInstabilityError("GaussianNB.Fit", []float64{math.NaN()}, 4)},
		{"wrapped", Wrap(NewValueError("ReadJSON", "ragged rows"), "load dataset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Is(tt.err, ErrInvalidInput), "%v should be invalid input", tt.err)
		})
	}

	assert.False(t, Is(New("disk full"), ErrInvalidInput))
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("count", "must be at least 1000", 10)
	assert.Equal(t, "farout: validation failed for parameter 'count': must be at least 1000 (got: 10)", err.Error())

	var valErr *ValidationError
	require.True(t, As(err, &valErr))
	assert.Equal(t, "count", valErr.ParamName)
}

func TestDegenerateVarianceWarning(t *testing.T) {
	w := NewDegenerateVarianceWarning(2, 1, 1, math.NaN())
	assert.Equal(t, "degenerate variance NaN for class 2 feature 1 (1 samples)", w.Error())

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	logger.Warn().EmbedObject(w).Msg(w.Error())

	out := buf.String()
	assert.Contains(t, out, `"type":"DegenerateVarianceWarning"`)
	assert.Contains(t, out, `"class":2`)
	assert.Contains(t, out, `"variance":"NaN"`)
}

func TestIsDegenerateVariance(t *testing.T) {
	assert.True(t, IsDegenerateVariance(0))
	assert.True(t, IsDegenerateVariance(-1))
	assert.True(t, IsDegenerateVariance(math.NaN()))
	assert.True(t, IsDegenerateVariance(math.Inf(1)))
	assert.False(t, IsDegenerateVariance(1e-300))
	assert.False(t, IsDegenerateVariance(4))
}

func TestWarnRouting(t *testing.T) {
	var handled []string
	SetWarningHandler(func(w error) { handled = append(handled, w.Error()) })
	defer SetWarningHandler(func(w error) {})

	Warn(NewUndefinedMetricWarning("accuracy", "no samples", 0))
	require.Len(t, handled, 1)
	assert.True(t, strings.HasPrefix(handled[0], "'accuracy' is ill-defined"))

	var zerologged []error
	SetZerologWarnFunc(func(w error) { zerologged = append(zerologged, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDegenerateVarianceWarning(0, 0, 1, math.NaN()))
	assert.Len(t, handled, 1, "zerolog sink takes precedence")
	assert.Len(t, zerologged, 1)
}

func TestCheckMatrix(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.NoError(t, CheckMatrix("Fit", ok, 2, 2))

	bad := mat.NewDense(3, 2, []float64{1, 2, 3, 4, math.Inf(-1), 6})
	err := CheckMatrix("Fit", bad, 3, 2)
	require.Error(t, err)

	var numErr *NumericalInstabilityError
	require.True(t, As(err, &numErr))
	assert.Equal(t, 2, numErr.Row)
	assert.Contains(t, err.Error(), "-Inf")
}

func TestEmptyDataError(t *testing.T) {
	err := Wrap(NewEmptyDataError("SplitXY"), "load dataset")
	assert.True(t, Is(err, ErrEmptyData))
	assert.True(t, Is(err, ErrInvalidInput))
	assert.Equal(t, "load dataset: farout: SplitXY: empty data", err.Error())

	var valErr *ValueError
	require.True(t, As(err, &valErr))
	assert.Equal(t, "SplitXY", valErr.Op)

	assert.False(t, Is(NewValueError("SplitXY", "empty data"), ErrEmptyData))
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d rows, got %d", "LoadJSON", 10, 0)

	assert.True(t, Is(wrapped, ErrEmptyData))
	assert.Contains(t, wrapped.Error(), "in LoadJSON: expected 10 rows, got 0")
}
