package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/farout/pkg/errors"
)

func TestSlogLoggerAttachesStacktrace(t *testing.T) {
	var buf bytes.Buffer
	sl := slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil)))
	logger := NewSlogLogger(sl).With(ModelNameKey, "GaussianNB")

	logger.Error("fit failed", errors.NewValueError("GaussianNB.Fit", "empty data"), OperationKey, OperationFit)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "fit failed", rec["msg"])
	assert.Equal(t, "GaussianNB", rec[ModelNameKey])
	assert.Equal(t, OperationFit, rec[OperationKey])
	assert.Contains(t, rec[ErrAttrKey], "empty data")
	assert.NotEmpty(t, rec[StacktraceAttrKey], "cockroachdb stack should be extracted")
	assert.Equal(t, ErrorInvalidInput, rec[ErrorCodeKey])
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not fitted", errors.NewNotFittedError("GaussianNB", "Predict"), ErrorNotFitted},
		{"dimension", errors.NewDimensionError("Predict", 2, 3, 1), ErrorDimensionMismatch},
		{"wrapped dimension", errors.Wrap(errors.NewDimensionError("Predict", 2, 3, 1), "evaluate"), ErrorDimensionMismatch},
		{"validation", errors.NewValidationError("var_smoothing", "must be non-negative", -1.0), ErrorInvalidInput},
		{"plain", errors.New("disk full"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrFmtHandlerKeepsExplicitCode(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil))))

	logger.Warn("odd", errors.NewValueError("op", "bad"), ErrorCodeKey, ErrorDegenerateVariance)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, ErrorDegenerateVariance, rec[ErrorCodeKey])
}

func TestSetupLogger(t *testing.T) {
	prev := GetLogger()
	defer SetLogger(prev)
	defer SetLevel(LevelInfo)

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "warn"))

	GetLoggerWithName("cli").Info("hidden")
	GetLoggerWithName("cli").Warn("shown", SamplesKey, 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"severity":"WARN"`)
	assert.Contains(t, out, `"ml.component":"cli"`)
	assert.True(t, GetLogger().Enabled(context.Background(), LevelError))
	assert.False(t, GetLogger().Enabled(context.Background(), LevelInfo))

	err := SetupLogger(&buf, "verbose")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestEnableZerologWarnings(t *testing.T) {
	var buf bytes.Buffer
	EnableZerologWarnings(&buf)
	defer EnableZerologWarnings(nil)

	errors.Warn(errors.NewDegenerateVarianceWarning(1, 0, 1, math.NaN()))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "DegenerateVarianceWarning", rec["type"])
	assert.Equal(t, float64(1), rec["class"])
	assert.Equal(t, "warnings", rec[ComponentKey])
}
