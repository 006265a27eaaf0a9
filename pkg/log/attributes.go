// Package log defines standard attribute keys for farout operations.
//
// The keys follow a hierarchical naming convention (e.g. "model.name",
// "data.samples") so that records from the classifier, the dataset
// generator and the CLI can be filtered the same way.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "GaussianNB".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "score", "generate", "split".
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"

	// PathKey records the file a dataset or report was read from or written to.
	PathKey = "data.path"
)

// Generator parameters
const (
	LowerBoundKey      = "generator.lower"
	UpperBoundKey      = "generator.upper"
	SegmentsKey        = "generator.segments"
	SegmentDistanceKey = "generator.segment_distance"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy in [0.0, 1.0].
	AccuracyKey = "metrics.accuracy"

	// FoldKey records the cross-validation fold index.
	FoldKey = "cv.fold"
)

// Prediction and Output Context
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	// Examples: "DIMENSION_MISMATCH", "NOT_FITTED", "DEGENERATE_VARIANCE"
	ErrorCodeKey = "error.code"
)

// Configuration
const (
	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// ConfigFileKey records the configuration file in use, if any.
	ConfigFileKey = "config.file"
)

// Standard attribute value constants for common operations.
const (
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationScore    = "score"
	OperationGenerate = "generate"
	OperationSplit    = "split"
	OperationCV       = "cross_validate"

	PhaseTraining   = "training"
	PhaseTesting    = "testing"
	PhaseValidation = "validation"

	ErrorNotFitted          = "NOT_FITTED"
	ErrorDimensionMismatch  = "DIMENSION_MISMATCH"
	ErrorInvalidInput       = "INVALID_INPUT"
	ErrorDegenerateVariance = "DEGENERATE_VARIANCE"
)
