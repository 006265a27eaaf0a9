// Package naive_bayes implements naive Bayes classifiers.
package naive_bayes

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/farout/core/model"
	"github.com/YuminosukeSato/farout/core/parallel"
	"github.com/YuminosukeSato/farout/metrics"
	"github.com/YuminosukeSato/farout/pkg/errors"
	"github.com/YuminosukeSato/farout/pkg/log"
)

// maxExactLabel is the largest magnitude a float64 label may have and still
// convert to a distinct int.
const maxExactLabel = 1 << 53

// GaussianNB implements Gaussian Naive Bayes classification.
//
// Each class is summarised by the mean and the Bessel-corrected sample
// variance of every feature. A sample is assigned to the class with the
// largest product of per-feature normal densities; classes are scanned in
// ascending order and only a strictly larger product replaces the current
// choice, so ties and all-zero products resolve to the smallest class.
// No class prior is applied.
//
// Fit replaces all learned state. Predict methods only read it and may run
// concurrently with each other, but not with Fit.
type GaussianNB struct {
	state *model.StateManager

	// Hyperparameters
	varSmoothing       float64 // added to every variance after fitting
	firstClassFallback bool    // feature-count mismatch predicts classes_[0] instead of failing
	parallelThreshold  int     // rows at or below which Predict runs sequentially
	logger             log.Logger

	// Learned parameters
	classes_    []int       // sorted distinct labels
	theta_      [][]float64 // per-class feature means
	var_        [][]float64 // per-class feature variances
	classCount_ []float64   // samples per class
	nFeatures_  int
}

// GaussianNBOption is a functional option for GaussianNB
type GaussianNBOption func(*GaussianNB)

// NewGaussianNB creates a new, unfitted GaussianNB.
func NewGaussianNB(opts ...GaussianNBOption) *GaussianNB {
	nb := &GaussianNB{
		state:             model.NewStateManager(),
		parallelThreshold: parallel.DefaultThreshold,
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// WithGNBVarSmoothing adds eps to every fitted variance. A class with a
// single sample then gets variance eps instead of NaN. The default of 0
// keeps zero and NaN variances as computed.
func WithGNBVarSmoothing(eps float64) GaussianNBOption {
	return func(nb *GaussianNB) {
		nb.varSmoothing = eps
	}
}

// WithGNBFirstClassFallback makes prediction on a sample with the wrong
// number of features return the first class instead of a DimensionError.
func WithGNBFirstClassFallback(enabled bool) GaussianNBOption {
	return func(nb *GaussianNB) {
		nb.firstClassFallback = enabled
	}
}

// WithGNBLogger sets the logger. By default the package logger named
// "naive_bayes" is resolved at each call.
func WithGNBLogger(logger log.Logger) GaussianNBOption {
	return func(nb *GaussianNB) {
		nb.logger = logger
	}
}

// WithGNBParallelThreshold sets the row count above which Predict splits
// work across goroutines.
func WithGNBParallelThreshold(n int) GaussianNBOption {
	return func(nb *GaussianNB) {
		nb.parallelThreshold = n
	}
}

func (nb *GaussianNB) log() log.Logger {
	if nb.logger != nil {
		return nb.logger
	}
	return log.GetLoggerWithName("naive_bayes").With(log.ModelNameKey, "GaussianNB")
}

// Fit learns per-class feature means and variances from X (n×d) and the
// n×1 label column y. Labels must be finite integral values.
func (nb *GaussianNB) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GaussianNB.Fit")
	start := time.Now()

	if X == nil || y == nil {
		return errors.NewValueError("GaussianNB.Fit", "X and y must not be nil")
	}
	if nb.varSmoothing < 0 || math.IsNaN(nb.varSmoothing) || math.IsInf(nb.varSmoothing, 0) {
		return errors.NewValidationError("var_smoothing", "must be a finite value >= 0", nb.varSmoothing)
	}

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewEmptyDataError("GaussianNB.Fit")
	}
	yRows, yCols := y.Dims()
	if yRows != rows {
		return errors.NewDimensionError("GaussianNB.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("GaussianNB.Fit", 1, yCols, 1)
	}
	if err := errors.CheckMatrix("GaussianNB.Fit", X, rows, cols); err != nil {
		return err
	}

	labels, err := integralLabels(y, rows)
	if err != nil {
		return err
	}
	classes := distinctSorted(labels)

	// Partition row indices by class.
	members := make([][]int, len(classes))
	for i, label := range labels {
		idx := sort.SearchInts(classes, label)
		members[idx] = append(members[idx], i)
	}

	theta := make([][]float64, len(classes))
	variances := make([][]float64, len(classes))
	counts := make([]float64, len(classes))
	column := make([]float64, 0, rows)

	for c, rowsOfClass := range members {
		counts[c] = float64(len(rowsOfClass))
		theta[c] = make([]float64, cols)
		variances[c] = make([]float64, cols)

		for j := 0; j < cols; j++ {
			column = column[:0]
			for _, i := range rowsOfClass {
				column = append(column, X.At(i, j))
			}
			mean, variance := stat.MeanVariance(column, nil)
			if nb.varSmoothing > 0 {
				if len(column) == 1 {
					variance = 0
				}
				variance += nb.varSmoothing
			}

			theta[c][j] = mean
			variances[c][j] = variance

			if errors.IsDegenerateVariance(variance) {
				w := errors.NewDegenerateVarianceWarning(classes[c], j, len(rowsOfClass), variance)
				errors.Warn(w)
				nb.log().Warn(w.Error(),
					log.OperationKey, log.OperationFit,
					log.ErrorCodeKey, log.ErrorDegenerateVariance,
				)
			}
		}
	}

	nb.classes_ = classes
	nb.theta_ = theta
	nb.var_ = variances
	nb.classCount_ = counts
	nb.nFeatures_ = len(theta[0])

	nb.state.SetDimensions(nb.nFeatures_, rows)
	nb.state.SetFitted()

	nb.log().Info("fit completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, nb.nFeatures_,
		log.ClassesKey, len(classes),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// integralLabels converts the label column to ints, rejecting values that
// are not finite whole numbers.
func integralLabels(y mat.Matrix, rows int) ([]int, error) {
	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > maxExactLabel {
			return nil, errors.NewValueError("GaussianNB.Fit",
				fmt.Sprintf("label %v at row %d is not an integral class identifier", v, i))
		}
		labels[i] = int(v)
	}
	return labels, nil
}

func distinctSorted(labels []int) []int {
	seen := make(map[int]struct{}, 8)
	out := make([]int, 0, 8)
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}

// gaussianDensity is the normal probability density at x.
func gaussianDensity(x, mean, variance float64) float64 {
	d := x - mean
	return math.Exp(-(d*d)/(2*variance)) / math.Sqrt(2*variance*math.Pi)
}

// bestClass returns the index into classes_ of the class with the largest
// density product for x. len(x) must equal nFeatures_.
func (nb *GaussianNB) bestClass(x []float64) int {
	best := 0
	maxValue := 0.0
	for c := range nb.classes_ {
		p := 1.0
		for j, v := range x {
			p *= gaussianDensity(v, nb.theta_[c][j], nb.var_[c][j])
		}
		if p > maxValue {
			maxValue = p
			best = c
		}
	}
	return best
}

// PredictSample predicts the class of a single sample.
func (nb *GaussianNB) PredictSample(x []float64) (float64, error) {
	if err := nb.state.RequireFitted("GaussianNB", "PredictSample"); err != nil {
		return 0, err
	}
	if len(x) != nb.nFeatures_ {
		if nb.firstClassFallback {
			return float64(nb.classes_[0]), nil
		}
		return 0, errors.NewDimensionError("GaussianNB.PredictSample", nb.nFeatures_, len(x), 1)
	}
	return float64(nb.classes_[nb.bestClass(x)]), nil
}

// Predict returns an n×1 column whose i-th entry equals PredictSample of
// row i of X.
func (nb *GaussianNB) Predict(X mat.Matrix) (_ mat.Matrix, err error) {
	defer errors.Recover(&err, "GaussianNB.Predict")

	rows, cols, err := nb.checkPredictInput("Predict", X)
	if err != nil {
		return nil, err
	}

	predictions := mat.NewDense(rows, 1, nil)
	if cols != nb.nFeatures_ {
		// Only reachable with the first-class fallback enabled.
		for i := 0; i < rows; i++ {
			predictions.Set(i, 0, float64(nb.classes_[0]))
		}
		return predictions, nil
	}

	err = parallel.ForEachChunk(context.Background(), rows, nb.parallelThreshold,
		func(_ context.Context, start, end int) error {
			row := make([]float64, cols)
			for i := start; i < end; i++ {
				mat.Row(row, i, X)
				predictions.Set(i, 0, float64(nb.classes_[nb.bestClass(row)]))
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	nb.log().Debug("predict completed",
		log.OperationKey, log.OperationPredict,
		log.PredsKey, rows,
	)
	return predictions, nil
}

func (nb *GaussianNB) checkPredictInput(method string, X mat.Matrix) (rows, cols int, err error) {
	if err := nb.state.RequireFitted("GaussianNB", method); err != nil {
		return 0, 0, err
	}
	if X == nil {
		return 0, 0, errors.NewValueError("GaussianNB."+method, "X must not be nil")
	}
	rows, cols = X.Dims()
	if rows == 0 {
		return 0, 0, errors.NewEmptyDataError("GaussianNB."+method)
	}
	if cols != nb.nFeatures_ && !nb.firstClassFallback {
		return 0, 0, errors.NewDimensionError("GaussianNB."+method, nb.nFeatures_, cols, 1)
	}
	return rows, cols, nil
}

// PredictLogProba returns an n×k matrix of log posterior probabilities,
// columns ordered as Classes(). The joint log likelihood of each class is
// the sum of per-feature log densities, normalised with log-sum-exp.
// Rows with a degenerate variance may contain NaN.
func (nb *GaussianNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	rows, cols, err := nb.checkPredictInput("PredictLogProba", X)
	if err != nil {
		return nil, err
	}
	if cols != nb.nFeatures_ {
		return nil, errors.NewDimensionError("GaussianNB.PredictLogProba", nb.nFeatures_, cols, 1)
	}

	k := len(nb.classes_)
	out := mat.NewDense(rows, k, nil)
	row := make([]float64, cols)
	joint := make([]float64, k)

	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		for c := 0; c < k; c++ {
			var ll float64
			for j, v := range row {
				variance := nb.var_[c][j]
				d := v - nb.theta_[c][j]
				ll += -0.5*math.Log(2*math.Pi*variance) - (d*d)/(2*variance)
			}
			joint[c] = ll
		}
		norm := floats.LogSumExp(joint)
		for c := 0; c < k; c++ {
			out.Set(i, c, joint[c]-norm)
		}
	}
	return out, nil
}

// PredictProba returns an n×k matrix of posterior probabilities, columns
// ordered as Classes().
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}
	var proba mat.Dense
	proba.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, logProba)
	return &proba, nil
}

// Score returns the mean accuracy on the given test data and labels.
func (nb *GaussianNB) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	acc, err := metrics.AccuracyMatrix(y, predictions)
	if err != nil {
		return 0, err
	}
	nb.log().Info("score computed",
		log.OperationKey, log.OperationScore,
		log.AccuracyKey, acc,
	)
	return acc, nil
}

// IsFitted returns whether Fit has completed successfully.
func (nb *GaussianNB) IsFitted() bool {
	return nb.state.IsFitted()
}

// Classes returns a copy of the sorted distinct classes seen during Fit.
func (nb *GaussianNB) Classes() []int {
	out := make([]int, len(nb.classes_))
	copy(out, nb.classes_)
	return out
}

// NClasses returns the number of classes seen during Fit.
func (nb *GaussianNB) NClasses() int {
	return len(nb.classes_)
}

// NFeatures returns the number of features seen during Fit.
func (nb *GaussianNB) NFeatures() int {
	n, _ := nb.state.GetDimensions()
	return n
}

// Theta returns the per-class feature means as a k×d matrix.
func (nb *GaussianNB) Theta() *mat.Dense {
	return toDense(nb.theta_, nb.nFeatures_)
}

// Var returns the per-class feature variances as a k×d matrix.
func (nb *GaussianNB) Var() *mat.Dense {
	return toDense(nb.var_, nb.nFeatures_)
}

// ClassCount returns the number of training samples of each class.
func (nb *GaussianNB) ClassCount() []float64 {
	out := make([]float64, len(nb.classCount_))
	copy(out, nb.classCount_)
	return out
}

func toDense(rows [][]float64, cols int) *mat.Dense {
	if len(rows) == 0 || cols == 0 {
		return nil
	}
	m := mat.NewDense(len(rows), cols, nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}

// GetParams returns the model hyperparameters
func (nb *GaussianNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"var_smoothing":        nb.varSmoothing,
		"first_class_fallback": nb.firstClassFallback,
		"parallel_threshold":   nb.parallelThreshold,
	}
}

// SetParams sets the model hyperparameters
func (nb *GaussianNB) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "var_smoothing":
			v, ok := value.(float64)
			if !ok {
				return errors.NewValidationError(key, "must be float64", value)
			}
			nb.varSmoothing = v
		case "first_class_fallback":
			v, ok := value.(bool)
			if !ok {
				return errors.NewValidationError(key, "must be bool", value)
			}
			nb.firstClassFallback = v
		case "parallel_threshold":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be int", value)
			}
			nb.parallelThreshold = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

var (
	_ model.ProbabilisticClassifier = (*GaussianNB)(nil)
	_ model.SamplePredictor         = (*GaussianNB)(nil)
	_ model.ParameterGetter         = (*GaussianNB)(nil)
	_ model.ParameterSetter         = (*GaussianNB)(nil)
)
