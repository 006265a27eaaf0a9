package model_selection

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/farout/core/model"
	"github.com/YuminosukeSato/farout/pkg/errors"
	"github.com/YuminosukeSato/farout/pkg/log"
)

// ClassifierFactory returns a fresh, unfitted classifier for one fold.
type ClassifierFactory func() model.Classifier

// CVResult stores cross-validation results, indexed by fold.
type CVResult struct {
	TrainScores []float64
	TestScores  []float64
	FitTimes    []time.Duration
	ScoreTimes  []time.Duration
}

// MeanScore returns the mean test score.
func (cv *CVResult) MeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0.0
	}
	return stat.Mean(cv.TestScores, nil)
}

// StdScore returns the sample standard deviation of the test scores.
func (cv *CVResult) StdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0.0
	}
	return stat.StdDev(cv.TestScores, nil)
}

// CrossValScore fits a fresh classifier on each training fold and scores it
// on the train and test rows. Folds run concurrently, at most NumCPU at a
// time; the first failing fold cancels the rest.
func CrossValScore(ctx context.Context, factory ClassifierFactory, X, y mat.Matrix, splitter Splitter) (*CVResult, error) {
	if factory == nil || splitter == nil {
		return nil, errors.NewValueError("CrossValScore", "factory and splitter must not be nil")
	}
	if X == nil || y == nil {
		return nil, errors.NewValueError("CrossValScore", "X and y must not be nil")
	}
	n, _ := X.Dims()
	if yRows, _ := y.Dims(); yRows != n {
		return nil, errors.NewDimensionError("CrossValScore", n, yRows, 0)
	}
	if n < splitter.GetNSplits() {
		return nil, errors.NewValidationError("n_splits", "cannot exceed the number of samples", splitter.GetNSplits())
	}

	folds := splitter.Split(X, y)
	for _, fold := range folds {
		if len(fold.TrainIndices) == 0 || len(fold.TestIndices) == 0 {
			return nil, errors.NewValidationError("n_splits", "leaves a fold with no train or test rows", splitter.GetNSplits())
		}
	}
	result := &CVResult{
		TrainScores: make([]float64, len(folds)),
		TestScores:  make([]float64, len(folds)),
		FitTimes:    make([]time.Duration, len(folds)),
		ScoreTimes:  make([]time.Duration, len(folds)),
	}
	logger := log.GetLoggerWithName("model_selection")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, fold := range folds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			err := errors.SafeExecute(fmt.Sprintf("CrossValScore fold %d", i), func() error {
				XTrain, yTrain := Subset(X, y, fold.TrainIndices)
				XTest, yTest := Subset(X, y, fold.TestIndices)

				clf := factory()
				start := time.Now()
				if err := clf.Fit(XTrain, yTrain); err != nil {
					return errors.Wrapf(err, "fold %d: fit", i)
				}
				result.FitTimes[i] = time.Since(start)

				start = time.Now()
				trainScore, err := clf.Score(XTrain, yTrain)
				if err != nil {
					return errors.Wrapf(err, "fold %d: score train", i)
				}
				testScore, err := clf.Score(XTest, yTest)
				if err != nil {
					return errors.Wrapf(err, "fold %d: score test", i)
				}
				result.ScoreTimes[i] = time.Since(start)
				result.TrainScores[i] = trainScore
				result.TestScores[i] = testScore
				return nil
			})
			if err != nil {
				return err
			}

			logger.Debug("fold scored",
				log.OperationKey, log.OperationCV,
				log.FoldKey, i,
				log.AccuracyKey, result.TestScores[i],
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("cross-validation completed",
		log.OperationKey, log.OperationCV,
		"folds", len(folds),
		log.AccuracyKey, result.MeanScore(),
	)
	return result, nil
}
