// Package farout fits and evaluates a Gaussian Naive Bayes classifier on
// synthetic, distance-banded datasets.
//
// Points are drawn uniformly from the hypercube [lower, upper)^d and
// labelled by how far they lie from the origin: the distance range between
// the cube's lower and upper corners is cut into equal-width bands, and
// each point's label is the index of its band. The classifier has to
// recover these radial bands from per-feature Gaussian likelihoods.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/farout/sklearn/datasets"
//	    "github.com/YuminosukeSato/farout/sklearn/model_selection"
//	    "github.com/YuminosukeSato/farout/sklearn/naive_bayes"
//	)
//
//	func main() {
//	    g, err := datasets.NewBandGenerator(datasets.WithBandRandomState(42))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    X, y, err := datasets.SplitXY(g.Generate())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    // First 90% for training, last 10% for testing
//	    XTrain, XTest, yTrain, yTest, err := model_selection.TrainTestSplit(X, y)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    model := naive_bayes.NewGaussianNB()
//	    if err := model.Fit(XTrain, yTrain); err != nil {
//	        log.Fatal(err)
//	    }
//	    acc, err := model.Score(XTest, yTest)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("accuracy: %.2f%%\n", acc*100)
//	}
//
// # Packages
//
//   - sklearn/naive_bayes: GaussianNB classifier
//   - sklearn/datasets: BandGenerator and JSON array-of-arrays I/O
//   - sklearn/model_selection: TrainTestSplit, KFold, CrossValScore
//   - metrics: Accuracy, ClassificationError, ConfusionMatrix
//   - core/model: estimator interfaces and fitted-state management
//   - core/parallel: chunked parallel execution for batch prediction
//   - pkg/errors, pkg/log: error types, warnings and structured logging
//   - pkg/plotting: scatter plots of datasets and results
//
// The farout command (cmd/farout) wraps the same pipeline:
//
//	farout run --samples 1000 --seed 42 --plot results.png
//	farout cv --folds 5 --stratified
//	farout config
package farout
