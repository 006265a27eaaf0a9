package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/farout/core/model"
	"github.com/YuminosukeSato/farout/metrics"
	"github.com/YuminosukeSato/farout/pkg/log"
	"github.com/YuminosukeSato/farout/pkg/plotting"
	"github.com/YuminosukeSato/farout/sklearn/datasets"
	"github.com/YuminosukeSato/farout/sklearn/model_selection"
	"github.com/YuminosukeSato/farout/sklearn/naive_bayes"
)

func addGeneratorFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("samples", datasets.DefaultNSamples, "number of points to generate")
	f.Float64("lower", datasets.DefaultLower, "inclusive lower coordinate bound")
	f.Float64("upper", datasets.DefaultUpper, "exclusive upper coordinate bound")
	f.Int64("seed", -1, "generator seed, negative for a random seed")
	f.Int("dimensions", datasets.DefaultDimensions, "coordinates per point")
	f.Int("segments", datasets.DefaultSegments, "number of distance bands")
	f.Int("min-samples", datasets.MinimumDataPoints, "smallest accepted --samples")
}

func addEvaluateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("test-size", model_selection.DefaultTestSize, "fraction of rows held out for testing")
	f.Bool("shuffle", false, "shuffle rows before splitting")
	f.Int64("split-seed", -1, "shuffle seed, negative for a random seed")
	f.Float64("var-smoothing", 0, "value added to every class variance")
	f.Bool("first-class-fallback", false, "predict the first class for rows with the wrong feature count")
	f.String("results", "FarOutData-Results.json", "results file, rows [x..., expected, predicted]")
	f.String("plot", "", "optional scatter plot of the results (.png, .svg, .pdf)")
}

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a distance-banded dataset as a JSON array of arrays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.generate(cmd.OutOrStdout())
			return err
		},
	}
	addGeneratorFlags(cmd)
	cmd.Flags().String("data", "FarOutData.json", "dataset file")
	return cmd
}

func (a *app) evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Fit on the head of a dataset file and report accuracy on the tail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := datasets.LoadJSON(a.cfg.Output.Data)
			if err != nil {
				return err
			}
			_, err = a.evaluate(cmd.OutOrStdout(), data, nil)
			return err
		},
	}
	cmd.Flags().String("data", "FarOutData.json", "dataset file")
	addEvaluateFlags(cmd)
	return cmd
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a dataset, then evaluate the classifier on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.generate(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			// Read the file back so the evaluation sees exactly what was written.
			data, err := datasets.LoadJSON(a.cfg.Output.Data)
			if err != nil {
				return err
			}
			_, err = a.evaluate(cmd.OutOrStdout(), data, boundaries(g.Params()))
			return err
		},
	}
	cmd.Flags().String("data", "FarOutData.json", "dataset file")
	addGeneratorFlags(cmd)
	addEvaluateFlags(cmd)
	return cmd
}

func (a *app) cvCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cv",
		Short: "Cross-validate the classifier on a dataset file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.crossValidate(cmd)
		},
	}
	f := cmd.Flags()
	f.String("data", "FarOutData.json", "dataset file")
	f.Int("folds", 5, "number of folds")
	f.Bool("stratified", false, "keep class proportions in every fold")
	f.Int64("split-seed", -1, "fold shuffle seed, negative for a random seed")
	f.Float64("var-smoothing", 0, "value added to every class variance")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.cfg.WriteTOML(cmd.OutOrStdout())
		},
	}
}

func (a *app) generate(out io.Writer) (*datasets.BandGenerator, error) {
	g, err := datasets.NewBandGenerator(a.cfg.GeneratorOptions()...)
	if err != nil {
		return nil, err
	}
	if err := g.GenerateFile(a.cfg.Output.Data); err != nil {
		return nil, err
	}
	log.GetLogger().Info("dataset written",
		log.PathKey, a.cfg.Output.Data,
		log.SamplesKey, g.Params().NSamples,
	)
	fmt.Fprintf(out, "wrote %d points to %s\n", g.Params().NSamples, a.cfg.Output.Data)
	return g, nil
}

func (a *app) newClassifier() model.Classifier {
	return naive_bayes.NewGaussianNB(
		naive_bayes.WithGNBVarSmoothing(a.cfg.Model.VarSmoothing),
		naive_bayes.WithGNBFirstClassFallback(a.cfg.Model.FirstClassFallback),
	)
}

// evaluate splits data, fits on the training rows and writes the results
// table for the test rows. It returns the test accuracy.
func (a *app) evaluate(out io.Writer, data mat.Matrix, radii []float64) (float64, error) {
	X, y, err := datasets.SplitXY(data)
	if err != nil {
		return 0, err
	}
	XTrain, XTest, yTrain, yTest, err := model_selection.TrainTestSplit(X, y, a.cfg.SplitOptions()...)
	if err != nil {
		return 0, err
	}

	clf := a.newClassifier()
	if err := clf.Fit(XTrain, yTrain); err != nil {
		return 0, err
	}
	pred, err := clf.Predict(XTest)
	if err != nil {
		return 0, err
	}
	predVec, err := metrics.ColumnVector("evaluate", pred)
	if err != nil {
		return 0, err
	}
	acc, err := metrics.Accuracy(yTest, predVec)
	if err != nil {
		return 0, err
	}

	results, err := datasets.JoinResults(XTest, yTest, pred)
	if err != nil {
		return 0, err
	}
	if err := datasets.SaveJSON(a.cfg.Output.Results, results); err != nil {
		return 0, err
	}
	if a.cfg.Output.Plot != "" {
		err := plotting.Results(results, a.cfg.Output.Plot,
			plotting.WithTitle(fmt.Sprintf("accuracy %.2f%%", acc*100)),
			plotting.WithBandBoundaries(radii...))
		if err != nil {
			return 0, err
		}
	}

	log.GetLogger().Info("evaluation completed",
		log.OperationKey, log.OperationScore,
		log.PhaseKey, log.PhaseTesting,
		log.SamplesKey, yTest.Len(),
		log.ClassesKey, len(clf.Classes()),
		log.AccuracyKey, acc,
		log.PathKey, a.cfg.Output.Results,
	)
	fmt.Fprintf(out, "accuracy: %.2f%% on %d test points, results in %s\n",
		acc*100, yTest.Len(), a.cfg.Output.Results)

	labels, recall, err := metrics.RecallPerClass(yTest, predVec)
	if err != nil {
		return 0, err
	}
	for i, l := range labels {
		fmt.Fprintf(out, "  band %g: recall %.4f\n", l, recall[i])
	}
	return acc, nil
}

func (a *app) crossValidate(cmd *cobra.Command) error {
	data, err := datasets.LoadJSON(a.cfg.Output.Data)
	if err != nil {
		return err
	}
	X, y, err := datasets.SplitXY(data)
	if err != nil {
		return err
	}

	var splitter model_selection.Splitter
	if a.cfg.CV.Stratified {
		splitter = model_selection.NewStratifiedKFold(a.cfg.CV.Folds, true, a.cfg.Split.Seed)
	} else {
		splitter = model_selection.NewKFold(a.cfg.CV.Folds, true, a.cfg.Split.Seed)
	}

	res, err := model_selection.CrossValScore(cmd.Context(), a.newClassifier, X, y, splitter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, s := range res.TestScores {
		fmt.Fprintf(out, "fold %d: train %.4f test %.4f\n", i, res.TrainScores[i], s)
	}
	fmt.Fprintf(out, "mean %.4f std %.4f\n", res.MeanScore(), res.StdScore())
	return nil
}

// boundaries returns the distances from the origin that separate the
// bands of a generator.
func boundaries(p datasets.BandParams) []float64 {
	radii := make([]float64, p.Segments+1)
	for i := range radii {
		radii[i] = p.LowerFromOrigin + float64(i)*p.SegmentDistance
	}
	return radii
}
