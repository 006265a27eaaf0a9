// Command farout generates distance-banded datasets and evaluates a
// Gaussian Naive Bayes classifier on them.
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/farout/pkg/log"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":            "log.level",
	"warnings":             "log.warnings",
	"samples":              "generator.samples",
	"lower":                "generator.lower",
	"upper":                "generator.upper",
	"seed":                 "generator.seed",
	"dimensions":           "generator.dimensions",
	"segments":             "generator.segments",
	"min-samples":          "generator.min_samples",
	"test-size":            "split.test_size",
	"shuffle":              "split.shuffle",
	"split-seed":           "split.seed",
	"var-smoothing":        "model.var_smoothing",
	"first-class-fallback": "model.first_class_fallback",
	"data":                 "output.data",
	"results":              "output.results",
	"plot":                 "output.plot",
	"folds":                "cv.folds",
	"stratified":           "cv.stratified",
}

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *Config
}

// newRootCmd builds a fresh command tree. Tests call it once per case.
func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:           "farout",
		Short:         "Gaussian Naive Bayes on distance-banded synthetic data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "TOML config file")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("warnings", "stderr", "numerical warning sink (stderr, off)")

	root.AddCommand(
		a.generateCmd(),
		a.evaluateCmd(),
		a.runCmd(),
		a.cvCmd(),
		a.configCmd(),
	)
	return root
}

// init binds the flags of the executing command, loads the configuration
// and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = a.v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := loadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := log.SetupLogger(cmd.ErrOrStderr(), cfg.Log.Level); err != nil {
		return err
	}
	if cfg.Log.Warnings == "off" {
		log.EnableZerologWarnings(io.Discard)
	} else {
		log.EnableZerologWarnings(cmd.ErrOrStderr())
	}
	if a.cfgFile != "" {
		log.GetLogger().Debug("config loaded", log.ConfigFileKey, a.cfgFile)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.GetLogger().Error("farout failed", err)
		os.Exit(1)
	}
}
