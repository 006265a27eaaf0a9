package main

import (
	"bytes"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/farout/pkg/errors"
	"github.com/YuminosukeSato/farout/sklearn/datasets"
	"github.com/YuminosukeSato/farout/sklearn/model_selection"
)

// EnvPrefix prefixes every environment override, e.g. FAROUT_GENERATOR_SAMPLES.
const EnvPrefix = "farout"

// Config is the effective configuration of a farout invocation.
type Config struct {
	Generator GeneratorConfig `mapstructure:"generator" toml:"generator"`
	Split     SplitConfig     `mapstructure:"split" toml:"split"`
	Model     ModelConfig     `mapstructure:"model" toml:"model"`
	Output    OutputConfig    `mapstructure:"output" toml:"output"`
	Log       LogConfig       `mapstructure:"log" toml:"log"`
	CV        CVConfig        `mapstructure:"cv" toml:"cv"`
}

type GeneratorConfig struct {
	Samples    int     `mapstructure:"samples" toml:"samples"`
	Lower      float64 `mapstructure:"lower" toml:"lower"`
	Upper      float64 `mapstructure:"upper" toml:"upper"`
	Seed       int64   `mapstructure:"seed" toml:"seed"`
	Dimensions int     `mapstructure:"dimensions" toml:"dimensions"`
	Segments   int     `mapstructure:"segments" toml:"segments"`
	MinSamples int     `mapstructure:"min_samples" toml:"min_samples"`
}

type SplitConfig struct {
	TestSize float64 `mapstructure:"test_size" toml:"test_size"`
	Shuffle  bool    `mapstructure:"shuffle" toml:"shuffle"`
	Seed     int64   `mapstructure:"seed" toml:"seed"`
}

type ModelConfig struct {
	VarSmoothing       float64 `mapstructure:"var_smoothing" toml:"var_smoothing"`
	FirstClassFallback bool    `mapstructure:"first_class_fallback" toml:"first_class_fallback"`
}

type OutputConfig struct {
	Data    string `mapstructure:"data" toml:"data"`
	Results string `mapstructure:"results" toml:"results"`
	// Plot is optional; no plot is written when empty.
	Plot string `mapstructure:"plot" toml:"plot"`
}

type LogConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	// Warnings selects the sink for numerical warnings: "stderr" or "off".
	Warnings string `mapstructure:"warnings" toml:"warnings"`
}

type CVConfig struct {
	Folds      int  `mapstructure:"folds" toml:"folds"`
	Stratified bool `mapstructure:"stratified" toml:"stratified"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("generator.samples", datasets.DefaultNSamples)
	v.SetDefault("generator.lower", datasets.DefaultLower)
	v.SetDefault("generator.upper", datasets.DefaultUpper)
	v.SetDefault("generator.seed", -1)
	v.SetDefault("generator.dimensions", datasets.DefaultDimensions)
	v.SetDefault("generator.segments", datasets.DefaultSegments)
	v.SetDefault("generator.min_samples", datasets.MinimumDataPoints)

	v.SetDefault("split.test_size", model_selection.DefaultTestSize)
	v.SetDefault("split.shuffle", false)
	v.SetDefault("split.seed", -1)

	v.SetDefault("model.var_smoothing", 0.0)
	v.SetDefault("model.first_class_fallback", false)

	v.SetDefault("output.data", "FarOutData.json")
	v.SetDefault("output.results", "FarOutData-Results.json")
	v.SetDefault("output.plot", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.warnings", "stderr")

	v.SetDefault("cv.folds", 5)
	v.SetDefault("cv.stratified", false)
}

// newViper returns a viper instance with defaults and environment
// overrides installed.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the optional config file and decodes the merged
// settings. Precedence: flags, environment, file, defaults.
func loadConfig(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", file)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that are not validated by the library
// constructors themselves.
func (c *Config) Validate() error {
	switch c.Log.Warnings {
	case "stderr", "off":
	default:
		return errors.NewValidationError("log.warnings", "must be stderr or off", c.Log.Warnings)
	}
	if c.CV.Folds < 2 {
		return errors.NewValidationError("cv.folds", "must be at least 2", c.CV.Folds)
	}
	if c.Output.Data == "" {
		return errors.NewValidationError("output.data", "must not be empty", c.Output.Data)
	}
	return nil
}

// GeneratorOptions maps the generator section onto BandGenerator options.
func (c *Config) GeneratorOptions() []datasets.BandOption {
	g := c.Generator
	return []datasets.BandOption{
		datasets.WithBandBounds(g.Lower, g.Upper),
		datasets.WithBandNSamples(g.Samples),
		datasets.WithBandRandomState(g.Seed),
		datasets.WithBandDimensions(g.Dimensions),
		datasets.WithBandSegments(g.Segments),
		datasets.WithBandMinSamples(g.MinSamples),
	}
}

// SplitOptions maps the split section onto TrainTestSplit options.
func (c *Config) SplitOptions() []model_selection.SplitOption {
	return []model_selection.SplitOption{
		model_selection.WithTestSize(c.Split.TestSize),
		model_selection.WithShuffle(c.Split.Shuffle),
		model_selection.WithRandomState(c.Split.Seed),
	}
}

// WriteTOML encodes the configuration as TOML.
func (c *Config) WriteTOML(w io.Writer) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return errors.Wrap(err, "encode config")
	}
	_, err := w.Write(buf.Bytes())
	return err
}
