// Package datasets generates and loads labeled numeric datasets.
//
// A dataset is a *mat.Dense whose last column holds the class label and
// whose other columns are features. On disk it is a JSON array of arrays
// of numbers, one inner array per row.
package datasets

import (
	"io"
	"math"
	"math/rand/v2"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/farout/pkg/errors"
	"github.com/YuminosukeSato/farout/pkg/log"
)

// Default generator parameters.
const (
	MinimumDataPoints = 1000
	DefaultNSamples   = 10000
	DefaultLower      = 0.0
	DefaultUpper      = 10.0
	DefaultDimensions = 2
	DefaultSegments   = 2
)

// BandGenerator draws points uniformly from the hypercube [lower, upper)^d
// and labels each with the index of the distance band it falls in.
//
// The distance range between the corner (lower, ..., lower) and the corner
// (upper, ..., upper), both measured from the origin, is cut into k equal
// bands. A point's label is floor((‖p‖ - lowerFromOrigin) / segmentDistance).
// Labels are not clamped: a point nearer the origin than the lower corner
// gets a negative band and the upper corner itself gets band k.
//
// A BandGenerator owns its random source; successive Generate calls
// continue the same stream. It is not safe for concurrent use.
type BandGenerator struct {
	lower       float64
	upper       float64
	nSamples    int
	randomState int64
	dimensions  int
	segments    int
	minSamples  int

	lowerFromOrigin float64
	upperFromOrigin float64
	segmentDistance float64

	coord distuv.Uniform
}

// BandOption is a functional option for BandGenerator
type BandOption func(*BandGenerator)

// BandParams describes a configured generator.
type BandParams struct {
	Lower           float64 `json:"lower" toml:"lower"`
	Upper           float64 `json:"upper" toml:"upper"`
	NSamples        int     `json:"samples" toml:"samples"`
	RandomState     int64   `json:"seed" toml:"seed"`
	Dimensions      int     `json:"dimensions" toml:"dimensions"`
	Segments        int     `json:"segments" toml:"segments"`
	LowerFromOrigin float64 `json:"lower_from_origin" toml:"lower_from_origin"`
	UpperFromOrigin float64 `json:"upper_from_origin" toml:"upper_from_origin"`
	SegmentDistance float64 `json:"segment_distance" toml:"segment_distance"`
}

// WithBandBounds sets the coordinate range [lower, upper).
func WithBandBounds(lower, upper float64) BandOption {
	return func(g *BandGenerator) {
		g.lower = lower
		g.upper = upper
	}
}

// WithBandNSamples sets the number of rows produced by Generate.
func WithBandNSamples(n int) BandOption {
	return func(g *BandGenerator) {
		g.nSamples = n
	}
}

// WithBandRandomState seeds the random source. A negative seed draws a
// fresh seed from the runtime.
func WithBandRandomState(seed int64) BandOption {
	return func(g *BandGenerator) {
		g.randomState = seed
	}
}

// WithBandDimensions sets the number of coordinates per point.
func WithBandDimensions(d int) BandOption {
	return func(g *BandGenerator) {
		g.dimensions = d
	}
}

// WithBandSegments sets the number of distance bands.
func WithBandSegments(k int) BandOption {
	return func(g *BandGenerator) {
		g.segments = k
	}
}

// WithBandMinSamples overrides MinimumDataPoints as the lower limit for
// WithBandNSamples.
func WithBandMinSamples(m int) BandOption {
	return func(g *BandGenerator) {
		g.minSamples = m
	}
}

// NewBandGenerator validates the options and precomputes the band geometry.
func NewBandGenerator(opts ...BandOption) (*BandGenerator, error) {
	g := &BandGenerator{
		lower:       DefaultLower,
		upper:       DefaultUpper,
		nSamples:    DefaultNSamples,
		randomState: -1,
		dimensions:  DefaultDimensions,
		segments:    DefaultSegments,
		minSamples:  MinimumDataPoints,
	}
	for _, opt := range opts {
		opt(g)
	}

	switch {
	case math.IsNaN(g.lower) || math.IsInf(g.lower, 0) || math.IsNaN(g.upper) || math.IsInf(g.upper, 0):
		return nil, errors.NewValidationError("lower/upper", "bounds must be finite", [2]float64{g.lower, g.upper})
	case g.lower >= g.upper:
		return nil, errors.NewValidationError("lower", "must be less than upper", g.lower)
	case g.minSamples < 1:
		return nil, errors.NewValidationError("min_samples", "must be at least 1", g.minSamples)
	case g.nSamples < g.minSamples:
		return nil, errors.NewValidationError("samples", "must be greater than or equal to min_samples", g.nSamples)
	case g.dimensions < 1:
		return nil, errors.NewValidationError("dimensions", "must be at least 1", g.dimensions)
	case g.segments < 1:
		return nil, errors.NewValidationError("segments", "must be at least 1", g.segments)
	}

	// Corner distances go through the same norm as Band so that the upper
	// corner lands exactly on band k.
	g.lowerFromOrigin = math.Copysign(cornerDistance(g.lower, g.dimensions), g.lower)
	g.upperFromOrigin = math.Copysign(cornerDistance(g.upper, g.dimensions), g.upper)
	g.segmentDistance = (g.upperFromOrigin - g.lowerFromOrigin) / float64(g.segments)

	var src *rand.PCG
	if g.randomState >= 0 {
		src = rand.NewPCG(uint64(g.randomState), uint64(g.randomState))
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	g.coord = distuv.Uniform{Min: g.lower, Max: g.upper, Src: src}

	return g, nil
}

func cornerDistance(v float64, d int) float64 {
	corner := make([]float64, d)
	for i := range corner {
		corner[i] = v
	}
	return floats.Norm(corner, 2)
}

// Params returns the generator configuration and derived band geometry.
func (g *BandGenerator) Params() BandParams {
	return BandParams{
		Lower:           g.lower,
		Upper:           g.upper,
		NSamples:        g.nSamples,
		RandomState:     g.randomState,
		Dimensions:      g.dimensions,
		Segments:        g.segments,
		LowerFromOrigin: g.lowerFromOrigin,
		UpperFromOrigin: g.upperFromOrigin,
		SegmentDistance: g.segmentDistance,
	}
}

// Band returns the distance band of point. The result is not clamped to
// [0, segments).
func (g *BandGenerator) Band(point []float64) float64 {
	return math.Floor((floats.Norm(point, 2) - g.lowerFromOrigin) / g.segmentDistance)
}

// Generate returns nSamples rows of d uniform coordinates followed by the
// band label.
func (g *BandGenerator) Generate() *mat.Dense {
	start := time.Now()
	d := g.dimensions
	data := mat.NewDense(g.nSamples, d+1, nil)

	point := make([]float64, d)
	for i := 0; i < g.nSamples; i++ {
		for j := range point {
			point[j] = g.coord.Rand()
		}
		row := data.RawRowView(i)
		copy(row, point)
		row[d] = g.Band(point)
	}

	log.GetLoggerWithName("datasets").Info("dataset generated",
		log.OperationKey, log.OperationGenerate,
		log.SamplesKey, g.nSamples,
		log.FeaturesKey, d,
		log.SegmentsKey, g.segments,
		log.LowerBoundKey, g.lower,
		log.UpperBoundKey, g.upper,
		log.SegmentDistanceKey, g.segmentDistance,
		log.RandomSeedKey, g.randomState,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return data
}

// GenerateTo writes a freshly generated dataset to w as a JSON array of arrays.
func (g *BandGenerator) GenerateTo(w io.Writer) error {
	if w == nil {
		return errors.NewValueError("BandGenerator.GenerateTo", "writer must not be nil")
	}
	return WriteJSON(w, g.Generate())
}

// GenerateFile writes a freshly generated dataset to the named file,
// creating or truncating it.
func (g *BandGenerator) GenerateFile(name string) (err error) {
	if name == "" {
		return errors.NewValueError("BandGenerator.GenerateFile", "file name must not be empty")
	}
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", name)
		}
	}()
	return g.GenerateTo(f)
}
