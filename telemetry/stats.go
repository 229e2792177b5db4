package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"github.com/pthm-cable/stablefluids/fluid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Density distribution at window end
	Mass        float64 `csv:"mass"`
	DensityMax  float64 `csv:"density_max"`
	DensityMean float64 `csv:"density_mean"`
	DensityStd  float64 `csv:"density_std"`
	DensityP50  float64 `csv:"density_p50"`
	DensityP90  float64 `csv:"density_p90"`

	// Velocity field health at window end
	KineticEnergy float64 `csv:"kinetic_energy"`
	MaxDivergence float64 `csv:"max_divergence"`

	// Injection during window
	InjectedMass float64 `csv:"injected_mass"`
	Splats       int     `csv:"splats"`
	Emitters     int     `csv:"emitters"`
}

// FieldStats summarises the density and velocity of a simulation.
type FieldStats struct {
	Mass          float64
	DensityMax    float64
	DensityMean   float64
	DensityStd    float64
	DensityP50    float64
	DensityP90    float64
	KineticEnergy float64
	MaxDivergence float64
}

// FieldSampler computes FieldStats, reusing its buffers between calls.
type FieldSampler struct {
	density []float64
	speedSq []float64
	raw     []float32
	div     *fluid.Grid
}

// Sample measures s. The divergence pass writes only the sampler's own
// scratch grid, so s is left untouched.
func (fs *FieldSampler) Sample(s *fluid.Simulation) FieldStats {
	n := s.N
	if fs.div == nil || fs.div.N != n {
		fs.div = fluid.NewGrid(n)
	}

	fs.raw = s.DensityInterior(fs.raw)
	fs.density = widen(fs.density, fs.raw)

	var st FieldStats
	st.Mass = floats.Sum(fs.density)
	st.DensityMax = floats.Max(fs.density)
	st.DensityMean, st.DensityStd = stat.PopMeanStdDev(fs.density, nil)

	sorted := sortedCopy(fs.density)
	st.DensityP50 = Percentile(sorted, 0.50)
	st.DensityP90 = Percentile(sorted, 0.90)

	fs.raw = fluid.Interior(s.U.Cur, fs.raw)
	fs.speedSq = widen(fs.speedSq, fs.raw)
	floats.Mul(fs.speedSq, fs.speedSq)
	fs.raw = fluid.Interior(s.V.Cur, fs.raw)
	for i, v := range fs.raw {
		fs.speedSq[i] += float64(v) * float64(v)
	}
	// Cell area h² turns the sum into an integral over the unit square.
	h := 1 / float64(n)
	st.KineticEnergy = 0.5 * floats.Sum(fs.speedSq) * h * h

	st.MaxDivergence = float64(fluid.Divergence(s.U.Cur, s.V.Cur, fs.div))
	return st
}

func widen(dst []float64, src []float32) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = float64(v)
	}
	return dst
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}

// Percentile returns the p-th quantile of a sorted slice, linearly
// interpolating the empirical distribution. p is clamped to [0, 1].
// Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = math.Min(math.Max(p, 0), 1)
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// IsFinite reports whether every statistic is a finite number. A solver
// that has gone unstable shows up here first.
func (s FieldStats) IsFinite() bool {
	for _, v := range []float64{s.Mass, s.DensityMax, s.DensityMean, s.DensityStd, s.KineticEnergy, s.MaxDivergence} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// IsFinite reports whether the field statistics of the window are finite.
func (s WindowStats) IsFinite() bool {
	return FieldStats{
		Mass:          s.Mass,
		DensityMax:    s.DensityMax,
		DensityMean:   s.DensityMean,
		DensityStd:    s.DensityStd,
		KineticEnergy: s.KineticEnergy,
		MaxDivergence: s.MaxDivergence,
	}.IsFinite()
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("mass", s.Mass),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_p50", s.DensityP50),
		slog.Float64("density_p90", s.DensityP90),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("max_divergence", s.MaxDivergence),
		slog.Float64("injected_mass", s.InjectedMass),
		slog.Int("splats", s.Splats),
		slog.Int("emitters", s.Emitters),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"mass", s.Mass,
		"density_max", s.DensityMax,
		"density_mean", s.DensityMean,
		"density_std", s.DensityStd,
		"kinetic_energy", s.KineticEnergy,
		"max_divergence", s.MaxDivergence,
		"injected_mass", s.InjectedMass,
		"splats", s.Splats,
		"emitters", s.Emitters,
	)
}
