package sketch

import "math"

// DefaultAlpha is the target relative error for bin widths, per spec: 5%.
const DefaultAlpha = 0.05

// DefaultOutlierCapacity is k, the number of exact outliers retained per
// tracker before the overflow spills into the log-binned histogram.
const DefaultOutlierCapacity = 10

// defaultTrivialTargetMS is the target (not final) trivial cutoff in
// milliseconds. The final cutoff is snapped to the nearest bin boundary at
// or above this target so that every bin — including the first — has a
// well-defined left edge.
const defaultTrivialTargetMS = 0.5

// Params holds the derived, immutable configuration shared by every
// TieredSketch created from the same Params value. Params is embedded
// verbatim into every exported snapshot so offline analysis can reproduce
// the bin math without guessing at the engine's build-time constants.
type Params struct {
	Alpha         float64 `json:"alpha"`
	Gamma         float64 `json:"gamma"`
	BinOffset     int     `json:"bin_offset"`
	TrivialCutoff float64 `json:"trivial_cutoff"`
	OutlierCap    int     `json:"outlier_capacity"`
}

// NewParams derives Params from a relative error and outlier capacity. It
// panics if alpha is not in (0, 1) or outlierCap is less than 1, since both
// are fixed engine-construction-time invariants, never runtime input.
func NewParams(alpha float64, outlierCap int) Params {
	if alpha <= 0 || alpha >= 1 {
		panic("sketch: alpha must be in (0, 1)")
	}
	if outlierCap < 1 {
		panic("sketch: outlierCap must be >= 1")
	}
	gamma := (1 + alpha) / (1 - alpha)
	offset := int(math.Ceil(logGamma(defaultTrivialTargetMS, gamma)))
	cutoff := math.Pow(gamma, float64(offset))
	return Params{
		Alpha:         alpha,
		Gamma:         gamma,
		BinOffset:     offset,
		TrivialCutoff: cutoff,
		OutlierCap:    outlierCap,
	}
}

// DefaultParams returns the spec's fixed tuning: alpha=0.05, k=10.
func DefaultParams() Params {
	return NewParams(DefaultAlpha, DefaultOutlierCapacity)
}

// Bin maps an observation strictly above TrivialCutoff to a bin index.
// The mapping is floor(log_gamma(x)) - BinOffset, which is the unique
// integer i such that LeftEdge(i) <= x < LeftEdge(i+1); see TestableProperties
// 3 and 4 and the accompanying DESIGN.md note on why floor (not the
// ceiling some DDSketch writeups use) is the formula that actually
// satisfies those two round-trip invariants.
func (p Params) Bin(x float64) int {
	// binEpsilon nudges past floating-point error that would otherwise floor
	// an exact bin boundary (x == LeftEdge(i) computed via math.Pow) down
	// into bin i-1.
	const binEpsilon = 1e-9
	m := int(math.Floor(logGamma(x, p.Gamma) + binEpsilon))
	return m - p.BinOffset
}

// LeftEdge returns the inclusive lower bound of bin i.
func (p Params) LeftEdge(i int) float64 {
	return math.Pow(p.Gamma, float64(i+p.BinOffset))
}

func logGamma(x, gamma float64) float64 {
	return math.Log(x) / math.Log(gamma)
}
