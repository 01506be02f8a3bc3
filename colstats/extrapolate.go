package colstats

import (
	"math/big"
	"sort"
)

// extrapolator turns a sparse set of observed (pseudo-partition -> summary)
// samples into a single summary covering numParts partitions, via linear
// endpoint extrapolation to rightBorder = numParts.
//
// densityAvg is accepted for parity with the other column-type variants
// (long, double, ...), which use it to bias their extrapolation; the string
// variant does not use it.
type extrapolator struct {
	numParts          int
	numPartsWithStats int
	adjustedIndex     map[string]float64
	adjustedStats     map[string]StringColumnStats
	densityAvg        float64 //nolint:unused // kept for signature parity, see doc comment
}

// fieldSample is one observed data point for a single scalar field:
// sortKey orders the sample among its peers, value is what gets
// interpolated between the two endpoints of that ordering.
//
// For avgColLen and numDVs, sortKey and value are the same field. For
// maxColLen they deliberately are not: see the maxColLen projection in
// extrapolate.
type fieldSample struct {
	index   float64
	sortKey float64
	value   float64
}

// extrapolate runs the full four-field extrapolation and assembles the
// resulting StringColumnStats.
func (e *extrapolator) extrapolate() StringColumnStats {
	names := make([]string, 0, len(e.adjustedStats))
	for name := range e.adjustedStats {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic base ordering before the stable sort-by-value

	rightBorder := float64(e.numParts)

	avgColLen := extrapolateLinear(e.samples(names, func(s StringColumnStats) (sortKey, value float64) {
		return s.AvgColLen, s.AvgColLen
	}), rightBorder)

	// Known quirk, preserved from the source implementation: the endpoint
	// *values* used for maxColLen come from each sample's AvgColLen, even
	// though the sort key is MaxColLen.
	maxColLen := extrapolateLinear(e.samples(names, func(s StringColumnStats) (sortKey, value float64) {
		return float64(s.MaxColLen), s.AvgColLen
	}), rightBorder)

	numDVs := extrapolateLinear(e.samples(names, func(s StringColumnStats) (sortKey, value float64) {
		return float64(s.NumDVs), float64(s.NumDVs)
	}), rightBorder)

	return StringColumnStats{
		AvgColLen: avgColLen,
		MaxColLen: clampUint64(maxColLen),
		NumNulls:  e.extrapolateNumNulls(),
		NumDVs:    clampUint64(numDVs),
	}
}

// clampUint64 truncates f toward zero and floors negative results at 0.
// The maxColLen quirk documented on extrapolate (endpoint values borrowed
// from avgColLen) can drive the extrapolated line below zero even though
// the field is modeled as unsigned; spec §3 fixes non-negativity as the
// data model's only hard invariant, so the cast enforces it here rather
// than relying on undefined float-to-uint64 conversion behavior.
func clampUint64(f float64) uint64 {
	if f < 0 {
		return 0
	}
	return uint64(f)
}

func (e *extrapolator) samples(names []string, project func(StringColumnStats) (sortKey, value float64)) []fieldSample {
	out := make([]fieldSample, 0, len(names))
	for _, name := range names {
		sortKey, value := project(e.adjustedStats[name])
		out = append(out, fieldSample{
			index:   e.adjustedIndex[name],
			sortKey: sortKey,
			value:   value,
		})
	}
	return out
}

// extrapolateNumNulls scales the observed null count up to numParts
// partitions using integer arithmetic (multiply before divide), per spec.
// The intermediate product is computed in arbitrary precision to guard
// against overflow before dividing back down to a uint64.
func (e *extrapolator) extrapolateNumNulls() uint64 {
	var sum uint64
	for _, s := range e.adjustedStats {
		sum += s.NumNulls
	}

	product := new(big.Int).Mul(new(big.Int).SetUint64(sum), big.NewInt(int64(e.numParts)))
	product.Div(product, big.NewInt(int64(e.numPartsWithStats)))
	return product.Uint64()
}

// extrapolateLinear performs the endpoint extrapolation described in spec
// §4.3: sort samples by sortKey, take the value at the lowest and highest
// sortKey as the two endpoints, and linearly extend the line through them
// out to rightBorder using the samples' indices.
func extrapolateLinear(samples []fieldSample, rightBorder float64) float64 {
	sorted := make([]fieldSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].sortKey < sorted[j].sortKey
	})

	lo := sorted[0]
	hi := sorted[len(sorted)-1]

	minInd, maxInd := lo.index, hi.index
	loVal, hiVal := lo.value, hi.value

	switch {
	case minInd == maxInd:
		return loVal
	case minInd < maxInd:
		return loVal + (hiVal-loVal)*(rightBorder-minInd)/(maxInd-minInd)
	default:
		return loVal + (hiVal-loVal)*minInd/(minInd-maxInd)
	}
}
