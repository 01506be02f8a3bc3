// Package ndv defines the contract that concrete number-of-distinct-values
// sketches must satisfy to be merged and extrapolated over by colstats.
//
// Implementations are treated as opaque handles by callers: the only thing
// that ever crosses the boundary is a serialized blob (StringColumnStats'
// Bitvectors field) and the four operations below. See ndv/hll for the one
// concrete implementation this module ships.
package ndv

// Estimator is a mergeable distinct-value sketch.
//
// Implementations must guarantee:
//   - CanMerge is symmetric and reflexive.
//   - Merge is associative and commutative; Estimate depends only on the
//     multiset of values ever added or merged in.
//   - EmptyLike(proto) is the identity element for Merge.
type Estimator interface {
	// CanMerge reports whether other is structurally compatible with e
	// (same sketch family, same parameters) and can be folded in with Merge.
	CanMerge(other Estimator) bool

	// Merge folds other into e. Callers must check CanMerge first; Merge
	// may panic or return incorrect results otherwise.
	Merge(other Estimator) error

	// Estimate returns the current distinct-value estimate.
	Estimate() uint64

	// MarshalBinary serializes the sketch to the wire format understood by
	// the matching Family's FromBytes.
	MarshalBinary() ([]byte, error)
}

// Family constructs and reconstructs Estimators of one sketch kind.
type Family interface {
	// FromBytes deserializes a sketch previously produced by
	// Estimator.MarshalBinary. It returns an error if the bytes are not a
	// well-formed sketch of this family.
	FromBytes(b []byte) (Estimator, error)

	// EmptyLike returns a zeroed sketch with the same parameters as proto,
	// suitable as a fresh accumulator or as the identity element for Merge.
	EmptyLike(proto Estimator) Estimator
}
