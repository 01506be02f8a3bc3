package hll

import "github.com/quarrydb/colstats/ndv"

// Family implements ndv.Family for dense HyperLogLog++ sketches.
type Family struct{}

var _ ndv.Family = Family{}

// FromBytes implements ndv.Family.
func (Family) FromBytes(b []byte) (ndv.Estimator, error) {
	h := &Plus{}
	if err := h.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return h, nil
}

// EmptyLike implements ndv.Family. proto must be a *Plus; any other type
// yields a default-precision sketch since there is no compatible template.
func (Family) EmptyLike(proto ndv.Estimator) ndv.Estimator {
	if p, ok := proto.(*Plus); ok {
		return MustNew(p.p)
	}
	return MustNew(DefaultPrecision)
}
