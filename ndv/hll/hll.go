// Package hll contains a dense HyperLogLog++ implementation adapted from the
// one described in http://static.googleusercontent.com/media/research.google.com/en//pubs/archive/40671.pdf
// and from the influxdb pkg/estimator/hll package, trimmed to the
// dense-only representation: colstats sketches are built once per partition
// scan and merged a handful of times, so the sparse/dense hybrid the
// upstream package uses to keep single-series cardinality sketches small in
// memory buys nothing here.
package hll

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/cespare/xxhash/v2"

	"github.com/quarrydb/colstats/ndv"
)

// DefaultPrecision is used when callers don't need to tune the
// space/accuracy tradeoff.
const DefaultPrecision uint8 = 14

// version tags the wire format so a future incompatible change can be
// detected during UnmarshalBinary.
const version uint8 = 1

// Plus implements the ndv.Estimator interface with a dense HyperLogLog++
// register set.
type Plus struct {
	p     uint8 // precision
	m     uint32
	alpha float64

	registers []uint8
}

var _ ndv.Estimator = (*Plus)(nil)

// New returns a new Plus with precision p. p must be between 4 and 18.
func New(p uint8) (*Plus, error) {
	if p < 4 || p > 18 {
		return nil, errInvalidPrecision(p)
	}

	h := &Plus{
		p:         p,
		m:         1 << p,
		registers: make([]uint8, 1<<p),
	}
	h.alpha = alphaFor(h.m)
	return h, nil
}

// MustNew is like New but panics on error. Useful for package-level defaults.
func MustNew(p uint8) *Plus {
	h, err := New(p)
	if err != nil {
		panic(err)
	}
	return h
}

func alphaFor(m uint32) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	default:
		return 0.7213 / (1 + 1.079/float64(m))
	}
}

// Add hashes v and folds it into the sketch.
func (h *Plus) Add(v []byte) {
	x := xxhash.Sum64(v)
	i := bextr(x, 64-uint(h.p), uint(h.p))
	w := x<<h.p | 1<<(h.p-1)

	rho := uint8(bits.LeadingZeros64(w)) + 1
	if rho > h.registers[i] {
		h.registers[i] = rho
	}
}

// Estimate implements ndv.Estimator.
func (h *Plus) Estimate() uint64 {
	sum := 0.0
	var zeros uint32
	for _, v := range h.registers {
		sum += 1.0 / float64(uint32(1)<<v)
		if v == 0 {
			zeros++
		}
	}
	est := h.alpha * float64(h.m) * float64(h.m) / sum

	if zeros > 0 {
		lc := linearCount(h.m, zeros)
		// Below roughly 2.5m, linear counting is more accurate than the raw
		// HLL estimator; above it the two agree closely enough that the
		// raw estimate is used directly.
		if float64(h.m)*2.5 > lc {
			return uint64(lc)
		}
	}
	return uint64(est)
}

// CanMerge implements ndv.Estimator.
func (h *Plus) CanMerge(other ndv.Estimator) bool {
	o, ok := other.(*Plus)
	if !ok {
		return false
	}
	return h.p == o.p
}

// Merge implements ndv.Estimator. It requires CanMerge(other) to hold.
func (h *Plus) Merge(other ndv.Estimator) error {
	o, ok := other.(*Plus)
	if !ok {
		return errIncompatible(other)
	}
	if h.p != o.p {
		return errIncompatible(other)
	}
	for i, v := range o.registers {
		if v > h.registers[i] {
			h.registers[i] = v
		}
	}
	return nil
}

// MarshalBinary implements ndv.Estimator.
func (h *Plus) MarshalBinary() ([]byte, error) {
	data := make([]byte, 0, 6+len(h.registers))
	data = append(data, version, h.p)
	var szBuf [4]byte
	binary.BigEndian.PutUint32(szBuf[:], uint32(len(h.registers)))
	data = append(data, szBuf[:]...)
	data = append(data, h.registers...)
	return data, nil
}

// UnmarshalBinary parses the wire format produced by MarshalBinary.
func (h *Plus) UnmarshalBinary(data []byte) error {
	if len(data) < 6 {
		return errTruncated(len(data))
	}
	if data[0] != version {
		return errUnknownVersion(data[0])
	}
	p := data[1]
	sz := binary.BigEndian.Uint32(data[2:6])
	if len(data) < 6+int(sz) {
		return errTruncated(len(data))
	}

	nh, err := New(p)
	if err != nil {
		return err
	}
	if uint32(len(nh.registers)) != sz {
		return errRegisterCountMismatch(sz, uint32(len(nh.registers)))
	}
	copy(nh.registers, data[6:6+sz])
	*h = *nh
	return nil
}

func linearCount(m uint32, zeros uint32) float64 {
	fm := float64(m)
	return fm * math.Log(fm/float64(zeros))
}

// bextr extracts length bits from v starting at bit start (LSB-relative).
func bextr(v uint64, start, length uint) uint64 {
	return (v >> start) & ((1 << length) - 1)
}
