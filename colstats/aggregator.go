package colstats

import (
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/quarrydb/colstats/ndv"
	"github.com/quarrydb/colstats/ndv/hll"
)

// Aggregator merges per-partition StringColumnStats into a single summary
// describing a requested partition set. It is stateless and safe to reuse
// across concurrent calls: no field mutated by Aggregate is shared between
// calls.
type Aggregator struct {
	family ndv.Family
	logger *zap.Logger
}

// New returns an Aggregator that decodes sketches with family. A nil logger
// is replaced with a no-op logger, the way tsdb.Shard falls back to
// zap.NewNop() before WithLogger is called.
func New(family ndv.Family, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{family: family, logger: logger}
}

// NewDefault returns an Aggregator backed by the dense HyperLogLog++ sketch
// family in ndv/hll, the one this module ships as a concrete NDV estimator.
func NewDefault(logger *zap.Logger) *Aggregator {
	return New(hll.Family{}, logger)
}

// Aggregate validates req, classifies the situation (all-present vs sparse;
// sketches compatible or not), and returns the merged or extrapolated
// summary. The only error it returns is MalformedInputError.
func (a *Aggregator) Aggregate(req AggregationRequest) (*OutputStatsObj, error) {
	callID := uuid.New()
	log := a.logger.With(zap.String("call_id", callID.String()), zap.String("column", req.ColumnName))

	index, err := validate(req)
	if err != nil {
		log.Warn("rejecting malformed aggregation request", zap.Error(err))
		return nil, err
	}

	statsObj, err := newOutputStats(req.ColumnName, ColumnTypeString)
	if err != nil {
		return nil, NewMalformedInputError("colstats: %v", err)
	}

	template, sketchMode, err := a.scanSketches(req.Inputs)
	if err != nil {
		return nil, err
	}
	log.Debug("sketch compatibility scan complete", zap.Bool("sketch_mode", sketchMode))

	allPresent := len(req.RequestedPartitions) == len(req.Inputs)

	if allPresent || len(req.Inputs) < 2 {
		log.Debug("taking direct merge branch", zap.Bool("all_present", allPresent), zap.Int("inputs", len(req.Inputs)))
		data, err := a.directMerge(req.Inputs, template, sketchMode)
		if err != nil {
			return nil, err
		}
		statsObj.Data = data
		return statsObj, nil
	}

	log.Debug("taking extrapolation branch", zap.Int("requested", len(req.RequestedPartitions)), zap.Int("inputs", len(req.Inputs)))
	adjustedIndex, adjustedStats, err := a.buildExtrapolatorInputs(req, index, template, sketchMode)
	if err != nil {
		return nil, err
	}

	ex := &extrapolator{
		numParts:          len(req.RequestedPartitions),
		numPartsWithStats: len(req.Inputs),
		adjustedIndex:     adjustedIndex,
		adjustedStats:     adjustedStats,
		densityAvg:        -1.0,
	}
	statsObj.Data = ex.extrapolate()
	return statsObj, nil
}

// validate checks the AggregationRequest invariants from spec §3 and
// returns a name -> canonical index map for the requested partitions.
func validate(req AggregationRequest) (map[string]int, error) {
	if len(req.Inputs) == 0 {
		return nil, NewMalformedInputError("colstats: aggregation request for column %q has no inputs", req.ColumnName)
	}

	index := make(map[string]int, len(req.RequestedPartitions))
	for i, name := range req.RequestedPartitions {
		if name == "" {
			return nil, NewMalformedInputError("colstats: requested partition at position %d is empty", i)
		}
		index[name] = i
	}

	seen := roaring.NewBitmap()
	for _, in := range req.Inputs {
		if in.PartitionName == "" {
			return nil, NewMalformedInputError("colstats: input partition name is empty")
		}
		i, ok := index[in.PartitionName]
		if !ok {
			return nil, NewMalformedInputError("colstats: input references partition %q which was not requested", in.PartitionName)
		}
		if seen.ContainsInt(i) {
			return nil, NewMalformedInputError("colstats: partition %q appears more than once in inputs", in.PartitionName)
		}
		seen.AddInt(i)

		if in.Stats.AvgColLen < 0 {
			return nil, NewMalformedInputError("colstats: partition %q has negative avg_col_len", in.PartitionName)
		}
	}
	return index, nil
}

// scanSketches walks inputs in order deciding whether every one carries a
// mutually mergeable sketch. On success with sketchMode true, it returns a
// fresh empty accumulator sharing the first sketch's parameters (per spec
// §4.2, the scan seeds template_estimator then replaces it with
// empty_like(template_estimator) once compatibility is confirmed).
func (a *Aggregator) scanSketches(inputs []PartitionInput) (ndv.Estimator, bool, error) {
	var template ndv.Estimator
	for _, in := range inputs {
		if !in.Stats.hasSketch() {
			return nil, false, nil
		}

		e, err := a.family.FromBytes(in.Stats.Bitvectors)
		if err != nil {
			return nil, false, NewMalformedInputError("colstats: decoding sketch for partition %q: %v",
				in.PartitionName, pkgerrors.Wrap(err, "sketch decode"))
		}

		if template == nil {
			template = e
			continue
		}
		if !template.CanMerge(e) {
			return nil, false, nil
		}
	}
	return a.family.EmptyLike(template), true, nil
}

// directMerge implements spec §4.2 Branch A.
func (a *Aggregator) directMerge(inputs []PartitionInput, template ndv.Estimator, sketchMode bool) (StringColumnStats, error) {
	aggregate := inputs[0].Stats

	for i, in := range inputs {
		if i > 0 {
			s := in.Stats
			aggregate.MaxColLen = max64(aggregate.MaxColLen, s.MaxColLen)
			aggregate.AvgColLen = maxF(aggregate.AvgColLen, s.AvgColLen)
			aggregate.NumNulls += s.NumNulls
			aggregate.NumDVs = max64(aggregate.NumDVs, s.NumDVs)
		}
		if sketchMode {
			e, err := a.family.FromBytes(in.Stats.Bitvectors)
			if err != nil {
				return StringColumnStats{}, NewMalformedInputError("colstats: decoding sketch for partition %q: %v", in.PartitionName, err)
			}
			if err := template.Merge(e); err != nil {
				return StringColumnStats{}, NewMalformedInputError("colstats: merging sketch for partition %q: %v", in.PartitionName, err)
			}
		}
	}

	if sketchMode {
		aggregate.NumDVs = template.Estimate()
	}
	aggregate.Bitvectors = nil
	return aggregate, nil
}

// buildExtrapolatorInputs implements spec §4.2 Branch B, sub-cases B1 and
// B2, producing the two maps the extrapolator needs.
func (a *Aggregator) buildExtrapolatorInputs(
	req AggregationRequest,
	index map[string]int,
	template ndv.Estimator,
	sketchMode bool,
) (map[string]float64, map[string]StringColumnStats, error) {
	adjustedIndex := make(map[string]float64, len(req.Inputs))
	adjustedStats := make(map[string]StringColumnStats, len(req.Inputs))

	if !sketchMode {
		for _, in := range req.Inputs {
			adjustedIndex[in.PartitionName] = float64(index[in.PartitionName])
			adjustedStats[in.PartitionName] = in.Stats
		}
		return adjustedIndex, adjustedStats, nil
	}

	var (
		pseudoName strings.Builder
		indexSum   float64
		length     int
		group      StringColumnStats
		curIndex   = -1
	)

	closeGroup := func() {
		adjustedIndex[pseudoName.String()] = indexSum / float64(length)
		group.NumDVs = template.Estimate()
		adjustedStats[pseudoName.String()] = group
	}

	for _, in := range req.Inputs {
		i := index[in.PartitionName]

		if length > 0 && i != curIndex {
			closeGroup()
			pseudoName.Reset()
			indexSum = 0
			length = 0
			group = StringColumnStats{}
			template = a.family.EmptyLike(template)
		}

		pseudoName.WriteString(in.PartitionName)
		indexSum += float64(i)
		curIndex = i
		length++
		curIndex++

		if length == 1 {
			group.MaxColLen = in.Stats.MaxColLen
			group.AvgColLen = in.Stats.AvgColLen
			group.NumNulls = in.Stats.NumNulls
		} else {
			// Note the asymmetry with directMerge: grouping reduces
			// avg_col_len by min, direct merge by max. Reproduced from the
			// source as-is; see spec §9 Open Question 1.
			group.AvgColLen = minF(group.AvgColLen, in.Stats.AvgColLen)
			group.MaxColLen = max64(group.MaxColLen, in.Stats.MaxColLen)
			group.NumNulls += in.Stats.NumNulls
		}

		e, err := a.family.FromBytes(in.Stats.Bitvectors)
		if err != nil {
			return nil, nil, NewMalformedInputError("colstats: decoding sketch for partition %q: %v", in.PartitionName, err)
		}
		if err := template.Merge(e); err != nil {
			return nil, nil, NewMalformedInputError("colstats: merging sketch for partition %q: %v", in.PartitionName, err)
		}
	}

	if length > 0 {
		closeGroup()
	}

	return adjustedIndex, adjustedStats, nil
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
