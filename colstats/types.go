// Package colstats merges per-partition column statistics collected
// independently across a table's partitions into a single summary
// describing a requested partition set, following the shape of Hive's
// metastore column-stats aggregator: direct merge when every requested
// partition has stats, linear extrapolation over a canonical partition
// ordering when only some do.
//
// This package implements the string-column variant; the other scalar
// types (long, double, decimal, date, binary, boolean) share the same
// aggregate/extrapolate shape with type-specific fields and are not
// implemented here.
package colstats

// PartitionName identifies a partition of a logical table. It must be
// non-empty and unique within a single AggregationRequest.
type PartitionName = string

// ColumnType tags which scalar variant a StringColumnStats belongs to.
// Only String is implemented by this package; the others are declared so
// the factory in factory.go has a complete switch to reject against.
type ColumnType uint8

const (
	ColumnTypeUnspecified ColumnType = iota
	ColumnTypeString
	ColumnTypeLong
	ColumnTypeDouble
	ColumnTypeDecimal
	ColumnTypeDate
	ColumnTypeBinary
	ColumnTypeBoolean
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeLong:
		return "long"
	case ColumnTypeDouble:
		return "double"
	case ColumnTypeDecimal:
		return "decimal"
	case ColumnTypeDate:
		return "date"
	case ColumnTypeBinary:
		return "binary"
	case ColumnTypeBoolean:
		return "boolean"
	default:
		return "unspecified"
	}
}

// StringColumnStats is the per-partition (or merged) statistics summary for
// a string-valued column.
type StringColumnStats struct {
	// MaxColLen is the length in bytes of the longest observed value.
	MaxColLen uint64
	// AvgColLen is the mean length in bytes over non-null values.
	AvgColLen float64
	// NumNulls is the count of null values.
	NumNulls uint64
	// NumDVs is the best-known distinct-value count.
	NumDVs uint64
	// Bitvectors is the serialized NDV sketch for this partition. A nil or
	// empty slice means no sketch was collected for this partition.
	Bitvectors []byte
}

// hasSketch reports whether s carries a usable serialized NDV sketch.
func (s StringColumnStats) hasSketch() bool {
	return len(s.Bitvectors) > 0
}

// PartitionInput pairs one partition's statistics with the partition name
// they were collected for. A partition may appear at most once within a
// single AggregationRequest.
type PartitionInput struct {
	PartitionName PartitionName
	Stats         StringColumnStats
}

// AggregationRequest is the input to Aggregator.Aggregate. RequestedPartitions
// is the ordered list of partitions the caller wants a summary for; a
// partition's canonical index is its zero-based position in this list.
// Inputs need not cover every requested partition, but every input must name
// a partition present in RequestedPartitions.
type AggregationRequest struct {
	ColumnName          string
	RequestedPartitions []PartitionName
	Inputs              []PartitionInput
}

// OutputStatsObj is the result of one Aggregate call.
type OutputStatsObj struct {
	ColumnName string
	ColumnType ColumnType
	Data       StringColumnStats
}
