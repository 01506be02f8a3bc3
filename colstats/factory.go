package colstats

// newOutputStats produces an empty OutputStatsObj tagged with columnName and
// columnType, the way Hive's ColumnStatsAggregatorFactory.newColumnStaticsObj
// dispatches on the declared statistics field to build an empty holder
// before it gets populated by the aggregator. Only ColumnTypeString is
// implemented; every other tag is a seam left for the other six type
// variants named in this package's doc comment.
func newOutputStats(columnName string, columnType ColumnType) (*OutputStatsObj, error) {
	if columnType != ColumnTypeString {
		return nil, ErrUnsupportedColumnType(columnType)
	}
	return &OutputStatsObj{
		ColumnName: columnName,
		ColumnType: ColumnTypeString,
	}, nil
}
