package colstats

import "fmt"

// MalformedInputError is the single error kind an Aggregate call can fail
// with: a request that does not satisfy the data-model invariants in
// AggregationRequest, or a sketch that fails to deserialize.
type MalformedInputError string

// NewMalformedInputError returns a new MalformedInputError instance.
func NewMalformedInputError(formatStr string, args ...interface{}) MalformedInputError {
	return MalformedInputError(fmt.Sprintf(formatStr, args...))
}

// Error returns the string representation of the error.
func (e MalformedInputError) Error() string {
	return string(e)
}

// ErrUnsupportedColumnType is returned by the output-summary factory when
// asked to build a summary for a column type this package does not
// implement (everything but ColumnTypeString).
type ErrUnsupportedColumnType ColumnType

func (e ErrUnsupportedColumnType) Error() string {
	return fmt.Sprintf("colstats: unsupported column type %s", ColumnType(e))
}
