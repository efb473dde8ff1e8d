package engine

import "strconv"

// Common types used across the engine

// Row is a single result record keyed by column name
type Row map[string]string

// QueryData is an ordered set of rows as produced by a backend
type QueryData []Row

// ColumnType represents the declared type of a virtual table column
type ColumnType int

const (
	ColumnTypeUnknown ColumnType = iota
	ColumnTypeText
	ColumnTypeInteger
	ColumnTypeBigInt
	ColumnTypeUnsignedBigInt
	ColumnTypeDouble
	ColumnTypeBlob

	// numColumnTypes must stay last.
	numColumnTypes
)

var columnTypeNames = map[ColumnType]string{
	ColumnTypeUnknown:        "UNKNOWN",
	ColumnTypeText:           "TEXT",
	ColumnTypeInteger:        "INTEGER",
	ColumnTypeBigInt:         "BIGINT",
	ColumnTypeUnsignedBigInt: "UNSIGNED BIGINT",
	ColumnTypeDouble:         "DOUBLE",
	ColumnTypeBlob:           "BLOB",
}

// String returns the canonical name of the column type
func (t ColumnType) String() string {
	if name, ok := columnTypeNames[t]; ok {
		return name
	}
	return "ColumnType(" + strconv.Itoa(int(t)) + ")"
}

// Defined reports whether t is one of the declared column types
func (t ColumnType) Defined() bool {
	_, ok := columnTypeNames[t]
	return ok
}

// ColumnTypes returns every defined column type in declaration order
func ColumnTypes() []ColumnType {
	types := make([]ColumnType, 0, numColumnTypes)
	for t := ColumnTypeUnknown; t < numColumnTypes; t++ {
		types = append(types, t)
	}
	return types
}

// ColumnOptions is a bit set of column behaviors
type ColumnOptions uint32

const (
	ColumnOptionDefault ColumnOptions = 0
	ColumnOptionIndex   ColumnOptions = 1 << (iota - 1)
	ColumnOptionRequired
	ColumnOptionAdditional
	ColumnOptionOptimized
	ColumnOptionHidden
	ColumnOptionCollateBinary
)

// Has reports whether every flag in o is set
func (c ColumnOptions) Has(o ColumnOptions) bool {
	return c&o == o
}

// ColumnDefinition describes one reported column
type ColumnDefinition struct {
	Name    string
	Type    ColumnType
	Options ColumnOptions
}

// TableColumns is an ordered column schema
type TableColumns []ColumnDefinition

// Names returns the column names in order
func (tc TableColumns) Names() []string {
	names := make([]string, len(tc))
	for i, c := range tc {
		names[i] = c.Name
	}
	return names
}

// Find looks a column up by name
func (tc TableColumns) Find(name string) (ColumnDefinition, bool) {
	for _, c := range tc {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDefinition{}, false
}

// FilterOperator represents filter operation types
type FilterOperator string

const (
	FilterOpEqual     FilterOperator = "="
	FilterOpNotEqual  FilterOperator = "!="
	FilterOpGreater   FilterOperator = ">"
	FilterOpLess      FilterOperator = "<"
	FilterOpGreaterEq FilterOperator = ">="
	FilterOpLessEq    FilterOperator = "<="
	FilterOpLike      FilterOperator = "like"
	FilterOpNotLike   FilterOperator = "not_like"
	FilterOpRegex     FilterOperator = "regex"
	FilterOpNotRegex  FilterOperator = "not_regex"
)
