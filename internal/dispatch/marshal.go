package dispatch

import (
	"fmt"
	"strconv"

	"github.com/cedricziel/vtql/internal/engine"
)

// Column record keys
const (
	ColumnKeyName    = "n"
	ColumnKeyType    = "t"
	ColumnKeyOptions = "o"
	TableKeyName     = "t"
)

// ColumnTypeName returns the canonical wire name of a column type. It
// returns "" for a type with no mapping.
func ColumnTypeName(t engine.ColumnType) string {
	if !t.Defined() {
		return ""
	}
	return t.String()
}

// OptionsValue returns the option bitmask as an integer
func OptionsValue(o engine.ColumnOptions) int {
	return int(o)
}

// ColumnRecord marshals a column definition into {n, t, o}
func ColumnRecord(c engine.ColumnDefinition) Record {
	return Record{
		ColumnKeyName:    c.Name,
		ColumnKeyType:    ColumnTypeName(c.Type),
		ColumnKeyOptions: strconv.Itoa(OptionsValue(c.Options)),
	}
}

// RowRecord copies a result row into a record
func RowRecord(row engine.Row) Record {
	record := make(Record, len(row))
	for k, v := range row {
		record[k] = v
	}
	return record
}

// TableRecord marshals a table name into {t}
func TableRecord(name string) Record {
	return Record{TableKeyName: name}
}

// ColumnNames extracts the n field of column records in order
func ColumnNames(resp Response) []string {
	names := make([]string, 0, len(resp))
	for _, record := range resp {
		names = append(names, record[ColumnKeyName])
	}
	return names
}

// ParseColumnType reverses ColumnTypeName
func ParseColumnType(name string) (engine.ColumnType, bool) {
	for _, ct := range engine.ColumnTypes() {
		if ColumnTypeName(ct) == name {
			return ct, true
		}
	}
	return engine.ColumnTypeUnknown, false
}

// ColumnDefinitionFromRecord reverses ColumnRecord
func ColumnDefinitionFromRecord(record Record) (engine.ColumnDefinition, error) {
	ct, ok := ParseColumnType(record[ColumnKeyType])
	if !ok {
		return engine.ColumnDefinition{}, fmt.Errorf("unknown column type %q", record[ColumnKeyType])
	}
	options, err := strconv.ParseUint(record[ColumnKeyOptions], 10, 32)
	if err != nil {
		return engine.ColumnDefinition{}, fmt.Errorf("bad column options %q: %w", record[ColumnKeyOptions], err)
	}
	return engine.ColumnDefinition{
		Name:    record[ColumnKeyName],
		Type:    ct,
		Options: engine.ColumnOptions(options),
	}, nil
}
