package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cedricziel/vtql/internal/engine"
)

func TestColumnTypeName_Exhaustive(t *testing.T) {
	seen := make(map[string]engine.ColumnType)
	for _, ct := range engine.ColumnTypes() {
		name := ColumnTypeName(ct)
		if !assert.NotEmpty(t, name, "column type %d has no wire name", int(ct)) {
			continue
		}
		if prev, dup := seen[name]; dup {
			t.Errorf("column types %d and %d share the name %q", int(prev), int(ct), name)
		}
		seen[name] = ct
		assert.Equal(t, ct.String(), name)
	}
}

func TestColumnTypeName(t *testing.T) {
	assert.Equal(t, "TEXT", ColumnTypeName(engine.ColumnTypeText))
	assert.Equal(t, "INTEGER", ColumnTypeName(engine.ColumnTypeInteger))
	assert.Equal(t, "BIGINT", ColumnTypeName(engine.ColumnTypeBigInt))
	assert.Equal(t, "DOUBLE", ColumnTypeName(engine.ColumnTypeDouble))
	assert.Equal(t, "BLOB", ColumnTypeName(engine.ColumnTypeBlob))
	assert.Empty(t, ColumnTypeName(engine.ColumnType(-1)))
	assert.Empty(t, ColumnTypeName(engine.ColumnType(99)))
}

func TestOptionsValue(t *testing.T) {
	assert.Equal(t, 0, OptionsValue(engine.ColumnOptionDefault))
	assert.Equal(t, 1, OptionsValue(engine.ColumnOptionIndex))
	assert.Equal(t, 2|8, OptionsValue(engine.ColumnOptionRequired|engine.ColumnOptionOptimized))
	assert.Equal(t, 32, OptionsValue(engine.ColumnOptionCollateBinary))
}

func TestColumnRecord(t *testing.T) {
	record := ColumnRecord(engine.ColumnDefinition{
		Name:    "pid",
		Type:    engine.ColumnTypeBigInt,
		Options: engine.ColumnOptionIndex | engine.ColumnOptionRequired,
	})
	assert.Equal(t, Record{"n": "pid", "t": "BIGINT", "o": "3"}, record)
}

func TestRowRecord_Copies(t *testing.T) {
	row := engine.Row{"a": "1"}
	record := RowRecord(row)
	record["a"] = "2"
	assert.Equal(t, "1", row["a"])
}

func TestColumnDefinitionFromRecord(t *testing.T) {
	got, err := ColumnDefinitionFromRecord(Record{"n": "size", "t": "UNSIGNED BIGINT", "o": "17"})
	assert.NoError(t, err)
	assert.Equal(t, engine.ColumnDefinition{
		Name:    "size",
		Type:    engine.ColumnTypeUnsignedBigInt,
		Options: engine.ColumnOptionIndex | engine.ColumnOptionHidden,
	}, got)

	_, err = ColumnDefinitionFromRecord(Record{"n": "c", "t": "VARCHAR", "o": "0"})
	assert.ErrorContains(t, err, "unknown column type")

	_, err = ColumnDefinitionFromRecord(Record{"n": "c", "t": "TEXT", "o": "x"})
	assert.ErrorContains(t, err, "bad column options")
}
