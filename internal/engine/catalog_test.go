package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_RegisterAttaches(t *testing.T) {
	catalog := newTestCatalog()

	assert.True(t, catalog.Attached("test_table"))
	assert.True(t, catalog.Attached("TEST_TABLE"))

	table, ok := catalog.Lookup("Test_Table")
	require.True(t, ok)
	assert.Equal(t, "test_table", table.Name())
}

func TestCatalog_AttachDetach(t *testing.T) {
	catalog := newTestCatalog()

	require.NoError(t, catalog.Detach("processes"))
	assert.False(t, catalog.Attached("processes"))
	_, ok := catalog.Lookup("processes")
	assert.False(t, ok)
	assert.NotContains(t, catalog.Names(), "processes")

	// Idempotent in both directions
	require.NoError(t, catalog.Detach("processes"))
	require.NoError(t, catalog.Attach("processes"))
	require.NoError(t, catalog.Attach("processes"))
	assert.True(t, catalog.Attached("processes"))
}

func TestCatalog_Generation(t *testing.T) {
	catalog := newTestCatalog()
	start := catalog.Generation()

	require.NoError(t, catalog.Detach("test_table"))
	afterDetach := catalog.Generation()
	assert.NotEqual(t, start, afterDetach)

	require.NoError(t, catalog.Attach("test_table"))
	assert.NotEqual(t, afterDetach, catalog.Generation())

	current := catalog.Generation()
	assert.Error(t, catalog.Detach("missing"))
	assert.Equal(t, current, catalog.Generation(), "failed detach leaves the generation alone")
}

func TestCatalog_UnknownTable(t *testing.T) {
	catalog := NewCatalog()

	err := catalog.Attach("missing")
	assert.ErrorIs(t, err, ErrAttachFailure)

	err = catalog.Detach("missing")
	assert.ErrorIs(t, err, ErrDetachFailure)
}

func TestCatalog_Names(t *testing.T) {
	catalog := newTestCatalog()
	assert.Equal(t, []string{"broken", "processes", "test_table"}, catalog.Names())
}

func TestCatalog_CatalogTable(t *testing.T) {
	catalog := newTestCatalog()
	catalog.RegisterCatalogTable()
	require.NoError(t, catalog.Detach("broken"))

	table, ok := catalog.Lookup(CatalogTableName)
	require.True(t, ok)

	rows, err := table.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, QueryData{
		{"name": "processes", "columns": "3"},
		{"name": "test_table", "columns": "2"},
		{"name": "vtql_tables", "columns": "2"},
	}, rows)
}

func TestStaticTable_GenerateCopies(t *testing.T) {
	table := NewStaticTable("t", TableColumns{{Name: "a"}}, QueryData{{"a": "1"}})

	rows, err := table.Generate(context.Background())
	require.NoError(t, err)
	rows[0]["a"] = "changed"

	again, err := table.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", again[0]["a"])
}
