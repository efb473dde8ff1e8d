package tables

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedricziel/vtql/internal/engine"
)

func TestRegisterBuiltins(t *testing.T) {
	t.Run("all by default", func(t *testing.T) {
		catalog := engine.NewCatalog()
		require.NoError(t, RegisterBuiltins(catalog, nil))

		want := append(Names(), engine.CatalogTableName)
		assert.ElementsMatch(t, want, catalog.Names())
	})

	t.Run("subset", func(t *testing.T) {
		catalog := engine.NewCatalog()
		require.NoError(t, RegisterBuiltins(catalog, []string{"Processes", engine.CatalogTableName}))
		assert.ElementsMatch(t, []string{Processes, engine.CatalogTableName}, catalog.Names())
	})

	t.Run("unknown table", func(t *testing.T) {
		catalog := engine.NewCatalog()
		err := RegisterBuiltins(catalog, []string{Processes, "sockets"})
		assert.ErrorContains(t, err, "sockets")
		assert.Empty(t, catalog.Names())
	})
}

func TestProcessesTable(t *testing.T) {
	table := NewProcessesTable()
	assert.Equal(t, Processes, table.Name())

	rows, err := table.Generate(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	self := strconv.Itoa(os.Getpid())
	found := false
	for _, row := range rows {
		for _, col := range table.Columns() {
			_, ok := row[col.Name]
			assert.True(t, ok, "row is missing column %s", col.Name)
		}
		if row["pid"] == self {
			found = true
		}
	}
	assert.True(t, found, "current process %s not listed", self)
}

func TestSingleRowTables(t *testing.T) {
	for _, table := range []engine.Table{NewSystemInfoTable(), NewMemoryInfoTable()} {
		t.Run(table.Name(), func(t *testing.T) {
			rows, err := table.Generate(context.Background())
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.ElementsMatch(t, table.Columns().Names(), keys(rows[0]))
		})
	}
}

func TestLoadAverageTable(t *testing.T) {
	rows, err := NewLoadAverageTable().Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"1m", "5m", "15m"}, []string{rows[0]["period"], rows[1]["period"], rows[2]["period"]})
	for _, row := range rows {
		_, err := strconv.ParseFloat(row["average"], 64)
		assert.NoError(t, err)
	}
}

func TestQueryThroughExecutor(t *testing.T) {
	catalog := engine.NewCatalog()
	require.NoError(t, RegisterBuiltins(catalog, []string{Processes}))
	executor := engine.NewExecutor(engine.ExecutorConfig{Catalog: catalog})

	rows, err := executor.Execute(context.Background(),
		"SELECT pid, name FROM processes WHERE pid = "+strconv.Itoa(os.Getpid()), false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotEmpty(t, rows[0]["name"])
}

func keys(row engine.Row) []string {
	out := make([]string, 0, len(row))
	for k := range row {
		out = append(out, k)
	}
	return out
}
