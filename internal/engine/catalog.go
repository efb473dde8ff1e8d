package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Table is a virtual table whose rows are produced on every scan
type Table interface {
	Name() string
	Columns() TableColumns
	Generate(ctx context.Context) (QueryData, error)
}

// Catalog tracks registered virtual tables and which of them are attached.
// Table names are case-insensitive.
type Catalog struct {
	tables     map[string]Table
	attached   map[string]bool
	generation uint64
	mu         sync.RWMutex
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{
		tables:   make(map[string]Table),
		attached: make(map[string]bool),
	}
}

func tableKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a table and attaches it. Registering a name twice replaces
// the previous table.
func (c *Catalog) Register(table Table) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey(table.Name())
	c.tables[key] = table
	c.attached[key] = true
	c.generation++
}

// Attach makes a registered table visible to queries
func (c *Catalog) Attach(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey(name)
	if _, ok := c.tables[key]; !ok {
		return fmt.Errorf("%w: no such table: %q", ErrAttachFailure, name)
	}
	c.attached[key] = true
	c.generation++
	return nil
}

// Detach hides a registered table from queries
func (c *Catalog) Detach(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey(name)
	if _, ok := c.tables[key]; !ok {
		return fmt.Errorf("%w: no such table: %q", ErrDetachFailure, name)
	}
	c.attached[key] = false
	c.generation++
	return nil
}

// Generation changes whenever a table is registered, attached or detached
func (c *Catalog) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Attached reports whether a table is currently attached
func (c *Catalog) Attached(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attached[tableKey(name)]
}

// Lookup returns an attached table
func (c *Catalog) Lookup(name string) (Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := tableKey(name)
	if !c.attached[key] {
		return nil, false
	}
	table, ok := c.tables[key]
	return table, ok
}

// Names returns the attached table names in sorted order
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.tables))
	for key, table := range c.tables {
		if c.attached[key] {
			names = append(names, table.Name())
		}
	}
	sort.Strings(names)
	return names
}

// StaticTable is a table with fixed columns and rows
type StaticTable struct {
	TableName string
	Schema    TableColumns
	Rows      QueryData
}

// NewStaticTable creates a static table
func NewStaticTable(name string, columns TableColumns, rows QueryData) *StaticTable {
	return &StaticTable{
		TableName: name,
		Schema:    columns,
		Rows:      rows,
	}
}

func (s *StaticTable) Name() string {
	return s.TableName
}

func (s *StaticTable) Columns() TableColumns {
	return s.Schema
}

// Generate returns a copy of the stored rows
func (s *StaticTable) Generate(_ context.Context) (QueryData, error) {
	out := make(QueryData, len(s.Rows))
	for i, row := range s.Rows {
		out[i] = copyRow(row)
	}
	return out, nil
}

// FuncTable adapts a generator function into a Table
type FuncTable struct {
	TableName string
	Schema    TableColumns
	Generator func(ctx context.Context) (QueryData, error)
}

func (f *FuncTable) Name() string {
	return f.TableName
}

func (f *FuncTable) Columns() TableColumns {
	return f.Schema
}

func (f *FuncTable) Generate(ctx context.Context) (QueryData, error) {
	return f.Generator(ctx)
}

// catalogTable lists the attached tables of a catalog
type catalogTable struct {
	catalog *Catalog
}

// CatalogTableName is the name of the built-in table listing attached tables
const CatalogTableName = "vtql_tables"

// RegisterCatalogTable registers a table that lists the attached tables and
// their column counts
func (c *Catalog) RegisterCatalogTable() {
	c.Register(&catalogTable{catalog: c})
}

func (t *catalogTable) Name() string {
	return CatalogTableName
}

func (t *catalogTable) Columns() TableColumns {
	return TableColumns{
		{Name: "name", Type: ColumnTypeText, Options: ColumnOptionIndex},
		{Name: "columns", Type: ColumnTypeInteger},
	}
}

func (t *catalogTable) Generate(_ context.Context) (QueryData, error) {
	names := t.catalog.Names()
	rows := make(QueryData, 0, len(names))
	for _, name := range names {
		table, ok := t.catalog.Lookup(name)
		if !ok {
			continue
		}
		rows = append(rows, Row{
			"name":    table.Name(),
			"columns": fmt.Sprintf("%d", len(table.Columns())),
		})
	}
	return rows, nil
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
