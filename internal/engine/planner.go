package engine

import (
	"fmt"
)

// Planner creates query execution plans from parsed queries
type Planner struct {
	catalog *Catalog
}

// NewPlanner creates a new query planner
func NewPlanner(catalog *Catalog) *Planner {
	return &Planner{
		catalog: catalog,
	}
}

// CreatePlan builds scan -> filter -> sort -> project/count -> limit.
// Only single-table FROM clauses can be executed.
func (p *Planner) CreatePlan(query *Query) (*Plan, error) {
	if len(query.Statement.From) != 1 || len(query.Tables) != 1 {
		return nil, fmt.Errorf("%w: exactly one table is required in FROM", ErrInvalidQuery)
	}

	tableName := query.Tables[0]
	table, ok := p.catalog.Lookup(tableName)
	if !ok {
		return nil, fmt.Errorf("%w: no such table: %s", ErrInvalidQuery, tableName)
	}

	var root PlanNode = &ScanNode{Table: table}
	schema := table.Columns()

	if query.Where != nil {
		predicate, err := CompilePredicate(query.Where, schema)
		if err != nil {
			return nil, err
		}
		root = &FilterNode{Child: root, Predicate: predicate}
	}

	if len(query.OrderBy) > 0 {
		for _, key := range query.OrderBy {
			if _, ok := schema.Find(key.Column); !ok {
				return nil, fmt.Errorf("%w: no such column: %s", ErrInvalidQuery, key.Column)
			}
		}
		root = &SortNode{Child: root, Keys: query.OrderBy}
	}

	switch {
	case query.Aggregated():
		if len(query.Projection) != 1 {
			return nil, fmt.Errorf("%w: count(*) cannot be combined with other columns", ErrInvalidQuery)
		}
		root = &CountNode{Child: root, Name: query.Projection[0].OutputName()}
	case !query.Star:
		projected, err := p.projectSchema(schema, query.Projection)
		if err != nil {
			return nil, err
		}
		root = &ProjectNode{Child: root, Columns: query.Projection, schema: projected}
	}

	if query.Limit != NoLimit {
		root = &LimitNode{Child: root, Count: query.Limit}
	}

	return &Plan{Root: root, Tables: query.Tables}, nil
}

// projectSchema resolves projected columns against the table schema. The
// declared type and options are kept; aliases only rename.
func (p *Planner) projectSchema(schema TableColumns, projection []Projection) (TableColumns, error) {
	columns := make(TableColumns, 0, len(projection))
	seen := make(map[string]bool, len(projection))

	for _, proj := range projection {
		def, ok := schema.Find(proj.Column)
		if !ok {
			return nil, fmt.Errorf("%w: no such column: %s", ErrInvalidQuery, proj.Column)
		}
		name := proj.OutputName()
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column name: %s", ErrInvalidQuery, name)
		}
		seen[name] = true
		def.Name = name
		columns = append(columns, def)
	}

	return columns, nil
}
