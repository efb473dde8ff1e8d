package engine

import (
	"context"
	"sort"
	"strconv"
)

// PlanNode represents a node in the query execution plan
type PlanNode interface {
	Execute(ctx context.Context) (ResultSet, error)
	Children() []PlanNode
	Schema() TableColumns
}

// ResultSet represents the results from executing a plan node
type ResultSet interface {
	Next() bool
	Current() Row
	Err() error
	Close() error
}

// Plan is an executable query plan
type Plan struct {
	Root   PlanNode
	Tables []string
}

// Schema returns the columns the plan produces
func (p *Plan) Schema() TableColumns {
	return p.Root.Schema()
}

// ScanNode represents a virtual table scan
type ScanNode struct {
	Table Table
}

func (s *ScanNode) Execute(ctx context.Context) (ResultSet, error) {
	rows, err := s.Table.Generate(ctx)
	if err != nil {
		return nil, err
	}
	return newRowsResultSet(rows), nil
}

func (s *ScanNode) Children() []PlanNode {
	return nil
}

func (s *ScanNode) Schema() TableColumns {
	return s.Table.Columns()
}

// FilterNode represents a filter operation
type FilterNode struct {
	Child     PlanNode
	Predicate Predicate
}

func (f *FilterNode) Execute(ctx context.Context) (ResultSet, error) {
	childResult, err := f.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &FilteredResultSet{
		source:    childResult,
		predicate: f.Predicate,
	}, nil
}

func (f *FilterNode) Children() []PlanNode {
	return []PlanNode{f.Child}
}

func (f *FilterNode) Schema() TableColumns {
	return f.Child.Schema()
}

// SortNode orders rows by one or more columns
type SortNode struct {
	Child PlanNode
	Keys  []OrderKey
}

func (s *SortNode) Execute(ctx context.Context) (ResultSet, error) {
	childResult, err := s.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := Collect(childResult)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range s.Keys {
			c := compareValues(rows[i][key.Column], rows[j][key.Column])
			if c == 0 {
				continue
			}
			if key.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	return newRowsResultSet(rows), nil
}

func (s *SortNode) Children() []PlanNode {
	return []PlanNode{s.Child}
}

func (s *SortNode) Schema() TableColumns {
	return s.Child.Schema()
}

// ProjectNode selects and renames columns
type ProjectNode struct {
	Child   PlanNode
	Columns []Projection
	schema  TableColumns
}

func (p *ProjectNode) Execute(ctx context.Context) (ResultSet, error) {
	childResult, err := p.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &ProjectedResultSet{
		source:  childResult,
		columns: p.Columns,
	}, nil
}

func (p *ProjectNode) Children() []PlanNode {
	return []PlanNode{p.Child}
}

func (p *ProjectNode) Schema() TableColumns {
	return p.schema
}

// CountNode collapses its input into a single row holding the row count
type CountNode struct {
	Child PlanNode
	Name  string
}

func (c *CountNode) Execute(ctx context.Context) (ResultSet, error) {
	childResult, err := c.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	defer childResult.Close()

	var count int64
	for childResult.Next() {
		count++
	}
	if err := childResult.Err(); err != nil {
		return nil, err
	}

	return newRowsResultSet(QueryData{{c.Name: strconv.FormatInt(count, 10)}}), nil
}

func (c *CountNode) Children() []PlanNode {
	return []PlanNode{c.Child}
}

func (c *CountNode) Schema() TableColumns {
	return TableColumns{{Name: c.Name, Type: ColumnTypeBigInt}}
}

// LimitNode stops after Count rows
type LimitNode struct {
	Child PlanNode
	Count int
}

func (l *LimitNode) Execute(ctx context.Context) (ResultSet, error) {
	childResult, err := l.Child.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return &LimitedResultSet{
		source:    childResult,
		remaining: l.Count,
	}, nil
}

func (l *LimitNode) Children() []PlanNode {
	return []PlanNode{l.Child}
}

func (l *LimitNode) Schema() TableColumns {
	return l.Child.Schema()
}

// Collect drains a result set, preserving row order
func Collect(rs ResultSet) (QueryData, error) {
	defer rs.Close()

	rows := make(QueryData, 0)
	for rs.Next() {
		rows = append(rows, rs.Current())
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// rowsResultSet iterates over materialized rows
type rowsResultSet struct {
	rows    QueryData
	current Row
	index   int
}

func newRowsResultSet(rows QueryData) *rowsResultSet {
	return &rowsResultSet{rows: rows}
}

func (r *rowsResultSet) Next() bool {
	if r.index >= len(r.rows) {
		return false
	}
	r.current = r.rows[r.index]
	r.index++
	return true
}

func (r *rowsResultSet) Current() Row {
	return r.current
}

func (r *rowsResultSet) Err() error {
	return nil
}

func (r *rowsResultSet) Close() error {
	return nil
}

// FilteredResultSet implements ResultSet with filtering
type FilteredResultSet struct {
	source    ResultSet
	predicate Predicate
	current   Row
	err       error
}

func (f *FilteredResultSet) Next() bool {
	if f.err != nil {
		return false
	}
	for f.source.Next() {
		row := f.source.Current()
		ok, err := f.predicate(row)
		if err != nil {
			f.err = err
			return false
		}
		if ok {
			f.current = row
			return true
		}
	}
	return false
}

func (f *FilteredResultSet) Current() Row {
	return f.current
}

func (f *FilteredResultSet) Err() error {
	if f.err != nil {
		return f.err
	}
	return f.source.Err()
}

func (f *FilteredResultSet) Close() error {
	return f.source.Close()
}

// ProjectedResultSet implements ResultSet with column selection
type ProjectedResultSet struct {
	source  ResultSet
	columns []Projection
	current Row
}

func (p *ProjectedResultSet) Next() bool {
	if !p.source.Next() {
		return false
	}
	row := p.source.Current()
	projected := make(Row, len(p.columns))
	for _, col := range p.columns {
		projected[col.OutputName()] = row[col.Column]
	}
	p.current = projected
	return true
}

func (p *ProjectedResultSet) Current() Row {
	return p.current
}

func (p *ProjectedResultSet) Err() error {
	return p.source.Err()
}

func (p *ProjectedResultSet) Close() error {
	return p.source.Close()
}

// LimitedResultSet implements ResultSet with a row cap
type LimitedResultSet struct {
	source    ResultSet
	remaining int
}

func (l *LimitedResultSet) Next() bool {
	if l.remaining <= 0 {
		return false
	}
	if !l.source.Next() {
		return false
	}
	l.remaining--
	return true
}

func (l *LimitedResultSet) Current() Row {
	return l.source.Current()
}

func (l *LimitedResultSet) Err() error {
	return l.source.Err()
}

func (l *LimitedResultSet) Close() error {
	return l.source.Close()
}
