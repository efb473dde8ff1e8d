package engine

import (
	"fmt"
	"strconv"
	"strings"

	"vitess.io/vitess/go/vt/sqlparser"
)

type Parser struct {
	parser *sqlparser.Parser
}

func NewParser() *Parser {
	return &Parser{
		parser: sqlparser.NewTestParser(),
	}
}

// Query is a parsed SELECT statement
type Query struct {
	Raw        string
	Statement  *sqlparser.Select
	Tables     []string
	Star       bool
	Projection []Projection
	Where      sqlparser.Expr
	OrderBy    []OrderKey
	Limit      int
}

// Projection is one output column of a SELECT list
type Projection struct {
	Column    string
	Alias     string
	CountStar bool
}

// OutputName returns the name the column is reported under
func (p Projection) OutputName() string {
	if p.Alias != "" {
		return p.Alias
	}
	if p.CountStar {
		return "count(*)"
	}
	return p.Column
}

// OrderKey is one ORDER BY term
type OrderKey struct {
	Column string
	Desc   bool
}

// NoLimit marks a query without a LIMIT clause
const NoLimit = -1

func (p *Parser) Parse(query string) (*Query, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}

	stmt, err := p.parser.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported statement type: %T", ErrInvalidQuery, stmt)
	}

	q := &Query{
		Raw:       query,
		Statement: sel,
		Tables:    p.extractTables(sel),
		Limit:     NoLimit,
	}

	if err := p.extractQueryInfo(q, sel); err != nil {
		return nil, err
	}

	return q, nil
}

// ParseTables returns every table referenced by the query, including those
// in joins and subqueries, in order of first appearance
func (p *Parser) ParseTables(query string) ([]string, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}

	stmt, err := p.parser.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	tables := p.extractTables(stmt)
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: query does not reference a table", ErrInvalidQuery)
	}
	return tables, nil
}

func (p *Parser) extractTables(stmt sqlparser.SQLNode) []string {
	tables := make([]string, 0)
	seen := make(map[string]bool)

	//nolint:errcheck // visitor never returns an error
	sqlparser.Walk(func(node sqlparser.SQLNode) (kontinue bool, err error) {
		if aliased, ok := node.(*sqlparser.AliasedTableExpr); ok {
			if name, ok := aliased.Expr.(sqlparser.TableName); ok {
				table := name.Name.String()
				if table != "" && !seen[table] {
					seen[table] = true
					tables = append(tables, table)
				}
			}
		}
		return true, nil
	}, stmt)

	return tables
}

func (p *Parser) extractQueryInfo(q *Query, stmt *sqlparser.Select) error {
	if err := p.extractProjection(q, stmt.SelectExprs.Exprs); err != nil {
		return err
	}

	if stmt.Where != nil {
		q.Where = stmt.Where.Expr
	}

	if stmt.GroupBy != nil && len(stmt.GroupBy.Exprs) > 0 {
		return fmt.Errorf("%w: GROUP BY is not supported", ErrInvalidQuery)
	}

	for _, order := range stmt.OrderBy {
		colName, ok := order.Expr.(*sqlparser.ColName)
		if !ok {
			return fmt.Errorf("%w: unsupported ORDER BY expression: %s", ErrInvalidQuery, sqlparser.String(order.Expr))
		}
		q.OrderBy = append(q.OrderBy, OrderKey{
			Column: colName.Name.String(),
			Desc:   order.Direction == sqlparser.DescOrder,
		})
	}

	if stmt.Limit != nil {
		if stmt.Limit.Offset != nil {
			return fmt.Errorf("%w: OFFSET is not supported", ErrInvalidQuery)
		}
		count, ok := stmt.Limit.Rowcount.(*sqlparser.Literal)
		if !ok {
			return fmt.Errorf("%w: unsupported LIMIT expression", ErrInvalidQuery)
		}
		limit, err := strconv.Atoi(string(count.Val))
		if err != nil || limit < 0 {
			return fmt.Errorf("%w: invalid LIMIT %q", ErrInvalidQuery, string(count.Val))
		}
		q.Limit = limit
	}

	return nil
}

func (p *Parser) extractProjection(q *Query, exprs []sqlparser.SelectExpr) error {
	for _, expr := range exprs {
		switch e := expr.(type) {
		case *sqlparser.StarExpr:
			if len(exprs) != 1 {
				return fmt.Errorf("%w: '*' cannot be combined with other columns", ErrInvalidQuery)
			}
			q.Star = true
		case *sqlparser.AliasedExpr:
			proj := Projection{}
			if !e.As.IsEmpty() {
				proj.Alias = e.As.String()
			}
			switch inner := e.Expr.(type) {
			case *sqlparser.ColName:
				proj.Column = inner.Name.String()
			case *sqlparser.CountStar:
				proj.CountStar = true
			default:
				return fmt.Errorf("%w: unsupported select expression: %s", ErrInvalidQuery, sqlparser.String(e.Expr))
			}
			q.Projection = append(q.Projection, proj)
		default:
			return fmt.Errorf("%w: unsupported select expression: %s", ErrInvalidQuery, sqlparser.String(expr))
		}
	}
	return nil
}

// Aggregated reports whether the projection is a count over all rows
func (q *Query) Aggregated() bool {
	for _, p := range q.Projection {
		if p.CountStar {
			return true
		}
	}
	return false
}
