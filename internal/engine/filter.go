package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"vitess.io/vitess/go/vt/sqlparser"
)

// Predicate decides whether a row passes a WHERE clause
type Predicate func(row Row) (bool, error)

// operand resolves one side of a comparison against a row
type operand func(row Row) string

// CompilePredicate turns a WHERE expression into a Predicate. Every column
// referenced must exist in the schema.
func CompilePredicate(expr sqlparser.Expr, schema TableColumns) (Predicate, error) {
	switch e := expr.(type) {
	case *sqlparser.AndExpr:
		left, err := CompilePredicate(e.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := CompilePredicate(e.Right, schema)
		if err != nil {
			return nil, err
		}
		return func(row Row) (bool, error) {
			ok, err := left(row)
			if err != nil || !ok {
				return false, err
			}
			return right(row)
		}, nil
	case *sqlparser.OrExpr:
		left, err := CompilePredicate(e.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := CompilePredicate(e.Right, schema)
		if err != nil {
			return nil, err
		}
		return func(row Row) (bool, error) {
			ok, err := left(row)
			if err != nil || ok {
				return ok, err
			}
			return right(row)
		}, nil
	case *sqlparser.NotExpr:
		inner, err := CompilePredicate(e.Expr, schema)
		if err != nil {
			return nil, err
		}
		return func(row Row) (bool, error) {
			ok, err := inner(row)
			return !ok, err
		}, nil
	case sqlparser.BoolVal:
		value := bool(e)
		return func(Row) (bool, error) { return value, nil }, nil
	case *sqlparser.ComparisonExpr:
		return compileComparison(e, schema)
	default:
		return nil, fmt.Errorf("%w: unsupported WHERE expression: %s", ErrInvalidQuery, sqlparser.String(expr))
	}
}

func compileComparison(comp *sqlparser.ComparisonExpr, schema TableColumns) (Predicate, error) {
	op, ok := filterOperator(comp.Operator)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported operator: %s", ErrInvalidQuery, comp.Operator.ToString())
	}

	left, err := compileOperand(comp.Left, schema)
	if err != nil {
		return nil, err
	}
	right, err := compileOperand(comp.Right, schema)
	if err != nil {
		return nil, err
	}

	switch op {
	case FilterOpLike, FilterOpNotLike, FilterOpRegex, FilterOpNotRegex:
		pattern, isLiteral := comp.Right.(*sqlparser.Literal)
		if !isLiteral {
			return nil, fmt.Errorf("%w: pattern must be a literal", ErrInvalidQuery)
		}
		re, err := compilePattern(op, string(pattern.Val))
		if err != nil {
			return nil, err
		}
		negate := op == FilterOpNotLike || op == FilterOpNotRegex
		return func(row Row) (bool, error) {
			return re.MatchString(left(row)) != negate, nil
		}, nil
	}

	return func(row Row) (bool, error) {
		return matchFilter(op, left(row), right(row)), nil
	}, nil
}

func compileOperand(expr sqlparser.Expr, schema TableColumns) (operand, error) {
	switch v := expr.(type) {
	case *sqlparser.ColName:
		name := v.Name.String()
		if _, ok := schema.Find(name); !ok {
			return nil, fmt.Errorf("%w: no such column: %s", ErrInvalidQuery, name)
		}
		return func(row Row) string { return row[name] }, nil
	case *sqlparser.Literal:
		value := string(v.Val)
		return func(Row) string { return value }, nil
	case sqlparser.BoolVal:
		value := "0"
		if v {
			value = "1"
		}
		return func(Row) string { return value }, nil
	default:
		return nil, fmt.Errorf("%w: unsupported operand: %s", ErrInvalidQuery, sqlparser.String(expr))
	}
}

// filterOperator maps a parser operator to an engine filter operator
func filterOperator(op sqlparser.ComparisonExprOperator) (FilterOperator, bool) {
	switch op {
	case sqlparser.EqualOp:
		return FilterOpEqual, true
	case sqlparser.NotEqualOp:
		return FilterOpNotEqual, true
	case sqlparser.GreaterThanOp:
		return FilterOpGreater, true
	case sqlparser.LessThanOp:
		return FilterOpLess, true
	case sqlparser.GreaterEqualOp:
		return FilterOpGreaterEq, true
	case sqlparser.LessEqualOp:
		return FilterOpLessEq, true
	case sqlparser.LikeOp:
		return FilterOpLike, true
	case sqlparser.NotLikeOp:
		return FilterOpNotLike, true
	case sqlparser.RegexpOp:
		return FilterOpRegex, true
	case sqlparser.NotRegexpOp:
		return FilterOpNotRegex, true
	default:
		return "", false
	}
}

func matchFilter(op FilterOperator, left, right string) bool {
	c := compareValues(left, right)
	switch op {
	case FilterOpEqual:
		return c == 0
	case FilterOpNotEqual:
		return c != 0
	case FilterOpGreater:
		return c > 0
	case FilterOpLess:
		return c < 0
	case FilterOpGreaterEq:
		return c >= 0
	case FilterOpLessEq:
		return c <= 0
	default:
		return false
	}
}

// compareValues compares numerically when both sides are numbers and
// lexically otherwise
func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

func compilePattern(op FilterOperator, pattern string) (*regexp.Regexp, error) {
	expr := pattern
	if op == FilterOpLike || op == FilterOpNotLike {
		expr = likeToRegexp(pattern)
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidQuery, pattern, err)
	}
	return re, nil
}

// likeToRegexp converts a LIKE pattern into an anchored, case-insensitive
// regular expression
func likeToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("(?is)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}
