package backends

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// kqlTokenKind classifies lexer output
type kqlTokenKind int

const (
	kqlIdent kqlTokenKind = iota
	kqlString
	kqlNumber
	kqlOperator
	kqlComma
	kqlPipe
	kqlEOF
)

type kqlToken struct {
	kind  kqlTokenKind
	value string
}

var kqlIdentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// KQLQuery is a parsed KQL pipeline
type KQLQuery struct {
	Source     string
	Conditions []string
	Projection []string
	OrderBy    []string
	Count      bool
	Limit      int
}

// SQL renders the pipeline as a single SELECT statement
func (q *KQLQuery) SQL() string {
	var sql strings.Builder

	sql.WriteString("SELECT ")
	switch {
	case q.Count:
		sql.WriteString("count(*) AS `Count`")
	case len(q.Projection) > 0:
		sql.WriteString(strings.Join(q.Projection, ", "))
	default:
		sql.WriteString("*")
	}

	sql.WriteString(" FROM ")
	sql.WriteString(quoteIdent(q.Source))

	if len(q.Conditions) > 0 {
		sql.WriteString(" WHERE ")
		sql.WriteString(strings.Join(q.Conditions, " AND "))
	}

	if len(q.OrderBy) > 0 && !q.Count {
		sql.WriteString(" ORDER BY ")
		sql.WriteString(strings.Join(q.OrderBy, ", "))
	}

	if q.Limit >= 0 {
		sql.WriteString(" LIMIT ")
		sql.WriteString(strconv.Itoa(q.Limit))
	}

	return sql.String()
}

// pipeline stages must not go backwards
const (
	stageFilter = iota
	stageShape
	stageCount
	stageTake
)

// ParseKQL parses a tabular expression of the form
//
//	Table | where a == "x" and b > 1 | sort by a desc | project a, c=b | count | take 10
func ParseKQL(text string) (*KQLQuery, error) {
	tokens, err := lexKQL(text)
	if err != nil {
		return nil, err
	}

	p := &kqlParser{tokens: tokens}
	q := &KQLQuery{Limit: -1}
	// output name -> source column once project has run
	var projected map[string]string

	source := p.next()
	if source.kind != kqlIdent || !kqlIdentPattern.MatchString(source.value) {
		return nil, fmt.Errorf("%w: expected table name, got %q", ErrInvalidQuery, source.value)
	}
	q.Source = source.value

	stage := stageFilter
	for p.peek().kind != kqlEOF {
		if tok := p.next(); tok.kind != kqlPipe {
			return nil, fmt.Errorf("%w: expected '|', got %q", ErrInvalidQuery, tok.value)
		}

		op := p.next()
		if op.kind != kqlIdent {
			return nil, fmt.Errorf("%w: expected operator after '|', got %q", ErrInvalidQuery, op.value)
		}

		var opStage int
		switch strings.ToLower(op.value) {
		case "where", "filter":
			opStage = stageFilter
			cond, err := p.parseCondition()
			if err != nil {
				return nil, err
			}
			q.Conditions = append(q.Conditions, "("+cond+")")
		case "project":
			opStage = stageShape
			if q.Projection != nil {
				return nil, fmt.Errorf("%w: project may appear only once", ErrInvalidQuery)
			}
			cols, outputs, err := p.parseProjection()
			if err != nil {
				return nil, err
			}
			q.Projection = cols
			projected = outputs
		case "sort", "order":
			opStage = stageShape
			if by := p.next(); by.kind != kqlIdent || !strings.EqualFold(by.value, "by") {
				return nil, fmt.Errorf("%w: expected 'by' after %s", ErrInvalidQuery, op.value)
			}
			keys, err := p.parseOrderBy()
			if err != nil {
				return nil, err
			}
			for _, key := range keys {
				column := key.column
				if projected != nil {
					mapped, ok := projected[key.column]
					if !ok {
						return nil, fmt.Errorf("%w: sort key %q is not a projected column", ErrInvalidQuery, key.column)
					}
					column = mapped
				}
				q.OrderBy = append(q.OrderBy, quoteIdent(column)+" "+key.direction)
			}
		case "count":
			opStage = stageCount
			q.Count = true
		case "take", "limit":
			opStage = stageTake
			n := p.next()
			limit, err := strconv.Atoi(n.value)
			if n.kind != kqlNumber || err != nil || limit < 0 {
				return nil, fmt.Errorf("%w: %s expects a non-negative row count, got %q", ErrInvalidQuery, op.value, n.value)
			}
			if q.Limit < 0 || limit < q.Limit {
				q.Limit = limit
			}
		default:
			return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, op.value)
		}

		if opStage < stage {
			return nil, fmt.Errorf("%w: %s cannot follow a later pipeline stage", ErrInvalidQuery, op.value)
		}
		stage = opStage

		if k := p.peek().kind; k != kqlPipe && k != kqlEOF {
			return nil, fmt.Errorf("%w: unexpected %q after %s", ErrInvalidQuery, p.peek().value, op.value)
		}
	}

	return q, nil
}

// TranslateKQL converts a KQL pipeline into SQL text
func TranslateKQL(text string) (string, error) {
	q, err := ParseKQL(text)
	if err != nil {
		return "", err
	}
	return q.SQL(), nil
}

type kqlParser struct {
	tokens []kqlToken
	pos    int
}

func (p *kqlParser) peek() kqlToken {
	if p.pos >= len(p.tokens) {
		return kqlToken{kind: kqlEOF}
	}
	return p.tokens[p.pos]
}

func (p *kqlParser) next() kqlToken {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *kqlParser) ident() (string, error) {
	tok := p.next()
	if tok.kind != kqlIdent || !kqlIdentPattern.MatchString(tok.value) {
		return "", fmt.Errorf("%w: expected column name, got %q", ErrInvalidQuery, tok.value)
	}
	return tok.value, nil
}

// parseCondition reads predicates joined by and/or
func (p *kqlParser) parseCondition() (string, error) {
	var parts []string
	for {
		pred, err := p.parsePredicate()
		if err != nil {
			return "", err
		}
		parts = append(parts, pred)

		tok := p.peek()
		if tok.kind == kqlIdent && (strings.EqualFold(tok.value, "and") || strings.EqualFold(tok.value, "or")) {
			p.next()
			parts = append(parts, strings.ToUpper(tok.value))
			continue
		}
		return strings.Join(parts, " "), nil
	}
}

func (p *kqlParser) parsePredicate() (string, error) {
	column, err := p.ident()
	if err != nil {
		return "", err
	}
	col := quoteIdent(column)

	opTok := p.next()
	op := opTok.value
	if opTok.kind == kqlIdent {
		op = strings.ToLower(op)
		if op == "matches" {
			if tok := p.next(); tok.kind != kqlIdent || !strings.EqualFold(tok.value, "regex") {
				return "", fmt.Errorf("%w: expected 'regex' after matches", ErrInvalidQuery)
			}
			op = "matches regex"
		}
	} else if opTok.kind != kqlOperator {
		return "", fmt.Errorf("%w: expected comparison operator, got %q", ErrInvalidQuery, opTok.value)
	}

	valTok := p.next()
	var value string
	switch valTok.kind {
	case kqlString:
		value = valTok.value
	case kqlNumber:
		value = valTok.value
	case kqlIdent:
		switch strings.ToLower(valTok.value) {
		case "true":
			value = "1"
		case "false":
			value = "0"
		default:
			return "", fmt.Errorf("%w: expected literal, got %q", ErrInvalidQuery, valTok.value)
		}
	default:
		return "", fmt.Errorf("%w: expected literal, got %q", ErrInvalidQuery, valTok.value)
	}

	literal := func() string {
		if valTok.kind == kqlNumber {
			return value
		}
		return quoteString(value)
	}

	switch op {
	case "==":
		return col + " = " + literal(), nil
	case "!=", "<>":
		return col + " != " + literal(), nil
	case "<", ">", "<=", ">=":
		return col + " " + op + " " + literal(), nil
	case "=~":
		return col + " REGEXP " + quoteString("(?i)^"+regexp.QuoteMeta(value)+"$"), nil
	case "!~":
		return col + " NOT REGEXP " + quoteString("(?i)^"+regexp.QuoteMeta(value)+"$"), nil
	case "contains", "has":
		return col + " REGEXP " + quoteString("(?i)"+regexp.QuoteMeta(value)), nil
	case "!contains", "!has":
		return col + " NOT REGEXP " + quoteString("(?i)"+regexp.QuoteMeta(value)), nil
	case "startswith":
		return col + " REGEXP " + quoteString("(?i)^"+regexp.QuoteMeta(value)), nil
	case "!startswith":
		return col + " NOT REGEXP " + quoteString("(?i)^"+regexp.QuoteMeta(value)), nil
	case "endswith":
		return col + " REGEXP " + quoteString("(?i)"+regexp.QuoteMeta(value)+"$"), nil
	case "!endswith":
		return col + " NOT REGEXP " + quoteString("(?i)"+regexp.QuoteMeta(value)+"$"), nil
	case "matches regex":
		if _, err := regexp.Compile(value); err != nil {
			return "", fmt.Errorf("%w: bad regex %q: %v", ErrInvalidQuery, value, err)
		}
		return col + " REGEXP " + quoteString(value), nil
	default:
		return "", fmt.Errorf("%w: unsupported comparison %q", ErrInvalidQuery, op)
	}
}

// parseProjection reads "a, b = c" into SQL select expressions and maps each
// output name to its source column
func (p *kqlParser) parseProjection() ([]string, map[string]string, error) {
	cols := make([]string, 0)
	outputs := make(map[string]string)
	for {
		name, err := p.ident()
		if err != nil {
			return nil, nil, err
		}

		source := name
		expr := quoteIdent(name)
		if tok := p.peek(); tok.kind == kqlOperator && tok.value == "=" {
			p.next()
			source, err = p.ident()
			if err != nil {
				return nil, nil, err
			}
			expr = quoteIdent(source) + " AS " + quoteIdent(name)
		}
		cols = append(cols, expr)
		outputs[name] = source

		if p.peek().kind != kqlComma {
			return cols, outputs, nil
		}
		p.next()
	}
}

type kqlSortKey struct {
	column    string
	direction string
}

// parseOrderBy reads "a [asc|desc], b". KQL sorts descending by default.
func (p *kqlParser) parseOrderBy() ([]kqlSortKey, error) {
	keys := make([]kqlSortKey, 0)
	for {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}

		direction := "DESC"
		if tok := p.peek(); tok.kind == kqlIdent {
			switch strings.ToLower(tok.value) {
			case "asc":
				direction = "ASC"
				p.next()
			case "desc":
				p.next()
			}
		}
		keys = append(keys, kqlSortKey{column: name, direction: direction})

		if p.peek().kind != kqlComma {
			return keys, nil
		}
		p.next()
	}
}

func lexKQL(text string) ([]kqlToken, error) {
	tokens := make([]kqlToken, 0)
	runes := []rune(text)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '|':
			tokens = append(tokens, kqlToken{kind: kqlPipe, value: "|"})
			i++
		case r == ',':
			tokens = append(tokens, kqlToken{kind: kqlComma, value: ","})
			i++
		case r == '"' || r == '\'':
			value, n, err := lexString(runes[i:], false)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, kqlToken{kind: kqlString, value: value})
			i += n
		case r == '@' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\''):
			value, n, err := lexString(runes[i+1:], true)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, kqlToken{kind: kqlString, value: value})
			i += n + 1
		case unicode.IsDigit(r) || (r == '-' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			i++
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, kqlToken{kind: kqlNumber, value: string(runes[start:i])})
		case r == '!' && i+1 < len(runes) && unicode.IsLetter(runes[i+1]):
			start := i
			i++
			for i < len(runes) && unicode.IsLetter(runes[i]) {
				i++
			}
			tokens = append(tokens, kqlToken{kind: kqlIdent, value: string(runes[start:i])})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, kqlToken{kind: kqlIdent, value: string(runes[start:i])})
		case strings.ContainsRune("=!<>~", r):
			start := i
			i++
			for i < len(runes) && strings.ContainsRune("=<>~", runes[i]) {
				i++
			}
			tokens = append(tokens, kqlToken{kind: kqlOperator, value: string(runes[start:i])})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrInvalidQuery, r)
		}
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}
	return tokens, nil
}

// lexString reads a quoted literal and returns its value and consumed length.
// Verbatim strings take no escapes.
func lexString(runes []rune, verbatim bool) (string, int, error) {
	quote := runes[0]
	var value strings.Builder

	for i := 1; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == quote:
			return value.String(), i + 1, nil
		case r == '\\' && !verbatim && i+1 < len(runes):
			i++
			switch runes[i] {
			case 'n':
				value.WriteRune('\n')
			case 't':
				value.WriteRune('\t')
			default:
				value.WriteRune(runes[i])
			}
		default:
			value.WriteRune(r)
		}
	}

	return "", 0, fmt.Errorf("%w: unterminated string literal", ErrInvalidQuery)
}

func quoteIdent(name string) string {
	return "`" + name + "`"
}

func quoteString(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}
