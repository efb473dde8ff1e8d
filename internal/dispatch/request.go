package dispatch

import (
	"fmt"
)

// Wire keys
const (
	KeyAction = "action"
	KeyQuery  = "query"
	KeyCache  = "cache"
	KeyTable  = "table"
)

// Request is the generic string-keyed form of a call
type Request map[string]string

// Record is one generic response record
type Record map[string]string

// Response is the ordered set of records a dispatch produced
type Response []Record

// Call is a decoded, typed request
type Call interface {
	Action() Action
	encode(Request)
}

// QueryRequest runs query text
type QueryRequest struct {
	Query    string
	UseCache bool
}

// ColumnsRequest asks for the columns query text would produce
type ColumnsRequest struct {
	Query string
}

// TablesRequest asks for the tables query text references
type TablesRequest struct {
	Query string
}

// AttachRequest makes a table available
type AttachRequest struct {
	Table string
}

// DetachRequest hides a table
type DetachRequest struct {
	Table string
}

func (QueryRequest) Action() Action   { return ActionQuery }
func (ColumnsRequest) Action() Action { return ActionColumns }
func (TablesRequest) Action() Action  { return ActionTables }
func (AttachRequest) Action() Action  { return ActionAttach }
func (DetachRequest) Action() Action  { return ActionDetach }

func (r QueryRequest) encode(req Request) {
	req[KeyQuery] = r.Query
	if r.UseCache {
		req[KeyCache] = "1"
	}
}

func (r ColumnsRequest) encode(req Request) { req[KeyQuery] = r.Query }
func (r TablesRequest) encode(req Request)  { req[KeyQuery] = r.Query }
func (r AttachRequest) encode(req Request)  { req[KeyTable] = r.Table }
func (r DetachRequest) encode(req Request)  { req[KeyTable] = r.Table }

// Decode converts a generic request into a typed call. Absent operand keys
// decode as empty strings and are left for the backend to reject.
func Decode(req Request) (Call, error) {
	name, ok := req[KeyAction]
	if !ok {
		return nil, ErrMissingAction
	}

	action, ok := ParseAction(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}

	switch action {
	case ActionQuery:
		return QueryRequest{Query: req[KeyQuery], UseCache: req[KeyCache] == "1"}, nil
	case ActionColumns:
		return ColumnsRequest{Query: req[KeyQuery]}, nil
	case ActionTables:
		return TablesRequest{Query: req[KeyQuery]}, nil
	case ActionAttach:
		return AttachRequest{Table: req[KeyTable]}, nil
	case ActionDetach:
		return DetachRequest{Table: req[KeyTable]}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

// Encode converts a typed call into its generic form
func Encode(call Call) Request {
	req := Request{KeyAction: call.Action().String()}
	call.encode(req)
	return req
}
