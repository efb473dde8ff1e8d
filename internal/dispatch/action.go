// Package dispatch routes string-keyed requests to backend operations and
// marshals their typed results back into generic records.
package dispatch

// Action names a backend operation
type Action int

const (
	ActionQuery Action = iota
	ActionColumns
	ActionTables
	ActionAttach
	ActionDetach
)

var actionNames = [...]string{
	ActionQuery:   "query",
	ActionColumns: "columns",
	ActionTables:  "tables",
	ActionAttach:  "attach",
	ActionDetach:  "detach",
}

// String returns the wire name of the action
func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Actions returns every action in wire order
func Actions() []Action {
	return []Action{ActionQuery, ActionColumns, ActionTables, ActionAttach, ActionDetach}
}

// ParseAction resolves a wire name. Names are case sensitive.
func ParseAction(name string) (Action, bool) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}
