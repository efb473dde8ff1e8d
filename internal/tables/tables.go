// Package tables provides virtual tables over live host state.
package tables

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cedricziel/vtql/internal/engine"
)

// Built-in table names
const (
	Processes   = "processes"
	SystemInfo  = "system_info"
	MemoryInfo  = "memory_info"
	LoadAverage = "load_average"
)

var builtins = map[string]func() engine.Table{
	Processes:   NewProcessesTable,
	SystemInfo:  NewSystemInfoTable,
	MemoryInfo:  NewMemoryInfoTable,
	LoadAverage: NewLoadAverageTable,
}

// Names returns every built-in table name in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins registers the named built-in tables, or all of them when
// names is empty. The catalog listing table is always registered.
func RegisterBuiltins(catalog *engine.Catalog, names []string) error {
	if len(names) == 0 {
		names = Names()
	}

	selected := make([]func() engine.Table, 0, len(names))
	for _, name := range names {
		if strings.EqualFold(name, engine.CatalogTableName) {
			continue
		}
		ctor, ok := builtins[strings.ToLower(name)]
		if !ok {
			return fmt.Errorf("unknown built-in table %q (available: %s)", name, strings.Join(Names(), ", "))
		}
		selected = append(selected, ctor)
	}

	for _, ctor := range selected {
		catalog.Register(ctor())
	}
	catalog.RegisterCatalogTable()
	return nil
}
