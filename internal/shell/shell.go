// Package shell is an interactive prompt for running queries against the
// registered backends.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"

	"github.com/cedricziel/vtql/internal/dispatch"
	"github.com/cedricziel/vtql/internal/engine"
	"github.com/cedricziel/vtql/internal/engine/backends"
	"github.com/cedricziel/vtql/internal/query"
)

// Shell runs one line at a time against the current backend
type Shell struct {
	registry   *backends.Registry
	dispatcher *dispatch.Dispatcher
	backend    string
	useCache   bool
	out        io.Writer
}

// Config configures a Shell
type Config struct {
	Registry   *backends.Registry
	Dispatcher *dispatch.Dispatcher
	// Backend is the initial backend name, default "sql"
	Backend  string
	UseCache bool
	Out      io.Writer
}

// New creates a shell
func New(config Config) *Shell {
	backend := config.Backend
	if backend == "" {
		backend = query.SQL
	}
	d := config.Dispatcher
	if d == nil {
		d = dispatch.New(dispatch.Config{})
	}
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	return &Shell{
		registry:   config.Registry,
		dispatcher: d,
		backend:    backend,
		useCache:   config.UseCache,
		out:        out,
	}
}

// Backend returns the name of the current backend
func (s *Shell) Backend() string {
	return s.backend
}

func (s *Shell) prompt() string {
	return s.backend + "> "
}

// Run reads lines until .quit, EOF or an interrupt on an empty line
func (s *Shell) Run(ctx context.Context, historyFile string) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          s.out,
	})
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer func() { _ = l.Close() }()

	fmt.Fprintf(s.out, "Welcome to vtql. Backends: %s. Type .help for commands.\n", strings.Join(s.registry.Names(), ", "))
	for {
		l.SetPrompt(s.prompt())
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading line: %w", err)
		}

		if s.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute handles one input line and reports whether the shell should exit
func (s *Shell) Execute(ctx context.Context, line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	if !strings.HasPrefix(trimmed, ".") {
		s.runQuery(ctx, strings.TrimSuffix(trimmed, ";"))
		return false
	}

	command, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case ".quit", ".exit":
		return true
	case ".help":
		s.help()
	case ".backend":
		s.switchBackend(arg)
	case ".tables":
		s.tables(ctx, arg)
	case ".schema":
		s.schema(ctx, arg)
	case ".attach":
		s.attachDetach(ctx, dispatch.AttachRequest{Table: arg}, arg)
	case ".detach":
		s.attachDetach(ctx, dispatch.DetachRequest{Table: arg}, arg)
	case ".cache":
		s.useCache = arg == "on"
		if s.useCache {
			fmt.Fprintln(s.out, "cache on")
		} else {
			fmt.Fprintln(s.out, "cache off")
		}
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type .help for commands.\n", command)
	}
	return false
}

func (s *Shell) help() {
	fmt.Fprintln(s.out, `.backend <name>   switch backend
.tables [query]   list attached tables, or the tables a query references
.schema <query>   show the columns a query produces
.attach <table>   attach a table
.detach <table>   detach a table
.cache on|off     toggle the result cache
.quit             exit`)
}

func (s *Shell) current() (backends.Backend, bool) {
	backend, ok := s.registry.Get(s.backend)
	if !ok {
		fmt.Fprintf(s.out, "Error: backend %q is not available\n", s.backend)
	}
	return backend, ok
}

func (s *Shell) switchBackend(name string) {
	if name == "" {
		fmt.Fprintf(s.out, "%s (available: %s)\n", s.backend, strings.Join(s.registry.Names(), ", "))
		return
	}
	if _, ok := s.registry.Get(name); !ok {
		fmt.Fprintf(s.out, "Error: unknown backend %q (available: %s)\n", name, strings.Join(s.registry.Names(), ", "))
		return
	}
	s.backend = name
	fmt.Fprintf(s.out, "using %s\n", name)
}

func (s *Shell) runQuery(ctx context.Context, text string) {
	result := query.NewWithOptions(ctx, s.registry, text, s.useCache, s.backend, query.Options{Dispatcher: s.dispatcher})
	if !result.Ok() {
		fmt.Fprintf(s.out, "Error: %s\n", result.Status().Message)
		return
	}

	rows := result.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(s.out, "(no results)")
		return
	}

	header := result.Columns()
	if len(header) == 0 {
		header = recordKeys(rows[0])
	}

	table := s.newTable(header)
	for _, record := range rows {
		row := make([]string, len(header))
		for i, name := range header {
			row[i] = record[name]
		}
		table.Append(row)
	}
	table.Render()

	if len(rows) == 1 {
		fmt.Fprintln(s.out, "(1 result)")
	} else {
		fmt.Fprintf(s.out, "(%d results)\n", len(rows))
	}
}

func (s *Shell) tables(ctx context.Context, text string) {
	if text == "" {
		s.runQuery(ctx, listTablesQuery(s.backend))
		return
	}

	resp, ok := s.dispatch(ctx, dispatch.TablesRequest{Query: text})
	if !ok {
		return
	}
	table := s.newTable([]string{"Table"})
	for _, record := range resp {
		table.Append([]string{record[dispatch.TableKeyName]})
	}
	table.Render()
}

func (s *Shell) schema(ctx context.Context, text string) {
	if text == "" {
		fmt.Fprintln(s.out, "Usage: .schema <query>")
		return
	}

	resp, ok := s.dispatch(ctx, dispatch.ColumnsRequest{Query: text})
	if !ok {
		return
	}
	table := s.newTable([]string{"Column", "Type", "Options"})
	for _, record := range resp {
		def, err := dispatch.ColumnDefinitionFromRecord(record)
		options := record[dispatch.ColumnKeyOptions]
		if err == nil {
			options = describeOptions(def.Options)
		}
		table.Append([]string{record[dispatch.ColumnKeyName], record[dispatch.ColumnKeyType], options})
	}
	table.Render()
}

func (s *Shell) attachDetach(ctx context.Context, call dispatch.Call, table string) {
	if table == "" {
		fmt.Fprintf(s.out, "Usage: .%s <table>\n", call.Action())
		return
	}
	if _, ok := s.dispatch(ctx, call); ok {
		fmt.Fprintln(s.out, "ok")
	}
}

func (s *Shell) dispatch(ctx context.Context, call dispatch.Call) (dispatch.Response, bool) {
	backend, ok := s.current()
	if !ok {
		return nil, false
	}
	ctx = dispatch.WithRequestInfo(ctx, dispatch.RequestInfo{Backend: s.backend})
	resp, err := s.dispatcher.Execute(ctx, backend, call)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", dispatch.StatusOf(err).Message)
		return nil, false
	}
	return resp, true
}

func (s *Shell) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(s.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	return table
}

// listTablesQuery selects the catalog listing in the backend's language
func listTablesQuery(backend string) string {
	if backend == query.KQL {
		return engine.CatalogTableName
	}
	return "SELECT * FROM " + engine.CatalogTableName
}

var optionNames = []struct {
	flag engine.ColumnOptions
	name string
}{
	{engine.ColumnOptionIndex, "index"},
	{engine.ColumnOptionRequired, "required"},
	{engine.ColumnOptionAdditional, "additional"},
	{engine.ColumnOptionOptimized, "optimized"},
	{engine.ColumnOptionHidden, "hidden"},
	{engine.ColumnOptionCollateBinary, "collate binary"},
}

func describeOptions(options engine.ColumnOptions) string {
	names := make([]string, 0)
	for _, o := range optionNames {
		if options.Has(o.flag) {
			names = append(names, o.name)
		}
	}
	return strings.Join(names, ", ")
}

func recordKeys(record dispatch.Record) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
