/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package main is the entry point for the interactive sqlens shell.

Shell Overview:
===============

The sqlens-shell is an interactive REPL (Read-Eval-Print Loop) that
analyzes SQL statements against a schema document without executing
them. Each entered statement is parsed, described (result-row shape),
and validated (column references checked clause by clause).

Command Types:
==============

The shell supports two types of input:

 1. Local Commands (prefixed with \):
    - \q or \quit   : Exit the shell
    - \h or \help   : Display help information
    - \dn           : List schemas
    - \dt [schema]  : List tables in a schema
    - \d <table>    : Describe a table's columns and relations
    - \schema <file>: Load a different schema document
    - \echo on|off  : Print the canonical rendering of each statement
    - \checks       : Show the validator clause toggles
    - \check <name> on|off : Flip one clause toggle

 2. SQL Statements:
    Any SELECT, INSERT, UPDATE, or DELETE statement, terminated with
    a semicolon. Statements may span multiple lines.

Usage Examples:
===============

	Analyze against a schema document:
	  sqlens-shell -schema schema.json

	Run a single statement and exit:
	  sqlens-shell -schema schema.json -e "SELECT id FROM users"

	Example session:
	  sqlens> SELECT u.id, u.name FROM users AS u;
	  SELECT returns rows:
	    id    number
	    name  string
	  check: ok
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"sqlens"
	"sqlens/internal/config"
	"sqlens/internal/logging"
)

// allCompletions contains all completable commands and keywords for tab
// completion. The SQL keyword list mirrors the normalizer's reserved
// keyword table.
var allCompletions = []string{
	// Local commands
	"\\q", "\\quit", "\\h", "\\help", "\\dn", "\\dt", "\\d", "\\schema", "\\echo",
	"\\checks", "\\check",
	// Statement keywords
	"SELECT", "INSERT", "UPDATE", "DELETE", "WITH",
	// Clause keywords
	"FROM", "WHERE", "AND", "OR", "NOT", "IN", "LIKE", "ORDER", "BY", "ASC", "DESC",
	"LIMIT", "OFFSET", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER", "FULL", "CROSS", "ON", "AS",
	"GROUP", "HAVING", "DISTINCT", "UNION", "INTERSECT", "EXCEPT", "ALL",
	"VALUES", "INTO", "SET", "USING", "RETURNING", "CONFLICT", "DO", "NOTHING",
	"CONSTRAINT", "EXCLUDED", "IS", "NULL", "TRUE", "FALSE", "DEFAULT",
	"OLD", "NEW", "COUNT", "SUM", "AVG", "MIN", "MAX",
}

// createCompleter creates a readline completer for tab completion.
func createCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(allCompletions))
	for _, cmd := range allCompletions {
		items = append(items, readline.PcItem(cmd))
	}
	return readline.NewPrefixCompleter(items...)
}

// createReadlineInstance creates a configured readline instance.
func createReadlineInstance(historyFile string) (*readline.Instance, error) {
	rlConfig := &readline.Config{
		Prompt:          "sqlens> ",
		HistoryFile:     historyFile,
		AutoComplete:    createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	}

	return readline.NewEx(rlConfig)
}

// filterInput filters input runes for readline.
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false // Disable Ctrl+Z
	}
	return r, true
}

// session holds the runtime state for one shell session.
type session struct {
	schema *sqlens.Schema
	opts   *sqlens.Options
	logger *logging.Logger
	out    io.Writer
	echo   bool // print the canonical rendering of each statement
}

func main() {
	schemaFlag := flag.String("schema", "", "path to the schema document (JSON)")
	configFlag := flag.String("config", "", "path to the configuration file")
	executeFlag := flag.String("e", "", "analyze the given statement and exit")
	logLevelFlag := flag.String("log-level", "", "log level (debug, info, warn, error)")
	logJSONFlag := flag.Bool("log-json", false, "emit logs as JSON")
	flag.Parse()

	mgr := config.Global()
	if *configFlag != "" {
		if err := mgr.LoadFromFile(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "sqlens-shell: %v\n", err)
			os.Exit(1)
		}
		mgr.LoadFromEnv()
	} else if err := mgr.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "sqlens-shell: %v\n", err)
		os.Exit(1)
	}

	cfg := mgr.Get()

	// Flags override file and environment values
	if *schemaFlag != "" {
		cfg.SchemaPath = *schemaFlag
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}
	if *logJSONFlag {
		cfg.LogJSON = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "sqlens-shell: %v\n", err)
		os.Exit(1)
	}

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)
	logger := logging.NewLogger("shell")

	schema, err := loadSchema(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlens-shell: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("schema loaded", "path", cfg.SchemaPath, "schemas", len(schema.SchemaNames()))

	sess := &session{
		schema: schema,
		opts:   cfg.CheckOptions(),
		logger: logger,
		out:    os.Stdout,
	}

	// Single statement mode: analyze and exit
	if *executeFlag != "" {
		if sess.analyzeScript(*executeFlag) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	rl, err := createReadlineInstance(cfg.HistoryFile)
	if err != nil {
		// Fall back to a plain scanner when readline is unavailable
		// (piped input, restricted terminal).
		logger.Debug("line editing unavailable", "error", err.Error())
		runPipedInput(sess, os.Stdin)
		return
	}
	defer rl.Close()

	fmt.Fprintf(sess.out, "sqlens shell (schema: %s)\n", cfg.SchemaPath)
	fmt.Fprintf(sess.out, "Type \\h for help, \\q to quit. Statements end with ;\n\n")

	runREPL(sess, rl)
}

// loadSchema reads and parses the schema document named by the config,
// applying the default_schema override when set.
func loadSchema(cfg *config.Config) (*sqlens.Schema, error) {
	data, err := os.ReadFile(cfg.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema document: %w", err)
	}
	schema, err := sqlens.ParseSchemaJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	if cfg.DefaultSchema != "" {
		if err := schema.SetDefaultSchema(cfg.DefaultSchema); err != nil {
			return nil, err
		}
	}
	return schema, nil
}

// runREPL is the main read-eval-print loop.
func runREPL(sess *session, rl *readline.Instance) {
	var buf strings.Builder
	inMultiLine := false

	for {
		if inMultiLine {
			rl.SetPrompt("     -> ")
		} else {
			rl.SetPrompt("sqlens> ")
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if inMultiLine {
					// Cancel the pending statement
					buf.Reset()
					inMultiLine = false
					continue
				}
				fmt.Fprintln(sess.out, "(Use \\q to quit or Ctrl+D to exit)")
				continue
			}
			// io.EOF or read failure: exit gracefully
			fmt.Fprintln(sess.out)
			break
		}

		input := strings.TrimSpace(line)
		if input == "" && !inMultiLine {
			continue
		}

		// Local commands execute immediately, even mid-statement.
		if strings.HasPrefix(input, "\\") {
			if !handleLocalCommand(sess, input) {
				return
			}
			continue
		}

		buf.WriteString(input)
		if !strings.HasSuffix(input, ";") {
			buf.WriteString(" ")
			inMultiLine = true
			continue
		}

		script := buf.String()
		buf.Reset()
		inMultiLine = false
		sess.analyzeScript(script)
	}
}

// runPipedInput analyzes statements read from a non-terminal stdin.
// Exits non-zero when any statement fails.
func runPipedInput(sess *session, r io.Reader) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlens-shell: %v\n", err)
		os.Exit(1)
	}
	if !sess.analyzeScript(string(data)) {
		os.Exit(1)
	}
}

// analyzeScript splits the script into statements and analyzes each.
// Returns true when every statement parsed and validated cleanly.
func (s *session) analyzeScript(script string) bool {
	stmts := sqlens.SplitStatements(script)
	if len(stmts) == 0 {
		return true
	}
	ok := true
	for _, stmt := range stmts {
		if !s.analyzeStatement(stmt) {
			ok = false
		}
	}
	return ok
}

// analyzeStatement describes and validates one statement, printing the
// result shape and the first semantic error if any.
func (s *session) analyzeStatement(text string) bool {
	desc, err := sqlens.Describe(sqlens.Literal(text), s.schema)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}

	if s.echo {
		fmt.Fprintf(s.out, "canonical: %v\n", desc.Statement)
	}
	s.printDescription(desc)

	if err := sqlens.Check(sqlens.Literal(text), s.schema, s.opts); err != nil {
		fmt.Fprintf(s.out, "check: %v\n", err)
		return false
	}
	fmt.Fprintln(s.out, "check: ok")
	return true
}

// printDescription renders the result-row shape of a described
// statement, columns sorted by name, embedded errors after.
func (s *session) printDescription(desc *sqlens.Description) {
	kind := statementKindName(desc.Kind)
	if !desc.Result.HasRows {
		fmt.Fprintf(s.out, "%s returns no rows\n", kind)
	} else {
		fmt.Fprintf(s.out, "%s returns rows:\n", kind)
		names := make([]string, 0, len(desc.Result.Shape))
		width := 0
		for name := range desc.Result.Shape {
			names = append(names, name)
			if len(name) > width {
				width = len(name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(s.out, "  %-*s  %s\n", width, name, desc.Result.Shape[name])
		}
	}
	for _, e := range desc.Result.Errors {
		fmt.Fprintf(s.out, "  warning: %v\n", e)
	}
}

func statementKindName(kind sqlens.StatementKind) string {
	switch kind {
	case sqlens.KindSelect:
		return "SELECT"
	case sqlens.KindInsert:
		return "INSERT"
	case sqlens.KindUpdate:
		return "UPDATE"
	case sqlens.KindDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// handleLocalCommand executes a backslash command. Returns false when
// the shell should exit.
func handleLocalCommand(sess *session, input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	args := parts[1:]

	switch cmd {
	case "\\q", "\\quit":
		return false

	case "\\h", "\\help":
		printHelp(sess.out)

	case "\\dn":
		names := sess.schema.SchemaNames()
		sort.Strings(names)
		for _, name := range names {
			if name == sess.schema.DefaultSchema() {
				fmt.Fprintf(sess.out, "%s (default)\n", name)
			} else {
				fmt.Fprintln(sess.out, name)
			}
		}

	case "\\dt":
		schemaName := ""
		if len(args) > 0 {
			schemaName = args[0]
		}
		tables := sess.schema.Tables(schemaName)
		if len(tables) == 0 {
			fmt.Fprintln(sess.out, "no tables")
			break
		}
		sort.Strings(tables)
		for _, table := range tables {
			fmt.Fprintln(sess.out, table)
		}

	case "\\d":
		if len(args) == 0 {
			fmt.Fprintln(sess.out, "usage: \\d <table> or \\d <schema.table>")
			break
		}
		describeTable(sess, args[0])

	case "\\echo":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			fmt.Fprintln(sess.out, "usage: \\echo on|off")
			break
		}
		sess.echo = args[0] == "on"

	case "\\schema":
		if len(args) != 1 {
			fmt.Fprintln(sess.out, "usage: \\schema <file>")
			break
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(sess.out, "error: %v\n", err)
			break
		}
		schema, err := sqlens.ParseSchemaJSON(data)
		if err != nil {
			fmt.Fprintf(sess.out, "error: %v\n", err)
			break
		}
		sess.schema = schema
		sess.logger.Info("schema reloaded", "path", args[0], "schemas", len(schema.SchemaNames()))
		fmt.Fprintf(sess.out, "loaded %s\n", args[0])

	case "\\checks":
		printChecks(sess.out, sess.opts)

	case "\\check":
		if len(args) != 2 {
			fmt.Fprintln(sess.out, "usage: \\check <name> on|off")
			break
		}
		if !setCheck(sess.opts, args[0], args[1] == "on") {
			fmt.Fprintf(sess.out, "unknown check: %s\n", args[0])
			break
		}
		printChecks(sess.out, sess.opts)

	default:
		fmt.Fprintf(sess.out, "unknown command: %s (try \\h)\n", cmd)
	}

	return true
}

// describeTable prints a table's columns and outgoing relations.
func describeTable(sess *session, name string) {
	schemaName := ""
	table := name
	if idx := strings.Index(name, "."); idx != -1 {
		schemaName = name[:idx]
		table = name[idx+1:]
	}

	shape, ok := sess.schema.Table(schemaName, table)
	if !ok {
		fmt.Fprintf(sess.out, "table %q not found\n", name)
		return
	}

	cols := make([]string, 0, len(shape))
	width := 0
	for col := range shape {
		cols = append(cols, col)
		if len(col) > width {
			width = len(col)
		}
	}
	sort.Strings(cols)
	for _, col := range cols {
		fmt.Fprintf(sess.out, "  %-*s  %s\n", width, col, shape[col])
	}

	rels := sess.schema.RelationsFrom(schemaName, table)
	for _, r := range rels {
		fmt.Fprintf(sess.out, "  relation %s: %s.%s.%s -> %s.%s.%s (%s)\n",
			r.Name,
			r.From.Schema, r.From.Table, r.From.Column,
			r.To.Schema, r.To.Table, r.To.Column,
			r.Cardinality)
	}
}

// printChecks prints the validator clause toggles.
func printChecks(w io.Writer, opts *sqlens.Options) {
	fmt.Fprintf(w, "where      %v\n", opts.CheckWhere)
	fmt.Fprintf(w, "join_on    %v\n", opts.CheckJoinOn)
	fmt.Fprintf(w, "group_by   %v\n", opts.CheckGroupBy)
	fmt.Fprintf(w, "having     %v\n", opts.CheckHaving)
	fmt.Fprintf(w, "order_by   %v\n", opts.CheckOrderBy)
	fmt.Fprintf(w, "returning  %v\n", opts.CheckReturning)
	fmt.Fprintf(w, "conflict   %v\n", opts.CheckConflict)
	fmt.Fprintf(w, "set        %v\n", opts.CheckSet)
}

// setCheck flips one clause toggle by its config key name.
func setCheck(opts *sqlens.Options, name string, value bool) bool {
	switch name {
	case "where":
		opts.CheckWhere = value
	case "join_on":
		opts.CheckJoinOn = value
	case "group_by":
		opts.CheckGroupBy = value
	case "having":
		opts.CheckHaving = value
	case "order_by":
		opts.CheckOrderBy = value
	case "returning":
		opts.CheckReturning = value
	case "conflict":
		opts.CheckConflict = value
	case "set":
		opts.CheckSet = value
	default:
		return false
	}
	return true
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `Local commands:
  \q, \quit        exit the shell
  \h, \help        show this help
  \dn              list schemas
  \dt [schema]     list tables (default schema when omitted)
  \d <table>       describe a table's columns and relations
  \schema <file>   load a different schema document
  \echo on|off     print the canonical rendering of each statement
  \checks          show the validator clause toggles
  \check <n> on|off  flip one clause toggle

SQL statements end with a semicolon and may span multiple lines.
Each statement is parsed, its result-row shape described, and its
column references validated against the schema.`)
}
