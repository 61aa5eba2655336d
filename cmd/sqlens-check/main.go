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
Package main is the entry point for the sqlens batch checker.

The checker loads a schema document, reads SQL files, and validates
every statement in them without executing anything. It is intended for
CI pipelines: the exit code is non-zero when any statement fails to
parse or references a column or table the schema does not declare.

Usage:

	sqlens-check -schema <schema.json> file.sql [file.sql ...]
	sqlens-check -schema <schema.json> <dir>

Options:

	-schema <path>      Path to the schema document (JSON)
	-config <path>      Path to the configuration file
	-log-level <level>  Log level (debug, info, warn, error)
	-log-json           Emit logs as JSON
	-q                  Quiet mode: suppress the summary line

Directories are walked recursively for files with a .sql extension.

Examples:

	# Check one file
	sqlens-check -schema schema.json queries.sql

	# Check a query directory in CI
	sqlens-check -schema schema.json ./queries

	# Disable a clause check via environment
	SQLENS_CHECK_ORDER_BY=false sqlens-check -schema schema.json queries.sql
*/
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"sqlens"
	"sqlens/internal/config"
	"sqlens/internal/logging"
)

func main() {
	schemaFlag := flag.String("schema", "", "path to the schema document (JSON)")
	configFlag := flag.String("config", "", "path to the configuration file")
	logLevelFlag := flag.String("log-level", "", "log level (debug, info, warn, error)")
	logJSONFlag := flag.Bool("log-json", false, "emit logs as JSON")
	quietFlag := flag.Bool("q", false, "suppress the summary line")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "sqlens-check: no input files")
		fmt.Fprintln(os.Stderr, "usage: sqlens-check -schema <schema.json> <file.sql | dir> ...")
		os.Exit(2)
	}

	mgr := config.Global()
	if *configFlag != "" {
		if err := mgr.LoadFromFile(*configFlag); err != nil {
			fmt.Fprintf(os.Stderr, "sqlens-check: %v\n", err)
			os.Exit(2)
		}
		mgr.LoadFromEnv()
	} else if err := mgr.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "sqlens-check: %v\n", err)
		os.Exit(2)
	}

	cfg := mgr.Get()
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
		fmt.Fprintf(os.Stderr, "sqlens-check: %v\n", err)
		os.Exit(2)
	}

	logging.SetGlobalLevel(logging.ParseLevel(cfg.LogLevel))
	logging.SetJSONMode(cfg.LogJSON)
	logger := logging.NewLogger("check")

	schema, err := loadSchema(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlens-check: %v\n", err)
		os.Exit(2)
	}
	opts := cfg.CheckOptions()

	files, err := collectFiles(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlens-check: %v\n", err)
		os.Exit(2)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "sqlens-check: no .sql files found")
		os.Exit(2)
	}

	total := 0
	failed := 0
	for _, file := range files {
		checked, bad := checkFile(file, schema, opts, logger)
		total += checked
		failed += bad
	}

	if !*quietFlag {
		fmt.Printf("checked %d statements in %d files, %d failures\n", total, len(files), failed)
	}
	if failed > 0 {
		os.Exit(1)
	}
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

// collectFiles expands the argument list into .sql file paths,
// walking directories recursively.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(path, ".sql") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// checkFile validates every statement in one file. Returns the number
// of statements checked and the number that failed.
func checkFile(path string, schema *sqlens.Schema, opts *sqlens.Options, logger *logging.Logger) (int, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		return 0, 1
	}

	stmts := sqlens.SplitStatements(string(data))
	failed := 0
	for i, stmt := range stmts {
		ctx := logging.NewStatementContext(path, i+1)
		if err := sqlens.Check(sqlens.Literal(stmt), schema, opts); err != nil {
			ctx.LogFail(logger, err.Error())
			fmt.Fprintf(os.Stderr, "%s: statement %d: %v\n", path, i+1, err)
			failed++
			continue
		}
		ctx.LogPass(logger, kindName(sqlens.DetectKind(stmt)))
	}
	return len(stmts), failed
}

func kindName(kind sqlens.StatementKind) string {
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
