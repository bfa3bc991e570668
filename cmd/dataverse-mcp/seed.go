// ABOUTME: The seed command creates a small sample database for local runs
// ABOUTME: Table and column names follow the search section of the config

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/satriotsubasa/dataverse-mcp/internal/config"
	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
)

type sampleRecord struct {
	id           string
	name         string
	code         string
	description  string
	confidential bool
}

var sampleRecords = []sampleRecord{
	{"6f1c2a0e-8d1b-4c1e-9a55-0b4f7c1d2e01", "Harbour Logistics acquisition", "COR-1001", "Share purchase of Harbour Logistics by Northwind Holdings", false},
	{"6f1c2a0e-8d1b-4c1e-9a55-0b4f7c1d2e02", "Meadow Farms lease renewal", "PRO-2040", "Renewal of the warehouse lease at Meadow Lane", false},
	{"6f1c2a0e-8d1b-4c1e-9a55-0b4f7c1d2e03", "Orion employment dispute", "EMP-3310", "Unfair dismissal claim brought against Orion Retail", false},
	{"6f1c2a0e-8d1b-4c1e-9a55-0b4f7c1d2e04", "Project Falcon", "COR-1002", "Board investigation, restricted to the deal team", true},
	{"6f1c2a0e-8d1b-4c1e-9a55-0b4f7c1d2e05", "Aqua Systems licensing", "IPT-4100", "Software licence negotiation for Aqua Systems", false},
}

// seedStatements returns the DDL and inserts for the configured search table.
func seedStatements(s config.SearchConfig) ([]string, [][]any, error) {
	cols := []string{s.IDColumn, s.NameColumn, s.CodeColumn, s.DescriptionColumn, s.ConfidentialColumn}
	for _, c := range append([]string{s.Table}, cols...) {
		if _, err := query.SanitizeIdentifier(c); err != nil {
			return nil, nil, fmt.Errorf("search config: %w", err)
		}
	}

	create := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY, %s TEXT, %s TEXT, %s TEXT, %s INTEGER)",
		s.Table, cols[0], cols[1], cols[2], cols[3], cols[4])
	insert := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (?, ?, ?, ?, ?)",
		s.Table, strings.Join(cols, ", "))

	stmts := []string{create}
	args := [][]any{nil}
	for _, r := range sampleRecords {
		flag := 0
		if r.confidential {
			flag = 1
		}
		stmts = append(stmts, insert)
		args = append(args, []any{r.id, r.name, r.code, r.description, flag})
	}
	return stmts, args, nil
}

func seed(ctx context.Context, ex *executor.SQLExecutor, s config.SearchConfig) (int, error) {
	stmts, args, err := seedStatements(s)
	if err != nil {
		return 0, err
	}
	for i, stmt := range stmts {
		if err := ex.Exec(ctx, stmt, args[i]...); err != nil {
			return 0, fmt.Errorf("seeding %s: %w", s.Table, err)
		}
	}
	return len(stmts) - 1, nil
}

func runSeed(ctx context.Context, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	path := "dataverse.db"
	switch {
	case len(args) > 0:
		path = args[0]
	case cfg.Database.DSN != "" && (cfg.Database.Driver == config.DriverSQLite || cfg.Database.Driver == config.DriverSQLite3):
		path = cfg.Database.DSN
	}

	ex, err := executor.Open(ctx, executor.Config{Driver: config.DriverSQLite, DSN: path})
	if err != nil {
		return err
	}
	defer ex.Close()

	n, err := seed(ctx, ex, cfg.Search)
	if err != nil {
		return err
	}

	color.Green("Seeded %d records into %s (%s)", n, cfg.Search.Table, path)
	fmt.Println()
	fmt.Println("Point the server at it with:")
	fmt.Printf("  DATAVERSE_DSN=%s dataverse-mcp serve\n", path)
	return nil
}
