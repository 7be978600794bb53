package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"sla-overage-report/internal/errs"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"

	defaultTable = "tasks"
	queryTimeout = 12 * time.Second
)

// SQLSource names a table of task rows in Postgres or SQLite.
type SQLSource struct {
	Driver string
	DSN    string
	Table  string
}

func (s SQLSource) String() string {
	return fmt.Sprintf("%s table %s", s.Driver, s.table())
}

func (s SQLSource) table() string {
	if strings.TrimSpace(s.Table) == "" {
		return defaultTable
	}
	return strings.TrimSpace(s.Table)
}

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

func sanitizeTable(value string) (string, error) {
	if !identifierPattern.MatchString(value) {
		return "", errs.Config("db table", "invalid table name: %s", value)
	}
	return value, nil
}

// DriverFor picks the driver from an explicit name or from the DSN.
func DriverFor(name string, dsn string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pgx", "postgres", "postgresql":
		return DriverPostgres, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "":
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			return DriverPostgres, nil
		}
		return DriverSQLite, nil
	}
	return "", errs.Config("db driver", "unsupported driver %q", name)
}

// ReadSQL loads every row of the source table. Result columns are matched by name
// with the same aliases as CSV headers.
func ReadSQL(ctx context.Context, src SQLSource) (Result, error) {
	if strings.TrimSpace(src.DSN) == "" {
		return Result{}, errs.Config("db url", "database URL is required")
	}
	driver, err := DriverFor(src.Driver, src.DSN)
	if err != nil {
		return Result{}, err
	}
	src.Driver = driver
	table, err := sanitizeTable(src.table())
	if err != nil {
		return Result{}, err
	}

	db, err := sql.Open(driver, src.DSN)
	if err != nil {
		return Result{}, &errs.IngestionError{Source: src.String(), Err: err}
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return Result{}, &errs.IngestionError{Source: src.String(), Err: err}
	}

	result, err := queryRecords(ctx, db, table)
	if err != nil {
		var schemaErr *errs.SchemaError
		if errors.As(err, &schemaErr) {
			return Result{}, err
		}
		return Result{}, &errs.IngestionError{Source: src.String(), Err: err}
	}
	return result, nil
}

func queryRecords(ctx context.Context, db *sql.DB, table string) (Result, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s`, table))
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}
	idx, err := resolveColumns(columns)
	if err != nil {
		return Result{}, err
	}

	values := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	row := make([]string, len(columns))

	var result Result
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return Result{}, err
		}
		for i, value := range values {
			row[i] = value.String
		}
		record, ok := idx.parseRecord(row)
		if !ok {
			result.InvalidRows++
			continue
		}
		result.Records = append(result.Records, record)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return result, nil
}
