package data

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DataFileName string = "data.db"

	schemaVersion = 1
	dirMode       = 0700
	timeFormat    = time.RFC3339

	driverSQLite   = "sqlite"
	driverPostgres = "postgres"

	insertSchemaVersionSQL = `INSERT INTO schema_version (version, applied_at) VALUES (?, ?)
		ON CONFLICT (version) DO NOTHING
	`
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")
)

// IsPostgresDSN reports whether the path is a postgres connection URL
// rather than a sqlite file path.
func IsPostgresDSN(path string) bool {
	return strings.HasPrefix(path, "postgres://") || strings.HasPrefix(path, "postgresql://")
}

// Init creates the schema in the sqlite file or postgres database at path.
// It is safe to call on an existing database.
func Init(path string) error {
	if path == "" {
		return errors.New("database path not specified")
	}

	ddlFile := "sql/sqlite.sql"
	if IsPostgresDSN(path) {
		ddlFile = "sql/postgres.sql"
	} else if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("creating database dir %s: %w", dir, err)
		}
	}

	db, err := GetDB(path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	b, err := f.ReadFile(ddlFile)
	if err != nil {
		return fmt.Errorf("reading schema file %s: %w", ddlFile, err)
	}

	slog.Debug("applying db schema", "file", ddlFile)
	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("creating database schema: %w", err)
	}

	now := time.Now().UTC().Format(timeFormat)
	if _, err := db.Exec(rebind(db, insertSchemaVersionSQL), schemaVersion, now); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}

	slog.Debug("db schema ready", "version", schemaVersion)
	return nil
}

// GetDB opens the database at path. Postgres URLs use lib/pq, anything
// else is treated as a sqlite file.
func GetDB(path string) (*sql.DB, error) {
	driver := driverSQLite
	if IsPostgresDSN(path) {
		driver = driverPostgres
	}

	conn, err := sql.Open(driver, path)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return conn, nil
}

func isPostgres(db *sql.DB) bool {
	_, ok := db.Driver().(*pq.Driver)
	return ok
}

// rebind rewrites ? placeholders into $N for postgres.
func rebind(db *sql.DB, query string) string {
	if !isPostgres(db) {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func rollbackTransaction(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("error rolling back transaction", "error", err)
	}
}
