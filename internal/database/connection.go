package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect opens the database for dbType ("sqlite" or "postgres") and creates
// missing tables. For sqlite dsn is a file path or ":memory:".
func Connect(dbType, dsn string) error {
	var (
		db  *sqlx.DB
		err error
	)
	switch dbType {
	case "postgres":
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	case "sqlite", "":
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if dir := filepath.Dir(dsn); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create data directory: %w", err)
				}
			}
		}
		db, err = sqlx.Connect("sqlite3", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers; one connection also keeps
		// a :memory: database alive
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	default:
		return fmt.Errorf("unsupported database type %q", dbType)
	}

	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		err := DB.Close()
		DB = nil
		return err
	}
	return nil
}

func isPostgres() bool {
	return DB.DriverName() == "postgres"
}

// idColumn is the auto-increment primary key definition for the driver
func idColumn() string {
	if isPostgres() {
		return "id BIGSERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	tables := []struct {
		name string
		ddl  string
	}{
		{"kv_store", `
			CREATE TABLE IF NOT EXISTS kv_store (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"units", `
			CREATE TABLE IF NOT EXISTS units (
				id BIGINT PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				icon TEXT NOT NULL DEFAULT '',
				position INTEGER NOT NULL
			)`},
		{"lessons", `
			CREATE TABLE IF NOT EXISTS lessons (
				id BIGINT PRIMARY KEY,
				unit_id BIGINT NOT NULL,
				title TEXT NOT NULL,
				words TEXT NOT NULL,
				xp_reward INTEGER NOT NULL DEFAULT 10,
				position INTEGER NOT NULL,
				FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE
			)`},
		{"signs", `
			CREATE TABLE IF NOT EXISTS signs (
				word TEXT PRIMARY KEY,
				display TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				media_type TEXT NOT NULL DEFAULT 'image',
				media_url TEXT NOT NULL DEFAULT ''
			)`},
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				` + idColumn() + `,
				telegram_id BIGINT UNIQUE NOT NULL,
				username TEXT NOT NULL DEFAULT '',
				first_name TEXT NOT NULL DEFAULT '',
				xp INTEGER NOT NULL DEFAULT 0,
				streak INTEGER NOT NULL DEFAULT 0,
				last_active_date TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			)`},
		{"quiz_results", `
			CREATE TABLE IF NOT EXISTS quiz_results (
				` + idColumn() + `,
				user_id BIGINT NOT NULL,
				lesson_id BIGINT NOT NULL,
				score INTEGER NOT NULL,
				total INTEGER NOT NULL,
				percentage INTEGER NOT NULL,
				passed BOOLEAN NOT NULL,
				xp_earned INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (user_id) REFERENCES users(id)
			)`},
	}

	for _, t := range tables {
		if _, err := DB.Exec(t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}

	if _, err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_quiz_results_user ON quiz_results(user_id)"); err != nil {
		return fmt.Errorf("failed to create quiz_results index: %w", err)
	}
	return nil
}
