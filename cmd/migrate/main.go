package main

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"propsales/internal/config"
	"propsales/internal/db"
	"propsales/internal/logging"

	"github.com/jmoiron/sqlx"
)

const downMarker = "-- +migrate Down"

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	database, err := db.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		log.WithError(err).Fatal("failed to ensure schema_migrations")
	}

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.WithError(err).Fatal("failed to list migrations")
	}
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)
		var applied bool
		if err := database.Get(&applied, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			log.WithError(err).Fatal("failed to read migration state")
		}
		if applied {
			continue
		}
		if err := applyFile(database, file, filename); err != nil {
			log.WithError(err).WithField("migration", filename).Fatal("migration failed")
		}
		log.WithField("migration", filename).Info("applied")
	}
}

// applyFile runs the up section of one migration and records it, all in a
// single transaction so a partial failure leaves no trace.
func applyFile(database *sqlx.DB, path, filename string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	up, _, _ := strings.Cut(string(content), downMarker)
	tx, err := database.Beginx()
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(up) {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// splitSQL breaks a script into executable statements, dropping comment-only
// lines. Statements end at a line containing a semicolon; the schema does not
// use procedural bodies with embedded semicolons.
func splitSQL(script string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(script))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.Contains(line, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
