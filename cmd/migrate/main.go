package main

import (
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pocketledger/internal/config"
	"pocketledger/internal/db"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

const downMarker = "-- +migrate Down"

func main() {
	dir := flag.String("dir", "migrations", "directory holding *.sql migration files")
	down := flag.Bool("down", false, "roll back the most recently applied migration")
	flag.Parse()

	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text PRIMARY KEY, applied_at timestamptz DEFAULT now())`); err != nil {
		log.WithError(err).Fatal("failed to ensure schema_migrations")
	}

	if *down {
		if err := rollbackLast(database, *dir); err != nil {
			log.WithError(err).Fatal("rollback failed")
		}
		return
	}
	if err := applyPending(database, *dir); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
}

func applyPending(database *sqlx.DB, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)
		var exists bool
		if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			return err
		}
		if exists {
			continue
		}
		up, _, err := readSections(file)
		if err != nil {
			return err
		}
		// Each file applies atomically: either the schema change and its
		// bookkeeping row both land, or neither does.
		tx, err := database.Beginx()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(up); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		log.WithField("file", filename).Info("applied migration")
	}
	return nil
}

func rollbackLast(database *sqlx.DB, dir string) error {
	var filename string
	if err := database.Get(&filename, `SELECT filename FROM schema_migrations ORDER BY filename DESC LIMIT 1`); err != nil {
		return err
	}
	_, downSQL, err := readSections(filepath.Join(dir, filename))
	if err != nil {
		return err
	}
	if strings.TrimSpace(downSQL) == "" {
		log.WithField("file", filename).Warn("migration has no down section")
		return nil
	}
	tx, err := database.Beginx()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(downSQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(`DELETE FROM schema_migrations WHERE filename = $1`, filename); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.WithField("file", filename).Info("rolled back migration")
	return nil
}

// readSections splits a migration file on the down marker: everything above
// is the up script, everything below the down script.
func readSections(path string) (string, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	up, down, _ := strings.Cut(string(content), downMarker)
	return up, down, nil
}
