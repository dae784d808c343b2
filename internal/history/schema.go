package history

import (
	"database/sql"

	"codeberg.org/mutker/gpufreq/internal/errors"
	"codeberg.org/mutker/gpufreq/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS frequency_samples (
	       id           INTEGER PRIMARY KEY AUTOINCREMENT,
	       timestamp_ms INTEGER NOT NULL CHECK (typeof(timestamp_ms) = 'integer'),
	       state        TEXT NOT NULL CHECK (state IN ('available', 'requires_privilege', 'not_supported', 'error')),
	       current_mhz  INTEGER NOT NULL DEFAULT 0 CHECK (current_mhz >= 0),
	       max_mhz      INTEGER NOT NULL DEFAULT 0 CHECK (max_mhz >= 0),
	       min_mhz      INTEGER NOT NULL DEFAULT 0 CHECK (min_mhz >= 0),
	       available    BLOB,
	       governor     TEXT NOT NULL DEFAULT '',
	       vendor       TEXT NOT NULL DEFAULT '',
	       source_path  TEXT NOT NULL DEFAULT '',
	       message      TEXT NOT NULL DEFAULT ''
	   );
	   CREATE INDEX IF NOT EXISTS idx_frequency_samples_timestamp
	       ON frequency_samples (timestamp_ms);`

	insertSampleSQL = `
    INSERT INTO frequency_samples (
        timestamp_ms, state,
        current_mhz, max_mhz, min_mhz, available,
        governor, vendor, source_path, message
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	recentSamplesSQL = `
    SELECT timestamp_ms, state,
           current_mhz, max_mhz, min_mhz, available,
           governor, vendor, source_path, message
    FROM frequency_samples
    ORDER BY timestamp_ms DESC, id DESC
    LIMIT ?`
)

// InitSchema creates the tables and records the current version.
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating history database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			SQL   string
		}{
			Error: err.Error(),
			SQL:   createTablesSQL,
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.WithData(ErrSchemaInitFailed, struct {
			Error string
			Phase string
		}{
			Error: err.Error(),
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().Int("version", SchemaVersion).Msg("History schema initialized")

	return nil
}

// GetSchemaVersion returns the stored schema version, or 0 for a fresh
// database.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Error string
		}{
			Phase: "get_version",
			Error: err.Error(),
		})
	}

	return version, nil
}

func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().WithData(ErrSchemaValidationFailed, struct {
			Phase string
			Table string
			Error string
		}{
			Phase: "check_table_exists",
			Table: tableName,
			Error: err.Error(),
		})
	}
	return exists, nil
}
