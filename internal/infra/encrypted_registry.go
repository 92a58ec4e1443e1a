package infra

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/eb_agent/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.ErrBusy

// Meta keys written by the agent.
const (
	MetaAppVersion = "app_version"
	MetaLastBackup = "last_backup_id"
)

// EncryptedRegistry implements domain.AgentRegistry using a SQLCipher encrypted SQLite database.
type EncryptedRegistry struct {
	db     *sql.DB
	dbPath string
}

// OpenRegistry loads (or creates) the key and opens the registry at dbPath.
func OpenRegistry(dbPath string, keys domain.KeyProvider) (*EncryptedRegistry, error) {
	key, err := EnsureKey(keys)
	if err != nil {
		return nil, fmt.Errorf("registry key: %w", err)
	}
	return NewEncryptedRegistry(dbPath, key)
}

// NewEncryptedRegistry opens (or creates) an encrypted registry database.
// The key is used as the SQLCipher raw key.
func NewEncryptedRegistry(dbPath string, key []byte) (*EncryptedRegistry, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, hex.EncodeToString(key))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// A wrong key only shows up on the first real query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	reg := &EncryptedRegistry{db: db, dbPath: dbPath}
	if err := reg.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return reg, nil
}

func (r *EncryptedRegistry) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS daemon_generations (
		pid INTEGER NOT NULL,
		app_version TEXT NOT NULL DEFAULT '',
		started_at INTEGER NOT NULL,
		last_heartbeat INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS backup_runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		device TEXT NOT NULL,
		folders TEXT NOT NULL,
		files_copied INTEGER NOT NULL,
		bytes_copied INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := r.db.Exec(schema)
	return err
}

// RegisterGeneration records a newly started daemon.
func (r *EncryptedRegistry) RegisterGeneration(gen domain.DaemonGeneration) error {
	started := gen.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.Exec(`
		INSERT INTO daemon_generations (pid, app_version, started_at, last_heartbeat)
		VALUES (?, ?, ?, ?)`,
		gen.PID, gen.AppVersion, started.UnixNano(), started.UnixNano(),
	)
	if err != nil {
		return err
	}
	if gen.AppVersion != "" {
		return r.SetMeta(MetaAppVersion, gen.AppVersion)
	}
	return nil
}

// Heartbeat updates the liveness timestamp of the newest generation with pid.
func (r *EncryptedRegistry) Heartbeat(pid int) error {
	result, err := r.db.Exec(`
		UPDATE daemon_generations SET last_heartbeat = ?
		WHERE rowid = (SELECT MAX(rowid) FROM daemon_generations WHERE pid = ?)`,
		time.Now().UnixNano(), pid)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("daemon %d not registered", pid)
	}
	return nil
}

// LatestGeneration returns the most recently registered daemon, or nil.
func (r *EncryptedRegistry) LatestGeneration() (*domain.DaemonGeneration, error) {
	var (
		gen                domain.DaemonGeneration
		started, heartbeat int64
	)
	err := r.db.QueryRow(`
		SELECT pid, app_version, started_at, last_heartbeat
		FROM daemon_generations ORDER BY rowid DESC LIMIT 1`).
		Scan(&gen.PID, &gen.AppVersion, &started, &heartbeat)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	gen.StartedAt = time.Unix(0, started)
	gen.LastHeartbeat = time.Unix(0, heartbeat)
	return &gen, nil
}

// RecordBackup stores a finished backup run and marks it as the latest.
func (r *EncryptedRegistry) RecordBackup(run domain.BackupRun) error {
	if run.ID == "" {
		return fmt.Errorf("backup run has no id")
	}
	folders, err := json.Marshal(run.Folders)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(`
		INSERT OR REPLACE INTO backup_runs
		(id, started_at, finished_at, device, folders, files_copied, bytes_copied, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(), run.Device, string(folders),
		run.FilesCopied, run.BytesCopied, string(run.Status), run.Error,
	)
	if err != nil {
		return err
	}
	return r.SetMeta(MetaLastBackup, run.ID)
}

// RecentBackups returns up to limit runs, newest first. A non-positive limit returns all.
func (r *EncryptedRegistry) RecentBackups(limit int) ([]domain.BackupRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, device, folders, files_copied, bytes_copied, status, error
		FROM backup_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.BackupRun
	for rows.Next() {
		var (
			run               domain.BackupRun
			started, finished int64
			folders, status   string
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.Device, &folders,
			&run.FilesCopied, &run.BytesCopied, &status, &run.Error); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(folders), &run.Folders); err != nil {
			return nil, fmt.Errorf("decode folders of run %s: %w", run.ID, err)
		}
		run.StartedAt = time.Unix(0, started)
		run.FinishedAt = time.Unix(0, finished)
		run.Status = domain.BackupStatus(status)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SetMeta stores a key/value pair.
func (r *EncryptedRegistry) SetMeta(key, value string) error {
	_, err := r.db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	return err
}

// GetMeta returns a stored value, or "" if missing.
func (r *EncryptedRegistry) GetMeta(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// Path returns the database file path.
func (r *EncryptedRegistry) Path() string {
	return r.dbPath
}

// Close releases the database connection.
func (r *EncryptedRegistry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ensure EncryptedRegistry implements domain.AgentRegistry.
var _ domain.AgentRegistry = (*EncryptedRegistry)(nil)
