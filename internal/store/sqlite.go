package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database and applies migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) CreateScaffold(rec ScaffoldRecord) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO scaffolds (id, artifact_type, fingerprint, template_id, output_path, category, step, status, error_message, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.ArtifactType, rec.Fingerprint, rec.TemplateID, rec.OutputPath,
		rec.Category, rec.Step, string(rec.Status), rec.ErrorMessage, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert scaffold: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateScaffoldStep(id, step string) error {
	_, err := s.db.Exec(
		`UPDATE scaffolds SET step = ?, updated_at = datetime('now') WHERE id = ?`,
		step, id,
	)
	return err
}

func (s *SQLiteStore) CompleteScaffold(id, fingerprint, outputPath string) error {
	_, err := s.db.Exec(
		`UPDATE scaffolds SET step = 'COMMITTED', status = ?, fingerprint = ?, output_path = ?, updated_at = datetime('now') WHERE id = ?`,
		string(StatusCompleted), fingerprint, outputPath, id,
	)
	return err
}

func (s *SQLiteStore) FailScaffold(id, step, errorMsg string) error {
	_, err := s.db.Exec(
		`UPDATE scaffolds SET step = ?, status = ?, error_message = ?, updated_at = datetime('now') WHERE id = ?`,
		step, string(StatusFailed), errorMsg, id,
	)
	return err
}

func (s *SQLiteStore) ListScaffolds(limit int) ([]ScaffoldRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT id, artifact_type, fingerprint, template_id, output_path, category, step, status, error_message, created_at, updated_at
		 FROM scaffolds ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScaffoldRecord
	for rows.Next() {
		rec, err := scanScaffold(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) LatestForType(typeID string) (*ScaffoldRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, artifact_type, fingerprint, template_id, output_path, category, step, status, error_message, created_at, updated_at
		 FROM scaffolds WHERE artifact_type = ? ORDER BY created_at DESC LIMIT 1`, typeID,
	)
	var rec ScaffoldRecord
	var status string
	err := row.Scan(
		&rec.ID, &rec.ArtifactType, &rec.Fingerprint, &rec.TemplateID, &rec.OutputPath,
		&rec.Category, &rec.Step, &status, &rec.ErrorMessage, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec.Status = Status(status)
	return &rec, nil
}

func scanScaffold(rows *sql.Rows) (ScaffoldRecord, error) {
	var rec ScaffoldRecord
	var status string
	err := rows.Scan(
		&rec.ID, &rec.ArtifactType, &rec.Fingerprint, &rec.TemplateID, &rec.OutputPath,
		&rec.Category, &rec.Step, &status, &rec.ErrorMessage, &rec.CreatedAt, &rec.UpdatedAt,
	)
	rec.Status = Status(status)
	return rec, err
}
