// Package store provides SQLite implementation of the Store interface.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/weftlab/weft/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		k INTEGER NOT NULL,
		normalization TEXT NOT NULL,
		inputs TEXT,
		links INTEGER NOT NULL,
		items INTEGER NOT NULL,
		rows_in INTEGER NOT NULL,
		rows_deduped INTEGER NOT NULL,
		singular_values TEXT,
		elapsed_ms INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS embeddings (
		item_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		dim INTEGER NOT NULL,
		vector BLOB NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_run_id ON embeddings(run_id);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts a run record.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *models.Run) error {
	inputsJSON, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("failed to marshal inputs: %w", err)
	}
	valuesJSON, err := json.Marshal(run.SingularValues)
	if err != nil {
		return fmt.Errorf("failed to marshal singular values: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, k, normalization, inputs, links, items,
		                   rows_in, rows_deduped, singular_values, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.K, run.Normalization, string(inputsJSON),
		run.Links, run.Items, run.RowsIn, run.RowsDeduped, string(valuesJSON), run.ElapsedMS,
	)
	return err
}

// LatestRun returns the most recent run, or nil when none exists.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*models.Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// ListRuns returns runs ordered most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, k, normalization, inputs, links, items,
		        rows_in, rows_deduped, singular_values, elapsed_ms
		 FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		var inputsJSON, valuesJSON string
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.K, &run.Normalization,
			&inputsJSON, &run.Links, &run.Items, &run.RowsIn, &run.RowsDeduped,
			&valuesJSON, &run.ElapsedMS); err != nil {
			return nil, err
		}
		if inputsJSON != "" {
			if err := json.Unmarshal([]byte(inputsJSON), &run.Inputs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal inputs: %w", err)
			}
		}
		if valuesJSON != "" {
			if err := json.Unmarshal([]byte(valuesJSON), &run.SingularValues); err != nil {
				return nil, fmt.Errorf("failed to unmarshal singular values: %w", err)
			}
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// ReplaceEmbeddings swaps the full embedding set in one transaction. The old
// set stays visible until commit, so readers never observe a partial table.
func (s *SQLiteStore) ReplaceEmbeddings(ctx context.Context, runID string, embeddings []*models.Embedding) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embeddings (item_id, run_id, dim, vector) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range embeddings {
		if _, err := stmt.ExecContext(ctx, e.ItemID, runID, len(e.Vector), vectorToBytes(e.Vector)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetEmbedding returns one item's embedding by ID.
func (s *SQLiteStore) GetEmbedding(ctx context.Context, itemID string) (*models.Embedding, error) {
	var e models.Embedding
	var dim int
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT item_id, run_id, dim, vector FROM embeddings WHERE item_id = ?`, itemID,
	).Scan(&e.ItemID, &e.RunID, &dim, &blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("embedding not found: %s", itemID)
	}
	if err != nil {
		return nil, err
	}
	e.Vector = bytesToVector(blob)
	if len(e.Vector) != dim {
		return nil, fmt.Errorf("embedding %s: blob holds %d values, dim column says %d", itemID, len(e.Vector), dim)
	}
	return &e, nil
}

// ListEmbeddings returns all embeddings ordered by item ID.
func (s *SQLiteStore) ListEmbeddings(ctx context.Context) ([]*models.Embedding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, run_id, vector FROM embeddings ORDER BY item_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Embedding
	for rows.Next() {
		var e models.Embedding
		var blob []byte
		if err := rows.Scan(&e.ItemID, &e.RunID, &blob); err != nil {
			return nil, err
		}
		e.Vector = bytesToVector(blob)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// CountItems returns the number of stored embeddings.
func (s *SQLiteStore) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// vectorToBytes encodes a vector as little-endian float64 values. The bit
// pattern round-trips exactly, which keeps rebuilt outputs identical.
func vectorToBytes(v []float64) []byte {
	const size = 8
	out := make([]byte, len(v)*size)
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[i*size:(i+1)*size], math.Float64bits(x))
	}
	return out
}

func bytesToVector(b []byte) []float64 {
	const size = 8
	out := make([]float64, len(b)/size)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*size : (i+1)*size]))
	}
	return out
}
