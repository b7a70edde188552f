package archive

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/json"
	"fmt"
	"image/png"
	"sync"
	"time"

	"github.com/MeKo-Tech/pixfx/internal/imageio"
	"github.com/MeKo-Tech/pixfx/internal/pixel"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	// DefaultBatchSize is the number of renders to buffer before flushing to the database.
	DefaultBatchSize = 50
)

// Writer writes renders to an archive database.
type Writer struct {
	db          *sql.DB
	path        string
	batch       []Entry
	metadata    Metadata
	batchSize   int
	compression png.CompressionLevel
	mu          sync.Mutex
}

// New creates a new archive writer.
// The database is created if it doesn't exist, and the schema is initialized.
func New(path string, metadata Metadata) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if err := insertMetadata(db, metadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to insert metadata: %w", err)
	}

	return &Writer{
		db:          db,
		path:        path,
		batch:       make([]Entry, 0, DefaultBatchSize),
		batchSize:   DefaultBatchSize,
		metadata:    metadata,
		compression: png.DefaultCompression,
	}, nil
}

// SetCompression sets the PNG level used by WriteImage.
func (w *Writer) SetCompression(level png.CompressionLevel) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.compression = level
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS renders (
			name TEXT PRIMARY KEY,
			operation TEXT NOT NULL,
			params TEXT NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			image BLOB NOT NULL,
			created_at TEXT NOT NULL
		);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

func insertMetadata(db *sql.DB, meta Metadata) error {
	if _, err := db.Exec("DELETE FROM metadata"); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}

	stmt, err := db.Prepare("INSERT INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare metadata insert: %w", err)
	}
	defer stmt.Close()

	for key, value := range meta.ToMap() {
		if _, err := stmt.Exec(key, value); err != nil {
			return fmt.Errorf("failed to insert metadata %q: %w", key, err)
		}
	}

	return nil
}

// Write adds an entry to the batch. When the batch is full, it is automatically flushed.
func (w *Writer) Write(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("render name must not be empty: %w", pixel.ErrInvalidParameter)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.batch = append(w.batch, e)

	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}

	return nil
}

// WriteImage encodes buf as PNG and queues it under name.
func (w *Writer) WriteImage(name, operation string, params any, buf *pixel.Buffer) error {
	if buf == nil {
		return fmt.Errorf("render %q: nil buffer: %w", name, pixel.ErrInvalidParameter)
	}

	w.mu.Lock()
	level := w.compression
	w.mu.Unlock()

	data, err := imageio.EncodePNG(buf, level)
	if err != nil {
		return fmt.Errorf("failed to encode render %q: %w", name, err)
	}

	return w.Write(Entry{
		Name:      name,
		Operation: operation,
		Params:    params,
		Width:     buf.Width(),
		Height:    buf.Height(),
		Data:      data,
	})
}

// Flush writes any buffered entries to the database.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

// flushLocked writes buffered entries to the database. Must be called with lock held.
func (w *Writer) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO renders
		(name, operation, params, width, height, image, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, e := range w.batch {
		params, err := json.Marshal(e.Params)
		if err != nil {
			return fmt.Errorf("failed to encode params of %q: %w", e.Name, err)
		}

		compressed, err := gzipCompress(e.Data)
		if err != nil {
			return fmt.Errorf("failed to compress render %q: %w", e.Name, err)
		}

		if _, err := stmt.Exec(e.Name, e.Operation, string(params), e.Width, e.Height, compressed, now); err != nil {
			return fmt.Errorf("failed to insert render %q: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.batch = w.batch[:0]
	return nil
}

// Close flushes any remaining entries and closes the database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}

	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}

	if err := gw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
