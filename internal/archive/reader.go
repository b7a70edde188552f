package archive

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MeKo-Tech/pixfx/internal/imageio"
	"github.com/MeKo-Tech/pixfx/internal/pixel"
)

// ErrNotFound is returned when a render name is not in the archive.
var ErrNotFound = errors.New("render not found")

// Reader reads renders from an archive database.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens an archive for reading.
func OpenReader(path string) (*Reader, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='renders'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain renders table")
	}

	return &Reader{
		db:   db,
		path: path,
	}, nil
}

// Read returns the named render with its PNG data decompressed.
func (r *Reader) Read(name string) (Record, error) {
	var (
		rec        Record
		params     string
		created    string
		compressed []byte
	)
	err := r.db.QueryRow(
		"SELECT name, operation, params, width, height, image, created_at FROM renders WHERE name=?",
		name,
	).Scan(&rec.Name, &rec.Operation, &params, &rec.Width, &rec.Height, &compressed, &created)

	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to query render: %w", err)
	}

	rec.Params = []byte(params)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)

	rec.Data, err = gzipDecompress(compressed)
	if err != nil {
		return Record{}, fmt.Errorf("failed to decompress render %q: %w", name, err)
	}

	return rec, nil
}

// ReadImage reads the named render and decodes it into a buffer.
func (r *Reader) ReadImage(name string) (*pixel.Buffer, Record, error) {
	rec, err := r.Read(name)
	if err != nil {
		return nil, Record{}, err
	}
	buf, err := imageio.Decode(bytes.NewReader(rec.Data))
	if err != nil {
		return nil, Record{}, fmt.Errorf("failed to decode render %q: %w", name, err)
	}
	return buf, rec, nil
}

// List returns all renders ordered by name, without image data.
func (r *Reader) List() ([]Record, error) {
	rows, err := r.db.Query("SELECT name, operation, params, width, height, created_at FROM renders ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			params  string
			created string
		)
		if err := rows.Scan(&rec.Name, &rec.Operation, &params, &rec.Width, &rec.Height, &created); err != nil {
			return nil, fmt.Errorf("failed to scan render row: %w", err)
		}
		rec.Params = []byte(params)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating renders: %w", err)
	}

	return out, nil
}

// Metadata reads metadata from the database.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	metaMap := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		metaMap[name] = value
	}

	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("error iterating metadata: %w", err)
	}

	return Metadata{
		Name:        metaMap["name"],
		Description: metaMap["description"],
		Generator:   metaMap["generator"],
	}, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func gzipDecompress(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	return io.ReadAll(gr)
}
