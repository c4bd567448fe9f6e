// Package media implements the file/media collaborator: copying assets
// into the library, reading content, building data URLs, and a
// sqlite-backed index so asset slots survive source-file moves.
package media

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/patchbay-vj/patchbay/internal/logging"
)

// Library errors.
var (
	ErrEntryNotFound = errors.New("media entry not found")
	ErrNotAFile      = errors.New("not a regular file")
)

// Entry is one indexed media item.
type Entry struct {
	// ID is the unique identifier for the entry.
	ID string `json:"id"`

	// Name is the original file name.
	Name string `json:"name"`

	// Path is the library-relative path of the copied file.
	Path string `json:"path"`

	// Kind is the media kind (image, video, etc) derived from the
	// extension.
	Kind string `json:"kind"`

	// AddedAt is when the entry was copied in.
	AddedAt time.Time `json:"addedAt"`
}

// Library owns the media directory and its sqlite index.
type Library struct {
	logger zerolog.Logger
	dir    string
	db     *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS media (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	path     TEXT NOT NULL UNIQUE,
	kind     TEXT NOT NULL,
	added_at TIMESTAMP NOT NULL
);
`

// Open creates or opens the library at dir.
func Open(dir string) (*Library, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "library.db"))
	if err != nil {
		return nil, fmt.Errorf("open media index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init media index: %w", err)
	}

	return &Library{
		logger: logging.Component("media"),
		dir:    dir,
		db:     db,
	}, nil
}

// Close releases the index.
func (l *Library) Close() error {
	return l.db.Close()
}

// Dir returns the library directory.
func (l *Library) Dir() string {
	return l.dir
}

// CopyToLibrary copies a file into the library and indexes it. The
// returned entry's Path is library-relative and stable from then on.
func (l *Library) CopyToLibrary(ctx context.Context, srcPath string) (Entry, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", srcPath, err)
	}
	if !info.Mode().IsRegular() {
		return Entry{}, fmt.Errorf("%s: %w", srcPath, ErrNotAFile)
	}

	entry := Entry{
		ID:      uuid.New().String(),
		Name:    filepath.Base(srcPath),
		Kind:    kindForExt(filepath.Ext(srcPath)),
		AddedAt: time.Now().UTC(),
	}
	entry.Path = entry.ID + strings.ToLower(filepath.Ext(srcPath))

	if err := copyFile(srcPath, filepath.Join(l.dir, entry.Path)); err != nil {
		return Entry{}, fmt.Errorf("copy %s into library: %w", srcPath, err)
	}

	_, err = l.db.ExecContext(ctx,
		`INSERT INTO media (id, name, path, kind, added_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Name, entry.Path, entry.Kind, entry.AddedAt)
	if err != nil {
		os.Remove(filepath.Join(l.dir, entry.Path))
		return Entry{}, fmt.Errorf("index %s: %w", entry.Name, err)
	}

	l.logger.Info().Str("name", entry.Name).Str("path", entry.Path).Msg("media copied to library")
	return entry, nil
}

// Get looks an entry up by ID.
func (l *Library) Get(ctx context.Context, id string) (Entry, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, name, path, kind, added_at FROM media WHERE id = ?`, id)

	var e Entry
	err := row.Scan(&e.ID, &e.Name, &e.Path, &e.Kind, &e.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query media entry: %w", err)
	}
	return e, nil
}

// Entries lists all indexed media, newest first.
func (l *Library) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, path, kind, added_at FROM media ORDER BY added_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query media entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Path, &e.Kind, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan media entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Remove deletes an entry and its file.
func (l *Library) Remove(ctx context.Context, id string) error {
	entry, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := l.db.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deindex %s: %w", id, err)
	}
	if err := os.Remove(filepath.Join(l.dir, entry.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", entry.Path, err)
	}
	return nil
}

// ReadContent reads a text file, resolving library-relative paths.
func (l *Library) ReadContent(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// DataURL reads a file and encodes it as a data URL for embedding.
func (l *Library) DataURL(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(l.resolve(path))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	mime := mimeForExt(filepath.Ext(path))
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// AbsolutePath resolves a possibly library-relative path to an absolute
// one.
func (l *Library) AbsolutePath(path string) (string, error) {
	return filepath.Abs(l.resolve(path))
}

// resolve maps library-relative paths into the library dir and leaves
// absolute paths alone.
func (l *Library) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(l.dir, path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func kindForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp":
		return "image"
	case ".mp4", ".mov", ".webm", ".mkv", ".avi":
		return "video"
	case ".glsl", ".frag", ".vert", ".fs", ".vs":
		return "shader"
	default:
		return "other"
	}
}

func mimeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
