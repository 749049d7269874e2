package blobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/talktotext/talktotext/internal/types"
)

// Store keeps uploaded assets pending validation. Each asset is a payload
// file on disk plus one row in SQLite keyed by its retrieval token. Tokens
// are single-use: Consume claims the row atomically, so a second fetch of the
// same token always misses.
type Store struct {
	db      *sql.DB
	blobDir string
}

// New opens the store database and prepares the blob directory.
func New(dbPath, blobDir string) (*Store, error) {
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; serializing the pool avoids busy errors
	// when validation clicks race.
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS uploads (
		token TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		extension TEXT NOT NULL,
		payload_path TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Store{db: db, blobDir: blobDir}, nil
}

// Put persists the payload and mints an unguessable retrieval token for it.
func (s *Store) Put(ctx context.Context, email, extension string, payload io.Reader) (string, error) {
	token := uuid.New().String()
	payloadPath := filepath.Join(s.blobDir, fmt.Sprintf("%s.%s", token, extension))

	dst, err := os.Create(payloadPath)
	if err != nil {
		return "", fmt.Errorf("failed to create payload file: %w", err)
	}
	if _, err := io.Copy(dst, payload); err != nil {
		dst.Close()
		os.Remove(payloadPath)
		return "", fmt.Errorf("failed to write payload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(payloadPath)
		return "", fmt.Errorf("failed to close payload file: %w", err)
	}

	query := `INSERT INTO uploads (token, email, extension, payload_path, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, token, email, extension, payloadPath, time.Now()); err != nil {
		os.Remove(payloadPath)
		return "", fmt.Errorf("failed to record upload: %w", err)
	}

	return token, nil
}

// Consume claims the upload for the given token exactly once. The row delete
// decides the winner when two fetches race; the loser gets ErrTokenNotFound.
// The payload is copied into destDir and the stored file is removed, so a
// consumed asset cannot be processed again. A crash between row delete and
// file delete leaves an orphaned payload, which the age-based sweep reclaims.
func (s *Store) Consume(ctx context.Context, token, destDir string) (*types.PendingUpload, error) {
	row := s.db.QueryRowContext(ctx,
		`DELETE FROM uploads WHERE token = ? RETURNING email, extension, payload_path, created_at`, token)

	var (
		email, extension, payloadPath string
		createdAt                     time.Time
	)
	if err := row.Scan(&email, &extension, &payloadPath, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to claim upload: %w", err)
	}

	localPath := filepath.Join(destDir, filepath.Base(payloadPath))
	if err := copyFile(payloadPath, localPath); err != nil {
		return nil, fmt.Errorf("failed to copy payload: %w", err)
	}
	if err := os.Remove(payloadPath); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove consumed payload %s: %v", payloadPath, err)
	}

	return &types.PendingUpload{
		Token:     token,
		Email:     email,
		Extension: extension,
		LocalPath: localPath,
		CreatedAt: createdAt,
	}, nil
}

// SweepExpired deletes uploads that were never validated within maxAge,
// payload files included. Orphaned payload files without a row are removed
// by age as well.
func (s *Store) SweepExpired(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	rows, err := s.db.QueryContext(ctx, `SELECT token, payload_path FROM uploads WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired uploads: %w", err)
	}

	type expired struct{ token, path string }
	var stale []expired
	for rows.Next() {
		var e expired
		if err := rows.Scan(&e.token, &e.path); err != nil {
			continue
		}
		stale = append(stale, e)
	}
	rows.Close()

	deleted := 0
	for _, e := range stale {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM uploads WHERE token = ?`, e.token); err != nil {
			log.Printf("Failed to delete expired upload %s: %v", e.token, err)
			continue
		}
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			log.Printf("Failed to remove expired payload %s: %v", e.path, err)
		}
		deleted++
	}

	// Orphaned payloads with no row (failed half-deletes).
	entries, err := os.ReadDir(s.blobDir)
	if err != nil {
		return deleted, nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.blobDir, entry.Name())
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uploads WHERE payload_path = ?`, path).Scan(&n); err != nil || n > 0 {
			continue
		}
		if err := os.Remove(path); err == nil {
			deleted++
			log.Printf("Removed orphaned payload: %s", entry.Name())
		}
	}

	return deleted, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
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
