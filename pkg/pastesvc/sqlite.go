package pastesvc

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.mau.fi/util/dbutil"
)

// SQLiteConfig locates the sqlite database file.
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps paste entries in a single sqlite table. The table is
// created lazily on first use.
type SQLiteStore struct {
	db       *dbutil.Database
	initOnce sync.Once
	initErr  error
}

// NewSQLiteStore wraps an already opened database.
func NewSQLiteStore(db *dbutil.Database) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) ensureTable(ctx context.Context) error {
	s.initOnce.Do(func() {
		_, s.initErr = s.db.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS paste_entries (
				id           TEXT PRIMARY KEY,
				content_type TEXT NOT NULL,
				content      BLOB NOT NULL,
				created_at   BIGINT NOT NULL,
				expires_at   BIGINT NOT NULL
			)
		`)
	})
	return s.initErr
}

func (s *SQLiteStore) Put(ctx context.Context, entry *Entry) error {
	if err := s.ensureTable(ctx); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO paste_entries (id, content_type, content, created_at, expires_at)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (id)
         DO UPDATE SET content_type=excluded.content_type, content=excluded.content,
                       created_at=excluded.created_at, expires_at=excluded.expires_at`,
		entry.ID, entry.ContentType, entry.Content,
		entry.CreatedAt.UnixMilli(), unixMilliOrZero(entry.ExpiresAt),
	)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	if err := s.ensureTable(ctx); err != nil {
		return nil, err
	}
	var entry Entry
	var createdAt, expiresAt int64
	row := s.db.QueryRow(ctx,
		`SELECT id, content_type, content, created_at, expires_at
         FROM paste_entries
         WHERE id=$1`,
		id,
	)
	if err := row.Scan(&entry.ID, &entry.ContentType, &entry.Content, &createdAt, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	entry.CreatedAt = time.UnixMilli(createdAt)
	if expiresAt > 0 {
		entry.ExpiresAt = time.UnixMilli(expiresAt)
	}
	if entry.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureTable(ctx); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `DELETE FROM paste_entries WHERE id=$1`, id)
	return err
}

func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int, error) {
	if err := s.ensureTable(ctx); err != nil {
		return 0, err
	}
	result, err := s.db.Exec(ctx,
		`DELETE FROM paste_entries WHERE expires_at > 0 AND expires_at <= $1`,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(rows), nil
}

// unixMilliOrZero keeps a zero time out of the expires_at column, where it
// would read back as an expiry in 1970.
func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
