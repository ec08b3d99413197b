package pastesvc

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/util/dbutil"
)

// OpenStore builds the Store selected by cfg.Backend. The returned close
// function releases backend resources and is always non-nil.
func OpenStore(cfg Config) (Store, func() error, error) {
	cfg = cfg.WithDefaults()
	switch cfg.Backend {
	case "sqlite":
		raw, err := sql.Open("sqlite3", cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		db, err := dbutil.NewWithDB(raw, "sqlite3")
		if err != nil {
			raw.Close()
			return nil, nil, fmt.Errorf("wrapping sqlite database: %w", err)
		}
		return NewSQLiteStore(db), raw.Close, nil
	case "s3":
		store, err := NewS3Store(cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return store, noopClose, nil
	case "memory":
		return NewMemoryStore(), noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown paste backend %q", cfg.Backend)
	}
}

func noopClose() error {
	return nil
}
