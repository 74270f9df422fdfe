package data

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open connects to the single-file store. WAL journaling keeps dashboard
// reads from blocking behind an in-flight write; the pool is capped at one
// connection because the store is single-writer by design.
func Open(path string) (*sqlx.DB, error) {
	// sqlx does not know the bind type for the modernc driver name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)

	dsn := fmt.Sprintf(
		"file:%s?_time_format=sqlite&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		path,
	)
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}
