package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

var ErrSchemaOutdated = errors.New("database schema is outdated")

const appliedVersionQuery = `SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied`

// CheckSchemaVersion fails unless the goose version table reports at least want.
func CheckSchemaVersion(ctx context.Context, db *sql.DB, want int64) error {
	var got int64
	if err := db.QueryRowContext(ctx, appliedVersionQuery).Scan(&got); err != nil {
		return errors.Wrap(err, "read schema version")
	}
	if got < want {
		return errors.Wrapf(ErrSchemaOutdated, "have %d, want %d", got, want)
	}
	return nil
}
