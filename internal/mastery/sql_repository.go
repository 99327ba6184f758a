package mastery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLRepository stores one JSON payload per user and deck in the mastery_maps table.
// It works with the sqlite, mysql and postgres drivers.
type SQLRepository struct {
	db            *sqlx.DB
	retryAttempts uint
	now           func() time.Time
}

// NewSQLiteRepository returns the repository used for the local store
func NewSQLiteRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db, now: time.Now}
}

// NewDBRepository returns a repository for a remote database whose
// transient failures are retried.
func NewDBRepository(db *sqlx.DB, retryAttempts uint) *SQLRepository {
	return &SQLRepository{db: db, retryAttempts: retryAttempts, now: time.Now}
}

type masteryMapRow struct {
	Payload string `db:"payload"`
}

func (r *SQLRepository) Load(ctx context.Context, userID string, deckKey string) (Map, error) {
	var row masteryMapRow
	err := withRetry(ctx, r.retryAttempts, func() error {
		return r.db.GetContext(ctx, &row,
			r.db.Rebind("SELECT payload FROM mastery_maps WHERE user_id = ? AND deck = ?"),
			userKey(userID), deckKey)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Map{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db.GetContext(mastery_maps) > %w", err)
	}

	records := Map{}
	if err := json.Unmarshal([]byte(row.Payload), &records); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(%s) > %w", deckKey, err)
	}
	return records, nil
}

func (r *SQLRepository) Save(ctx context.Context, userID string, deckKey string, records Map) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("json.Marshal() > %w", err)
	}

	query := r.db.Rebind(upsertStatement(r.db.DriverName()))
	err = withRetry(ctx, r.retryAttempts, func() error {
		_, err := r.db.ExecContext(ctx, query, userKey(userID), deckKey, string(payload), r.now().UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("db.ExecContext(upsert mastery_maps) > %w", err)
	}
	return nil
}

func upsertStatement(driverName string) string {
	if driverName == "mysql" {
		return `INSERT INTO mastery_maps (user_id, deck, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`
	}
	return `INSERT INTO mastery_maps (user_id, deck, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, deck) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`
}
