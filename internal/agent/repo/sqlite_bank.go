package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/carbon-assistant/server/internal/agent/model"
	errx "github.com/carbon-assistant/server/internal/core/error"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

const bankSchema = `
CREATE TABLE IF NOT EXISTS emission_records (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id   TEXT NOT NULL,
	input_json   TEXT NOT NULL,
	emission_kg  REAL NOT NULL,
	recorded_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS company_profiles (
	name          TEXT PRIMARY KEY,
	profile_json  TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
`

// SQLiteMemoryBank persists the memory bank in a SQLite database.
type SQLiteMemoryBank struct {
	db *sql.DB
}

// NewSQLiteMemoryBank opens the database at path and runs migrations.
func NewSQLiteMemoryBank(path string) (*SQLiteMemoryBank, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(bankSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteMemoryBank{db: db}, nil
}

// Close closes the underlying database connection.
func (b *SQLiteMemoryBank) Close() error {
	return b.db.Close()
}

func (b *SQLiteMemoryBank) SaveEmissionRecord(ctx context.Context, record model.MemoryRecord) error {
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	input, err := json.Marshal(record.Input)
	if err != nil {
		return fmt.Errorf("marshal record input: %w", err)
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO emission_records (session_id, input_json, emission_kg, recorded_at)
		 VALUES (?, ?, ?, ?)`,
		record.SessionID, string(input), record.Emission, record.RecordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		logx.Error().Err(err).Str("sessionID", record.SessionID).Msg("failed to insert emission record")
		return errx.WrapStorage(fmt.Errorf("insert emission record: %w", err))
	}
	return nil
}

func (b *SQLiteMemoryBank) SaveProfile(ctx context.Context, name string, profile model.CompanyProfile) error {
	if profile == nil {
		profile = model.CompanyProfile{}
	}
	body, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	_, err = b.db.ExecContext(ctx,
		`INSERT INTO company_profiles (name, profile_json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET profile_json = excluded.profile_json, updated_at = excluded.updated_at`,
		name, string(body), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		logx.Error().Err(err).Str("company", name).Msg("failed to upsert company profile")
		return errx.WrapStorage(fmt.Errorf("upsert profile: %w", err))
	}
	return nil
}

func (b *SQLiteMemoryBank) Stats(ctx context.Context) (model.MemoryStats, error) {
	var total int
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emission_records`).Scan(&total); err != nil {
		return model.MemoryStats{}, errx.WrapStorage(fmt.Errorf("count records: %w", err))
	}

	rows, err := b.db.QueryContext(ctx, `SELECT name FROM company_profiles ORDER BY name`)
	if err != nil {
		return model.MemoryStats{}, errx.WrapStorage(fmt.Errorf("list companies: %w", err))
	}
	defer rows.Close()

	companies := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return model.MemoryStats{}, errx.WrapStorage(fmt.Errorf("scan company: %w", err))
		}
		companies = append(companies, name)
	}
	if err := rows.Err(); err != nil {
		return model.MemoryStats{}, errx.WrapStorage(err)
	}
	return model.MemoryStats{TotalRecords: total, Companies: companies}, nil
}

var _ model.MemoryBank = (*SQLiteMemoryBank)(nil)
