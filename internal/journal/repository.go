package journal

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/billdesk/billdesk/internal/platform/db"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrInvalidEntry is returned when an entry lacks its client id.
var ErrInvalidEntry = errors.New("journal: entry requires a client id")

// Migrations returns the journal schema migrations in order.
func Migrations() ([]db.Migration, error) {
	return db.LoadMigrations(migrationFS, "migrations")
}

// Repository persists save cycles.
type Repository interface {
	Record(ctx context.Context, entry Entry) (int64, error)
	ListForClient(ctx context.Context, clientID string, limit int) ([]Entry, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository builds a Postgres-backed journal.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// Open migrates the journal schema and returns the repository.
func Open(ctx context.Context, pool *pgxpool.Pool) (Repository, []string, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, nil, err
	}
	applied, err := db.Migrate(ctx, pool, migrations)
	if err != nil {
		return nil, applied, err
	}
	return NewRepository(pool), applied, nil
}

const insertEntry = `INSERT INTO budget_sync_journal
	(client_id, started_at, finished_at, outcome, phase, catalog_created, assigned,
	 combos_assigned, updated, deleted, error, writes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`

func (r *repository) Record(ctx context.Context, entry Entry) (int64, error) {
	if entry.ClientID == "" {
		return 0, ErrInvalidEntry
	}
	writes := entry.Writes
	if writes == nil {
		writes = []Write{}
	}
	raw, err := json.Marshal(writes)
	if err != nil {
		return 0, fmt.Errorf("journal: encode writes: %w", err)
	}
	var id int64
	err = r.db.QueryRow(ctx, insertEntry,
		entry.ClientID, entry.StartedAt, entry.FinishedAt, entry.Outcome, entry.Phase,
		entry.CatalogCreated, entry.Assigned, entry.CombosAssigned, entry.Updated, entry.Deleted,
		entry.Error, raw,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("journal: insert: %w", err)
	}
	return id, nil
}

const listForClient = `SELECT id, client_id, started_at, finished_at, outcome, phase,
	catalog_created, assigned, combos_assigned, updated, deleted, error, writes
FROM budget_sync_journal
WHERE client_id = $1
ORDER BY started_at DESC, id DESC
LIMIT $2`

func (r *repository) ListForClient(ctx context.Context, clientID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, listForClient, clientID, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e   Entry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.ClientID, &e.StartedAt, &e.FinishedAt, &e.Outcome, &e.Phase,
			&e.CatalogCreated, &e.Assigned, &e.CombosAssigned, &e.Updated, &e.Deleted, &e.Error, &raw); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Writes); err != nil {
			return nil, fmt.Errorf("journal: decode writes: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: list: %w", err)
	}
	return out, nil
}
