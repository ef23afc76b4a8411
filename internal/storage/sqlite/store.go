// Package sqlite provides the durable AuditStore backed by SQLite.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/fairlens/fairlens/internal/core/domain"
	"github.com/fairlens/fairlens/internal/storage"
)

// Store is a SQLite implementation of AuditStore.
type Store struct {
	db *sqlx.DB
}

var _ storage.AuditStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS audit_records (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			actor TEXT NOT NULL,
			demographics TEXT,
			result TEXT NOT NULL,
			degraded_layers TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_session ON audit_records(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_records(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

type auditRow struct {
	ID             string    `db:"id"`
	SessionID      string    `db:"session_id"`
	Actor          string    `db:"actor"`
	Demographics   string    `db:"demographics"`
	Result         string    `db:"result"`
	DegradedLayers string    `db:"degraded_layers"`
	CreatedAt      time.Time `db:"created_at"`
}

func (s *Store) AppendAudit(ctx context.Context, rec *domain.AuditRecord) error {
	demographics, err := json.Marshal(rec.Demographics)
	if err != nil {
		return fmt.Errorf("failed to marshal demographics: %w", err)
	}
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	degraded, err := json.Marshal(rec.DegradedLayers)
	if err != nil {
		return fmt.Errorf("failed to marshal degraded layers: %w", err)
	}

	query := `INSERT INTO audit_records (id, session_id, actor, demographics, result, degraded_layers, created_at)
	          VALUES (:id, :session_id, :actor, :demographics, :result, :degraded_layers, :created_at)`

	_, err = s.db.NamedExecContext(ctx, query, auditRow{
		ID:             rec.ID,
		SessionID:      rec.SessionID,
		Actor:          rec.Actor,
		Demographics:   string(demographics),
		Result:         string(result),
		DegradedLayers: string(degraded),
		CreatedAt:      rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}

func (s *Store) ListAudits(ctx context.Context, opts storage.ListOptions) ([]*domain.AuditRecord, error) {
	var conds []string
	var args []any

	if opts.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, opts.SessionID)
	}
	if !opts.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, opts.Since)
	}
	if !opts.Until.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, opts.Until)
	}

	query := "SELECT id, session_id, actor, demographics, result, degraded_layers, created_at FROM audit_records"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}

	records := make([]*domain.AuditRecord, 0, len(rows))
	for _, row := range rows {
		rec := &domain.AuditRecord{
			ID:        row.ID,
			SessionID: row.SessionID,
			Actor:     row.Actor,
			CreatedAt: row.CreatedAt,
		}
		if row.Demographics != "" {
			if err := json.Unmarshal([]byte(row.Demographics), &rec.Demographics); err != nil {
				return nil, fmt.Errorf("failed to unmarshal demographics: %w", err)
			}
		}
		if err := json.Unmarshal([]byte(row.Result), &rec.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		if row.DegradedLayers != "" {
			if err := json.Unmarshal([]byte(row.DegradedLayers), &rec.DegradedLayers); err != nil {
				return nil, fmt.Errorf("failed to unmarshal degraded layers: %w", err)
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
