package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/linkboard/internal/core"
)

// Execer is the part of *pgxpool.Pool the audit store uses.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const createAuditTable = `
CREATE TABLE IF NOT EXISTS audit_log (
	id            UUID PRIMARY KEY,
	action        TEXT NOT NULL,
	severity      TEXT NOT NULL,
	actor         TEXT,
	ip_address    TEXT,
	user_agent    TEXT,
	target        TEXT,
	rows_affected INTEGER,
	detail        JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON audit_log (created_at);
`

const insertAudit = `
INSERT INTO audit_log (id, action, severity, actor, ip_address, user_agent, target, rows_affected, detail, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)
`

const purgeAudit = `DELETE FROM audit_log WHERE created_at < $1`

// AuditStore is a core.AuditSink backed by the audit_log table.
type AuditStore struct {
	db Execer
}

var _ core.AuditSink = (*AuditStore)(nil)

// NewAuditStore wraps db.
func NewAuditStore(db Execer) *AuditStore {
	return &AuditStore{db: db}
}

// Migrate creates the audit table and its index when missing.
func (s *AuditStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createAuditTable); err != nil {
		return fmt.Errorf("migrate audit_log: %w", err)
	}
	return nil
}

// Record inserts one entry.
func (s *AuditStore) Record(ctx context.Context, e core.AuditEntry) error {
	var detail []byte
	if len(e.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(e.Detail); err != nil {
			detail = nil
		}
	}

	var rows *int32
	if e.RowsAffected != 0 {
		n := int32(e.RowsAffected)
		rows = &n
	}

	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.Exec(ctx, insertAudit,
		e.ID, string(e.Action), string(e.Severity),
		e.Actor, e.IPAddress, e.UserAgent, e.Target,
		rows, detail, created,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Purge deletes entries created before cutoff.
func (s *AuditStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, purgeAudit, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit_log: %w", err)
	}
	return tag.RowsAffected(), nil
}
