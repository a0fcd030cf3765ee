package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gosuda/tasktrack/internal/domain"
)

type AuditRepo struct {
	db DBTX
}

func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal details: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO audit_log (id, actor_id, action, resource, resource_id, task_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.ActorID, entry.Action, entry.Resource, entry.ResourceID,
		entry.TaskID, raw, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) ListByTask(ctx context.Context, taskID int64, limit int) ([]*domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, actor_id, action, resource, resource_id, task_id, details, created_at
		 FROM audit_log WHERE task_id = $1
		 ORDER BY created_at DESC
		 LIMIT NULLIF($2::int, 0)`,
		taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByTask: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.ListByTask")
}

func scanAuditEntries(rows pgx.Rows, caller string) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var details []byte

		if err := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &e.Resource, &e.ResourceID,
			&e.TaskID, &details, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("%s: unmarshal details: %w", caller, err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}
