package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one row of a tenant's audit trail.
type Entry struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Details      json.RawMessage
	CreatedAt    time.Time
}

type NewEntry struct {
	TenantID     uuid.UUID
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Details      json.RawMessage
}

// ListParams filters the audit trail. TenantID is mandatory.
type ListParams struct {
	TenantID     uuid.UUID
	Action       string
	ResourceType string
	UserID       *uuid.UUID
	Since        *time.Time
	Limit        int
	Offset       int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `id, tenant_id, user_id, action, resource_type, resource_id, details, created_at`

const insertEntryQuery = `
	INSERT INTO activity_logs (tenant_id, user_id, action, resource_type, resource_id, details)
	VALUES ($1, $2, $3, $4, $5, $6)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var details []byte
	err := row.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &details, &e.CreatedAt)
	e.Details = details
	return e, err
}

func (r *Repository) Insert(ctx context.Context, in NewEntry) error {
	details := in.Details
	if len(details) == 0 {
		details = json.RawMessage(`{}`)
	}
	_, err := r.pool.Exec(ctx, insertEntryQuery,
		in.TenantID, in.UserID, in.Action, in.ResourceType, in.ResourceID, []byte(details))
	return err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Entry, int, error) {
	whereClause, args, argIdx := buildActivityWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM activity_logs WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM activity_logs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, entryColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return entries, total, nil
}

func buildActivityWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"tenant_id = $1"}
	args := []interface{}{params.TenantID}
	argIdx := 2

	add := func(clause string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(clause, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Action != "" {
		add("action = $%d", params.Action)
	}
	if params.ResourceType != "" {
		add("resource_type = $%d", params.ResourceType)
	}
	if params.UserID != nil {
		add("user_id = $%d", *params.UserID)
	}
	if params.Since != nil {
		add("created_at >= $%d", *params.Since)
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}
