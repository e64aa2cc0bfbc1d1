package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"engagement_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const inboxItemNotFoundMsg = "inbox item not found"

// Item is one inbound or outbound event in a tenant's unified inbox.
type Item struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Type            string
	Platform        string
	PostID          *string
	ExternalID      *string
	ThreadID        *string
	MessageText     string
	Direction       string
	AuthorID        string
	AuthorUsername  string
	AuthorName      string
	Recipient       *string
	Read            bool
	Status          string
	Urgency         string
	Sentiment       string
	SentimentScore  float64
	AssignedTo      *uuid.UUID
	FirstResponseAt *time.Time
	ClosedAt        *time.Time
	Raw             json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewItem carries the fields written on first sight.
type NewItem struct {
	TenantID       uuid.UUID
	Type           string
	Platform       string
	PostID         *string
	ExternalID     *string
	ThreadID       *string
	MessageText    string
	Direction      string
	AuthorID       string
	AuthorUsername string
	AuthorName     string
	Recipient      *string
	Urgency        string
	Sentiment      string
	SentimentScore float64
	Raw            json.RawMessage
}

// ListParams filters the inbox. TenantID is mandatory.
type ListParams struct {
	TenantID   uuid.UUID
	Type       string
	Platform   string
	Read       *bool
	Urgency    string
	Status     string
	AssignedTo *uuid.UUID
	Limit      int
	Offset     int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `id, tenant_id, type, platform, post_id, external_id, thread_id, message_text,
	direction, author_id, author_username, author_name, recipient, read, status, urgency,
	sentiment, sentiment_score, assigned_to, first_response_at, closed_at, raw, created_at, updated_at`

const insertItemQuery = `
	INSERT INTO inbox_items (tenant_id, type, platform, post_id, external_id, thread_id, message_text,
		direction, author_id, author_username, author_name, recipient, urgency, sentiment, sentiment_score, raw)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (tenant_id, external_id) DO NOTHING
	RETURNING ` + itemColumns

const selectByExternalIDQuery = `SELECT ` + itemColumns + ` FROM inbox_items WHERE tenant_id = $1 AND external_id = $2`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var it Item
	var raw []byte
	err := row.Scan(
		&it.ID, &it.TenantID, &it.Type, &it.Platform, &it.PostID, &it.ExternalID, &it.ThreadID, &it.MessageText,
		&it.Direction, &it.AuthorID, &it.AuthorUsername, &it.AuthorName, &it.Recipient, &it.Read, &it.Status, &it.Urgency,
		&it.Sentiment, &it.SentimentScore, &it.AssignedTo, &it.FirstResponseAt, &it.ClosedAt, &raw, &it.CreatedAt, &it.UpdatedAt,
	)
	it.Raw = raw
	return it, err
}

// InsertIfAbsent stores an item unless (tenant, external ID) already exists,
// in which case the stored item is returned with created false.
func (r *Repository) InsertIfAbsent(ctx context.Context, in NewItem) (Item, bool, error) {
	raw := in.Raw
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	it, err := scanItem(r.pool.QueryRow(ctx, insertItemQuery,
		in.TenantID, in.Type, in.Platform, in.PostID, in.ExternalID, in.ThreadID, in.MessageText,
		in.Direction, in.AuthorID, in.AuthorUsername, in.AuthorName, in.Recipient, in.Urgency,
		in.Sentiment, in.SentimentScore, []byte(raw),
	))
	if err == nil {
		return it, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || in.ExternalID == nil {
		return Item{}, false, err
	}

	existing, err := scanItem(r.pool.QueryRow(ctx, selectByExternalIDQuery, in.TenantID, *in.ExternalID))
	if err != nil {
		return Item{}, false, err
	}
	return existing, false, nil
}

// FindByExternalID looks an item up by its platform id.
func (r *Repository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (Item, bool, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, selectByExternalIDQuery, tenantID, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, err
	}
	return it, true, nil
}

func (r *Repository) MarkRead(ctx context.Context, tenantID, id uuid.UUID) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `
		UPDATE inbox_items SET read = true, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+itemColumns, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, apperr.NotFound(inboxItemNotFoundMsg)
	}
	return it, err
}

// Assign sets or clears the assignee. Assigning an open item moves it to pending.
func (r *Repository) Assign(ctx context.Context, tenantID, id uuid.UUID, assignee *uuid.UUID) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `
		UPDATE inbox_items
		SET assigned_to = $3,
			status = CASE WHEN $3::uuid IS NOT NULL AND status = 'open' THEN 'pending' ELSE status END,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+itemColumns, tenantID, id, assignee))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, apperr.NotFound(inboxItemNotFoundMsg)
	}
	return it, err
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Item, int, error) {
	whereClause, args, argIdx := buildInboxListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM inbox_items WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM inbox_items
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, itemColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

func buildInboxListWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"tenant_id = $1"}
	args := []interface{}{params.TenantID}
	argIdx := 2

	add := func(clause string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(clause, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Type != "" {
		add("type = $%d", params.Type)
	}
	if params.Platform != "" {
		add("platform = $%d", params.Platform)
	}
	if params.Read != nil {
		add("read = $%d", *params.Read)
	}
	if params.Urgency != "" {
		add("urgency = $%d", params.Urgency)
	}
	if params.Status != "" {
		add("status = $%d", params.Status)
	}
	if params.AssignedTo != nil {
		add("assigned_to = $%d", *params.AssignedTo)
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}
