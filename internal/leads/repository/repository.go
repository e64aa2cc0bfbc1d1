package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"engagement_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadNotFoundMsg = "lead not found"

// Lead is a tenant-scoped sales prospect.
type Lead struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	Source             string
	CommentID          *string
	Name               string
	Email              *string
	Phone              *string
	Username           *string
	PlatformProfileURL *string
	Status             string
	Priority           string
	Score              int
	Tags               []string
	AssignedTo         *uuid.UUID
	OriginalComment    *string
	Sentiment          *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Note is an append-only remark on a lead.
type Note struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	TenantID  uuid.UUID
	Body      string
	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// CreateParams holds the columns written on insert. CommentRowID links the
// lead to a stored comment and flags that comment as converted.
type CreateParams struct {
	TenantID           uuid.UUID
	Source             string
	CommentRowID       *uuid.UUID
	Name               string
	Email              *string
	Phone              *string
	Username           *string
	PlatformProfileURL *string
	Status             string
	Priority           string
	Score              int
	Tags               []string
	AssignedTo         *uuid.UUID
	OriginalComment    *string
	Sentiment          *string
}

// UpdateParams holds optional field changes. Nil fields are untouched.
type UpdateParams struct {
	Name       *string
	Email      *string
	Phone      *string
	Status     *string
	Priority   *string
	Score      *int
	Tags       []string
	AssignedTo *uuid.UUID
}

// ListParams filters the lead list. TenantID is mandatory.
type ListParams struct {
	TenantID   uuid.UUID
	Status     string
	Priority   string
	Source     string
	Search     string
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

const leadColumns = `id, tenant_id, source, comment_id, name, email, phone, username,
	platform_profile_url, status, priority, score, tags, assigned_to, original_comment,
	sentiment, created_at, updated_at`

// flagCommentQuery claims a comment for lead creation. Zero rows means the
// comment is gone or already converted.
const flagCommentQuery = `
	UPDATE comments
	SET is_lead = true, lead_id = $3, updated_at = now()
	WHERE tenant_id = $1 AND id = $2 AND is_lead = false`

const insertLeadQuery = `
	INSERT INTO leads (id, tenant_id, source, comment_id, name, email, phone, username,
		platform_profile_url, status, priority, score, tags, assigned_to, original_comment, sentiment)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (tenant_id, comment_id) DO NOTHING
	RETURNING ` + leadColumns

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.TenantID, &l.Source, &l.CommentID, &l.Name, &l.Email, &l.Phone, &l.Username,
		&l.PlatformProfileURL, &l.Status, &l.Priority, &l.Score, &l.Tags, &l.AssignedTo,
		&l.OriginalComment, &l.Sentiment, &l.CreatedAt, &l.UpdatedAt,
	)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	return l, err
}

// Create inserts a lead. With CommentRowID set, flagging the comment and
// inserting the lead happen in one transaction; created is false when the
// comment was already converted, and nothing is written.
func (r *Repository) Create(ctx context.Context, params CreateParams) (lead Lead, created bool, err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, false, err
	}
	defer func() {
		if err != nil || !created {
			_ = tx.Rollback(ctx)
		}
	}()

	id := uuid.New()
	var commentRef *string
	if params.CommentRowID != nil {
		tag, execErr := tx.Exec(ctx, flagCommentQuery, params.TenantID, *params.CommentRowID, id)
		if execErr != nil {
			return Lead{}, false, execErr
		}
		if tag.RowsAffected() == 0 {
			return Lead{}, false, nil
		}
		ref := params.CommentRowID.String()
		commentRef = &ref
	}

	tags := params.Tags
	if tags == nil {
		tags = []string{}
	}

	lead, err = scanLead(tx.QueryRow(ctx, insertLeadQuery,
		id, params.TenantID, params.Source, commentRef, params.Name, params.Email, params.Phone,
		params.Username, params.PlatformProfileURL, params.Status, params.Priority, params.Score,
		tags, params.AssignedTo, params.OriginalComment, params.Sentiment,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, false, nil
	}
	if err != nil {
		return Lead{}, false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return Lead{}, false, err
	}
	created = true
	return lead, true, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	return lead, err
}

func (r *Repository) Update(ctx context.Context, tenantID, id uuid.UUID, params UpdateParams) (Lead, error) {
	var tags any
	if params.Tags != nil {
		tags = params.Tags
	}

	lead, err := scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			name = COALESCE($3, name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			status = COALESCE($6, status),
			priority = COALESCE($7, priority),
			score = COALESCE($8, score),
			tags = COALESCE($9::text[], tags),
			assigned_to = COALESCE($10, assigned_to),
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+leadColumns,
		tenantID, id, params.Name, params.Email, params.Phone, params.Status, params.Priority,
		params.Score, tags, params.AssignedTo,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, apperr.NotFound(leadNotFoundMsg)
	}
	return lead, err
}

// Delete removes a lead and clears the link on its source comment.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM leads WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err = apperr.NotFound(leadNotFoundMsg)
		return err
	}

	if _, err = tx.Exec(ctx,
		`UPDATE comments SET is_lead = false, lead_id = NULL, updated_at = now() WHERE tenant_id = $1 AND lead_id = $2`,
		tenantID, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, leadColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, lead)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"tenant_id = $1"}
	args := []interface{}{params.TenantID}
	argIdx := 2

	if params.Status != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}
	if params.Priority != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("priority = $%d", argIdx))
		args = append(args, params.Priority)
		argIdx++
	}
	if params.Source != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("source = $%d", argIdx))
		args = append(args, params.Source)
		argIdx++
	}
	if params.AssignedTo != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("assigned_to = $%d", argIdx))
		args = append(args, *params.AssignedTo)
		argIdx++
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR username ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+search+"%")
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

func (r *Repository) AddNote(ctx context.Context, tenantID, leadID uuid.UUID, body string, createdBy *uuid.UUID) (Note, error) {
	var n Note
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_notes (lead_id, tenant_id, body, created_by)
		SELECT id, tenant_id, $3, $4 FROM leads WHERE tenant_id = $1 AND id = $2
		RETURNING id, lead_id, tenant_id, body, created_by, created_at
	`, tenantID, leadID, body, createdBy).Scan(&n.ID, &n.LeadID, &n.TenantID, &n.Body, &n.CreatedBy, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, apperr.NotFound(leadNotFoundMsg)
	}
	return n, err
}

func (r *Repository) ListNotes(ctx context.Context, tenantID, leadID uuid.UUID) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, tenant_id, body, created_by, created_at
		FROM lead_notes
		WHERE tenant_id = $1 AND lead_id = $2
		ORDER BY created_at ASC
	`, tenantID, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.LeadID, &n.TenantID, &n.Body, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
