package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentNotFoundMsg = "comment not found"

// Status is the workflow state of a comment.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusReplied    Status = "replied"
	StatusResolved   Status = "resolved"
	StatusArchived   Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusReplied, StatusResolved, StatusArchived:
		return true
	}
	return false
}

// Author is the external account that wrote a comment.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Comment is a public comment on a tenant's post.
type Comment struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	Platform       tenancy.Platform
	CommentID      string
	PostID         string
	PostURL        string
	Text           string
	Author         Author
	Sentiment      string
	SentimentScore float64
	IsReplied      bool
	ReplyText      *string
	ReplySentAt    *time.Time
	IsAutoReply    bool
	AssignedTo     *uuid.UUID
	Status         Status
	IsLead         bool
	LeadID         *uuid.UUID
	Likes          int
	CommentedAt    *time.Time
	Raw            json.RawMessage
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewComment carries the fields set on first sight of a comment.
type NewComment struct {
	TenantID       uuid.UUID
	Platform       tenancy.Platform
	CommentID      string
	PostID         string
	PostURL        string
	Text           string
	Author         Author
	Sentiment      string
	SentimentScore float64
	Likes          int
	CommentedAt    *time.Time
	Raw            json.RawMessage
}

// ReplyUpdate records a reply the platform has confirmed.
type ReplyUpdate struct {
	Text   string
	SentAt time.Time
	Auto   bool
}

// CommentUpdate is a manual status/assignee override. Nil fields are untouched.
type CommentUpdate struct {
	Status        *Status
	AssignedTo    *uuid.UUID
	ClearAssignee bool
}

// ListParams filters the comment list. TenantID is mandatory.
type ListParams struct {
	TenantID   uuid.UUID
	Platform   string
	Status     string
	Sentiment  string
	IsReplied  *bool
	IsLead     *bool
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

const commentColumns = `id, tenant_id, platform, comment_id, post_id, post_url, comment_text,
	author_id, author_username, author_name, sentiment, sentiment_score,
	is_replied, reply_text, reply_sent_at, is_auto_reply, assigned_to, status,
	is_lead, lead_id, likes, commented_at, raw, created_at, updated_at`

const insertCommentQuery = `
	INSERT INTO comments (tenant_id, platform, comment_id, post_id, post_url, comment_text,
		author_id, author_username, author_name, sentiment, sentiment_score, likes, commented_at, raw)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (tenant_id, comment_id) DO NOTHING
	RETURNING ` + commentColumns

const selectByExternalIDQuery = `SELECT ` + commentColumns + ` FROM comments WHERE tenant_id = $1 AND comment_id = $2`

const listUnrepliedQuery = `
	SELECT ` + commentColumns + `
	FROM comments
	WHERE tenant_id = $1 AND is_replied = false AND status = 'new'
	ORDER BY created_at ASC
	LIMIT $2`

const listLeadCandidatesQuery = `
	SELECT ` + commentColumns + `
	FROM comments
	WHERE tenant_id = $1
		AND is_lead = false
		AND status IN ('new', 'in_progress')
		AND (sentiment = 'positive' OR sentiment_score > 0.5)
	ORDER BY created_at ASC
	LIMIT $2`

const markRepliedQuery = `
	UPDATE comments
	SET is_replied = true, reply_text = $3, reply_sent_at = $4, is_auto_reply = $5,
		status = 'replied', updated_at = now()
	WHERE tenant_id = $1 AND id = $2 AND is_replied = false
	RETURNING ` + commentColumns

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (Comment, error) {
	var c Comment
	var platform, status string
	var raw []byte
	err := row.Scan(
		&c.ID, &c.TenantID, &platform, &c.CommentID, &c.PostID, &c.PostURL, &c.Text,
		&c.Author.ID, &c.Author.Username, &c.Author.Name, &c.Sentiment, &c.SentimentScore,
		&c.IsReplied, &c.ReplyText, &c.ReplySentAt, &c.IsAutoReply, &c.AssignedTo, &status,
		&c.IsLead, &c.LeadID, &c.Likes, &c.CommentedAt, &raw, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return Comment{}, err
	}
	c.Platform = tenancy.Platform(platform)
	c.Status = Status(status)
	c.Raw = raw
	return c, nil
}

// InsertIfAbsent stores a first-seen comment. When (tenant, comment ID) is
// already present, the stored row is returned and created is false.
func (r *Repository) InsertIfAbsent(ctx context.Context, in NewComment) (Comment, bool, error) {
	raw := in.Raw
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	c, err := scanComment(r.pool.QueryRow(ctx, insertCommentQuery,
		in.TenantID, string(in.Platform), in.CommentID, in.PostID, in.PostURL, in.Text,
		in.Author.ID, in.Author.Username, in.Author.Name, in.Sentiment, in.SentimentScore,
		in.Likes, in.CommentedAt, []byte(raw),
	))
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, false, err
	}

	existing, err := scanComment(r.pool.QueryRow(ctx, selectByExternalIDQuery, in.TenantID, in.CommentID))
	if err != nil {
		return Comment{}, false, err
	}
	return existing, false, nil
}

// FindByCommentID looks a comment up by its platform id. found is false
// when the tenant has no such comment.
func (r *Repository) FindByCommentID(ctx context.Context, tenantID uuid.UUID, commentID string) (Comment, bool, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, selectByExternalIDQuery, tenantID, commentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, false, nil
	}
	if err != nil {
		return Comment{}, false, err
	}
	return c, true, nil
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE tenant_id = $1 AND id = $2`, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, apperr.NotFound(commentNotFoundMsg)
	}
	return c, err
}

// ListUnreplied returns the oldest unanswered new comments.
func (r *Repository) ListUnreplied(ctx context.Context, tenantID uuid.UUID, limit int) ([]Comment, error) {
	return r.queryComments(ctx, listUnrepliedQuery, tenantID, limit)
}

// ListLeadCandidates returns comments positive enough to be considered for a lead.
// Interest keywords are checked by the caller.
func (r *Repository) ListLeadCandidates(ctx context.Context, tenantID uuid.UUID, limit int) ([]Comment, error) {
	return r.queryComments(ctx, listLeadCandidatesQuery, tenantID, limit)
}

// MarkReplied flips the reply state only if the comment is still unanswered.
// A concurrent reply makes it return an already-replied conflict.
func (r *Repository) MarkReplied(ctx context.Context, tenantID, id uuid.UUID, u ReplyUpdate) (Comment, error) {
	c, err := scanComment(r.pool.QueryRow(ctx, markRepliedQuery, tenantID, id, u.Text, u.SentAt, u.Auto))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, apperr.AlreadyReplied()
	}
	return c, err
}

// Update applies a manual status or assignee override. is_replied is never touched.
func (r *Repository) Update(ctx context.Context, tenantID, id uuid.UUID, u CommentUpdate) (Comment, error) {
	var status *string
	if u.Status != nil {
		s := string(*u.Status)
		status = &s
	}

	c, err := scanComment(r.pool.QueryRow(ctx, `
		UPDATE comments
		SET status = COALESCE($3, status),
			assigned_to = CASE WHEN $5 THEN NULL ELSE COALESCE($4, assigned_to) END,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+commentColumns,
		tenantID, id, status, u.AssignedTo, u.ClearAssignee,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Comment{}, apperr.NotFound(commentNotFoundMsg)
	}
	return c, err
}

// List returns a filtered page of comments and the total match count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Comment, int, error) {
	whereClause, args, argIdx := buildCommentListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM comments WHERE "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM comments
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, commentColumns, whereClause, argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return items, total, nil
}

func (r *Repository) queryComments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

func buildCommentListWhere(params ListParams) (string, []interface{}, int) {
	// Tenant is always the first filter.
	whereClauses := []string{"tenant_id = $1"}
	args := []interface{}{params.TenantID}
	argIdx := 2

	add := func(clause string, value interface{}) {
		whereClauses = append(whereClauses, fmt.Sprintf(clause, argIdx))
		args = append(args, value)
		argIdx++
	}

	if params.Platform != "" {
		add("platform = $%d", params.Platform)
	}
	if params.Status != "" {
		add("status = $%d", params.Status)
	}
	if params.Sentiment != "" {
		add("sentiment = $%d", params.Sentiment)
	}
	if params.IsReplied != nil {
		add("is_replied = $%d", *params.IsReplied)
	}
	if params.IsLead != nil {
		add("is_lead = $%d", *params.IsLead)
	}
	if params.AssignedTo != nil {
		add("assigned_to = $%d", *params.AssignedTo)
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}
