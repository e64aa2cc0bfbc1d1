package transport

import "time"

type CreateLeadRequest struct {
	Tenant     string   `json:"tenant,omitempty"`
	Name       string   `json:"name" validate:"required,notblank,max=200"`
	Email      string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string   `json:"phone,omitempty" validate:"omitempty,max=40"`
	Username   string   `json:"username,omitempty" validate:"omitempty,max=200"`
	Source     string   `json:"source,omitempty" validate:"omitempty,oneof=instagram facebook manual"`
	CommentID  string   `json:"commentId,omitempty" validate:"omitempty,uuid"`
	Priority   string   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Score      *int     `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,notblank,max=50"`
	AssignedTo string   `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
}

type UpdateLeadRequest struct {
	Tenant     string   `json:"tenant,omitempty"`
	Name       *string  `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string  `json:"phone,omitempty" validate:"omitempty,max=40"`
	Status     *string  `json:"status,omitempty" validate:"omitempty,oneof=new contacted qualified converted lost"`
	Priority   *string  `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Score      *int     `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	Tags       []string `json:"tags,omitempty" validate:"omitempty,max=20,dive,notblank,max=50"`
	AssignedTo *string  `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	Note       string   `json:"note,omitempty" validate:"omitempty,max=2000"`
}

type ListLeadsRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=new contacted qualified converted lost"`
	Priority string `form:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Source   string `form:"source" validate:"omitempty,oneof=instagram facebook manual"`
	Search   string `form:"search" validate:"omitempty,max=100"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type LeadNoteResponse struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CreatedBy *string   `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type LeadResponse struct {
	ID                 string             `json:"id"`
	Source             string             `json:"source"`
	CommentID          *string            `json:"commentId,omitempty"`
	Name               string             `json:"name"`
	Email              *string            `json:"email,omitempty"`
	Phone              *string            `json:"phone,omitempty"`
	Username           *string            `json:"username,omitempty"`
	PlatformProfileURL *string            `json:"platformProfileUrl,omitempty"`
	Status             string             `json:"status"`
	Priority           string             `json:"priority"`
	Score              int                `json:"score"`
	Tags               []string           `json:"tags"`
	AssignedTo         *string            `json:"assignedTo,omitempty"`
	OriginalComment    *string            `json:"originalComment,omitempty"`
	Sentiment          *string            `json:"sentiment,omitempty"`
	Notes              []LeadNoteResponse `json:"notes,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

type LeadListResponse struct {
	Items      []LeadResponse `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

type GenerateLeadsResponse struct {
	Created int            `json:"created"`
	Leads   []LeadResponse `json:"leads"`
}
