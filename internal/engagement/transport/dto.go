package transport

import "time"

type ListCommentsRequest struct {
	Platform  string `form:"platform" validate:"omitempty,oneof=instagram facebook"`
	Status    string `form:"status" validate:"omitempty,oneof=new in_progress replied resolved archived"`
	Sentiment string `form:"sentiment" validate:"omitempty,oneof=positive negative neutral"`
	IsReplied *bool  `form:"isReplied"`
	IsLead    *bool  `form:"isLead"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

type ReplyRequest struct {
	Tenant    string `json:"tenant,omitempty"`
	ReplyText string `json:"replyText" validate:"omitempty,max=2200"`
	AutoReply bool   `json:"autoReply"`
}

type UpdateCommentRequest struct {
	Tenant        string  `json:"tenant,omitempty"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=new in_progress replied resolved archived"`
	AssignedTo    *string `json:"assignedTo,omitempty" validate:"omitempty,uuid"`
	ClearAssignee bool    `json:"clearAssignee,omitempty"`
}

type SyncRequest struct {
	Tenant   string   `json:"tenant,omitempty"`
	Platform string   `json:"platform" validate:"required,oneof=instagram facebook"`
	PostIDs  []string `json:"postIds,omitempty" validate:"omitempty,max=50,dive,notblank"`
}

type AuthorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type CommentResponse struct {
	ID             string         `json:"id"`
	Platform       string         `json:"platform"`
	CommentID      string         `json:"commentId"`
	PostID         string         `json:"postId"`
	PostURL        string         `json:"postUrl,omitempty"`
	Text           string         `json:"commentText"`
	Author         AuthorResponse `json:"author"`
	Sentiment      string         `json:"sentiment"`
	SentimentScore float64        `json:"sentimentScore"`
	IsReplied      bool           `json:"isReplied"`
	ReplyText      *string        `json:"replyText,omitempty"`
	ReplySentAt    *time.Time     `json:"replySentAt,omitempty"`
	IsAutoReply    bool           `json:"isAutoReply"`
	AssignedTo     *string        `json:"assignedTo,omitempty"`
	Status         string         `json:"status"`
	IsLead         bool           `json:"isLead"`
	LeadID         *string        `json:"leadId,omitempty"`
	Likes          int            `json:"likes"`
	CommentedAt    *time.Time     `json:"commentedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type CommentListResponse struct {
	Items      []CommentResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}

type SyncResponse struct {
	Platform string `json:"platform"`
	Fetched  int    `json:"fetched"`
	Created  int    `json:"created"`
}
