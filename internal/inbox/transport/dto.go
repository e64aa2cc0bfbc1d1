package transport

import "time"

type ListInboxRequest struct {
	Type     string `form:"type" validate:"omitempty,oneof=comment dm reaction mention"`
	Platform string `form:"platform" validate:"omitempty,oneof=instagram facebook other"`
	Read     *bool  `form:"read"`
	Urgency  string `form:"urgency" validate:"omitempty,oneof=low medium high"`
	Status   string `form:"status" validate:"omitempty,oneof=open pending closed"`
	Mine     bool   `form:"mine"`
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int    `form:"offset" validate:"omitempty,min=0"`
}

type AssignRequest struct {
	Tenant     string  `json:"tenant,omitempty"`
	AssignedTo *string `json:"assignedTo" validate:"omitempty,uuid"`
}

type InboxItemResponse struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Platform        string     `json:"platform"`
	PostID          *string    `json:"postId,omitempty"`
	ExternalID      *string    `json:"externalId,omitempty"`
	ThreadID        *string    `json:"threadId,omitempty"`
	MessageText     string     `json:"messageText"`
	Direction       string     `json:"direction"`
	AuthorID        string     `json:"authorId,omitempty"`
	AuthorUsername  string     `json:"authorUsername,omitempty"`
	AuthorName      string     `json:"authorName,omitempty"`
	Recipient       *string    `json:"recipient,omitempty"`
	Read            bool       `json:"read"`
	Status          string     `json:"status"`
	Urgency         string     `json:"urgency"`
	Sentiment       string     `json:"sentiment"`
	SentimentScore  float64    `json:"sentimentScore"`
	AssignedTo      *string    `json:"assignedTo,omitempty"`
	FirstResponseAt *time.Time `json:"firstResponseAt,omitempty"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type InboxListResponse struct {
	Items  []InboxItemResponse `json:"items"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}
