package transport

import (
	"encoding/json"
	"time"
)

type ListActivityRequest struct {
	Action       string `form:"action" validate:"omitempty,max=100"`
	ResourceType string `form:"resourceType" validate:"omitempty,oneof=comment lead tenant role membership"`
	UserID       string `form:"userId" validate:"omitempty,uuid"`
	Since        string `form:"since" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Limit        int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset       int    `form:"offset" validate:"omitempty,min=0"`
}

type ActivityResponse struct {
	ID           string          `json:"id"`
	UserID       *string         `json:"userId,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resourceType"`
	ResourceID   string          `json:"resourceId,omitempty"`
	Details      json.RawMessage `json:"details"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type ActivityListResponse struct {
	Items  []ActivityResponse `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}
