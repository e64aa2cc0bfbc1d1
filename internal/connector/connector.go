// Package connector talks to the social platforms a tenant has linked:
// it fetches comments on watched posts and posts replies.
package connector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"engagement_backend/platform/apperr"
)

// Author is the account that wrote an external comment.
type Author struct {
	ID       string
	Username string
	Name     string
}

// ExternalComment is a comment as the platform reports it.
type ExternalComment struct {
	ID        string
	PostID    string
	Text      string
	Author    Author
	LikeCount int
	Timestamp time.Time
}

// Ack confirms a reply was published. ID is the platform's id for the reply,
// empty when the response body could not be read.
type Ack struct {
	ID string
}

// Connector is one tenant's client for one platform.
type Connector interface {
	FetchComments(ctx context.Context, postID string) ([]ExternalComment, error)
	SendReply(ctx context.Context, commentID, text string) (Ack, error)
}

// Error is a failed platform call. Status is zero for transport failures.
type Error struct {
	Platform string
	Op       string
	Status   int
	Body     string
	Err      error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Platform, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Platform, e.Op, e.Status, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable is true for rate limits, server errors and transport failures.
// Auth and permission failures are fatal until credentials change.
func (e *Error) Retryable() bool {
	switch {
	case e.Status == 0:
		return true
	case e.Status == http.StatusTooManyRequests:
		return true
	case e.Status >= http.StatusInternalServerError:
		return true
	}
	return false
}

// AsAppError converts a connector failure into an upstream apperr.Error.
// Errors that are already typed are returned unchanged.
func AsAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	out := apperr.Upstream(apperr.CodeConnector, "platform request failed", err)
	var cerr *Error
	if errors.As(err, &cerr) {
		out = out.WithDetails(map[string]interface{}{"platform": cerr.Platform, "status": cerr.Status})
		if cerr.Retryable() {
			out = out.AsRetryable()
		}
		return out
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return out.AsRetryable()
	}
	return out
}
