package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"engagement_backend/internal/tenancy"
)

const (
	maxErrorBody    = 4 << 10
	maxResponseBody = 8 << 20
)

// graphTimeLayout is the offset format the Graph API uses ("+0000").
const graphTimeLayout = "2006-01-02T15:04:05-0700"

// graphDialect captures the per-platform differences of the Graph API.
type graphDialect struct {
	platform  tenancy.Platform
	fields    string
	replyEdge string
	textField string
	timeField string
}

var instagramDialect = graphDialect{
	platform:  tenancy.PlatformInstagram,
	fields:    "id,text,from,username,like_count,timestamp",
	replyEdge: "replies",
	textField: "text",
	timeField: "timestamp",
}

var facebookDialect = graphDialect{
	platform:  tenancy.PlatformFacebook,
	fields:    "id,message,from,like_count,created_time,comment_count",
	replyEdge: "comments",
	textField: "message",
	timeField: "created_time",
}

// GraphClient is a Connector for Instagram or Facebook via the Graph API.
type GraphClient struct {
	baseURL     string
	accessToken string
	dialect     graphDialect
	http        *http.Client
}

var _ Connector = (*GraphClient)(nil)

func newGraphClient(baseURL, accessToken string, dialect graphDialect, httpClient *http.Client) *GraphClient {
	return &GraphClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		dialect:     dialect,
		http:        httpClient,
	}
}

type graphFrom struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type graphComment struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Message     string     `json:"message"`
	Username    string     `json:"username"`
	From        *graphFrom `json:"from"`
	LikeCount   int        `json:"like_count"`
	Timestamp   string     `json:"timestamp"`
	CreatedTime string     `json:"created_time"`
}

type graphList struct {
	Data []graphComment `json:"data"`
}

type graphID struct {
	ID string `json:"id"`
}

// FetchComments lists the comments on postID.
func (c *GraphClient) FetchComments(ctx context.Context, postID string) ([]ExternalComment, error) {
	q := url.Values{}
	q.Set("fields", c.dialect.fields)
	q.Set("access_token", c.accessToken)
	endpoint := fmt.Sprintf("%s/%s/comments?%s", c.baseURL, url.PathEscape(postID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, "fetch comments")
	if err != nil {
		return nil, err
	}
	var list graphList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &Error{Platform: string(c.dialect.platform), Op: "fetch comments", Status: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}

	out := make([]ExternalComment, 0, len(list.Data))
	for _, item := range list.Data {
		out = append(out, c.toExternal(postID, item))
	}
	return out, nil
}

// SendReply publishes text as a reply to commentID.
func (c *GraphClient) SendReply(ctx context.Context, commentID, text string) (Ack, error) {
	form := url.Values{}
	form.Set("message", text)
	form.Set("access_token", c.accessToken)
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(commentID), c.dialect.replyEdge)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Ack{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, "send reply")
	if err != nil {
		return Ack{}, err
	}
	// A 2xx means the reply is published even when the body is unreadable.
	var created graphID
	if err := json.Unmarshal(body, &created); err != nil {
		return Ack{}, nil
	}
	return Ack{ID: created.ID}, nil
}

// do executes req and returns the body of a 2xx response.
func (c *GraphClient) do(req *http.Request, op string) ([]byte, error) {
	platform := string(c.dialect.platform)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Platform: platform, Op: op, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &Error{Platform: platform, Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &Error{Platform: platform, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	return body, nil
}

func (c *GraphClient) toExternal(postID string, item graphComment) ExternalComment {
	ec := ExternalComment{
		ID:        item.ID,
		PostID:    postID,
		LikeCount: item.LikeCount,
	}

	if c.dialect.textField == "message" {
		ec.Text = item.Message
	} else {
		ec.Text = item.Text
	}

	if item.From != nil {
		ec.Author = Author{ID: item.From.ID, Username: item.From.Username, Name: item.From.Name}
	}
	if ec.Author.Username == "" {
		ec.Author.Username = item.Username
	}

	raw := item.Timestamp
	if c.dialect.timeField == "created_time" {
		raw = item.CreatedTime
	}
	ec.Timestamp = parseGraphTime(raw)
	return ec
}

func parseGraphTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(graphTimeLayout, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}
