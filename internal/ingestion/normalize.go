package ingestion

import (
	"encoding/json"
	"strconv"
	"strings"

	"engagement_backend/internal/tenancy"
)

// ItemType is the kind of inbound event.
type ItemType string

const (
	TypeComment  ItemType = "comment"
	TypeDM       ItemType = "dm"
	TypeReaction ItemType = "reaction"
	TypeMention  ItemType = "mention"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Author identifies who wrote an event.
type Author struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Event is an inbound payload in canonical shape.
type Event struct {
	Type       ItemType
	Platform   tenancy.Platform
	PostID     string
	ExternalID string
	ThreadID   string
	Text       string
	Author     Author
	Direction  string
	Recipient  string
	Urgency    string
	Raw        json.RawMessage
}

// Normalize maps a loosely typed payload onto Event. Unknown types become
// comments, unknown directions become inbound and urgency defaults to medium.
func Normalize(platform string, body map[string]interface{}) Event {
	ev := Event{
		Type:       parseType(firstString(body, "type", "itemType")),
		Platform:   tenancy.ParsePlatform(platform),
		PostID:     firstString(body, "postId", "post_id"),
		ExternalID: firstString(body, "id", "externalId"),
		ThreadID:   firstString(body, "threadId", "conversation_id"),
		Text:       firstString(body, "message", "text", "body"),
		Author:     parseAuthor(body),
		Direction:  DirectionInbound,
		Recipient:  firstString(body, "to"),
		Urgency:    UrgencyMedium,
	}

	if strings.EqualFold(firstString(body, "direction"), DirectionOutbound) {
		ev.Direction = DirectionOutbound
	}
	switch u := strings.ToLower(firstString(body, "urgency")); u {
	case UrgencyLow, UrgencyHigh:
		ev.Urgency = u
	}

	if raw, err := json.Marshal(body); err == nil {
		ev.Raw = raw
	}
	return ev
}

func parseType(s string) ItemType {
	switch t := ItemType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeDM, TypeReaction, TypeMention:
		return t
	}
	return TypeComment
}

func parseAuthor(body map[string]interface{}) Author {
	for _, key := range []string{"from", "author"} {
		switch v := body[key].(type) {
		case map[string]interface{}:
			return Author{
				ID:       firstString(v, "id"),
				Username: firstString(v, "username"),
				Name:     firstString(v, "name"),
			}
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return Author{Username: s}
			}
		}
	}
	return Author{}
}

// firstString returns the first key holding a non-empty string or number.
func firstString(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		switch v := m[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}
