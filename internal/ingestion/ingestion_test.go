package ingestion

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"engagement_backend/internal/connector"
	"engagement_backend/internal/sentiment"
	engrepo "engagement_backend/internal/engagement/repository"
	inboxrepo "engagement_backend/internal/inbox/repository"
	"engagement_backend/internal/tenancy"

	"github.com/google/uuid"
)

// memComments enforces (tenant, comment id) uniqueness like the table does.
type memComments struct {
	mu      sync.Mutex
	rows    map[string]engrepo.Comment
	inserts atomic.Int32
}

func newMemComments() *memComments {
	return &memComments{rows: make(map[string]engrepo.Comment)}
}

func (m *memComments) FindByCommentID(_ context.Context, tenantID uuid.UUID, commentID string) (engrepo.Comment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[tenantID.String()+"/"+commentID]
	return c, ok, nil
}

func (m *memComments) InsertIfAbsent(_ context.Context, in engrepo.NewComment) (engrepo.Comment, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := in.TenantID.String() + "/" + in.CommentID
	if existing, ok := m.rows[key]; ok {
		return existing, false, nil
	}
	m.inserts.Add(1)
	c := engrepo.Comment{
		ID:             uuid.New(),
		TenantID:       in.TenantID,
		Platform:       in.Platform,
		CommentID:      in.CommentID,
		Text:           in.Text,
		Author:         in.Author,
		Sentiment:      in.Sentiment,
		SentimentScore: in.SentimentScore,
		Status:         engrepo.StatusNew,
	}
	m.rows[key] = c
	return c, true, nil
}

type memInbox struct {
	mu   sync.Mutex
	rows map[string]inboxrepo.Item
	all  []inboxrepo.Item
}

func newMemInbox() *memInbox {
	return &memInbox{rows: make(map[string]inboxrepo.Item)}
}

func (m *memInbox) FindByExternalID(_ context.Context, _ uuid.UUID, externalID string) (inboxrepo.Item, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.rows[externalID]
	return it, ok, nil
}

func (m *memInbox) InsertIfAbsent(_ context.Context, in inboxrepo.NewItem) (inboxrepo.Item, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.ExternalID != nil {
		if existing, ok := m.rows[*in.ExternalID]; ok {
			return existing, false, nil
		}
	}
	it := inboxrepo.Item{
		ID:          uuid.New(),
		TenantID:    in.TenantID,
		Type:        in.Type,
		Platform:    in.Platform,
		ExternalID:  in.ExternalID,
		MessageText: in.MessageText,
		Direction:   in.Direction,
		Urgency:     in.Urgency,
		Sentiment:   in.Sentiment,
		Status:      "open",
	}
	if in.ExternalID != nil {
		m.rows[*in.ExternalID] = it
	}
	m.all = append(m.all, it)
	return it, true, nil
}

func activeTenant() tenancy.Tenant {
	return tenancy.Tenant{ID: uuid.New(), Status: tenancy.TenantActive, Settings: tenancy.DefaultSettings()}
}

func TestNormalizeDefaultsAndAliases(t *testing.T) {
	var body map[string]interface{}
	raw := `{"itemType":"weird","body":"hello","author":{"id":"u1","name":"Ann"},"post_id":"p1","externalId":42,"conversation_id":"t1"}`
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatal(err)
	}

	ev := Normalize("Instagram", body)
	if ev.Type != TypeComment {
		t.Fatalf("unknown type should default to comment, got %q", ev.Type)
	}
	if ev.Platform != tenancy.PlatformInstagram {
		t.Fatalf("unexpected platform %q", ev.Platform)
	}
	if ev.Text != "hello" || ev.PostID != "p1" || ev.ExternalID != "42" || ev.ThreadID != "t1" {
		t.Fatalf("unexpected mapping %+v", ev)
	}
	if ev.Author.ID != "u1" || ev.Author.Name != "Ann" {
		t.Fatalf("unexpected author %+v", ev.Author)
	}
	if ev.Direction != DirectionInbound || ev.Urgency != UrgencyMedium {
		t.Fatalf("unexpected defaults direction=%q urgency=%q", ev.Direction, ev.Urgency)
	}
	if len(ev.Raw) == 0 {
		t.Fatal("raw payload should be kept")
	}
}

func TestNormalizePrefersMessageAndFrom(t *testing.T) {
	ev := Normalize("tiktok", map[string]interface{}{
		"type":    "DM",
		"message": "first",
		"text":    "second",
		"from":    "ann",
		"author":  map[string]interface{}{"id": "ignored"},
	})
	if ev.Type != TypeDM {
		t.Fatalf("expected dm, got %q", ev.Type)
	}
	if ev.Platform != tenancy.PlatformOther {
		t.Fatalf("expected other platform, got %q", ev.Platform)
	}
	if ev.Text != "first" {
		t.Fatalf("message should win over text, got %q", ev.Text)
	}
	if ev.Author.Username != "ann" || ev.Author.ID != "" {
		t.Fatalf("from should win over author, got %+v", ev.Author)
	}
}

func TestIngestCommentClassifiesOnFirstSight(t *testing.T) {
	comments := newMemComments()
	g := NewGateway(comments, newMemInbox(), nil)
	tenant := activeTenant()

	c, created, err := g.IngestComment(context.Background(), tenant, tenancy.PlatformInstagram, connector.ExternalComment{
		ID:   "c1",
		Text: "I love this, what is the price?",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected first ingestion to create")
	}
	if c.Sentiment != "positive" || c.SentimentScore != 1 {
		t.Fatalf("unexpected classification %s %v", c.Sentiment, c.SentimentScore)
	}
	if c.IsReplied || c.Status != engrepo.StatusNew {
		t.Fatal("new comments start unreplied with status new")
	}
}

func TestIngestCommentIsIdempotentUnderConcurrency(t *testing.T) {
	comments := newMemComments()
	g := NewGateway(comments, newMemInbox(), nil)
	tenant := activeTenant()

	var wg sync.WaitGroup
	var createdCount atomic.Int32
	ids := make(chan uuid.UUID, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, created, err := g.IngestComment(context.Background(), tenant, tenancy.PlatformFacebook, connector.ExternalComment{ID: "same", Text: "great"})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if created {
				createdCount.Add(1)
			}
			ids <- c.ID
		}()
	}
	wg.Wait()
	close(ids)

	if createdCount.Load() != 1 || comments.inserts.Load() != 1 {
		t.Fatalf("expected exactly one insert, got created=%d inserts=%d", createdCount.Load(), comments.inserts.Load())
	}
	var first uuid.UUID
	for id := range ids {
		if first == uuid.Nil {
			first = id
		}
		if id != first {
			t.Fatal("every caller must see the same stored comment")
		}
	}
}

func TestIngestCommentRespectsDisabledSentiment(t *testing.T) {
	tenant := activeTenant()
	tenant.Settings.SentimentAnalysisEnabled = false
	g := NewGateway(newMemComments(), newMemInbox(), nil)

	c, _, err := g.IngestComment(context.Background(), tenant, tenancy.PlatformInstagram, connector.ExternalComment{ID: "c1", Text: "terrible"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Sentiment != "neutral" || c.SentimentScore != 0 {
		t.Fatalf("expected neutral when analysis is disabled, got %s", c.Sentiment)
	}
}

func TestIngestEventStoresInboxAndComment(t *testing.T) {
	comments := newMemComments()
	inbox := newMemInbox()
	g := NewGateway(comments, inbox, nil)
	tenant := activeTenant()

	ev := Normalize("facebook", map[string]interface{}{"id": "fb-1", "message": "what does it cost?"})
	res, err := g.IngestEvent(context.Background(), tenant, ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Created || res.Comment == nil {
		t.Fatalf("expected new inbox item and comment, got %+v", res)
	}

	again, err := g.IngestEvent(context.Background(), tenant, ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Created {
		t.Fatal("duplicate event must not create")
	}
	if again.Item.ID != res.Item.ID || again.Comment.ID != res.Comment.ID {
		t.Fatal("duplicate event must return the stored records")
	}
	if len(inbox.all) != 1 || comments.inserts.Load() != 1 {
		t.Fatalf("expected one row each, got inbox=%d comments=%d", len(inbox.all), comments.inserts.Load())
	}
}

func TestIngestEventDMIsInboxOnly(t *testing.T) {
	comments := newMemComments()
	g := NewGateway(comments, newMemInbox(), nil)

	ev := Normalize("instagram", map[string]interface{}{"type": "dm", "id": "m1", "text": "hi"})
	res, err := g.IngestEvent(context.Background(), activeTenant(), ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Comment != nil || comments.inserts.Load() != 0 {
		t.Fatal("direct messages must not become comments")
	}
}

func TestDuplicatesAreNotReclassified(t *testing.T) {
	var calls atomic.Int32
	g := NewGateway(newMemComments(), newMemInbox(), nil)
	g.classify = func(text string) sentiment.Result {
		calls.Add(1)
		return sentiment.Classify(text)
	}
	tenant := activeTenant()
	ctx := context.Background()

	ec := connector.ExternalComment{ID: "c1", Text: "love it"}
	for i := 0; i < 3; i++ {
		if _, _, err := g.IngestComment(ctx, tenant, tenancy.PlatformInstagram, ec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one classification for repeated comment, got %d", calls.Load())
	}

	ev := Normalize("facebook", map[string]interface{}{"id": "fb-9", "message": "awesome"})
	for i := 0; i < 3; i++ {
		if _, err := g.IngestEvent(ctx, tenant, ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected inbox item and comment to share one classification, got %d calls", calls.Load())
	}
}
