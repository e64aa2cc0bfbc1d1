package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"engagement_backend/internal/connector"
	"engagement_backend/internal/engagement/repository"
	"engagement_backend/internal/events"
	leadrepo "engagement_backend/internal/leads/repository"
	"engagement_backend/internal/replygen"
	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
	"engagement_backend/platform/logger"

	"github.com/google/uuid"
)

type testConfig struct{}

func (testConfig) GetAutoReplyBatchSize() int             { return 10 }
func (testConfig) GetExternalCallTimeout() time.Duration { return time.Second }

type memComments struct {
	mu    sync.Mutex
	items map[uuid.UUID]repository.Comment
	order []uuid.UUID

	listCalls int
}

func newMemComments(cs ...repository.Comment) *memComments {
	m := &memComments{items: map[uuid.UUID]repository.Comment{}}
	for _, c := range cs {
		m.items[c.ID] = c
		m.order = append(m.order, c.ID)
	}
	return m
}

func (m *memComments) get(id uuid.UUID) repository.Comment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func (m *memComments) GetByID(_ context.Context, tenantID, id uuid.UUID) (repository.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || c.TenantID != tenantID {
		return repository.Comment{}, apperr.NotFound("comment not found")
	}
	return c, nil
}

func (m *memComments) ListUnreplied(_ context.Context, tenantID uuid.UUID, limit int) ([]repository.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	var out []repository.Comment
	for _, id := range m.order {
		c := m.items[id]
		if c.TenantID == tenantID && !c.IsReplied && c.Status == repository.StatusNew && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memComments) ListLeadCandidates(_ context.Context, tenantID uuid.UUID, _ int) ([]repository.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.Comment
	for _, id := range m.order {
		if c := m.items[id]; c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memComments) MarkReplied(_ context.Context, tenantID, id uuid.UUID, u repository.ReplyUpdate) (repository.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || c.TenantID != tenantID || c.IsReplied {
		return repository.Comment{}, apperr.AlreadyReplied()
	}
	c.IsReplied = true
	c.ReplyText = &u.Text
	c.ReplySentAt = &u.SentAt
	c.IsAutoReply = u.Auto
	c.Status = repository.StatusReplied
	m.items[id] = c
	return c, nil
}

func (m *memComments) Update(_ context.Context, tenantID, id uuid.UUID, u repository.CommentUpdate) (repository.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok || c.TenantID != tenantID {
		return repository.Comment{}, apperr.NotFound("comment not found")
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.AssignedTo != nil {
		c.AssignedTo = u.AssignedTo
	}
	m.items[id] = c
	return c, nil
}

func (m *memComments) List(context.Context, repository.ListParams) ([]repository.Comment, int, error) {
	return nil, 0, nil
}

type memLeads struct {
	mu      sync.Mutex
	byRowID map[uuid.UUID]leadrepo.Lead
	params  []leadrepo.CreateParams
}

func (m *memLeads) Create(_ context.Context, p leadrepo.CreateParams) (leadrepo.Lead, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byRowID == nil {
		m.byRowID = map[uuid.UUID]leadrepo.Lead{}
	}
	if existing, ok := m.byRowID[*p.CommentRowID]; ok {
		return existing, false, nil
	}
	m.params = append(m.params, p)
	lead := leadrepo.Lead{ID: uuid.New(), TenantID: p.TenantID, Source: p.Source, Name: p.Name, Priority: p.Priority, Score: p.Score}
	m.byRowID[*p.CommentRowID] = lead
	return lead, true, nil
}

type fakeConn struct {
	mu      sync.Mutex
	sent    map[string]string
	failFor map[string]error
	posts   map[string][]connector.ExternalComment
}

func (f *fakeConn) FetchComments(_ context.Context, postID string) ([]connector.ExternalComment, error) {
	return f.posts[postID], nil
}

func (f *fakeConn) SendReply(_ context.Context, commentID, text string) (connector.Ack, error) {
	if err := f.failFor[commentID]; err != nil {
		return connector.Ack{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[commentID] = text
	return connector.Ack{ID: "r-" + commentID}, nil
}

func (f *fakeConn) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeConnectors struct{ conn *fakeConn }

func (f fakeConnectors) For(tenancy.Tenant, tenancy.Platform) (connector.Connector, error) {
	return f.conn, nil
}

type fakeGenerator struct {
	text  string
	err   error
	calls atomic.Int32
}

func (g *fakeGenerator) Generate(context.Context, string, tenancy.AIConfig, replygen.ReplyContext) (string, error) {
	g.calls.Add(1)
	return g.text, g.err
}

type fakeIngestor struct {
	seen map[string]bool
}

func (f *fakeIngestor) IngestComment(_ context.Context, tenant tenancy.Tenant, platform tenancy.Platform, ec connector.ExternalComment) (repository.Comment, bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	created := !f.seen[ec.ID]
	f.seen[ec.ID] = true
	return repository.Comment{ID: uuid.New(), TenantID: tenant.ID, Platform: platform, CommentID: ec.ID, PostID: ec.PostID}, created, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

type fixture struct {
	tenant   tenancy.Tenant
	comments *memComments
	leads    *memLeads
	conn     *fakeConn
	gen      *fakeGenerator
	ingestor *fakeIngestor
	bus      *recordingBus
	orch     *Orchestrator
}

func newFixture(cs ...repository.Comment) *fixture {
	f := &fixture{
		comments: newMemComments(cs...),
		leads:    &memLeads{},
		conn:     &fakeConn{failFor: map[string]error{}},
		gen:      &fakeGenerator{text: "Thanks for the comment!"},
		ingestor: &fakeIngestor{},
		bus:      &recordingBus{},
	}
	f.orch = NewOrchestrator(Deps{
		Comments:   f.comments,
		Leads:      f.leads,
		Connectors: fakeConnectors{conn: f.conn},
		Generator:  f.gen,
		Ingestor:   f.ingestor,
		EventBus:   f.bus,
		Logger:     logger.Nop(),
	}, testConfig{})
	return f
}

func testTenant() tenancy.Tenant {
	return tenancy.Tenant{
		ID:       uuid.New(),
		Status:   tenancy.TenantActive,
		Settings: tenancy.DefaultSettings(),
	}
}

func newComment(tenantID uuid.UUID, externalID, text string) repository.Comment {
	return repository.Comment{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Platform:  tenancy.PlatformInstagram,
		CommentID: externalID,
		Text:      text,
		Sentiment: "neutral",
		Status:    repository.StatusNew,
	}
}

func TestProcessUnrepliedSkipsWhenAutoReplyDisabled(t *testing.T) {
	tenant := testTenant()
	tenant.Settings.AutoReplyEnabled = false
	f := newFixture(newComment(tenant.ID, "c1", "hello"))

	outcomes, err := f.orch.ProcessUnreplied(context.Background(), tenant, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 0 || f.comments.listCalls != 0 {
		t.Fatalf("expected no selection, got %d outcomes and %d list calls", len(outcomes), f.comments.listCalls)
	}
}

func TestProcessUnrepliedIsolatesFailures(t *testing.T) {
	tenant := testTenant()
	ok1 := newComment(tenant.ID, "c1", "hello")
	bad := newComment(tenant.ID, "c-bad", "hi")
	ok2 := newComment(tenant.ID, "c2", "hey")
	f := newFixture(ok1, bad, ok2)
	f.conn.failFor["c-bad"] = &connector.Error{Platform: "instagram", Op: "reply", Status: 500, Body: "boom"}

	outcomes, err := f.orch.ProcessUnreplied(context.Background(), tenant, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}

	for _, o := range outcomes {
		if o.CommentID == bad.ID {
			if o.Status != OutcomeFailed || o.Stage != StageSend {
				t.Fatalf("expected send failure for bad comment, got %+v", o)
			}
			if !apperr.IsRetryable(o.Err) {
				t.Fatalf("expected retryable error for 5xx")
			}
			continue
		}
		if o.Status != OutcomeReplied {
			t.Fatalf("expected replied outcome, got %+v", o)
		}
	}

	if got := f.comments.get(bad.ID); got.IsReplied || got.Status != repository.StatusNew {
		t.Fatalf("failed comment must stay new and unreplied, got %+v", got)
	}
	got := f.comments.get(ok1.ID)
	if !got.IsReplied || !got.IsAutoReply || got.ReplyText == nil || *got.ReplyText != "Thanks for the comment!" {
		t.Fatalf("expected auto reply recorded, got %+v", got)
	}
	if f.bus.count("engagement.comment.replied") != 2 {
		t.Fatalf("expected 2 replied events")
	}
}

func TestProcessUnrepliedGenerationFailureSkipsSend(t *testing.T) {
	tenant := testTenant()
	c := newComment(tenant.ID, "c1", "hello")
	f := newFixture(c)
	f.gen.err = errors.New("quota")

	outcomes, _ := f.orch.ProcessUnreplied(context.Background(), tenant, 0)
	if len(outcomes) != 1 || outcomes[0].Stage != StageGenerate {
		t.Fatalf("expected generate failure, got %+v", outcomes)
	}
	if apperr.GetCode(outcomes[0].Err) != apperr.CodeGeneration {
		t.Fatalf("expected generation code, got %q", apperr.GetCode(outcomes[0].Err))
	}
	if f.conn.sentCount() != 0 {
		t.Fatalf("nothing must be sent when generation fails")
	}
}

func TestManualReplyOnlyOnce(t *testing.T) {
	tenant := testTenant()
	c := newComment(tenant.ID, "c1", "hello")
	f := newFixture(c)
	actor := uuid.New()

	updated, err := f.orch.Reply(context.Background(), tenant, actor, c.ID, ReplyRequest{Text: "Hi there"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.IsReplied || updated.IsAutoReply {
		t.Fatalf("expected manual reply recorded, got %+v", updated)
	}

	_, err = f.orch.Reply(context.Background(), tenant, actor, c.ID, ReplyRequest{Text: "Again"})
	if apperr.GetCode(err) != apperr.CodeAlreadyReplied {
		t.Fatalf("expected already replied, got %v", err)
	}
	if f.conn.sentCount() != 1 || f.conn.sent["c1"] != "Hi there" {
		t.Fatalf("expected exactly one send, got %v", f.conn.sent)
	}
	if f.gen.calls.Load() != 0 {
		t.Fatalf("generator must not run for manual text")
	}
}

func TestManualReplyConcurrentSendsOnce(t *testing.T) {
	tenant := testTenant()
	c := newComment(tenant.ID, "c1", "hello")
	f := newFixture(c)

	var wg sync.WaitGroup
	var successes atomic.Int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.orch.Reply(context.Background(), tenant, uuid.New(), c.ID, ReplyRequest{Text: "Hi"}); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Fatalf("expected exactly one success, got %d", successes.Load())
	}
	if f.conn.sentCount() != 1 {
		t.Fatalf("expected one send, got %d", f.conn.sentCount())
	}
}

func TestManualReplyRequiresTextUnlessAuto(t *testing.T) {
	tenant := testTenant()
	c := newComment(tenant.ID, "c1", "hello")
	f := newFixture(c)

	_, err := f.orch.Reply(context.Background(), tenant, uuid.New(), c.ID, ReplyRequest{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	updated, err := f.orch.Reply(context.Background(), tenant, uuid.New(), c.ID, ReplyRequest{Auto: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.IsAutoReply || f.gen.calls.Load() != 1 {
		t.Fatalf("expected generated auto reply")
	}
}

func TestManualAutoReplyOverridesSuppliedText(t *testing.T) {
	tenant := testTenant()
	c := newComment(tenant.ID, "c1", "hello")
	f := newFixture(c)

	updated, err := f.orch.Reply(context.Background(), tenant, uuid.New(), c.ID, ReplyRequest{Text: "typed by hand", Auto: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.conn.sent["c1"] != "Thanks for the comment!" || !updated.IsAutoReply {
		t.Fatalf("expected generated text to win, sent %q", f.conn.sent["c1"])
	}

	disabled := testTenant()
	disabled.Settings.AutoReplyEnabled = false
	c2 := newComment(disabled.ID, "c2", "hello")
	f2 := newFixture(c2)
	updated, err = f2.orch.Reply(context.Background(), disabled, uuid.New(), c2.ID, ReplyRequest{Text: "typed by hand", Auto: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f2.conn.sent["c2"] != "typed by hand" || updated.IsAutoReply || f2.gen.calls.Load() != 0 {
		t.Fatalf("expected supplied text when auto reply is disabled, sent %q", f2.conn.sent["c2"])
	}
}

func TestManualReplyStripsMarkup(t *testing.T) {
	tenant := testTenant()
	c := newComment(tenant.ID, "c1", "hello")
	f := newFixture(c)

	if _, err := f.orch.Reply(context.Background(), tenant, uuid.New(), c.ID, ReplyRequest{Text: "<p>Thanks  for asking!</p>"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.conn.sent["c1"] != "Thanks for asking!" {
		t.Fatalf("unexpected sent text %q", f.conn.sent["c1"])
	}

	c2 := newComment(tenant.ID, "c2", "hello")
	f2 := newFixture(c2)
	_, err := f2.orch.Reply(context.Background(), tenant, uuid.New(), c2.ID, ReplyRequest{Text: "<br/>"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("markup-only reply must be rejected, got %v", err)
	}
}

func TestManualReplyConnectorAuthFailureNotRetryable(t *testing.T) {
	tenant := testTenant()
	c := newComment(tenant.ID, "c1", "hello")
	f := newFixture(c)
	f.conn.failFor["c1"] = &connector.Error{Platform: "instagram", Op: "reply", Status: 401, Body: "bad token"}

	_, err := f.orch.Reply(context.Background(), tenant, uuid.New(), c.ID, ReplyRequest{Text: "Hi"})
	if apperr.GetCode(err) != apperr.CodeConnector {
		t.Fatalf("expected connector error, got %v", err)
	}
	if apperr.IsRetryable(err) {
		t.Fatalf("401 must not be retryable")
	}
	if f.comments.get(c.ID).IsReplied {
		t.Fatalf("comment must not be marked replied")
	}
}

func TestGenerateLeadsQualifiesAndDeduplicates(t *testing.T) {
	tenant := testTenant()
	hot := newComment(tenant.ID, "c1", "What is the price?")
	hot.Sentiment = "positive"
	hot.SentimentScore = 0.8
	hot.Author = repository.Author{ID: "42", Username: "jane"}

	cold := newComment(tenant.ID, "c2", "What is the price?")
	cold.Sentiment = "negative"
	cold.SentimentScore = -0.5

	noInterest := newComment(tenant.ID, "c3", "Lovely photo")
	noInterest.Sentiment = "positive"
	noInterest.SentimentScore = 1

	archived := newComment(tenant.ID, "c4", "I want to buy")
	archived.Sentiment = "positive"
	archived.SentimentScore = 1
	archived.Status = repository.StatusArchived

	f := newFixture(hot, cold, noInterest, archived)

	leads, err := f.orch.GenerateLeads(context.Background(), tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(leads))
	}

	p := f.leads.params[0]
	if p.Name != "jane" || p.Priority != "high" || p.Score != 90 || p.Source != "instagram" {
		t.Fatalf("unexpected lead params %+v", p)
	}
	if p.PlatformProfileURL == nil || *p.PlatformProfileURL != "https://instagram.com/42" {
		t.Fatalf("unexpected profile url %v", p.PlatformProfileURL)
	}
	if *p.CommentRowID != hot.ID {
		t.Fatalf("lead must link the comment row")
	}

	again, err := f.orch.GenerateLeads(context.Background(), tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("second run must not create leads, got %d", len(again))
	}
	if f.bus.count("leads.lead.generated") != 1 {
		t.Fatalf("expected one lead event")
	}
}

func TestQualifiesForLeadWarmNeutral(t *testing.T) {
	c := newComment(uuid.New(), "c1", "more info please")
	c.Sentiment = "neutral"
	c.SentimentScore = 0.6
	if !qualifiesForLead(c) {
		t.Fatalf("score above threshold with interest must qualify")
	}
	c.SentimentScore = 0.5
	if qualifiesForLead(c) {
		t.Fatalf("score at threshold must not qualify")
	}
}

func TestUpdateCommentRejectsUnknownStatus(t *testing.T) {
	tenant := testTenant()
	c := newComment(tenant.ID, "c1", "hello")
	f := newFixture(c)

	bogus := repository.Status("deleted")
	if _, err := f.orch.UpdateComment(context.Background(), tenant, c.ID, repository.CommentUpdate{Status: &bogus}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	resolved := repository.StatusResolved
	updated, err := f.orch.UpdateComment(context.Background(), tenant, c.ID, repository.CommentUpdate{Status: &resolved})
	if err != nil || updated.Status != repository.StatusResolved {
		t.Fatalf("expected resolved, got %+v %v", updated, err)
	}
}

func TestSyncTenantCountsCreated(t *testing.T) {
	tenant := testTenant()
	tenant.Settings.InstagramEnabled = true
	tenant.InstagramConfig = tenancy.PlatformConfig{AccessToken: "tok", WatchedPostIDs: []string{"p1"}}
	f := newFixture()
	f.conn.posts = map[string][]connector.ExternalComment{
		"p1": {{ID: "a", Text: "one"}, {ID: "b", Text: "two"}},
	}

	res, err := f.orch.SyncTenant(context.Background(), tenant)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Fetched != 2 || res.Created != 2 {
		t.Fatalf("unexpected first sync %+v", res)
	}

	res, _ = f.orch.SyncTenant(context.Background(), tenant)
	if res.Fetched != 2 || res.Created != 0 {
		t.Fatalf("second sync must create nothing, got %+v", res)
	}
	if f.bus.count("engagement.comments.ingested") != 2 {
		t.Fatalf("expected an ingested event per sync")
	}
}
