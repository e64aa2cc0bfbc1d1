package repository

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestInsertItemQueryDedupsByExternalID(t *testing.T) {
	query := strings.ToLower(insertItemQuery)
	if !strings.Contains(query, "on conflict (tenant_id, external_id) do nothing") {
		t.Fatal("inbox insert must ignore already ingested external ids")
	}
}

func TestBuildInboxListWhere(t *testing.T) {
	unread := false
	where, args, next := buildInboxListWhere(ListParams{
		TenantID: uuid.New(),
		Type:     "dm",
		Read:     &unread,
		Urgency:  "high",
	})

	want := "tenant_id = $1 AND type = $2 AND read = $3 AND urgency = $4"
	if where != want {
		t.Fatalf("where = %q, want %q", where, want)
	}
	if len(args) != 4 || next != 5 {
		t.Fatalf("unexpected args %v next %d", args, next)
	}
}
