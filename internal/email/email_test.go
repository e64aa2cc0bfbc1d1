package email

import (
	"strings"
	"testing"
	"time"
)

func TestRenderLeadAlertEscapesComment(t *testing.T) {
	html, err := renderLeadAlert(LeadAlert{
		TenantName: "Acme",
		LeadName:   "Ada",
		Source:     "instagram",
		Priority:   "high",
		Score:      82,
		Comment:    "<script>price?</script>",
		CreatedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Ada", "instagram", "82", "2026-03-01 10:00 UTC", "&lt;script&gt;"} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered alert missing %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("comment must be escaped")
	}
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "alerts@example.com", "Alerts")
	if _, err := s.buildMessage("not an address", "subject", "<p>x</p>"); err == nil {
		t.Fatal("expected recipient error")
	}
	if _, err := s.buildMessage("owner@example.com", "subject", "<p>x</p>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type smtpSettings struct {
	host string
	from string
}

func (s smtpSettings) GetSMTPHost() string        { return s.host }
func (s smtpSettings) GetSMTPPort() int           { return 587 }
func (s smtpSettings) GetSMTPUsername() string    { return "" }
func (s smtpSettings) GetSMTPPassword() string    { return "" }
func (s smtpSettings) GetSMTPFromAddress() string { return s.from }
func (s smtpSettings) GetSMTPFromName() string    { return "Alerts" }
func (s smtpSettings) IsSMTPEnabled() bool        { return s.host != "" && s.from != "" }

func TestNewSenderFallsBackToNoop(t *testing.T) {
	if _, ok := NewSender(smtpSettings{}).(NoopSender); !ok {
		t.Fatal("expected NoopSender without SMTP host")
	}
	if _, ok := NewSender(smtpSettings{host: "smtp.example.com", from: "alerts@example.com"}).(*SMTPSender); !ok {
		t.Fatal("expected SMTPSender when configured")
	}
}
