package email

import (
	"context"
	"time"

	"engagement_backend/platform/config"
)

// LeadAlert is the content of a new-lead notification.
type LeadAlert struct {
	TenantName string
	LeadName   string
	Source     string
	Priority   string
	Score      int
	Comment    string
	CreatedAt  time.Time
}

// Sender delivers transactional email.
type Sender interface {
	SendLeadAlertEmail(ctx context.Context, toEmail string, alert LeadAlert) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadAlertEmail(context.Context, string, LeadAlert) error {
	return nil
}

// NewSender returns an SMTP sender when SMTP is configured and a NoopSender otherwise.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsSMTPEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetSMTPFromAddress(),
		cfg.GetSMTPFromName(),
	)
}
