package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
}

type leadAlertEmailData struct {
	baseEmailData
	TenantName string
	LeadName   string
	Source     string
	Priority   string
	Score      int
	Comment    string
	CreatedAt  string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func renderLeadAlert(alert LeadAlert) (string, error) {
	return renderEmailTemplate("lead_alert.html", leadAlertEmailData{
		baseEmailData: baseEmailData{
			Title:      "New lead",
			Heading:    "A new lead is waiting",
			Subheading: alert.TenantName,
		},
		TenantName: alert.TenantName,
		LeadName:   alert.LeadName,
		Source:     alert.Source,
		Priority:   alert.Priority,
		Score:      alert.Score,
		Comment:    alert.Comment,
		CreatedAt:  alert.CreatedAt.UTC().Format("2006-01-02 15:04 MST"),
	})
}
