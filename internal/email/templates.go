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
	Title    string
	Heading  string
	CTALabel string
	CTAURL   string
}

type revisitReminderEmailData struct {
	baseEmailData
	ClientName string
	Pincode    string
	Stage      string
	RevisitAt  string
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

var stageLabels = map[string]string{
	"lead":         "Lead",
	"sample_order": "Sample order",
	"agreement":    "Agreement",
}

func stageLabel(entity string) string {
	if label, ok := stageLabels[entity]; ok {
		return label
	}
	return entity
}
