package email

import (
	"bytes"
	"context"
	"testing"
	"time"

	"hoareca_growth_hub/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderRevisitReminder(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	s := NewSMTPSender("smtp.example.com", 587, "", "", "hub@example.com", "Growth Hub", ist)

	html, err := s.renderRevisitReminder(RevisitReminder{
		ClientName: "Spice <Route>",
		Pincode:    "560001",
		Entity:     "sample_order",
		RevisitAt:  time.Date(2026, 3, 4, 5, 30, 0, 0, time.UTC),
		Link:       "https://hub.example.com/orders/1",
	})
	require.NoError(t, err)

	assert.Contains(t, html, "Spice &lt;Route&gt;")
	assert.Contains(t, html, "Sample order")
	assert.Contains(t, html, "4 Mar 2026 11:00")
	assert.Contains(t, html, `href="https://hub.example.com/orders/1"`)
}

func TestRenderRevisitReminderWithoutLink(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "", "", "hub@example.com", "Growth Hub", nil)

	html, err := s.renderRevisitReminder(RevisitReminder{ClientName: "Cafe", Entity: "custom"})
	require.NoError(t, err)
	assert.Contains(t, html, "custom")
	assert.NotContains(t, html, "<a href")
}

type emailConfig struct{ enabled bool }

func (c emailConfig) GetEmailEnabled() bool       { return c.enabled }
func (c emailConfig) GetSMTPHost() string         { return "smtp.example.com" }
func (c emailConfig) GetSMTPPort() int            { return 587 }
func (c emailConfig) GetSMTPUsername() string     { return "" }
func (c emailConfig) GetSMTPPassword() string     { return "" }
func (c emailConfig) GetEmailFromName() string    { return "Growth Hub" }
func (c emailConfig) GetEmailFromAddress() string { return "hub@example.com" }
func (c emailConfig) GetAppBaseURL() string       { return "https://hub.example.com" }

func TestNewSenderFallsBackToLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter("production", &buf)

	sender := NewSender(emailConfig{}, time.UTC, log)
	require.IsType(t, &LogSender{}, sender)

	err := sender.SendRevisitReminder(context.Background(), "rep@example.com", RevisitReminder{ClientName: "Cafe"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"to":"rep@example.com"`)

	assert.IsType(t, &SMTPSender{}, NewSender(emailConfig{enabled: true}, time.UTC, log))
}
