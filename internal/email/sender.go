// Package email renders and delivers reminder mail.
package email

import (
	"context"
	"time"

	"hoareca_growth_hub/platform/config"
	"hoareca_growth_hub/platform/logger"
)

// RevisitReminder is the content of a revisit reminder mail.
type RevisitReminder struct {
	ClientName string
	Pincode    string
	Entity     string
	RevisitAt  time.Time
	Link       string
}

type Sender interface {
	SendRevisitReminder(ctx context.Context, toEmail string, r RevisitReminder) error
}

// LogSender logs reminders instead of mailing them. Used when SMTP is not
// configured.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendRevisitReminder(ctx context.Context, toEmail string, r RevisitReminder) error {
	s.log.WithContext(ctx).Info("revisit reminder",
		"to", toEmail,
		"client", r.ClientName,
		"pincode", r.Pincode,
		"entity", r.Entity,
		"revisit_at", r.RevisitAt,
	)
	return nil
}

// NewSender returns an SMTP sender when email is enabled, else a LogSender.
func NewSender(cfg config.EmailConfig, loc *time.Location, log *logger.Logger) Sender {
	if !cfg.GetEmailEnabled() {
		return NewLogSender(log)
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
		loc,
	)
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*SMTPSender)(nil)
)
