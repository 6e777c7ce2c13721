package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

const reminderTimeLayout = "2 Jan 2006 15:04"

// SMTPSender delivers mail through an SMTP relay via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	loc       *time.Location
}

// NewSMTPSender creates a new SMTPSender. Reminder times are rendered in loc.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string, loc *time.Location) *SMTPSender {
	if loc == nil {
		loc = time.UTC
	}
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
		loc:       loc,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendRevisitReminder(ctx context.Context, toEmail string, r RevisitReminder) error {
	content, err := s.renderRevisitReminder(r)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectRevisitReminderFmt, r.ClientName), content)
}

func (s *SMTPSender) renderRevisitReminder(r RevisitReminder) (string, error) {
	data := revisitReminderEmailData{
		baseEmailData: baseEmailData{
			Title:   "Revisit reminder",
			Heading: "Revisit reminder",
		},
		ClientName: r.ClientName,
		Pincode:    r.Pincode,
		Stage:      stageLabel(r.Entity),
		RevisitAt:  r.RevisitAt.In(s.loc).Format(reminderTimeLayout),
	}
	if r.Link != "" {
		data.CTALabel = "Open in Growth Hub"
		data.CTAURL = r.Link
	}
	return renderEmailTemplate("revisit_reminder.html", data)
}
