package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer delivers plain-text mail through a relay that accepts
// unauthenticated submission (the usual setup is a local forwarder).
type SMTPMailer struct {
	addr string
	from string
}

// NewSMTPMailer creates a Mailer sending through the given host:port.
func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) send(to, subject, body string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// SendMagicLink implements Mailer.
func (m *SMTPMailer) SendMagicLink(_ context.Context, to, loginURL string) error {
	body := "Use the link below to sign in. It expires in 15 minutes and works once.\r\n\r\n" + loginURL + "\r\n"
	return m.send(to, "Your sign-in link", body)
}

// SendPasswordSetup implements Mailer.
func (m *SMTPMailer) SendPasswordSetup(_ context.Context, to, setupURL string) error {
	body := "Use the link below to set your password. It expires in 24 hours and works once.\r\n\r\n" + setupURL + "\r\n"
	return m.send(to, "Set your password", body)
}

// SendInvitation implements Mailer.
func (m *SMTPMailer) SendInvitation(_ context.Context, to, requestTitle, accessURL string) error {
	body := fmt.Sprintf("You have been invited to quote on %q.\r\n\r\n%s\r\n", requestTitle, accessURL)
	return m.send(to, "Request for quote: "+requestTitle, body)
}
