// Package notify emails report analyses to the reviewing doctor.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

const Subject = "Patient Report Analysis"

// ErrNoRecipient is returned when no doctor address is configured.
var ErrNoRecipient = errors.New("no notification recipient configured")

// Sender delivers an analysis with the source PDF attached.
type Sender interface {
	SendReport(ctx context.Context, to, analysis string, pdf []byte, filename string) error
}

// dialer is the subset of *gomail.Dialer used to deliver messages.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// newDialer is a seam for tests.
var newDialer = func(host string, port int, username, password string) dialer {
	// gomail switches to implicit TLS on port 465
	return gomail.NewDialer(host, port, username, password)
}

// Mailer sends mail over SMTP with the sender's credentials. A single
// attempt is made per message.
type Mailer struct {
	host     string
	port     int
	from     string
	password string
}

func NewMailer(host string, port int, from, password string) *Mailer {
	return &Mailer{host: host, port: port, from: from, password: password}
}

// Body renders the plain-text message body.
func Body(analysis string) string {
	return "Dear Doctor,\n\nHere is the AI-generated medical report analysis:\n\n" +
		analysis + "\n\nBest Regards,\nAI Medical Assistant"
}

func (m *Mailer) SendReport(ctx context.Context, to, analysis string, pdf []byte, filename string) error {
	if to == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", Subject)
	msg.SetBody("text/plain", Body(analysis))
	msg.Attach(filename,
		gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(pdf)
			return err
		}),
	)

	if err := newDialer(m.host, m.port, m.from, m.password).DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
