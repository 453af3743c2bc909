// Package mail sends outgoing messages such as post recommendations.
package mail

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is a plain-text email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer delivers a message. Implementations return transport errors unchanged.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

var (
	ErrNoRecipients = errors.New("message has no recipients")
	ErrHeaderInject = errors.New("header value contains a line break")
)

func (m Message) validate() error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, value := range append([]string{m.From, m.Subject}, m.To...) {
		if strings.ContainsAny(value, "\r\n") {
			return ErrHeaderInject
		}
	}
	return nil
}

// Bytes renders the message as an RFC 5322 document with CRLF line endings.
func (m Message) Bytes(domain string, now time.Time) []byte {
	var b strings.Builder
	header := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	header("From", m.From)
	header("To", strings.Join(m.To, ", "))
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domain))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body := strings.ReplaceAll(m.Body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}
