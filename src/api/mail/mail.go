// Package mail delivers transactional email. The sendgrid implementation is
// used in production; the console implementation stands in everywhere else.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/clubwize/backend/src/api/logger"
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Body    string // plain text
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}

type sendgridService struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendgrid(apiKey, fromName, fromEmail string) Service {
	return &sendgridService{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *sendgridService) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	from := sgmail.NewEmail(s.fromName, s.fromEmail)
	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	m := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

type consoleService struct{}

// NewConsole returns a mailer that only logs. Used in dev and tests.
func NewConsole() Service { return consoleService{} }

func (consoleService) Send(_ context.Context, msg Message) error {
	logger.S().Infof("mail to %s <%s>: %s\n%s", msg.ToName, msg.ToEmail, msg.Subject, msg.Body)
	return nil
}

var errNoRecipient = errors.New("mail: empty recipient")

// Validate rejects messages that would be dropped by the provider anyway.
func (m Message) Validate() error {
	if m.ToEmail == "" {
		return errNoRecipient
	}
	return nil
}
