package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type EmailConfig struct {
	Server  string `json:"server"`
	Port    int    `json:"port"`
	Address string `json:"address"`
	// smtp password, empty means the server takes mail without auth
	Password string `json:"password"`
	To       string `json:"to"`
}

// Email sends run outcomes over plain SMTP.
type Email struct {
	config EmailConfig
}

func NewEmail(config EmailConfig) Email {
	return Email{config: config}
}

func (e Email) Notify(ctx context.Context, msg Message) error {
	_, span := tracer.Start(ctx, "email:Notify")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Court Scheduler <%s>", e.config.Address)
	mail.To = []string{e.config.To}
	mail.Subject = msg.Title

	body := msg.Body
	if msg.Logs != "" {
		body = fmt.Sprintf("%s\n\n--- run log ---\n%s", msg.Body, msg.Logs)
	}
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", e.config.Server, e.config.Port)
	err := mail.Send(
		addr,
		smtp.PlainAuth("", e.config.Address, e.config.Password, e.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
