package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/FernandoZnga/schedula/internal/core/port"
	"github.com/FernandoZnga/schedula/internal/infra/config"
	"github.com/FernandoZnga/schedula/internal/infra/logger"
)

// SMTPMailer delivers messages through a plain SMTP relay.
type SMTPMailer struct {
	addr     string
	from     string
	username string
	password string
	host     string
}

// NewSMTPMailer constructs a mailer for the supplied relay settings.
func NewSMTPMailer(cfg config.MailSettings) *SMTPMailer {
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:     cfg.From,
		username: cfg.Username,
		password: cfg.Password,
		host:     cfg.Host,
	}
}

// Send delivers a single message. Callers treat a failure as non-fatal.
func (m *SMTPMailer) Send(ctx context.Context, msg port.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", m.from)
	fmt.Fprintf(&body, "To: %s\r\n", msg.To)
	fmt.Fprintf(&body, "Subject: %s\r\n", msg.Subject)
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	body.WriteString(msg.Body)
	if msg.Link != "" {
		fmt.Fprintf(&body, "\r\n\r\n%s\r\n", msg.Link)
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(m.addr, auth, m.from, []string{msg.To}, []byte(body.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", logger.MaskEmail(msg.To), err)
	}

	return nil
}

// LoggingMailer records outbound messages instead of delivering them. Used in
// development and as documentation of the degraded path: mail delivery is
// best-effort and never blocks the calling flow.
type LoggingMailer struct {
	logger *zap.Logger
}

// NewLoggingMailer constructs a mailer backed by structured logging.
func NewLoggingMailer(log *zap.Logger) *LoggingMailer {
	return &LoggingMailer{logger: log}
}

func (m *LoggingMailer) Send(ctx context.Context, msg port.MailMessage) error {
	if m == nil || m.logger == nil {
		return nil
	}

	fields := []zap.Field{
		zap.String("to", logger.MaskEmail(msg.To)),
		zap.String("subject", msg.Subject),
	}
	if msg.Link != "" {
		fields = append(fields, zap.String("link", maskLinkToken(msg.Link)))
	}

	m.logger.Info("dispatch mail", fields...)
	return nil
}

// maskLinkToken hides the secret in links of the form ...?token=<value>.
func maskLinkToken(link string) string {
	const marker = "token="
	idx := strings.Index(link, marker)
	if idx < 0 {
		return link
	}
	prefix := link[:idx+len(marker)]
	return prefix + logger.MaskString(link[idx+len(marker):])
}
