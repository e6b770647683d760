package port

import "context"

// MailMessage is the delivery contract for outbound notifications.
type MailMessage struct {
	To      string
	Subject string
	Body    string
	Link    string
}

// Mailer delivers messages best-effort. Implementations must degrade to
// logging on transport failure; callers never fail because delivery did.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}
