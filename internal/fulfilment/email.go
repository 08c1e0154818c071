package fulfilment

import (
	"context"
	"fmt"
	"html"
	"io"

	"attraction-booking/internal/config"
	"attraction-booking/internal/model"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Dialer sends composed messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender mails tickets over SMTP.
type EmailSender struct {
	dialer Dialer
	from   string
	logger zerolog.Logger
}

// NewEmailSender creates an SMTP ticket sender.
func NewEmailSender(cfg config.SMTPConfig, logger zerolog.Logger) *EmailSender {
	return newEmailSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg.From, logger)
}

func newEmailSender(d Dialer, from string, logger zerolog.Logger) *EmailSender {
	return &EmailSender{
		dialer: d,
		from:   from,
		logger: logger.With().Str("component", "email-sender").Logger(),
	}
}

// SendTicket mails the ticket for one booking with the QR code attached.
func (s *EmailSender) SendTicket(ctx context.Context, to string, order *model.Order, b *model.Booking, t *Ticket) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Your tickets for order %s", order.Ref))
	m.SetBody("text/html", ticketEmailBody(order, b, t))
	if t != nil && len(t.PNG) > 0 {
		png := t.PNG
		m.Attach(t.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(png)
			return err
		}))
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send ticket email: %w", err)
	}
	return nil
}

func ticketEmailBody(order *model.Order, b *model.Booking, t *Ticket) string {
	link := ""
	if t != nil && t.Location != "" {
		link = fmt.Sprintf(`<p><a href="%s">View ticket</a></p>`, html.EscapeString(t.Location))
	}
	return fmt.Sprintf(`<h2>Booking confirmed</h2>
<p>Order: <strong>%s</strong></p>
<p>Booking: #%d, %d ticket(s)</p>
<p>Date: %s</p>
<p>Slot: %s</p>
%s`,
		html.EscapeString(order.Ref), b.ID, b.Quantity,
		b.BookingDate.Format("Mon, 02 Jan 2006"), html.EscapeString(b.SlotLabel), link)
}
