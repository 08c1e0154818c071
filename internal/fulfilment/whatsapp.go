package fulfilment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"attraction-booking/internal/config"
	"attraction-booking/internal/model"

	"github.com/rs/zerolog"
)

// HTTPDoer executes HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// WhatsAppSender posts ticket messages to a WhatsApp messaging API.
type WhatsAppSender struct {
	client HTTPDoer
	apiURL string
	token  string
	logger zerolog.Logger
}

type whatsAppMessage struct {
	To        string `json:"to"`
	Template  string `json:"template"`
	OrderRef  string `json:"order_ref"`
	BookingID int64  `json:"booking_id"`
	Date      string `json:"date"`
	Slot      string `json:"slot"`
	Quantity  int    `json:"quantity"`
	TicketURL string `json:"ticket_url,omitempty"`
}

// NewWhatsAppSender creates a WhatsApp ticket sender.
func NewWhatsAppSender(cfg config.WhatsAppConfig, logger zerolog.Logger) *WhatsAppSender {
	return newWhatsAppSender(&http.Client{Timeout: cfg.Timeout}, cfg.APIURL, cfg.Token, logger)
}

func newWhatsAppSender(client HTTPDoer, apiURL, token string, logger zerolog.Logger) *WhatsAppSender {
	return &WhatsAppSender{
		client: client,
		apiURL: apiURL,
		token:  token,
		logger: logger.With().Str("component", "whatsapp-sender").Logger(),
	}
}

// SendTicket sends the ticket link for one booking.
func (s *WhatsAppSender) SendTicket(ctx context.Context, to string, order *model.Order, b *model.Booking, t *Ticket) error {
	msg := whatsAppMessage{
		To:        to,
		Template:  "booking_ticket",
		OrderRef:  order.Ref,
		BookingID: b.ID,
		Date:      b.BookingDate.Format("2006-01-02"),
		Slot:      b.SlotLabel,
		Quantity:  b.Quantity,
	}
	if t != nil {
		msg.TicketURL = t.Location
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal whatsapp message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp api returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
