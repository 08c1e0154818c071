package fulfilment

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"attraction-booking/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
)

const ticketQRSize = 256

// Ticket is a generated ticket artifact.
type Ticket struct {
	Name     string
	Location string
	PNG      []byte
}

// TicketStore persists ticket artifacts and returns where they can be fetched.
type TicketStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
}

// LocalStore writes tickets to a directory served under baseURL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a filesystem ticket store.
func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save writes the artifact and returns its URL path.
func (s *LocalStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create ticket dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write ticket: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

// ObjectPutter is the subset of the S3 client used to upload tickets.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads tickets to a bucket.
type S3Store struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewS3Store creates an S3 ticket store.
func NewS3Store(client ObjectPutter, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

// Save uploads the artifact and returns its s3:// location.
func (s *S3Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	key := path.Join(s.prefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload ticket: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

// TicketGenerator renders a QR code ticket per booking.
type TicketGenerator struct {
	store  TicketStore
	logger zerolog.Logger
}

// NewTicketGenerator creates a ticket generator.
func NewTicketGenerator(store TicketStore, logger zerolog.Logger) *TicketGenerator {
	return &TicketGenerator{
		store:  store,
		logger: logger.With().Str("component", "ticket-generator").Logger(),
	}
}

// TicketContent is the text encoded in a booking's QR code.
func TicketContent(order *model.Order, b *model.Booking) string {
	return fmt.Sprintf("ORDER:%s;BOOKING:%d;DATE:%s;SLOT:%s;QTY:%d",
		order.Ref, b.ID, b.BookingDate.Format("2006-01-02"), b.SlotLabel, b.Quantity)
}

// Generate renders and stores the ticket for a booking.
func (g *TicketGenerator) Generate(ctx context.Context, order *model.Order, b *model.Booking) (*Ticket, error) {
	qr, err := qrcode.New(TicketContent(order, b), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}
	png, err := qr.PNG(ticketQRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	name := fmt.Sprintf("%s-%d.png", order.Ref, b.ID)
	location, err := g.store.Save(ctx, name, png)
	if err != nil {
		return nil, err
	}

	g.logger.Debug().
		Int64("booking_id", b.ID).
		Str("location", location).
		Msg("ticket generated")

	return &Ticket{Name: name, Location: location, PNG: png}, nil
}
