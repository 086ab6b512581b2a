package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tqpictures/studio/models"
)

const (
	TypeBookingCreated = "booking.created"
	TypeImageUploaded  = "image.uploaded"
)

type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	ProfileID string    `json:"profile_id,omitempty"`
	At        time.Time `json:"at"`
}

// Publisher emits domain events to one Kafka topic. A nil Publisher is
// valid and drops everything, so callers never branch on configuration.
type Publisher struct {
	writer *kafka.Writer
	log    *slog.Logger
}

func NewPublisher(brokers []string, topic string, log *slog.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		log: log,
	}
}

func (p *Publisher) BookingCreated(ctx context.Context, b *models.Booking) {
	if p == nil {
		return
	}
	p.publish(ctx, Event{Type: TypeBookingCreated, ID: b.ID, ProfileID: b.ProfileID, At: time.Now()})
}

func (p *Publisher) ImageUploaded(ctx context.Context, img *models.Image) {
	if p == nil {
		return
	}
	p.publish(ctx, Event{Type: TypeImageUploaded, ID: img.ID, ProfileID: img.UploadedBy, At: time.Now()})
}

// publish is fire-and-forget: the user flow never fails on a broker error.
func (p *Publisher) publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		p.log.Error("events: marshal", "type", e.Type, "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.ID), Value: payload}); err != nil {
		p.log.Error("events: publish", "type", e.Type, "error", err)
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
