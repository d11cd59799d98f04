package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/lead-relay/internal/entity"
)

type DeliveryKind string

const (
	KindLeadRelay    DeliveryKind = "LEAD_RELAY"
	KindWhatsAppSend DeliveryKind = "WHATSAPP_SEND"
)

// ParkedDelivery is a relay or send that failed inline and waits for one replay.
type ParkedDelivery struct {
	ID         string                  `json:"id"`
	Kind       DeliveryKind            `json:"kind"`
	EventID    string                  `json:"event_id"`
	Lead       *entity.LeadRecord      `json:"lead,omitempty"`
	Message    *entity.OutboundMessage `json:"message,omitempty"`
	LastError  string                  `json:"last_error"`
	StatusCode int                     `json:"status_code,omitempty"`
	ParkedAt   time.Time               `json:"parked_at"`
}

func NewParkedLeadRelay(eventID string, record entity.LeadRecord, cause error) ParkedDelivery {
	d := newParked(KindLeadRelay, eventID, cause)
	d.Lead = &record
	return d
}

func NewParkedSend(eventID string, msg entity.OutboundMessage, cause error) ParkedDelivery {
	d := newParked(KindWhatsAppSend, eventID, cause)
	d.Message = &msg
	return d
}

func newParked(kind DeliveryKind, eventID string, cause error) ParkedDelivery {
	d := ParkedDelivery{
		ID:       uuid.NewString(),
		Kind:     kind,
		EventID:  eventID,
		ParkedAt: time.Now().UTC(),
	}
	if cause != nil {
		d.LastError = cause.Error()
		d.StatusCode = statusCodeOf(cause)
	}
	return d
}

func statusCodeOf(err error) int {
	var relayErr *entity.RelayError
	if errors.As(err, &relayErr) {
		return relayErr.StatusCode
	}
	var sendErr *entity.SendError
	if errors.As(err, &sendErr) {
		return sendErr.StatusCode
	}
	return 0
}

// Publisher is the subset of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) Park(ctx context.Context, delivery ParkedDelivery) error {
	body, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    delivery.ID,
			Type:         string(delivery.Kind),
			Timestamp:    delivery.ParkedAt,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}

	return nil
}
