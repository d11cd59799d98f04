package usecase

import (
	"context"

	"github.com/xavierca1/lead-relay/internal/entity"
	"github.com/xavierca1/lead-relay/internal/infra/queue"
)

// LeadRelayer forwards a qualified lead to the automation host. Failures are
// *entity.RelayError.
type LeadRelayer interface {
	RelayLead(ctx context.Context, record entity.LeadRecord) error
}

// MessageSender hands a text message to the messaging gateway. Failures are
// *entity.SendError.
type MessageSender interface {
	SendText(ctx context.Context, msg entity.OutboundMessage) error
}

type ReplyGenerator interface {
	GenerateReply(ctx context.Context, event entity.InboundEvent, score entity.LeadScore) (string, error)
}

type DeliveryParker interface {
	Park(ctx context.Context, delivery queue.ParkedDelivery) error
}

type LeadNotifier interface {
	NotifyQualifiedLead(record entity.LeadRecord) error
}
