package usecase

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-relay/internal/entity"
	"github.com/xavierca1/lead-relay/internal/infra/queue"
	"github.com/xavierca1/lead-relay/internal/metrics"
)

type Action string

const (
	ActionAcknowledged Action = "ACKNOWLEDGED"
	ActionIgnored      Action = "IGNORED"
	ActionProcessed    Action = "PROCESSED"
)

// Outcome records what happened to one event. Downstream errors are kept here
// for logging only; none of them changes the webhook response.
type Outcome struct {
	EventID   string
	EventType entity.EventType
	Instance  string
	Action    Action

	Score *entity.LeadScore

	RelayAttempted bool
	Relayed        bool
	RelayErr       error

	ReplyAttempted bool
	Replied        bool
	ReplyErr       error
	SendErr        error

	Parked int
}

type HandleInboundEventUseCase struct {
	Relayer  LeadRelayer
	Sender   MessageSender
	Replies  ReplyGenerator
	Parker   DeliveryParker
	Notifier LeadNotifier
	Logger   *zap.Logger
}

// NewHandleInboundEventUseCase wires the mandatory collaborators. Replies, Parker
// and Notifier are optional and may be set on the returned value.
func NewHandleInboundEventUseCase(relayer LeadRelayer, sender MessageSender, logger *zap.Logger) *HandleInboundEventUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HandleInboundEventUseCase{
		Relayer: relayer,
		Sender:  sender,
		Logger:  logger,
	}
}

func (uc *HandleInboundEventUseCase) Execute(ctx context.Context, event entity.InboundEvent) Outcome {
	out := Outcome{
		EventID:   event.ID,
		EventType: event.EventType,
		Instance:  event.InstanceID,
		Action:    ActionAcknowledged,
	}

	log := uc.Logger.With(
		zap.String("event_id", event.ID),
		zap.String("event", string(event.EventType)),
		zap.String("instance", event.InstanceID),
	)
	metrics.RecordInboundEvent(string(event.EventType))

	switch event.EventType {
	case entity.EventQRCodeUpdated:
		log.Info("📷 QR code atualizado", zap.Int("qrcode_len", len(event.QRCode)))
		return out
	case entity.EventConnectionUpdate:
		log.Info("🔌 Status da conexão atualizado", zap.String("state", event.ConnectionState))
		return out
	case entity.EventMessageReceived:
	default:
		log.Debug("evento ignorado", zap.String("raw_event", event.RawType))
		out.Action = ActionIgnored
		return out
	}

	if event.FromMe {
		log.Debug("mensagem enviada pela própria instância, ignorando")
		out.Action = ActionIgnored
		return out
	}

	score := ScoreLead(event.MessageText, event.SenderName)
	out.Score = &score
	out.Action = ActionProcessed
	metrics.ObserveLeadScore(score.Value, score.Qualifies)

	log = log.With(zap.String("phone", event.SenderID), zap.Int("score", score.Value))
	log.Info("📥 Mensagem recebida e pontuada", zap.Bool("qualifies", score.Qualifies))

	if score.Qualifies {
		uc.relay(ctx, log, event, score, &out)
	}

	if uc.Replies != nil {
		uc.reply(ctx, log, event, score, &out)
	}

	return out
}

func (uc *HandleInboundEventUseCase) relay(ctx context.Context, log *zap.Logger, event entity.InboundEvent, score entity.LeadScore, out *Outcome) {
	record := entity.NewLeadRecord(event, score)
	out.RelayAttempted = true

	if err := uc.Relayer.RelayLead(ctx, record); err != nil {
		// Best-effort: the gateway must get its 200 regardless.
		out.RelayErr = err
		metrics.RecordRelay(false)
		log.Error("❌ Falha ao enviar lead para automação", append(errorFields(err), zap.Error(err))...)
		uc.park(ctx, log, queue.NewParkedLeadRelay(event.ID, record, err), out)
	} else {
		out.Relayed = true
		metrics.RecordRelay(true)
		log.Info("✅ Lead qualificado enviado para automação")
	}

	if uc.Notifier != nil {
		go func() {
			if err := uc.Notifier.NotifyQualifiedLead(record); err != nil {
				log.Warn("⚠️ Falha ao notificar vendas por email", zap.Error(err))
			}
		}()
	}
}

func (uc *HandleInboundEventUseCase) reply(ctx context.Context, log *zap.Logger, event entity.InboundEvent, score entity.LeadScore, out *Outcome) {
	text, err := uc.Replies.GenerateReply(ctx, event, score)
	if err != nil {
		out.ReplyErr = err
		log.Warn("⚠️ Não foi possível gerar resposta", zap.Error(err))
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Debug("resposta vazia, nada a enviar")
		return
	}

	msg := entity.OutboundMessage{
		RecipientPhone: event.SenderID,
		Text:           text,
		InstanceName:   event.InstanceID,
	}
	out.ReplyAttempted = true

	if err := uc.Sender.SendText(ctx, msg); err != nil {
		out.SendErr = err
		metrics.RecordSend(false)
		log.Error("❌ Falha ao enviar resposta pelo WhatsApp", append(errorFields(err), zap.Error(err))...)
		uc.park(ctx, log, queue.NewParkedSend(event.ID, msg, err), out)
		return
	}

	out.Replied = true
	metrics.RecordSend(true)
	log.Info("✅ Resposta enviada pelo WhatsApp")
}

func (uc *HandleInboundEventUseCase) park(ctx context.Context, log *zap.Logger, delivery queue.ParkedDelivery, out *Outcome) {
	if uc.Parker == nil {
		return
	}
	if err := uc.Parker.Park(ctx, delivery); err != nil {
		log.Warn("⚠️ Falha ao estacionar entrega na fila", zap.String("kind", string(delivery.Kind)), zap.Error(err))
		return
	}
	out.Parked++
	metrics.RecordParked(string(delivery.Kind))
}

func errorFields(err error) []zap.Field {
	var relayErr *entity.RelayError
	var sendErr *entity.SendError

	fields := []zap.Field{zap.Bool("transport", entity.IsTransportError(err))}
	switch {
	case errors.As(err, &relayErr):
		fields = append(fields, zap.Int("status_code", relayErr.StatusCode), zap.String("body", relayErr.Body))
	case errors.As(err, &sendErr):
		fields = append(fields, zap.Int("status_code", sendErr.StatusCode), zap.String("body", sendErr.Body))
	}
	return fields
}
