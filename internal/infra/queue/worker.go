package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-relay/internal/entity"
	"github.com/xavierca1/lead-relay/internal/metrics"
)

type LeadRelayer interface {
	RelayLead(ctx context.Context, record entity.LeadRecord) error
}

type MessageSender interface {
	SendText(ctx context.Context, msg entity.OutboundMessage) error
}

// Worker replays each parked delivery exactly once. A failed replay is
// dead-lettered and left for manual inspection.
type Worker struct {
	Channel *amqp.Channel
	Relayer LeadRelayer
	Sender  MessageSender
	Logger  *zap.Logger

	// Delay is the minimum age of a parked delivery before it is replayed.
	Delay time.Duration
}

func NewWorker(ch *amqp.Channel, relayer LeadRelayer, sender MessageSender, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		Channel: ch,
		Relayer: relayer,
		Sender:  sender,
		Logger:  logger,
	}
}

func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.Logger.Info("[*] Worker de replay aguardando na fila", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("⚠️ Worker de replay encerrado")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("canal de consumo fechado")
			}
			w.HandleDelivery(ctx, d)
		}
	}
}

func (w *Worker) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	var parked ParkedDelivery
	if err := json.Unmarshal(d.Body, &parked); err != nil {
		w.Logger.Error("❌ [WORKER] JSON inválido", zap.Error(err))
		// Mensagem podre, rejeita sem requeue para não travar a fila.
		d.Nack(false, false)
		return
	}

	log := w.Logger.With(
		zap.String("delivery_id", parked.ID),
		zap.String("kind", string(parked.Kind)),
		zap.String("event_id", parked.EventID),
	)

	if !w.waitUntilDue(ctx, parked.ParkedAt) {
		// Shutdown: devolve para a fila, a tentativa ainda não foi feita.
		d.Nack(false, true)
		return
	}

	if err := w.replay(ctx, parked); err != nil {
		if isBreakerRejection(err) {
			// Nenhuma chamada chegou ao destino, a tentativa continua pendente.
			log.Warn("⚠️ [WORKER] Circuit breaker aberto, devolvendo para a fila", zap.Error(err))
			w.waitUntilDue(ctx, time.Now())
			d.Nack(false, true)
			return
		}
		metrics.RecordReplay(string(parked.Kind), false)
		log.Error("❌ [WORKER] Replay falhou, enviando para DLQ", zap.Error(err))
		d.Nack(false, false)
		return
	}

	metrics.RecordReplay(string(parked.Kind), true)
	log.Info("✅ [WORKER] Entrega reprocessada com sucesso")
	d.Ack(false)
}

func (w *Worker) replay(ctx context.Context, parked ParkedDelivery) error {
	switch parked.Kind {
	case KindLeadRelay:
		if parked.Lead == nil {
			return fmt.Errorf("entrega %s sem lead", parked.ID)
		}
		return w.Relayer.RelayLead(ctx, *parked.Lead)

	case KindWhatsAppSend:
		if parked.Message == nil {
			return fmt.Errorf("entrega %s sem mensagem", parked.ID)
		}
		return w.Sender.SendText(ctx, *parked.Message)

	default:
		return fmt.Errorf("tipo de entrega desconhecido: %s", parked.Kind)
	}
}

func (w *Worker) waitUntilDue(ctx context.Context, parkedAt time.Time) bool {
	wait := time.Until(parkedAt.Add(w.Delay))
	if w.Delay <= 0 || wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
