package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-relay/internal/entity"
	"github.com/xavierca1/lead-relay/internal/metrics"
	"github.com/xavierca1/lead-relay/internal/usecase"
)

const maxWebhookBody = 1 << 20

// InboundEventExecutor is implemented by *usecase.HandleInboundEventUseCase.
type InboundEventExecutor interface {
	Execute(ctx context.Context, event entity.InboundEvent) usecase.Outcome
}

type WebhookHandler struct {
	UseCase InboundEventExecutor
	Logger  *zap.Logger
	Now     func() time.Time
}

type WebhookData struct {
	EventID   string `json:"event_id"`
	Event     string `json:"event"`
	Instance  string `json:"instance,omitempty"`
	Action    string `json:"action"`
	Score     *int   `json:"score,omitempty"`
	Qualifies bool   `json:"qualifies"`
	Relayed   bool   `json:"relayed"`
	Replied   bool   `json:"replied"`
	Parked    int    `json:"parked,omitempty"`
}

type WebhookResponse struct {
	Success bool        `json:"success"`
	Data    WebhookData `json:"data"`
}

func NewWebhookHandler(uc InboundEventExecutor, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		UseCase: uc,
		Logger:  logger,
		Now:     time.Now,
	}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		metrics.RecordParseFailure()
		h.Logger.Warn("❌ Falha ao ler corpo do webhook", zap.Error(err))
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_PAYLOAD", "não foi possível ler o corpo da requisição")
		return
	}

	event, err := entity.ParseInboundEvent(body, chi.URLParam(r, "instance"), h.Now())
	if err != nil {
		metrics.RecordParseFailure()
		fields := []zap.Field{zap.Error(err), zap.Int("body_len", len(body))}
		var parseErr *entity.ParseError
		if errors.As(err, &parseErr) {
			fields = append(fields, zap.String("field", parseErr.Field))
		}
		h.Logger.Warn("❌ Payload de webhook inválido", fields...)
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}

	// A gateway que desconecta não deve cancelar o relay em andamento.
	out := h.UseCase.Execute(context.WithoutCancel(r.Context()), event)

	data := WebhookData{
		EventID:  out.EventID,
		Event:    string(out.EventType),
		Instance: out.Instance,
		Action:   string(out.Action),
		Relayed:  out.Relayed,
		Replied:  out.Replied,
		Parked:   out.Parked,
	}
	if out.Score != nil {
		value := out.Score.Value
		data.Score = &value
		data.Qualifies = out.Score.Qualifies
	}

	writeJSON(w, http.StatusOK, WebhookResponse{Success: true, Data: data})
}
