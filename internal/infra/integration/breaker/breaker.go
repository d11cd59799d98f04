package breaker

import (
	"context"
	"errors"
	"net/http"
	"time"

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

type Config struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

func newCircuitBreaker(cfg Config, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureRatio
		},
		IsSuccessful: isHealthyOutcome,
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, stateValue(to))
			logger.Warn("⚡ Circuit breaker mudou de estado",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	metrics.SetCircuitBreakerState(cfg.Name, stateValue(cb.State()))
	return cb
}

// isHealthyOutcome treats 4xx answers as a healthy downstream: the request was
// wrong, the service is up. Transport errors and 5xx count as failures.
func isHealthyOutcome(err error) bool {
	if err == nil {
		return true
	}
	var relayErr *entity.RelayError
	if errors.As(err, &relayErr) && relayErr.Err == nil {
		return relayErr.StatusCode < http.StatusInternalServerError
	}
	var sendErr *entity.SendError
	if errors.As(err, &sendErr) && sendErr.Err == nil {
		return sendErr.StatusCode < http.StatusInternalServerError
	}
	return false
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

type Relayer struct {
	next LeadRelayer
	cb   *gobreaker.CircuitBreaker
}

func NewRelayer(next LeadRelayer, cfg Config, logger *zap.Logger) *Relayer {
	return &Relayer{next: next, cb: newCircuitBreaker(cfg, logger)}
}

func (r *Relayer) RelayLead(ctx context.Context, record entity.LeadRecord) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.next.RelayLead(ctx, record)
	})
	if isBreakerRejection(err) {
		return &entity.RelayError{Err: err}
	}
	return err
}

func (r *Relayer) State() gobreaker.State {
	return r.cb.State()
}

type Sender struct {
	next MessageSender
	cb   *gobreaker.CircuitBreaker
}

func NewSender(next MessageSender, cfg Config, logger *zap.Logger) *Sender {
	return &Sender{next: next, cb: newCircuitBreaker(cfg, logger)}
}

func (s *Sender) SendText(ctx context.Context, msg entity.OutboundMessage) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.SendText(ctx, msg)
	})
	if isBreakerRejection(err) {
		return &entity.SendError{Err: err}
	}
	return err
}

func (s *Sender) State() gobreaker.State {
	return s.cb.State()
}
