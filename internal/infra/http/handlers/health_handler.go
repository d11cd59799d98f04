package handlers

import (
	"context"
	"net/http"
	"time"
)

// BrokerConn is satisfied by *queue.RabbitMQ and *amqp091.Connection.
type BrokerConn interface {
	IsClosed() bool
}

// ConnectionChecker reports the WhatsApp instance state (open, connecting, close).
type ConnectionChecker interface {
	ConnectionState(ctx context.Context, instance string) (string, error)
}

type HealthHandler struct {
	RabbitMQ     BrokerConn
	Evolution    ConnectionChecker
	Instance     string
	N8NURL       string
	ReplyEnabled bool
	MailEnabled  bool
	Version      string
	StartTime    time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(rabbitMQ BrokerConn, evolution ConnectionChecker, instance, n8nURL string) *HealthHandler {
	return &HealthHandler{
		RabbitMQ:  rabbitMQ,
		Evolution: evolution,
		Instance:  instance,
		N8NURL:    n8nURL,
		Version:   "1.0.0",
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)

	if h.RabbitMQ != nil {
		if h.RabbitMQ.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		} else {
			deps["rabbitmq"] = "healthy"
		}
	} else {
		deps["rabbitmq"] = "not configured"
	}

	switch {
	case h.Evolution == nil:
		deps["evolution"] = "not configured"
	case h.Instance == "":
		deps["evolution"] = "configured"
	default:
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		state, err := h.Evolution.ConnectionState(ctx, h.Instance)
		cancel()
		switch {
		case err != nil:
			deps["evolution"] = "unhealthy: " + err.Error()
		case state == "open":
			deps["evolution"] = "healthy"
		default:
			deps["evolution"] = "unhealthy: instance " + state
		}
	}

	if h.N8NURL != "" {
		deps["n8n"] = "configured"
	} else {
		deps["n8n"] = "not configured"
	}
	deps["reply"] = enabled(h.ReplyEnabled)
	deps["mail"] = enabled(h.MailEnabled)

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "configured" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:       status,
		Version:      h.Version,
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	if status == "degraded" {
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func enabled(b bool) string {
	if b {
		return "configured"
	}
	return "not configured"
}
