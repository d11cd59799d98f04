package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-relay/internal/entity"
)

const maxBodyBytes = 64 << 10

type Client struct {
	baseURL    string
	leadPath   string
	replyPath  string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, leadPath, replyPath string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		leadPath:   normalizePath(leadPath),
		replyPath:  normalizePath(replyPath),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) ReplyEnabled() bool {
	return c.baseURL != "" && c.replyPath != ""
}

// RelayLead posts the lead once. Only 200 counts as delivered.
func (c *Client) RelayLead(ctx context.Context, record entity.LeadRecord) error {
	if c.baseURL == "" || c.leadPath == "" {
		return &entity.RelayError{Err: errors.New("webhook de leads não configurado")}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return &entity.RelayError{Err: fmt.Errorf("erro ao serializar lead: %w", err)}
	}

	endpoint := c.baseURL + c.leadPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return &entity.RelayError{Err: fmt.Errorf("erro ao criar requisição: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.RelayError{Err: &entity.TransportError{Op: "POST " + endpoint, Err: err}}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode != http.StatusOK {
		return &entity.RelayError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	c.logger.Info("✅ n8n: lead recebido pela automação",
		zap.String("phone", record.Phone),
		zap.Int("score", record.Score),
	)
	return nil
}

// GenerateReply asks the automation host for the text to send back to the sender.
// An empty string means no reply.
func (c *Client) GenerateReply(ctx context.Context, event entity.InboundEvent, score entity.LeadScore) (string, error) {
	if !c.ReplyEnabled() {
		return "", nil
	}

	name := ""
	if entity.HasSenderName(event.SenderName) {
		name = event.SenderName
	}

	payload, err := json.Marshal(ReplyRequest{
		EventID:    event.ID,
		Instance:   event.InstanceID,
		Phone:      event.SenderID,
		Name:       name,
		Message:    event.MessageText,
		Score:      score.Value,
		Qualifies:  score.Qualifies,
		ReceivedAt: event.ReceivedAt,
	})
	if err != nil {
		return "", fmt.Errorf("erro ao serializar pedido de resposta: %w", err)
	}

	endpoint := c.baseURL + c.replyPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &entity.TransportError{Op: "POST " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("n8n retornou status %d: %s", resp.StatusCode, string(body))
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}

	var result ReplyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("erro ao parsear resposta do n8n: %w", err)
	}
	return result.Text(), nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
