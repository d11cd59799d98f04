package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-relay/internal/entity"
)

const maxBodyBytes = 64 << 10

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SendText posts one text message to /message/sendText/{instance}. 200 and 201
// mean the gateway accepted it; anything else is a *entity.SendError.
func (c *Client) SendText(ctx context.Context, msg entity.OutboundMessage) error {
	if c.apiKey == "" || c.baseURL == "" {
		return &entity.SendError{Err: errors.New("evolution api não configurada")}
	}
	if msg.InstanceName == "" || msg.RecipientPhone == "" {
		return &entity.SendError{Err: errors.New("instância e telefone são obrigatórios")}
	}

	body, err := json.Marshal(SendTextRequest{
		Number:      msg.RecipientPhone,
		TextMessage: TextMessage{Text: msg.Text},
	})
	if err != nil {
		return &entity.SendError{Err: fmt.Errorf("erro ao serializar payload: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, url.PathEscape(msg.InstanceName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &entity.SendError{Err: fmt.Errorf("erro ao criar requisição: %w", err)}
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.SendError{Err: &entity.TransportError{Op: "POST " + endpoint, Err: err}}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &entity.SendError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result SendTextResponse
	if err := json.Unmarshal(respBody, &result); err == nil && result.Key.ID != "" {
		c.logger.Debug("mensagem aceita pela Evolution API", zap.String("message_id", result.Key.ID))
	}

	c.logger.Info("✅ WhatsApp: mensagem aceita pela gateway",
		zap.String("phone", msg.RecipientPhone),
		zap.String("instance", msg.InstanceName),
	)
	return nil
}

// ConnectionState returns the instance state reported by the gateway (open, connecting, close).
func (c *Client) ConnectionState(ctx context.Context, instance string) (string, error) {
	endpoint := fmt.Sprintf("%s/instance/connectionState/%s", c.baseURL, url.PathEscape(instance))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &entity.TransportError{Op: "GET " + endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("erro ao consultar instância: %d - %s", resp.StatusCode, string(body))
	}

	var result ConnectionStateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("erro ao parsear resposta: %w", err)
	}
	return result.Instance.State, nil
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
