package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-relay/internal/config"
	"github.com/xavierca1/lead-relay/internal/entity"
	"github.com/xavierca1/lead-relay/internal/infra/http/middleware"
	"github.com/xavierca1/lead-relay/internal/infra/integration/evolution"
	"github.com/xavierca1/lead-relay/internal/infra/integration/n8n"
	"github.com/xavierca1/lead-relay/internal/logger"
	"github.com/xavierca1/lead-relay/internal/usecase"
)

func scoreCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "score <mensagem>",
		Short: "Score a message without calling any service",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			score := usecase.ScoreLead(strings.Join(args, " "), name)
			fmt.Fprintf(cmd.OutOrStdout(), "score=%d qualifies=%t\n", score.Value, score.Qualifies)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Sender name")
	return cmd
}

func sendCmd() *cobra.Command {
	var phone, text, instance string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a WhatsApp text through the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if instance == "" {
				instance = cfg.EvolutionInstance
			}

			client := evolution.NewClient(cfg.EvolutionURL, cfg.EvolutionAPIKey, cfg.HTTPTimeout, log)
			err = client.SendText(cmd.Context(), entity.OutboundMessage{
				RecipientPhone: phone,
				Text:           text,
				InstanceName:   instance,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ mensagem enviada")
			return nil
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "Recipient phone, digits only")
	cmd.Flags().StringVar(&text, "text", "Teste de conexão 🚀", "Message text")
	cmd.Flags().StringVar(&instance, "instance", "", "Gateway instance (default EVOLUTION_INSTANCE)")
	cmd.MarkFlagRequired("phone")
	return cmd
}

func relayCmd() *cobra.Command {
	var name, phone, message string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Post a lead to the automation webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			event := entity.InboundEvent{
				ID:          uuid.NewString(),
				EventType:   entity.EventMessageReceived,
				InstanceID:  cfg.EvolutionInstance,
				SenderID:    phone,
				SenderName:  name,
				MessageText: message,
				ReceivedAt:  time.Now().UTC(),
			}
			score := usecase.ScoreLead(message, name)
			record := entity.NewLeadRecord(event, score)

			client := n8n.NewClient(cfg.N8NBaseURL, cfg.N8NLeadWebhookPath, "", cfg.HTTPTimeout, log)
			if err := client.RelayLead(cmd.Context(), record); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ lead enviado (score %d)\n", record.Score)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Lead Teste", "Lead name")
	cmd.Flags().StringVar(&phone, "phone", "5511999999999", "Lead phone")
	cmd.Flags().StringVar(&message, "message", "quero comprar um apartamento de 2 quartos", "Original message")
	return cmd
}

func statusCmd() *cobra.Command {
	var instance string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the gateway connection state of an instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			if instance == "" {
				instance = cfg.EvolutionInstance
			}
			if instance == "" {
				return fmt.Errorf("informe --instance ou EVOLUTION_INSTANCE")
			}

			client := evolution.NewClient(cfg.EvolutionURL, cfg.EvolutionAPIKey, cfg.HTTPTimeout, log)
			state, err := client.ConnectionState(cmd.Context(), instance)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", instance, state)
			return nil
		},
	}
	cmd.Flags().StringVar(&instance, "instance", "", "Gateway instance (default EVOLUTION_INSTANCE)")
	return cmd
}

func simulateCmd() *cobra.Command {
	var target, token, text, name, phone, instance string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Post a fake inbound message to a running relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := SimulatedMessage(instance, phone, name, text, time.Now())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			if token == "" {
				_ = godotenv.Load(envFile)
				token = os.Getenv("WEBHOOK_TOKEN")
			}
			if token != "" {
				req.Header.Set(middleware.WebhookTokenHeader, token)
			}

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			respBody, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, strings.TrimSpace(string(respBody)))
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("relay respondeu %d", resp.StatusCode)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "url", "http://localhost:8080/webhook/evolution", "Relay webhook URL")
	cmd.Flags().StringVar(&token, "token", "", "Webhook token (default WEBHOOK_TOKEN)")
	cmd.Flags().StringVar(&text, "text", "preciso de um apartamento de 2 quartos, orçamento até 500 mil", "Message text")
	cmd.Flags().StringVar(&name, "name", "João Silva", "Sender push name")
	cmd.Flags().StringVar(&phone, "phone", "5511999999999", "Sender phone")
	cmd.Flags().StringVar(&instance, "instance", "teste", "Gateway instance")
	return cmd
}

// SimulatedMessage builds a MESSAGES_UPSERT body shaped like the gateway's.
func SimulatedMessage(instance, phone, name, text string, now time.Time) ([]byte, error) {
	return json.Marshal(map[string]any{
		"event":    "messages.upsert",
		"instance": instance,
		"data": map[string]any{
			"key": map[string]any{
				"remoteJid": phone + "@s.whatsapp.net",
				"fromMe":    false,
				"id":        strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16]),
			},
			"pushName":         name,
			"message":          map[string]any{"conversation": text},
			"messageTimestamp": now.Unix(),
		},
	})
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.LogLevel, "leadctl")
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
