package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-relay/internal/config"
	"github.com/xavierca1/lead-relay/internal/infra/http/handlers"
	appmiddleware "github.com/xavierca1/lead-relay/internal/infra/http/middleware"
	"github.com/xavierca1/lead-relay/internal/infra/integration/breaker"
	"github.com/xavierca1/lead-relay/internal/infra/integration/evolution"
	"github.com/xavierca1/lead-relay/internal/infra/integration/n8n"
	"github.com/xavierca1/lead-relay/internal/infra/mail"
	"github.com/xavierca1/lead-relay/internal/infra/queue"
	"github.com/xavierca1/lead-relay/internal/logger"
	"github.com/xavierca1/lead-relay/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg, err := logger.New(cfg.LogLevel, "lead-relay")
	if err != nil {
		log.Fatal(err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Clientes externos
	evolutionClient := evolution.NewClient(cfg.EvolutionURL, cfg.EvolutionAPIKey, cfg.HTTPTimeout, logg)
	n8nClient := n8n.NewClient(cfg.N8NBaseURL, cfg.N8NLeadWebhookPath, cfg.N8NReplyWebhookPath, cfg.HTTPTimeout, logg)

	var relayer usecase.LeadRelayer = n8nClient
	var sender usecase.MessageSender = evolutionClient
	if cfg.BreakerEnabled {
		relayer = breaker.NewRelayer(n8nClient, breaker.DefaultConfig("n8n"), logg)
		sender = breaker.NewSender(evolutionClient, breaker.DefaultConfig("evolution"), logg)
	}

	// 2. UseCase
	handleEventUC := usecase.NewHandleInboundEventUseCase(relayer, sender, logg)
	if cfg.ReplyEnabled() {
		handleEventUC.Replies = n8nClient
	}
	if cfg.MailEnabled() {
		handleEventUC.Notifier = mail.NewLeadNotifier(
			cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword, cfg.MailFrom, cfg.SalesNotifyEmail,
		)
	}

	healthHandler := handlers.NewHealthHandler(nil, evolutionClient, cfg.EvolutionInstance, cfg.N8NBaseURL)
	healthHandler.ReplyEnabled = cfg.ReplyEnabled()
	healthHandler.MailEnabled = cfg.MailEnabled()

	// 3. Fila de entregas estacionadas (opcional)
	if cfg.QueueEnabled() {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			logg.Fatal("❌ Falha ao conectar no RabbitMQ", zap.Error(err))
		}
		defer rabbitMQ.Close()

		handleEventUC.Parker = queue.NewProducer(rabbitMQ.Ch)
		healthHandler.RabbitMQ = rabbitMQ

		consumerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			logg.Fatal("❌ Falha ao abrir canal do worker", zap.Error(err))
		}
		defer consumerCh.Close()

		// O replay fala direto com os clientes: com o breaker aberto a única
		// tentativa nunca chegaria ao destino.
		worker := queue.NewWorker(consumerCh, n8nClient, evolutionClient, logg)
		worker.Delay = cfg.ReplayDelay
		go func() {
			if err := worker.Start(ctx, queue.QueueName); err != nil {
				logg.Error("❌ Worker de replay parou", zap.Error(err))
			}
		}()
	}

	// 4. Handlers
	webhookHandler := handlers.NewWebhookHandler(handleEventUC, logg)

	// 5. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "apikey"},
	}))
	r.Use(appmiddleware.Metrics)

	r.Group(func(r chi.Router) {
		if cfg.RateLimitEnabled() {
			limiter := appmiddleware.NewRateLimiter(ctx, appmiddleware.RateLimitConfig{
				RPS:   cfg.RateLimitRPS,
				Burst: cfg.RateLimitBurst,
			})
			r.Use(limiter.Handler)
		}
		r.Use(appmiddleware.WebhookToken(cfg.WebhookToken))

		r.Post("/webhook/evolution", webhookHandler.Handle)
		r.Post("/webhook/evolution/{instance}", webhookHandler.Handle)
	})
	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info("🔥 Lead relay rodando", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("❌ Servidor HTTP falhou", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logg.Info("🛑 Encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("erro no shutdown", zap.Error(err))
	}
}
