package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is read once at startup and handed to each client constructor.
type Config struct {
	Port     int
	LogLevel string

	EvolutionURL      string
	EvolutionAPIKey   string
	EvolutionInstance string

	N8NBaseURL          string
	N8NLeadWebhookPath  string
	N8NReplyWebhookPath string

	HTTPTimeout    time.Duration
	BreakerEnabled bool

	RabbitMQURL string
	ReplayDelay time.Duration

	MailHost         string
	MailPort         int
	MailUser         string
	MailPassword     string
	MailFrom         string
	SalesNotifyEmail string

	CORSAllowedOrigins []string

	WebhookToken   string
	RateLimitRPS   float64
	RateLimitBurst int
}

func (c *Config) ReplyEnabled() bool {
	return c.N8NReplyWebhookPath != ""
}

func (c *Config) QueueEnabled() bool {
	return c.RabbitMQURL != ""
}

func (c *Config) MailEnabled() bool {
	return c.MailHost != "" && c.SalesNotifyEmail != ""
}

func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// RequestTimeout bounds one inbound request: relay, reply generation and send
// run in sequence, each limited by HTTPTimeout.
func (c *Config) RequestTimeout() time.Duration {
	return 3*c.HTTPTimeout + 5*time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads an optional .env file and the process environment.
func Load(envFiles ...string) (*Config, error) {
	// .env é opcional, em produção as variáveis vêm do ambiente
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		EvolutionURL:      strings.TrimRight(v.GetString("EVOLUTION_API_URL"), "/"),
		EvolutionAPIKey:   v.GetString("EVOLUTION_API_KEY"),
		EvolutionInstance: v.GetString("EVOLUTION_INSTANCE"),

		N8NBaseURL:          strings.TrimRight(v.GetString("N8N_BASE_URL"), "/"),
		N8NLeadWebhookPath:  v.GetString("N8N_LEAD_WEBHOOK_PATH"),
		N8NReplyWebhookPath: v.GetString("N8N_REPLY_WEBHOOK_PATH"),

		HTTPTimeout:    time.Duration(v.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,
		BreakerEnabled: v.GetBool("BREAKER_ENABLED"),

		RabbitMQURL: v.GetString("RABBITMQ_URL"),
		ReplayDelay: time.Duration(v.GetInt("REPLAY_DELAY_SECONDS")) * time.Second,

		MailHost:         v.GetString("MAIL_HOST"),
		MailPort:         v.GetInt("MAIL_PORT"),
		MailUser:         v.GetString("MAIL_USER"),
		MailPassword:     v.GetString("MAIL_PASS"),
		MailFrom:         v.GetString("MAIL_FROM"),
		SalesNotifyEmail: v.GetString("SALES_NOTIFY_EMAIL"),

		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		WebhookToken:   v.GetString("WEBHOOK_TOKEN"),
		RateLimitRPS:   v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst: v.GetInt("RATE_LIMIT_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 8080)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("N8N_LEAD_WEBHOOK_PATH", "/webhook/lead-qualificado")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 15)
	v.SetDefault("BREAKER_ENABLED", true)
	v.SetDefault("REPLAY_DELAY_SECONDS", 30)
	v.SetDefault("MAIL_PORT", 587)
	v.SetDefault("MAIL_FROM", "nao-responda@localhost")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, &ValidationError{"PORT", fmt.Sprintf("must be between 1 and 65535, got %d", c.Port)})
	}
	if c.EvolutionURL == "" {
		errs = append(errs, &ValidationError{"EVOLUTION_API_URL", "is required"})
	}
	if c.EvolutionAPIKey == "" {
		errs = append(errs, &ValidationError{"EVOLUTION_API_KEY", "is required"})
	}
	if c.N8NBaseURL == "" {
		errs = append(errs, &ValidationError{"N8N_BASE_URL", "is required"})
	}
	if c.N8NLeadWebhookPath == "" {
		errs = append(errs, &ValidationError{"N8N_LEAD_WEBHOOK_PATH", "is required"})
	}
	if c.HTTPTimeout < time.Second || c.HTTPTimeout > 60*time.Second {
		errs = append(errs, &ValidationError{"HTTP_TIMEOUT_SECONDS", "must be between 1 and 60"})
	}
	if c.ReplayDelay < 0 {
		errs = append(errs, &ValidationError{"REPLAY_DELAY_SECONDS", "must not be negative"})
	}
	if c.RateLimitRPS < 0 || (c.RateLimitRPS > 0 && c.RateLimitBurst < 1) {
		errs = append(errs, &ValidationError{"RATE_LIMIT_RPS", "must be >= 0 with RATE_LIMIT_BURST >= 1"})
	}
	if c.MailHost != "" && c.SalesNotifyEmail == "" {
		errs = append(errs, &ValidationError{"SALES_NOTIFY_EMAIL", "is required when MAIL_HOST is set"})
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuração inválida: %w", errors.Join(errs...))
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
