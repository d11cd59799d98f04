package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xavierca1/lead-relay/internal/entity"
	"github.com/xavierca1/lead-relay/internal/infra/integration/evolution"
	"github.com/xavierca1/lead-relay/internal/infra/integration/n8n"
	"github.com/xavierca1/lead-relay/internal/usecase"
)

// fakeAutomation records the lead relays it receives.
type fakeAutomation struct {
	mu     sync.Mutex
	status int
	leads  []entity.LeadRecord
}

func (f *fakeAutomation) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var record entity.LeadRecord
	_ = json.NewDecoder(r.Body).Decode(&record)

	f.mu.Lock()
	f.leads = append(f.leads, record)
	f.mu.Unlock()

	w.WriteHeader(f.status)
	io.WriteString(w, `{"ok":true}`)
}

func (f *fakeAutomation) calls() []entity.LeadRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.LeadRecord(nil), f.leads...)
}

type fixture struct {
	router     http.Handler
	automation *fakeAutomation
	gatewayHit *int
	logs       *observer.ObservedLogs
}

func newFixture(t *testing.T, relayStatus int) *fixture {
	t.Helper()

	automation := &fakeAutomation{status: relayStatus}
	n8nServer := httptest.NewServer(automation)
	t.Cleanup(n8nServer.Close)

	gatewayHit := 0
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gatewayHit++
		w.WriteHeader(http.StatusCreated)
	}))
	t.Cleanup(gateway.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	relayer := n8n.NewClient(n8nServer.URL, "/webhook/lead-qualificado", "", 2*time.Second, logger)
	sender := evolution.NewClient(gateway.URL, "chave", 2*time.Second, logger)
	uc := usecase.NewHandleInboundEventUseCase(relayer, sender, logger)

	h := NewWebhookHandler(uc, logger)
	h.Now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Post("/webhook/evolution", h.Handle)
	r.Post("/webhook/evolution/{instance}", h.Handle)

	return &fixture{router: r, automation: automation, gatewayHit: &gatewayHit, logs: logs}
}

func (f *fixture) post(t *testing.T, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	f.router.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func messageBody(text, pushName string) string {
	payload := map[string]any{
		"event":    "messages.upsert",
		"instance": "imobiliaria",
		"data": map[string]any{
			"key": map[string]any{
				"remoteJid": "5511999999999@s.whatsapp.net",
				"fromMe":    false,
				"id":        "3EB0C767D26A",
			},
			"pushName":         pushName,
			"message":          map[string]any{"conversation": text},
			"messageTimestamp": 1710072000,
		},
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func TestWebhookQualifiedLeadIsRelayed(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rec, body := f.post(t, "/webhook/evolution",
		messageBody("preciso de um apartamento de 2 quartos, orçamento até 500 mil", "João Silva"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "PROCESSED", data["action"])
	assert.Equal(t, true, data["qualifies"])
	assert.Equal(t, true, data["relayed"])
	assert.GreaterOrEqual(t, data["score"].(float64), 70.0)

	leads := f.automation.calls()
	require.Len(t, leads, 1)
	assert.Equal(t, "João Silva", leads[0].Name)
	assert.Equal(t, "5511999999999", leads[0].Phone)
	assert.GreaterOrEqual(t, leads[0].Score, 70)
	assert.Equal(t, "whatsapp", leads[0].Source)
}

func TestWebhookLowScoreIsNotRelayed(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rec, body := f.post(t, "/webhook/evolution", messageBody("oi", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, 30.0, data["score"])
	assert.Equal(t, false, data["qualifies"])
	assert.Equal(t, false, data["relayed"])
	assert.Empty(t, f.automation.calls())
}

func TestWebhookRelayFailureStillAcknowledges(t *testing.T) {
	f := newFixture(t, http.StatusInternalServerError)

	rec, body := f.post(t, "/webhook/evolution",
		messageBody("quero comprar uma casa, tenho orçamento", "Maria"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["relayed"])
	assert.Len(t, f.automation.calls(), 1)

	failures := f.logs.FilterMessage("❌ Falha ao enviar lead para automação").All()
	require.Len(t, failures, 1)
	assert.Equal(t, int64(500), failures[0].ContextMap()["status_code"])
}

func TestWebhookMalformedJSON(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rec, body := f.post(t, "/webhook/evolution", `{"event": "messages.upsert", "data": {`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INVALID_PAYLOAD", body["error"])
	assert.Empty(t, f.automation.calls())
	assert.Zero(t, *f.gatewayHit)
	assert.Zero(t, f.logs.FilterMessage("📥 Mensagem recebida e pontuada").Len())
}

func TestWebhookMissingInstanceIsRejected(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rec, body := f.post(t, "/webhook/evolution", `{"event":"connection.update","data":{"state":"open"}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["message"], "instance")
}

func TestWebhookInstanceFromRoute(t *testing.T) {
	f := newFixture(t, http.StatusOK)

	rec, body := f.post(t, "/webhook/evolution/corretora",
		`{"event":"CONNECTION_UPDATE","data":{"state":"open"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "corretora", data["instance"])
	assert.Equal(t, "ACKNOWLEDGED", data["action"])
	assert.NotContains(t, data, "score")
}

func TestWebhookOwnMessageIsIgnored(t *testing.T) {
	f := newFixture(t, http.StatusOK)
	payload := strings.Replace(messageBody("quero comprar apartamento", "Loja"), `"fromMe":false`, `"fromMe":true`, 1)

	rec, body := f.post(t, "/webhook/evolution", payload)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IGNORED", body["data"].(map[string]any)["action"])
	assert.Empty(t, f.automation.calls())
}
