package mail

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/lead-relay/internal/entity"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func sampleRecord() entity.LeadRecord {
	return entity.LeadRecord{
		Name:            "João Silva",
		Phone:           "5511999999999",
		Score:           80,
		OriginalMessage: "quero <b>comprar</b> um apartamento",
		Instance:        "imobiliaria",
		CreatedAt:       time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestRenderLeadEmailEscapesMessage(t *testing.T) {
	subject, body, err := RenderLeadEmail(sampleRecord())

	require.NoError(t, err)
	assert.Equal(t, "Lead qualificado: João Silva (score 80)", subject)
	assert.Contains(t, body, "5511999999999")
	assert.Contains(t, body, "10/03/2024 12:00 UTC")
	assert.Contains(t, body, "&lt;b&gt;comprar&lt;/b&gt;")
	assert.NotContains(t, body, "<b>comprar</b>")
}

func TestNotifyQualifiedLeadSendsOneMessage(t *testing.T) {
	dialer := &fakeDialer{}
	notifier := NewLeadNotifierWithDialer(dialer, "nao-responda@exemplo.com", "vendas@exemplo.com")

	err := notifier.NotifyQualifiedLead(sampleRecord())

	require.NoError(t, err)
	require.Len(t, dialer.sent, 1)
	assert.Equal(t, []string{"vendas@exemplo.com"}, dialer.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"nao-responda@exemplo.com"}, dialer.sent[0].GetHeader("From"))
}

func TestNotifyQualifiedLeadWrapsSMTPError(t *testing.T) {
	smtpErr := errors.New("connection refused")
	notifier := NewLeadNotifierWithDialer(&fakeDialer{err: smtpErr}, "a@b.com", "c@d.com")

	err := notifier.NotifyQualifiedLead(sampleRecord())

	assert.ErrorIs(t, err, smtpErr)
}
