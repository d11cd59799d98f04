package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/lead-relay/internal/entity"
)

var leadTemplate = template.Must(template.New("lead").Parse(`<h2>Novo lead qualificado 🔥</h2>
<p><strong>Nome:</strong> {{.Name}}</p>
<p><strong>WhatsApp:</strong> {{.Phone}}</p>
<p><strong>Score:</strong> {{.Score}}</p>
<p><strong>Instância:</strong> {{.Instance}}</p>
<p><strong>Recebido em:</strong> {{.CreatedAt}}</p>
<blockquote>{{.Message}}</blockquote>
`))

func NewLeadNotifier(host string, port int, user, password, from, to string) *LeadNotifier {
	return &LeadNotifier{
		From:   from,
		To:     to,
		dialer: gomail.NewDialer(host, port, user, password),
	}
}

func NewLeadNotifierWithDialer(d Dialer, from, to string) *LeadNotifier {
	return &LeadNotifier{From: from, To: to, dialer: d}
}

func (s *LeadNotifier) NotifyQualifiedLead(record entity.LeadRecord) error {
	subject, body, err := RenderLeadEmail(record)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}
	return nil
}

func RenderLeadEmail(record entity.LeadRecord) (string, string, error) {
	data := LeadEmailData{
		Name:      record.Name,
		Phone:     record.Phone,
		Score:     record.Score,
		Message:   record.OriginalMessage,
		Instance:  record.Instance,
		CreatedAt: record.CreatedAt.In(time.UTC).Format("02/01/2006 15:04 MST"),
	}

	var body bytes.Buffer
	if err := leadTemplate.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("erro ao processar template: %w", err)
	}

	subject := fmt.Sprintf("Lead qualificado: %s (score %d)", record.Name, record.Score)
	return subject, body.String(), nil
}
