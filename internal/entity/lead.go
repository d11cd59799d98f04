package entity

import (
	"fmt"
	"strings"
	"time"
)

const (
	QualificationThreshold = 70
	LeadSourceWhatsApp     = "whatsapp"
	whatsappEmailDomain    = "whatsapp.net"
)

type LeadScore struct {
	Value     int  `json:"value"`
	Qualifies bool `json:"qualifies"`
}

func NewLeadScore(value int) LeadScore {
	return LeadScore{Value: value, Qualifies: value >= QualificationThreshold}
}

// HasSenderName reports whether the gateway sent a usable display name. Some
// gateway versions send the literal "null".
func HasSenderName(name string) bool {
	n := strings.TrimSpace(name)
	return n != "" && !strings.EqualFold(n, "null")
}

// LeadRecord is the payload the automation host receives for a qualified lead.
type LeadRecord struct {
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email"`
	Source          string    `json:"source"`
	Score           int       `json:"qualification_score"`
	OriginalMessage string    `json:"original_message"`
	CreatedAt       time.Time `json:"created_at"`
	Notes           string    `json:"notes"`
	Instance        string    `json:"instance,omitempty"`
}

func NewLeadRecord(event InboundEvent, score LeadScore) LeadRecord {
	name := event.SenderName
	if !HasSenderName(name) {
		name = event.SenderID
	}

	return LeadRecord{
		Name:            name,
		Phone:           event.SenderID,
		Email:           fmt.Sprintf("%s@%s", event.SenderID, whatsappEmailDomain),
		Source:          LeadSourceWhatsApp,
		Score:           score.Value,
		OriginalMessage: event.MessageText,
		CreatedAt:       event.ReceivedAt,
		Notes:           fmt.Sprintf("Lead qualificado automaticamente via WhatsApp (instância %s, score %d)", event.InstanceID, score.Value),
		Instance:        event.InstanceID,
	}
}

// OutboundMessage is a text reply handed to the gateway. Acceptance by the
// gateway says nothing about delivery to the recipient.
type OutboundMessage struct {
	RecipientPhone string `json:"number"`
	Text           string `json:"text"`
	InstanceName   string `json:"instance"`
}
