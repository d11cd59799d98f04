package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMessageReceived  EventType = "MESSAGES_UPSERT"
	EventQRCodeUpdated    EventType = "QRCODE_UPDATED"
	EventConnectionUpdate EventType = "CONNECTION_UPDATE"
	EventUnknown          EventType = "UNKNOWN"
)

// InboundEvent is one webhook delivery from the messaging gateway.
type InboundEvent struct {
	ID         string
	EventType  EventType
	RawType    string
	InstanceID string

	// Message events only.
	SenderID    string
	SenderName  string
	MessageText string
	FromMe      bool

	QRCode          string
	ConnectionState string

	ReceivedAt time.Time
}

func (e InboundEvent) IsMessage() bool {
	return e.EventType == EventMessageReceived
}

type webhookEnvelope struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

type messageData struct {
	Key struct {
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	PushName string `json:"pushName"`
	Message  struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
	} `json:"message"`
	MessageTimestamp unixTimestamp `json:"messageTimestamp"`
}

type qrcodeData struct {
	QRCode json.RawMessage `json:"qrcode"`
}

type connectionData struct {
	State string `json:"state"`
}

// unixTimestamp accepts both 1700000000 and "1700000000", the gateway sends either.
type unixTimestamp int64

func (t *unixTimestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*t = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*t = unixTimestamp(v)
	return nil
}

// NormalizeEventType maps gateway spellings ("messages.upsert", "MESSAGES_UPSERT")
// to the known event types.
func NormalizeEventType(raw string) EventType {
	name := strings.ToUpper(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, "-", "_")

	switch EventType(name) {
	case EventMessageReceived, EventQRCodeUpdated, EventConnectionUpdate:
		return EventType(name)
	default:
		return EventUnknown
	}
}

// PhoneFromJID strips the WhatsApp domain and device suffix from a JID.
// "5511999999999:12@s.whatsapp.net" -> "5511999999999".
func PhoneFromJID(jid string) string {
	phone := jid
	if i := strings.IndexByte(phone, '@'); i >= 0 {
		phone = phone[:i]
	}
	if i := strings.IndexByte(phone, ':'); i >= 0 {
		phone = phone[:i]
	}
	return strings.TrimSpace(phone)
}

// ParseInboundEvent decodes a gateway webhook body. fallbackInstance is used when
// the body does not name the instance (e.g. instance taken from the route).
func ParseInboundEvent(body []byte, fallbackInstance string, now time.Time) (InboundEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return InboundEvent{}, &ParseError{Message: "corpo vazio"}
	}

	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return InboundEvent{}, &ParseError{Message: "json malformado", Err: err}
	}

	if strings.TrimSpace(env.Event) == "" {
		return InboundEvent{}, &ParseError{Field: "event", Message: "is required"}
	}

	instance := strings.TrimSpace(env.Instance)
	if instance == "" {
		instance = strings.TrimSpace(fallbackInstance)
	}
	if instance == "" {
		return InboundEvent{}, &ParseError{Field: "instance", Message: "is required"}
	}

	event := InboundEvent{
		ID:         uuid.NewString(),
		EventType:  NormalizeEventType(env.Event),
		RawType:    env.Event,
		InstanceID: instance,
		ReceivedAt: now.UTC(),
	}

	switch event.EventType {
	case EventMessageReceived:
		var data messageData
		if err := decodeData(env.Data, &data); err != nil {
			return InboundEvent{}, err
		}
		if strings.TrimSpace(data.Key.RemoteJid) == "" {
			return InboundEvent{}, &ParseError{Field: "data.key.remoteJid", Message: "is required"}
		}

		event.SenderID = PhoneFromJID(data.Key.RemoteJid)
		event.SenderName = strings.TrimSpace(data.PushName)
		event.FromMe = data.Key.FromMe
		event.MessageText = data.Message.Conversation
		if event.MessageText == "" {
			event.MessageText = data.Message.ExtendedTextMessage.Text
		}
		if data.Key.ID != "" {
			event.ID = data.Key.ID
		}
		if data.MessageTimestamp > 0 {
			event.ReceivedAt = time.Unix(int64(data.MessageTimestamp), 0).UTC()
		}

	case EventQRCodeUpdated:
		var data qrcodeData
		if err := decodeData(env.Data, &data); err != nil {
			return InboundEvent{}, err
		}
		event.QRCode = qrcodeString(data.QRCode)

	case EventConnectionUpdate:
		var data connectionData
		if err := decodeData(env.Data, &data); err != nil {
			return InboundEvent{}, err
		}
		event.ConnectionState = data.State
	}

	return event, nil
}

func decodeData(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return &ParseError{Field: "data", Message: "is required"}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &ParseError{Message: "campo data inválido", Err: err}
	}
	return nil
}

// The gateway sends the QR code either as a data-URI string or as {"base64": "..."}.
func qrcodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var obj struct {
		Base64 string `json:"base64"`
		Code   string `json:"code"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if obj.Base64 != "" {
			return obj.Base64
		}
		return obj.Code
	}
	return ""
}
