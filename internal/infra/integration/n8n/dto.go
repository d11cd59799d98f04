package n8n

import "time"

type ReplyRequest struct {
	EventID    string    `json:"event_id"`
	Instance   string    `json:"instance"`
	Phone      string    `json:"phone"`
	Name       string    `json:"name,omitempty"`
	Message    string    `json:"message"`
	Score      int       `json:"qualification_score"`
	Qualifies  bool      `json:"qualifies"`
	ReceivedAt time.Time `json:"received_at"`
}

// ReplyResponse accepts both a plain "reply" field and the "output" field the
// n8n AI agent node returns.
type ReplyResponse struct {
	Reply  string `json:"reply"`
	Output string `json:"output"`
}

func (r ReplyResponse) Text() string {
	if r.Reply != "" {
		return r.Reply
	}
	return r.Output
}
