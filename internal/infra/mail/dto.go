package mail

import "gopkg.in/gomail.v2"

type LeadEmailData struct {
	Name      string
	Phone     string
	Score     int
	Message   string
	Instance  string
	CreatedAt string
}

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type LeadNotifier struct {
	From   string
	To     string
	dialer Dialer
}
