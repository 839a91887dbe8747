package mail

import "gopkg.in/gomail.v2"

type MagicLinkEmailData struct {
	Link       string
	ValidForMn int
}

type StatusChangeEmailData struct {
	BuyerName string
	OldStatus string
	NewStatus string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	dialer dialer
}
