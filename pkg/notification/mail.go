package notification

import (
	"fmt"
	"net/smtp"

	"github.com/raykavin/autoblacklist/pkg/core"
	"github.com/raykavin/autoblacklist/pkg/logger"
)

// MailParams contains all parameters needed to initialize a Mail instance
type MailParams struct {
	SMTPServerPort    int
	SMTPServerAddress string
	To                string
	From              string
	Password          string
}

// Mail sends notifications by email.
type Mail struct {
	params MailParams
	auth   smtp.Auth
	log    logger.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMail(params MailParams, log logger.Logger) *Mail {
	return &Mail{
		params: params,
		auth:   smtp.PlainAuth("", params.From, params.Password, params.SMTPServerAddress),
		log:    log.WithField("component", "mail"),
		send:   smtp.SendMail,
	}
}

func (m *Mail) Notify(text string) {
	m.deliver("autoblacklist notification", text)
}

func (m *Mail) OnListing(entry core.ListingEntry) {
	m.deliver(fmt.Sprintf("New listing - %s", entry.Symbol), FormatListing(entry))
}

func (m *Mail) deliver(subject, body string) {
	message := fmt.Sprintf("To: <%s>\r\nFrom: \"autoblacklist\" <%s>\r\nSubject: %s\r\n\r\n%s\r\n",
		m.params.To, m.params.From, subject, body)

	addr := fmt.Sprintf("%s:%d", m.params.SMTPServerAddress, m.params.SMTPServerPort)
	if err := m.send(addr, m.auth, m.params.From, []string{m.params.To}, []byte(message)); err != nil {
		m.log.WithError(err).Error("failed to send email")
	}
}
