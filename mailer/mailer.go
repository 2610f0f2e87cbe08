package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/config"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/go-resty/resty/v2"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the sender named by cfg.Driver.
func New(cfg config.MailConfig, log logger.Logger) (Mailer, error) {
	switch cfg.Driver {
	case config.MailSMTP:
		return NewSMTPMailer(cfg), nil
	case config.MailHTTP:
		return NewHTTPMailer(cfg.APIURL, cfg.APIKey, cfg.From), nil
	case config.MailLog:
		return NewLogMailer(log), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
}

type SMTPMailer struct {
	address  string
	host     string
	username string
	password string
	from     string
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{
		address:  cfg.SMTPAddress,
		host:     cfg.SMTPHost,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		m.from,
		msg.To,
		msg.Subject,
		msg.HTML,
	)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(m.address, auth, m.from, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// HTTPMailer posts messages to a transactional mail provider's JSON API.
type HTTPMailer struct {
	client *resty.Client
	url    string
	from   string
}

func NewHTTPMailer(url, apiKey, from string) *HTTPMailer {
	client := resty.New().
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &HTTPMailer{client: client, url: url, from: from}
}

type httpMailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	resp, err := m.client.R().
		SetContext(ctx).
		SetBody(httpMailRequest{From: m.from, To: msg.To, Subject: msg.Subject, HTML: msg.HTML}).
		Post(m.url)
	if err != nil {
		return fmt.Errorf("mail api request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail api responded %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// LogMailer only logs messages. Used in development.
type LogMailer struct {
	log logger.Logger
}

func NewLogMailer(log logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Infow("email", "to", msg.To, "subject", msg.Subject)
	return nil
}
