package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridClient struct {
	client *sendgrid.Client
	config *Config
	logger Logger
}

func NewSendGridClient(config *Config, logger Logger) (*SendGridClient, error) {
	if config.SendGridAPIKey == "" {
		return nil, &Error{Operation: "create_client", Provider: SendGrid, Err: ErrProviderNotConfigured}
	}
	return &SendGridClient{
		client: sendgrid.NewSendClient(config.SendGridAPIKey),
		config: config,
		logger: logger,
	}, nil
}

func (sg *SendGridClient) Send(ctx context.Context, message *Message) error {
	if err := validateMessage(message, sg.config.DefaultFrom); err != nil {
		return &Error{Operation: "send", Provider: SendGrid, Err: err}
	}

	response, err := sg.client.SendWithContext(ctx, sg.buildMessage(message))
	if err != nil {
		return &Error{Operation: "send", Provider: SendGrid, Err: err}
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return &Error{
			Operation: "send",
			Provider:  SendGrid,
			Err:       fmt.Errorf("api returned status %d: %s", response.StatusCode, response.Body),
		}
	}
	sg.logger.Debug("Email sent via SendGrid", "to", message.To, "status_code", response.StatusCode)
	return nil
}

func (sg *SendGridClient) buildMessage(message *Message) *mail.SGMailV3 {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(sg.config.FromName, fromAddress(message.From, sg.config.DefaultFrom)))
	m.Subject = message.Subject

	p := mail.NewPersonalization()
	for _, to := range message.To {
		p.AddTos(mail.NewEmail("", to))
	}
	m.AddPersonalizations(p)

	if message.Text != "" {
		m.AddContent(mail.NewContent("text/plain", message.Text))
	}
	if message.HTML != "" {
		m.AddContent(mail.NewContent("text/html", message.HTML))
	}
	if message.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", message.ReplyTo))
	}
	for k, v := range message.Tags {
		m.SetCustomArg(k, v)
	}
	return m
}

func (sg *SendGridClient) Close() error {
	return nil
}
