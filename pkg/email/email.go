package email

import (
	"context"
	"errors"
	"fmt"
)

type Provider string

const (
	SES      Provider = "ses"
	SendGrid Provider = "sendgrid"
	Mock     Provider = "mock"
)

var (
	ErrInvalidProvider       = errors.New("invalid email provider")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrMissingRecipients     = errors.New("no recipients specified")
	ErrMissingSubject        = errors.New("subject is required")
	ErrMissingContent        = errors.New("email content is required")
	ErrProviderNotConfigured = errors.New("email provider not properly configured")
)

type Error struct {
	Operation string
	Provider  Provider
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("email %s operation failed for provider '%s': %v", e.Operation, e.Provider, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
}

// Client sends one message per call. Delivery is attempted once.
type Client interface {
	Send(ctx context.Context, message *Message) error
	Close() error
}

type Message struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	ReplyTo string            `json:"reply_to,omitempty"`
	Subject string            `json:"subject"`
	Text    string            `json:"text,omitempty"`
	HTML    string            `json:"html,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
}

type Config struct {
	DefaultFrom string
	FromName    string

	SESRegion           string
	SESAccessKey        string
	SESSecretKey        string
	SESConfigurationSet string

	SendGridAPIKey string

	// MockFailAll makes the mock client reject every message.
	MockFailAll bool
}

type Factory struct {
	logger Logger
}

func NewEmailFactory(logger Logger) *Factory {
	return &Factory{logger: logger}
}

func (f *Factory) CreateClient(ctx context.Context, provider Provider, config *Config) (Client, error) {
	switch provider {
	case SES:
		if config.SESRegion == "" {
			config.SESRegion = "us-east-1"
		}
		client, err := NewSESClient(ctx, config, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SES client: %w", err)
		}
		f.logger.Info("SES email client created", "region", config.SESRegion, "default_from", config.DefaultFrom)
		return client, nil
	case SendGrid:
		client, err := NewSendGridClient(config, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SendGrid client: %w", err)
		}
		f.logger.Info("SendGrid email client created", "default_from", config.DefaultFrom)
		return client, nil
	case Mock:
		f.logger.Info("Mock email client created")
		return NewMockClient(config, f.logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProvider, provider)
	}
}
