package email

import (
	"context"
	"errors"
	"sync"
)

// MockClient keeps sent messages in memory.
type MockClient struct {
	mu     sync.Mutex
	sent   []*Message
	config *Config
	logger Logger
}

func NewMockClient(config *Config, logger Logger) *MockClient {
	return &MockClient{config: config, logger: logger}
}

func (m *MockClient) Send(ctx context.Context, message *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateMessage(message, m.config.DefaultFrom); err != nil {
		return &Error{Operation: "send", Provider: Mock, Err: err}
	}
	if m.config.MockFailAll {
		return &Error{Operation: "send", Provider: Mock, Err: errors.New("mock configured to fail")}
	}
	m.mu.Lock()
	cp := *message
	m.sent = append(m.sent, &cp)
	m.mu.Unlock()
	m.logger.Debug("Mock email recorded", "to", message.To, "subject", message.Subject)
	return nil
}

func (m *MockClient) Sent() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Message(nil), m.sent...)
}

func (m *MockClient) Close() error {
	return nil
}
