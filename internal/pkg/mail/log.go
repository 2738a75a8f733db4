package mail

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogProvider writes messages to the logger instead of delivering them. Used in development.
type LogProvider struct {
	Logger *zap.Logger
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("mail (log provider)",
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Any("headers", msg.Headers),
		zap.String("text", msg.Text),
	)
	return nil
}

// MockProvider records messages and replays scripted failures.
type MockProvider struct {
	mu   sync.Mutex
	sent []Message
	// Errors are returned by successive Send calls, one per call; nil entries succeed.
	Errors []error
	// Block makes Send wait for ctx cancellation.
	Block bool
	calls int
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	block := m.Block
	var err error
	if idx < len(m.Errors) {
		err = m.Errors[idx]
	}
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the delivered messages.
func (m *MockProvider) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// Calls returns the number of Send invocations, failed ones included.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Fail makes every subsequent Send return err.
func (m *MockProvider) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = make([]error, m.calls+64)
	for i := m.calls; i < len(m.Errors); i++ {
		m.Errors[i] = err
	}
}
