package relay

import "sync"

// PushedMessage records one delivery made through the MockPusher.
type PushedMessage struct {
	SessionID string
	Topic     string
	Payload   any
}

// MockPusher collects pushes for tests instead of delivering them.
type MockPusher struct {
	mu       sync.Mutex
	messages []PushedMessage
	failWith error
}

// NewMockPusher creates an empty mock pusher.
func NewMockPusher() *MockPusher {
	return &MockPusher{}
}

// FailWith makes subsequent pushes return err.
func (m *MockPusher) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *MockPusher) Push(sessionID, topic string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.messages = append(m.messages, PushedMessage{SessionID: sessionID, Topic: topic, Payload: payload})
	return nil
}

// Messages returns a snapshot of recorded deliveries.
func (m *MockPusher) Messages() []PushedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PushedMessage, len(m.messages))
	copy(out, m.messages)
	return out
}
