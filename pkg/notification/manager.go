package notification

import (
	"fmt"
)

// Manager routes outbound messages to the notifier registered for a channel.
type Manager struct {
	notifiers map[Channel]Notifier
}

// NewManager creates a manager, applying the given options.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		notifiers: make(map[Channel]Notifier),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterNotifier registers a notifier for a channel, replacing any previous one.
func (m *Manager) RegisterNotifier(channel Channel, notifier Notifier) {
	m.notifiers[channel] = notifier
}

// Send delivers the notification over the given channel.
func (m *Manager) Send(channel Channel, notification NotificationData) error {
	notifier, exists := m.notifiers[channel]
	if !exists {
		return fmt.Errorf("no notifier registered for channel: %s", channel)
	}
	return notifier.Send(notification)
}
