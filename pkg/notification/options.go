package notification

// ManagerOption is a function that configures a Manager.
type ManagerOption func(*Manager) error

// WithTwilio adds an SMS notifier with the provided Twilio configuration.
func WithTwilio(config TwilioConfig) ManagerOption {
	return func(m *Manager) error {
		m.RegisterNotifier(ChannelSMS, NewSMSNotifier(config))
		return nil
	}
}

// WithSMTP adds an email notifier with the provided SMTP configuration.
func WithSMTP(config SMTPConfig) ManagerOption {
	return func(m *Manager) error {
		emailNotifier, err := NewEmailNotifier(config)
		if err != nil {
			return err
		}
		m.RegisterNotifier(ChannelEmail, emailNotifier)
		return nil
	}
}
