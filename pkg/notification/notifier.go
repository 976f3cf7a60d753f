package notification

// Channel identifies an outbound delivery channel.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// NotificationData carries one outbound message. Body text arrives fully
// rendered; channels do no templating of their own.
type NotificationData struct {
	To      string // Recipient identifier (phone number or email address)
	Subject string // Optional: subject for channels that support one
	Body    string // Rendered message text
}

// Notifier delivers messages over one channel.
type Notifier interface {
	Send(notification NotificationData) error
}
