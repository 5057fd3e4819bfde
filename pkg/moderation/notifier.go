package moderation

// Level is the severity of a Notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification is a message for the operator about the outcome of a
// moderation decision.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier shows notifications to the operator.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) {
	f(n)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Notification) {}

// NoopNotifier drops every notification.
var NoopNotifier Notifier = noopNotifier{}
