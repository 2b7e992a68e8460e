package adapter

// EventKind classifies signals sent from the session controller to the presentation layer.
type EventKind string

const (
	EventFeedbackSubmitted EventKind = "feedback_submitted"
	EventReplyAppended     EventKind = "reply_appended"
	EventError             EventKind = "error"
)

// Event is a non-fatal signal for the display layer.
type Event struct {
	Kind           EventKind
	ConversationID int64
	Err            error
}

// Notifier receives controller events. Notify is always called on the event-loop goroutine.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }
