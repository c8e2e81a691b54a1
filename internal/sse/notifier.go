package sse

import (
	"encoding/json"
	"time"
)

// LoginPath is where expired sessions are sent.
const LoginPath = "/login"

// SessionNotifier pushes transient messages and navigation to the tabs of
// one seller session.
type SessionNotifier struct {
	hub   *Hub
	topic string
}

// For returns the notifier of topic.
func (h *Hub) For(topic string) *SessionNotifier {
	return &SessionNotifier{hub: h, topic: topic}
}

func (n *SessionNotifier) publish(e Event) {
	if n.hub.ClientCount() == 0 {
		return
	}
	e.Timestamp = time.Now()
	n.hub.Publish(n.topic, &e)
}

// LoginRedirect is sent on a stream whose token expired while it was open.
// Request handlers answer with the redirect in their own response instead.
func LoginRedirect() []byte {
	data, _ := json.Marshal(Event{
		Event:     EventRedirect,
		Level:     LevelError,
		Message:   "Session expired. Please log in again.",
		Redirect:  LoginPath,
		Timestamp: time.Now(),
	})
	return data
}

// Notify shows an error message.
func (n *SessionNotifier) Notify(message string) {
	n.publish(Event{Event: EventNotification, Level: LevelError, Message: message})
}

// Success shows a success message, optionally navigating to redirect.
func (n *SessionNotifier) Success(message, redirect string) {
	n.publish(Event{Event: EventNotification, Level: LevelSuccess, Message: message, Redirect: redirect})
}

// Warn shows a warning message.
func (n *SessionNotifier) Warn(message string) {
	n.publish(Event{Event: EventNotification, Level: LevelWarning, Message: message})
}
