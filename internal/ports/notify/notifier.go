package notify

import "time"

// Severity sigue las variantes del toast de la UI.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notification es un mensaje transitorio y no bloqueante para el usuario.
type Notification struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Severity    Severity  `json:"severity"`
	At          time.Time `json:"at"`
}

// Notifier nunca debe bloquear al caller.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapta una función a Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Discard ignora todo.
var Discard Notifier = NotifierFunc(func(Notification) {})
