package push

import (
	"context"
	"time"
)

type AuthorizationStatus int8

const (
	NotDetermined AuthorizationStatus = iota
	Authorized
	Provisional
	Denied
)

func (s AuthorizationStatus) String() string {
	switch s {
	case Authorized:
		return "authorized"
	case Provisional:
		return "provisional"
	case Denied:
		return "denied"
	default:
		return "not_determined"
	}
}

// Granted reports whether the status allows notifications to be delivered.
func (s AuthorizationStatus) Granted() bool {
	return s == Authorized || s == Provisional
}

// Message is a raw push message as delivered by the transport. Its content
// is opaque to the pipeline.
type Message struct {
	ID     string            `json:"id"`
	Title  string            `json:"title,omitempty"`
	Body   string            `json:"body,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt time.Time         `json:"sentAt,omitempty"`
}

type Unsubscribe func()

//go:generate mockgen -source=transport.go -destination=pushmocks/transport.go -package=pushmocks

// Transport is the push messaging provider as seen by the client.
type Transport interface {
	RequestPermission(ctx context.Context) (AuthorizationStatus, error)
	// Token returns the current device token, or "" when the transport has none.
	Token(ctx context.Context) (string, error)
	OnTokenRefresh(handler func(token string)) (Unsubscribe, error)
	OnForegroundMessage(handler func(msg Message)) (Unsubscribe, error)
	// OnNotificationOpened fires when a notification tap brings a backgrounded app forward.
	OnNotificationOpened(handler func(msg Message)) (Unsubscribe, error)
	// InitialNotification returns the message that launched the app from a
	// terminated state, or nil.
	InitialNotification(ctx context.Context) (*Message, error)
	SetBackgroundMessageHandler(handler func(msg Message)) error
}
