package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/despondency/notification-sync/internal/push"
)

type Kind string

const (
	KindMessage      Kind = "message"
	KindOpened       Kind = "opened"
	KindBackground   Kind = "background"
	KindTokenRefresh Kind = "token_refresh"
)

var ErrUnknownKind = fmt.Errorf("unknown envelope kind")

// Envelope is the wire format of the push topic. To addresses a single
// device token; an empty To is a broadcast.
type Envelope struct {
	Kind    Kind          `json:"kind"`
	To      string        `json:"to,omitempty"`
	Token   string        `json:"token,omitempty"`
	Message *push.Message `json:"message,omitempty"`
}

func (e Envelope) Encode() ([]byte, error) {
	switch e.Kind {
	case KindMessage, KindOpened, KindBackground, KindTokenRefresh:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return json.Marshal(e)
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	switch e.Kind {
	case KindMessage, KindOpened, KindBackground:
		if e.Message == nil {
			return Envelope{}, fmt.Errorf("decoding envelope: %s without message", e.Kind)
		}
	case KindTokenRefresh:
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return e, nil
}
