package push

import (
	"fmt"
	"strings"

	"go.uber.org/atomic"
)

type AppState int32

const (
	Active AppState = iota
	Background
	Inactive
)

var ErrUnknownAppState = fmt.Errorf("unknown app state")

func (s AppState) String() string {
	switch s {
	case Active:
		return "active"
	case Background:
		return "background"
	default:
		return "inactive"
	}
}

func ParseAppState(s string) (AppState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return Active, nil
	case "background":
		return Background, nil
	case "inactive":
		return Inactive, nil
	default:
		return Inactive, ErrUnknownAppState
	}
}

type Visibility interface {
	State() AppState
}

// AppStateTracker holds the current app visibility, updated by whoever
// owns the UI lifecycle.
type AppStateTracker struct {
	state *atomic.Int32
}

func NewAppStateTracker(initial AppState) *AppStateTracker {
	return &AppStateTracker{state: atomic.NewInt32(int32(initial))}
}

func (t *AppStateTracker) State() AppState {
	return AppState(t.state.Load())
}

func (t *AppStateTracker) Set(s AppState) {
	t.state.Store(int32(s))
}
