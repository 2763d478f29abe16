package session

import (
	"context"
	"sync"
)

// Static is an in-memory session, used by tests and the dev daemon.
type Static struct {
	mu     sync.Mutex
	token  string
	userID string
}

func NewStatic(token, userID string) *Static {
	return &Static{token: token, userID: userID}
}

func (s *Static) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *Static) UserID(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID == "" {
		return "", ErrNoCredential
	}
	return s.userID, nil
}

func (s *Static) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

func (s *Static) Save(token, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.userID = userID
	return nil
}
