// Package fakebackend serves the notification REST endpoints from memory.
// It backs the client tests, the integration suite and local development.
package fakebackend

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/despondency/notification-sync/internal/feed"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

// Request is one call the server received.
type Request struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	records  map[string][]feed.NotificationRecord
	tokens   []string
	requests []Request
	failures map[string]failure
	token    string
}

type failure struct {
	status    int
	remaining int
}

// New starts a server that accepts bearerToken, or any caller when
// bearerToken is empty.
func New(bearerToken string) *Server {
	s := &Server{
		records:  map[string][]feed.NotificationRecord{},
		failures: map[string]failure{},
		token:    bearerToken,
	}
	router := httprouter.New()
	router.GET("/notifications/*path", s.get)
	router.POST("/notifications/register-token", s.guard("register", s.register))
	router.PATCH("/notifications/read/:id", s.guard("read", s.markRead))
	router.PATCH("/notifications/read-all/:userID", s.guard("read-all", s.markAllRead))
	s.Server = httptest.NewServer(router)
	return s
}

// Seed replaces the feed of userID.
func (s *Server) Seed(userID string, records ...feed.NotificationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = append([]feed.NotificationRecord(nil), records...)
}

// Add appends a record to the feed of userID.
func (s *Server) Add(userID string, record feed.NotificationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = append(s.records[userID], record)
}

func (s *Server) Records(userID string) []feed.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feed.NotificationRecord(nil), s.records[userID]...)
}

// FailNext makes the next n calls of route ("list", "register", "read",
// "read-all", "unread") answer with status.
func (s *Server) FailNext(route string, status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, remaining: n}
}

func (s *Server) Tokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) guard(route string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		f := s.failures[route]
		if f.remaining > 0 {
			s.failures[route] = failure{status: f.status, remaining: f.remaining - 1}
		}
		s.mu.Unlock()

		if f.remaining > 0 {
			writeJSON(w, f.status, map[string]string{"error": http.StatusText(f.status)})
			return
		}
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next(w, r, ps)
	}
}

// get dispatches the two GET routes by hand; httprouter cannot register a
// static segment next to a wildcard.
func (s *Server) get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	parts := strings.Split(strings.Trim(ps.ByName("path"), "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.guard("list", s.list)(w, r, httprouter.Params{{Key: "userID", Value: parts[0]}})
	case len(parts) == 2 && parts[0] == "unread-count":
		s.guard("unread", s.unreadCount)(w, r, httprouter.Params{{Key: "userID", Value: parts[1]}})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	writeJSON(w, http.StatusOK, s.Records(ps.ByName("userID")))
}

func (s *Server) register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token required"})
		return
	}
	s.mu.Lock()
	s.tokens = append(s.tokens, req.Token)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) markRead(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for user, records := range s.records {
		for i := range records {
			if records[i].ID == id {
				records[i].Read = true
				s.records[user] = records
				writeJSON(w, http.StatusOK, records[i])
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "notification not found"})
}

func (s *Server) markAllRead(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records[ps.ByName("userID")]
	for i := range records {
		records[i].Read = true
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unreadCount(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	unread := 0
	for _, r := range s.Records(ps.ByName("userID")) {
		if !r.Read {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": unread})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("error while writing fake backend response")
	}
}
