package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/despondency/notification-sync/internal/feed"
	"github.com/despondency/notification-sync/internal/push"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

//go:generate mockgen -source=endpoint.go -destination=apimocks/endpoint.go -package=apimocks

type FeedManager interface {
	View(filter feed.Filter, now time.Time) feed.View
	State() feed.Status
	SetQuery(q string)
	Refresh(ctx context.Context) error
	MarkOneAsync(ctx context.Context, id string) <-chan error
	MarkAllAsync(ctx context.Context) <-chan error
}

type BadgeReader interface {
	Count() (int, bool)
}

type AppStateSetter interface {
	Set(state push.AppState)
}

// Endpoint is the local control surface a UI shell drives.
type Endpoint struct {
	feed     FeedManager
	badge    BadgeReader
	appState AppStateSetter
	now      func() time.Time
	// markTimeout bounds the backend call behind an accepted mark request.
	markTimeout time.Duration
}

func NewEndpoint(feedManager FeedManager, badge BadgeReader, appState AppStateSetter, markTimeout time.Duration) *Endpoint {
	return &Endpoint{
		feed:        feedManager,
		badge:       badge,
		appState:    appState,
		now:         time.Now,
		markTimeout: markTimeout,
	}
}

// Register binds every route of the control surface on router.
func (e *Endpoint) Register(router *httprouter.Router) {
	router.GET("/notifications", e.Notifications)
	router.PUT("/notifications/query", e.SetQuery)
	router.POST("/notifications/refresh", e.Refresh)
	router.PATCH("/notifications/read/:id", e.MarkRead)
	router.PATCH("/notifications/read-all", e.MarkAllRead)
	router.GET("/badge", e.Badge)
	router.PUT("/app-state", e.SetAppState)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
}

type notificationsResponse struct {
	feed.View
	Filter     string     `json:"filter"`
	Loading    bool       `json:"loading"`
	Refreshing bool       `json:"refreshing"`
	LastError  string     `json:"lastError,omitempty"`
	LastLoaded *time.Time `json:"lastLoaded,omitempty"`
}

func (e *Endpoint) Notifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := feed.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	view := e.feed.View(filter, e.now())
	if view.Sections == nil {
		view.Sections = []feed.Section{}
	}
	st := e.feed.State()
	res := notificationsResponse{
		View:       view,
		Filter:     filter.String(),
		Loading:    st.Loading,
		Refreshing: st.Refreshing,
		LastError:  st.LastError,
	}
	if !st.LastLoaded.IsZero() {
		res.LastLoaded = &st.LastLoaded
	}
	writeJSON(w, http.StatusOK, res)
}

type queryRequest struct {
	Query string `json:"query"`
}

func (e *Endpoint) SetQuery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req queryRequest
	if err := decode(r.Body, &req); err != nil {
		log.Err(err).Msg("error while unmarshalling query")
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e.feed.SetQuery(req.Query)
	w.WriteHeader(http.StatusAccepted)
}

// Refresh blocks until the manual refresh finishes so the caller can show
// a failure indicator.
func (e *Endpoint) Refresh(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := e.feed.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkRead answers once the optimistic update is visible; the backend call
// and any rollback happen after the response.
func (e *Endpoint) MarkRead(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	e.settleAsync(func(ctx context.Context) <-chan error { return e.feed.MarkOneAsync(ctx, id) })
	w.WriteHeader(http.StatusAccepted)
}

func (e *Endpoint) MarkAllRead(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	e.settleAsync(e.feed.MarkAllAsync)
	w.WriteHeader(http.StatusAccepted)
}

type badgeResponse struct {
	Unread int  `json:"unread"`
	Known  bool `json:"known"`
}

func (e *Endpoint) Badge(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	n, known := e.badge.Count()
	writeJSON(w, http.StatusOK, badgeResponse{Unread: n, Known: known})
}

type appStateRequest struct {
	State string `json:"state"`
}

func (e *Endpoint) SetAppState(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req appStateRequest
	if err := decode(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	state, err := push.ParseAppState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e.appState.Set(state)
	w.WriteHeader(http.StatusNoContent)
}

// settleAsync starts op on a context detached from the request and waits
// for its outcome in the background. Failures are logged by the store.
func (e *Endpoint) settleAsync(op func(ctx context.Context) <-chan error) {
	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if e.markTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, e.markTimeout)
	}
	done := op(ctx)
	go func() {
		defer cancel()
		if err := <-done; err != nil {
			log.Debug().Err(err).Msg("mark request finished with error")
		}
	}()
}

func decode(body io.Reader, v interface{}) error {
	if body == nil {
		return errors.New("empty body")
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("error while writing response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
