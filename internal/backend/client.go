package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/despondency/notification-sync/internal/feed"
	"github.com/despondency/notification-sync/internal/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout    = 20 * time.Second
	DefaultPathPrefix = "/notifications"
)

// SessionProvider supplies the bearer token and the id of the signed-in user.
// An empty token means the request goes out unauthenticated.
type SessionProvider interface {
	Token(ctx context.Context) (string, error)
	UserID(ctx context.Context) (string, error)
}

type Config struct {
	BaseURL    string `validate:"required,url"`
	PathPrefix string
	Timeout    time.Duration
	// OnAuthFailure runs after every 401 or 403 response.
	OnAuthFailure func()
}

// Client talks to the notification endpoints of the school backend.
type Client struct {
	baseURL       string
	prefix        string
	session       SessionProvider
	onAuthFailure func()
	httpClient    *http.Client
	validate      *validator.Validate
	now           func() time.Time
}

func NewClient(cfg Config, session SessionProvider) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = DefaultPathPrefix
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		prefix:        "/" + strings.Trim(cfg.PathPrefix, "/"),
		session:       session,
		onAuthFailure: cfg.OnAuthFailure,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		validate:      validate,
		now:           time.Now,
	}, nil
}

// Notifications fetches the signed-in user's feed. Entries that do not decode
// or have no id are dropped. Order is whatever the backend returned.
func (c *Client) Notifications(ctx context.Context) ([]feed.NotificationRecord, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return nil, err
	}
	var raw []json.RawMessage
	if err := c.do(ctx, "notifications", http.MethodGet, "/"+url.PathEscape(userID), nil, &raw); err != nil {
		return nil, err
	}
	valid := make([]feed.NotificationRecord, 0, len(raw))
	for i, msg := range raw {
		var r feed.NotificationRecord
		if err := json.Unmarshal(msg, &r); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("dropping undecodable notification record")
			continue
		}
		if err := c.validate.Struct(r); err != nil {
			log.Warn().Err(err).Str("title", r.Title).Msg("dropping malformed notification record")
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

// RegisterToken associates a push token with the signed-in user. An empty
// token is not sent.
func (c *Client) RegisterToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	body := struct {
		Token string `json:"token"`
	}{Token: token}
	return c.do(ctx, "register_token", http.MethodPost, "/register-token", body, nil)
}

func (c *Client) MarkAsRead(ctx context.Context, id string) (*feed.NotificationRecord, error) {
	var updated feed.NotificationRecord
	if err := c.do(ctx, "mark_read", http.MethodPatch, "/read/"+url.PathEscape(id), nil, &updated); err != nil {
		return nil, err
	}
	if updated.ID == "" {
		return nil, nil
	}
	return &updated, nil
}

func (c *Client) MarkAllAsRead(ctx context.Context) error {
	userID, err := c.userID(ctx)
	if err != nil {
		return err
	}
	return c.do(ctx, "mark_all_read", http.MethodPatch, "/read-all/"+url.PathEscape(userID), nil, nil)
}

// UnreadCount returns the server side unread total. An empty body counts as zero.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	userID, err := c.userID(ctx)
	if err != nil {
		return 0, err
	}
	var res struct {
		Unread int `json:"unread"`
	}
	if err := c.do(ctx, "unread_count", http.MethodGet, "/unread-count/"+url.PathEscape(userID), nil, &res); err != nil {
		return 0, err
	}
	return res.Unread, nil
}

func (c *Client) userID(ctx context.Context) (string, error) {
	id, err := c.session.UserID(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	if id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body interface{}, result interface{}) (err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.BackendRequests.WithLabelValues(op, outcome).Inc()
	}()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	u, err := url.Parse(c.baseURL + c.prefix + path)
	if err != nil {
		return fmt.Errorf("building url: %w", err)
	}
	if method == http.MethodGet {
		q := u.Query()
		q.Set("_cb", strconv.FormatInt(c.now().UnixMilli(), 10))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodGet {
		req.Header.Set("Cache-Control", "no-cache")
		req.Header.Set("Pragma", "no-cache")
	}
	token, err := c.session.Token(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not read session token, sending unauthenticated")
	} else if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode, Message: errorMessage(respBody, resp.Status)}
		if IsAuth(statusErr) && c.onAuthFailure != nil {
			c.onAuthFailure()
		}
		return statusErr
	}

	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

// errorMessage prefers the body's "error" field, then "message", then the
// HTTP status text.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if status == "" {
		return "request failed"
	}
	return status
}
