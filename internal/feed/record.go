package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NotificationRecord is one entry of the user's notification feed as the
// backend stores it. Only Read is ever mutated on the client.
type NotificationRecord struct {
	ID        string            `json:"id" validate:"required"`
	UserID    string            `json:"userId"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt Timestamp         `json:"createdAt"`
}

// UnmarshalJSON accepts the backend's "_id" as well as "id".
func (r *NotificationRecord) UnmarshalJSON(b []byte) error {
	type plain NotificationRecord
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = NotificationRecord(aux.plain)
	if r.ID == "" {
		r.ID = aux.MongoID
	}
	return nil
}

func (r NotificationRecord) clone() NotificationRecord {
	if r.Data != nil {
		data := make(map[string]string, len(r.Data))
		for k, v := range r.Data {
			data[k] = v
		}
		r.Data = data
	}
	return r
}

func cloneAll(records []NotificationRecord) []NotificationRecord {
	out := make([]NotificationRecord, len(records))
	for i, r := range records {
		out[i] = r.clone()
	}
	return out
}

// Timestamp decodes ISO-8601 strings and epoch milliseconds.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if b[0] != '"' {
		return t.setEpoch(string(b))
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return t.setEpoch(s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) setEpoch(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", s)
	}
	t.Time = time.UnixMilli(int64(f)).UTC()
	return nil
}
