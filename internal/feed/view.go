package feed

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type Filter int8

const (
	FilterAll Filter = iota
	FilterUnread
)

var ErrNoSuchFilter = fmt.Errorf("no such filter exists")

func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return FilterAll, nil
	case "unread":
		return FilterUnread, nil
	default:
		return FilterAll, ErrNoSuchFilter
	}
}

func (f Filter) String() string {
	if f == FilterUnread {
		return "unread"
	}
	return "all"
}

type Bucket string

const (
	Today     Bucket = "Today"
	Yesterday Bucket = "Yesterday"
	ThisWeek  Bucket = "This Week"
	Earlier   Bucket = "Earlier"
)

var bucketOrder = []Bucket{Today, Yesterday, ThisWeek, Earlier}

type Section struct {
	Label   Bucket               `json:"label"`
	Records []NotificationRecord `json:"records"`
}

// View is the derived, render-ready state of the feed.
type View struct {
	Filter   Filter    `json:"-"`
	Query    string    `json:"query"`
	Sections []Section `json:"sections"`
	Total    int       `json:"total"`
	Unread   int       `json:"unread"`
}

// SortNewestFirst returns a copy of records ordered by CreatedAt descending.
// Records with equal timestamps keep their input order.
func SortNewestFirst(records []NotificationRecord) []NotificationRecord {
	out := make([]NotificationRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt.Time)
	})
	return out
}

// DeriveView applies the read filter and a case-insensitive search over
// title and body. An empty query matches everything.
func DeriveView(records []NotificationRecord, filter Filter, query string) []NotificationRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]NotificationRecord, 0, len(records))
	for _, r := range records {
		if filter == FilterUnread && r.Read {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.Title), q) &&
			!strings.Contains(strings.ToLower(r.Body), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// GroupByRecency partitions records into Today, Yesterday, This Week and
// Earlier relative to now's calendar day. Weeks start on Monday. Empty
// buckets are left out and input order is kept inside each bucket.
func GroupByRecency(records []NotificationRecord, now time.Time) []Section {
	loc := now.Location()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	tomorrowStart := todayStart.AddDate(0, 0, 1)
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	weekStart := todayStart.AddDate(0, 0, -daysSinceMonday(todayStart.Weekday()))

	grouped := make(map[Bucket][]NotificationRecord, len(bucketOrder))
	for _, r := range records {
		t := r.CreatedAt.In(loc)
		var b Bucket
		switch {
		case !t.Before(todayStart) && t.Before(tomorrowStart):
			b = Today
		case !t.Before(yesterdayStart) && t.Before(todayStart):
			b = Yesterday
		case t.After(weekStart):
			b = ThisWeek
		default:
			b = Earlier
		}
		grouped[b] = append(grouped[b], r)
	}

	sections := make([]Section, 0, len(bucketOrder))
	for _, b := range bucketOrder {
		if len(grouped[b]) == 0 {
			continue
		}
		sections = append(sections, Section{Label: b, Records: grouped[b]})
	}
	return sections
}

// BuildView derives the sections for the given filter and query and
// counts the unfiltered totals.
func BuildView(records []NotificationRecord, filter Filter, query string, now time.Time) View {
	unread := 0
	for _, r := range records {
		if !r.Read {
			unread++
		}
	}
	return View{
		Filter:   filter,
		Query:    strings.TrimSpace(query),
		Sections: GroupByRecency(DeriveView(records, filter, query), now),
		Total:    len(records),
		Unread:   unread,
	}
}

func daysSinceMonday(d time.Weekday) int {
	return (int(d) + 6) % 7
}
