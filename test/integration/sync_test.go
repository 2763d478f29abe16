package integration

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/despondency/notification-sync/internal/feed"
	"github.com/despondency/notification-sync/internal/messaging"
	"github.com/despondency/notification-sync/internal/push"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type section struct {
	Label   string `json:"label"`
	Records []struct {
		ID   string `json:"id"`
		Read bool   `json:"read"`
	} `json:"records"`
}

type view struct {
	Filter   string    `json:"filter"`
	Query    string    `json:"query"`
	Sections []section `json:"sections"`
	Total    int       `json:"total"`
	Unread   int       `json:"unread"`
}

func fetchView(filter string) view {
	var v view
	Expect(getJSON("/notifications?filter="+filter, &v)).To(Succeed())
	return v
}

func total() int { return fetchView("all").Total }
func unread() int { return fetchView("all").Unread }

func badgeCount() int {
	var b badge
	Expect(getJSON("/badge", &b)).To(Succeed())
	return b.Unread
}

func send(method, path, body string) int {
	req, err := http.NewRequest(method, control.URL+path, bytes.NewBufferString(body))
	Expect(err).To(BeNil())
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	Expect(err).To(BeNil())
	defer resp.Body.Close()
	return resp.StatusCode
}

func deliver(kind messaging.Kind) {
	b, err := messaging.Envelope{
		Kind:    kind,
		To:      cfg.DeviceToken,
		Message: &push.Message{ID: uuid.New().String(), Title: "New notice", SentAt: time.Now()},
	}.Encode()
	Expect(err).To(BeNil())
	Expect(transport.Deliver(b)).To(Succeed())
}

func record(id, title string, createdAt time.Time, read bool) feed.NotificationRecord {
	return feed.NotificationRecord{ID: id, UserID: cfg.UserID, Title: title, Read: read, CreatedAt: feed.NewTimestamp(createdAt)}
}

var _ = Describe("Notification sync", func() {

	var now time.Time

	BeforeEach(func() {
		now = time.Now()
		server.Seed(cfg.UserID,
			record("n1", "Math exam moved", now, false),
			record("n2", "PTM notice", now.AddDate(0, 0, -1), true),
			record("n3", "Annual day", now.AddDate(0, 0, -30), false),
		)
		Expect(send(http.MethodPut, "/app-state", `{"state":"active"}`)).To(Equal(http.StatusNoContent))
		Expect(send(http.MethodPut, "/notifications/query", `{"query":""}`)).To(Equal(http.StatusAccepted))
		Eventually(func() string { return fetchView("all").Query }).Should(BeEmpty())
		Expect(send(http.MethodPost, "/notifications/refresh", "")).To(Equal(http.StatusNoContent))
		Expect(pipe.Badge.Refresh(context.Background())).To(Succeed())
	})

	Context("Reading the feed", func() {
		It("should group newest first with local counts", func() {
			v := fetchView("all")
			Expect(v.Total).To(Equal(3))
			Expect(v.Unread).To(Equal(2))
			Expect(v.Sections).NotTo(BeEmpty())
			Expect(v.Sections[0].Label).To(Equal("Today"))
			Expect(v.Sections[0].Records[0].ID).To(Equal("n1"))
			Expect(v.Sections[len(v.Sections)-1].Label).To(Equal("Earlier"))
		})

		It("should compose the unread filter with a debounced search", func() {
			Expect(send(http.MethodPut, "/notifications/query", `{"query":"  EXAM "}`)).To(Equal(http.StatusAccepted))
			Eventually(func() string { return fetchView("unread").Query }).Should(Equal("EXAM"))
			v := fetchView("unread")
			Expect(v.Sections).To(HaveLen(1))
			Expect(v.Sections[0].Records).To(HaveLen(1))
			Expect(v.Sections[0].Records[0].ID).To(Equal("n1"))

			Expect(send(http.MethodPut, "/notifications/query", `{"query":"ptm"}`)).To(Equal(http.StatusAccepted))
			Eventually(func() []section { return fetchView("unread").Sections }).Should(BeEmpty())
		})
	})

	Context("Push delivery", func() {
		BeforeEach(func() {
			server.Add(cfg.UserID, record("n4", "Holiday declared", now, false))
		})

		It("should reload feed and badge on a foreground message", func() {
			deliver(messaging.KindMessage)
			Eventually(total).Should(Equal(4))
			Eventually(badgeCount).Should(Equal(3))
		})

		It("should ignore foreground messages while backgrounded but not taps", func() {
			Expect(send(http.MethodPut, "/app-state", `{"state":"background"}`)).To(Equal(http.StatusNoContent))
			deliver(messaging.KindMessage)
			Consistently(total, 300*time.Millisecond).Should(Equal(3))

			deliver(messaging.KindOpened)
			Eventually(total).Should(Equal(4))
		})
	})

	Context("Marking as read", func() {
		It("should confirm a single mark and update the badge", func() {
			Expect(send(http.MethodPatch, "/notifications/read/n1", "")).To(Equal(http.StatusAccepted))
			Expect(unread()).To(Equal(1))
			Eventually(badgeCount).Should(Equal(1))
		})

		It("should roll back a rejected mark", func() {
			server.FailNext("read", http.StatusInternalServerError, 1)
			Expect(send(http.MethodPatch, "/notifications/read/n3", "")).To(Equal(http.StatusAccepted))
			Eventually(unread).Should(Equal(2))
			Consistently(unread, 200*time.Millisecond).Should(Equal(2))
		})

		It("should mark everything", func() {
			Expect(send(http.MethodPatch, "/notifications/read-all", "")).To(Equal(http.StatusAccepted))
			Expect(unread()).To(Equal(0))
			Eventually(badgeCount).Should(Equal(0))
		})
	})

	Context("Backend failures", func() {
		It("should keep the feed when a manual refresh fails", func() {
			server.FailNext("list", http.StatusServiceUnavailable, 1)
			Expect(send(http.MethodPost, "/notifications/refresh", "")).To(Equal(http.StatusBadGateway))
			Expect(total()).To(Equal(3))
		})

		It("should clear the session token on 401", func() {
			defer func() {
				Expect(sess.Save(cfg.SessionToken, cfg.UserID)).To(Succeed())
			}()
			server.FailNext("unread", http.StatusUnauthorized, 1)
			Expect(pipe.Badge.Refresh(context.Background())).NotTo(Succeed())
			token, err := sess.Token(context.Background())
			Expect(err).To(BeNil())
			Expect(token).To(BeEmpty())
			Expect(badgeCount()).To(Equal(2))
		})
	})

	Context("Token registration", func() {
		It("should have registered the device and follow rotations", func() {
			Expect(server.Tokens()).To(ContainElement(cfg.DeviceToken))
			rotated := "device-" + uuid.New().String()
			b, err := messaging.Envelope{Kind: messaging.KindTokenRefresh, To: cfg.DeviceToken, Token: rotated}.Encode()
			Expect(err).To(BeNil())
			Expect(transport.Deliver(b)).To(Succeed())
			Eventually(server.Tokens).Should(ContainElement(rotated))

			b, err = messaging.Envelope{Kind: messaging.KindTokenRefresh, To: rotated, Token: cfg.DeviceToken}.Encode()
			Expect(err).To(BeNil())
			Expect(transport.Deliver(b)).To(Succeed())
		})
	})
})
