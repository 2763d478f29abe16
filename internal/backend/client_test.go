package backend_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/despondency/notification-sync/internal/backend"
	"github.com/despondency/notification-sync/internal/backend/fakebackend"
	"github.com/despondency/notification-sync/internal/feed"
	"github.com/despondency/notification-sync/internal/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Client", func() {

	var (
		server       *fakebackend.Server
		sess         *session.Static
		client       *backend.Client
		authFailures int
		ctx          context.Context
		createdAt    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		createdAt = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)
		server = fakebackend.New("jwt-1")
		sess = session.NewStatic("jwt-1", "student-7")
		authFailures = 0

		var err error
		client, err = backend.NewClient(backend.Config{
			BaseURL: server.URL,
			Timeout: time.Second,
			OnAuthFailure: func() {
				authFailures++
				sess.ClearToken()
			},
		}, sess)
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		server.Close()
	})

	Context("Config", func() {
		It("should reject a missing base url", func() {
			_, err := backend.NewClient(backend.Config{}, sess)
			Expect(err).NotTo(BeNil())
		})
	})

	Context("Notifications", func() {
		BeforeEach(func() {
			server.Seed("student-7",
				feed.NotificationRecord{ID: "n1", UserID: "student-7", Title: "Exam", CreatedAt: feed.NewTimestamp(createdAt)},
				feed.NotificationRecord{ID: "", Title: "broken"},
				feed.NotificationRecord{ID: "n2", UserID: "student-7", Title: "Fees", Read: true, CreatedAt: feed.NewTimestamp(createdAt)},
			)
		})

		It("should fetch the user's feed and drop records without an id", func() {
			records, err := client.Notifications(ctx)
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(2))
			Expect(records[0].ID).To(Equal("n1"))
			Expect(records[0].CreatedAt.Equal(createdAt)).To(BeTrue())
			Expect(records[1].Read).To(BeTrue())
		})

		It("should keep the decodable records when one timestamp is garbage", func() {
			mixed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`[
					{"_id":"a","title":"Exam","createdAt":"2024-05-17T09:30:00.000Z"},
					{"_id":"b","title":"PTM","createdAt":"2024-05-17T09:30:00+0000"},
					{"_id":"c","title":"Trip","createdAt":"yesterday"}
				]`))
			}))
			defer mixed.Close()
			client, err := backend.NewClient(backend.Config{BaseURL: mixed.URL}, sess)
			Expect(err).To(BeNil())

			records, err := client.Notifications(ctx)
			Expect(err).To(BeNil())
			Expect(records).To(HaveLen(2))
			Expect(records[0].ID).To(Equal("a"))
			Expect(records[1].ID).To(Equal("b"))
			Expect(records[1].CreatedAt.Equal(records[0].CreatedAt.Time)).To(BeTrue())
		})

		It("should bust caches and send the bearer token", func() {
			_, err := client.Notifications(ctx)
			Expect(err).To(BeNil())
			reqs := server.Requests()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Path).To(Equal("/notifications/student-7"))
			Expect(reqs[0].Query).To(HaveKey("_cb"))
			Expect(reqs[0].Header.Get("Cache-Control")).To(Equal("no-cache"))
			Expect(reqs[0].Header.Get("Pragma")).To(Equal("no-cache"))
			Expect(reqs[0].Header.Get("Authorization")).To(Equal("Bearer jwt-1"))
		})

		It("should fail without a signed-in user", func() {
			client, err := backend.NewClient(backend.Config{BaseURL: server.URL}, session.NewStatic("jwt-1", ""))
			Expect(err).To(BeNil())
			_, err = client.Notifications(ctx)
			Expect(errors.Is(err, backend.ErrNoSession)).To(BeTrue())
			Expect(server.Requests()).To(BeEmpty())
		})
	})

	Context("Status errors", func() {
		It("should normalise the message from the body", func() {
			server.FailNext("list", http.StatusInternalServerError, 1)
			_, err := client.Notifications(ctx)
			var statusErr *backend.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.Code).To(Equal(http.StatusInternalServerError))
			Expect(statusErr.Message).To(Equal("Internal Server Error"))
			Expect(backend.IsAuth(err)).To(BeFalse())
		})

		It("should classify 401 as an auth failure and clear the token", func() {
			sess = session.NewStatic("expired", "student-7")
			client, err := backend.NewClient(backend.Config{
				BaseURL:       server.URL,
				OnAuthFailure: func() { authFailures++; sess.ClearToken() },
			}, sess)
			Expect(err).To(BeNil())

			_, err = client.UnreadCount(ctx)
			Expect(backend.IsAuth(err)).To(BeTrue())
			var statusErr *backend.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.Message).To(Equal("invalid token"))
			Expect(authFailures).To(Equal(1))
			token, _ := sess.Token(ctx)
			Expect(token).To(BeEmpty())
		})

		It("should classify 403 as an auth failure", func() {
			server.FailNext("read-all", http.StatusForbidden, 1)
			err := client.MarkAllAsRead(ctx)
			Expect(backend.IsAuth(err)).To(BeTrue())
			Expect(authFailures).To(Equal(1))
		})
	})

	Context("Transport errors", func() {
		It("should report an unreachable backend as a network error", func() {
			server.Close()
			_, err := client.UnreadCount(ctx)
			Expect(errors.Is(err, backend.ErrNetwork)).To(BeTrue())
			Expect(backend.IsTimeout(err)).To(BeFalse())
		})

		It("should report a slow backend as a timeout", func() {
			slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
			}))
			defer slow.Close()
			client, err := backend.NewClient(backend.Config{BaseURL: slow.URL, Timeout: 50 * time.Millisecond}, sess)
			Expect(err).To(BeNil())

			_, err = client.UnreadCount(ctx)
			Expect(backend.IsTimeout(err)).To(BeTrue())
		})
	})

	Context("RegisterToken", func() {
		It("should post the token", func() {
			Expect(client.RegisterToken(ctx, "device-token")).To(Succeed())
			Expect(server.Tokens()).To(Equal([]string{"device-token"}))
		})

		It("should not send an empty token", func() {
			Expect(client.RegisterToken(ctx, "")).To(Succeed())
			Expect(server.Requests()).To(BeEmpty())
		})
	})

	Context("Marking", func() {
		BeforeEach(func() {
			server.Seed("student-7",
				feed.NotificationRecord{ID: "n1", Title: "Exam", CreatedAt: feed.NewTimestamp(createdAt)},
				feed.NotificationRecord{ID: "n2", Title: "Fees", CreatedAt: feed.NewTimestamp(createdAt)},
			)
		})

		It("should return the updated record", func() {
			updated, err := client.MarkAsRead(ctx, "n1")
			Expect(err).To(BeNil())
			Expect(updated).NotTo(BeNil())
			Expect(updated.Read).To(BeTrue())
		})

		It("should mark every record of the user and accept an empty response", func() {
			Expect(client.MarkAllAsRead(ctx)).To(Succeed())
			for _, r := range server.Records("student-7") {
				Expect(r.Read).To(BeTrue())
			}
			Expect(server.Requests()[0].Path).To(Equal("/notifications/read-all/student-7"))
		})
	})

	Context("UnreadCount", func() {
		It("should count unread records", func() {
			server.Seed("student-7",
				feed.NotificationRecord{ID: "n1", CreatedAt: feed.NewTimestamp(createdAt)},
				feed.NotificationRecord{ID: "n2", Read: true, CreatedAt: feed.NewTimestamp(createdAt)},
			)
			n, err := client.UnreadCount(ctx)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(1))
		})

		It("should treat an empty body as zero", func() {
			empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer empty.Close()
			client, err := backend.NewClient(backend.Config{BaseURL: empty.URL}, sess)
			Expect(err).To(BeNil())

			n, err := client.UnreadCount(ctx)
			Expect(err).To(BeNil())
			Expect(n).To(Equal(0))
		})
	})
})
