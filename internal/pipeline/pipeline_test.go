package pipeline_test

import (
	"context"
	"time"

	"github.com/despondency/notification-sync/internal/backend"
	"github.com/despondency/notification-sync/internal/backend/fakebackend"
	"github.com/despondency/notification-sync/internal/feed"
	"github.com/despondency/notification-sync/internal/messaging"
	"github.com/despondency/notification-sync/internal/pipeline"
	"github.com/despondency/notification-sync/internal/push"
	"github.com/despondency/notification-sync/internal/session"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const userID = "student-7"

var _ = Describe("Pipeline", func() {

	var (
		server    *fakebackend.Server
		transport *messaging.Transport
		p         *pipeline.Pipeline
		ctx       context.Context
		now       time.Time
	)

	deliver := func(kind messaging.Kind, to string) {
		env := messaging.Envelope{Kind: kind, To: to, Message: &push.Message{ID: "push-1", Title: "New notice"}}
		b, err := env.Encode()
		Expect(err).To(BeNil())
		Expect(transport.Deliver(b)).To(Succeed())
	}

	storeIDs := func() []string {
		var out []string
		for _, r := range p.Store.Snapshot() {
			out = append(out, r.ID)
		}
		return out
	}

	badgeCount := func() int {
		n, _ := p.Badge.Count()
		return n
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Now()
		server = fakebackend.New("jwt-1")
		server.Seed(userID,
			feed.NotificationRecord{ID: "n1", UserID: userID, Title: "Exam", CreatedAt: feed.NewTimestamp(now.Add(-time.Hour))},
			feed.NotificationRecord{ID: "n2", UserID: userID, Title: "Fees", Read: true, CreatedAt: feed.NewTimestamp(now.Add(-2 * time.Hour))},
		)
		client, err := backend.NewClient(backend.Config{BaseURL: server.URL, Timeout: time.Second}, session.NewStatic("jwt-1", userID))
		Expect(err).To(BeNil())

		transport = messaging.NewTransport("device-1")
		p = pipeline.New(pipeline.Config{SearchDebounce: 10 * time.Millisecond, ColdStartWindow: time.Second}, transport, client)
		p.Start(ctx)
	})

	AfterEach(func() {
		p.Stop()
		server.Close()
	})

	It("should register the device and load the feed and badge at start", func() {
		Eventually(server.Tokens).Should(Equal([]string{"device-1"}))
		Eventually(storeIDs).Should(Equal([]string{"n1", "n2"}))
		Eventually(badgeCount).Should(Equal(1))
		Expect(p.Listener.Started()).To(BeTrue())
	})

	It("should only start once", func() {
		p.Start(ctx)
		Eventually(server.Tokens).Should(HaveLen(1))
		Consistently(server.Tokens, 200*time.Millisecond).Should(HaveLen(1))
	})

	It("should reload feed and badge on a foreground message", func() {
		Eventually(storeIDs).Should(HaveLen(2))
		server.Add(userID, feed.NotificationRecord{ID: "n3", UserID: userID, Title: "Holiday", CreatedAt: feed.NewTimestamp(now)})

		deliver(messaging.KindMessage, "device-1")
		Eventually(storeIDs).Should(Equal([]string{"n3", "n1", "n2"}))
		Eventually(badgeCount).Should(Equal(2))
	})

	It("should ignore foreground messages while backgrounded", func() {
		Eventually(storeIDs).Should(HaveLen(2))
		Eventually(badgeCount).Should(Equal(1))
		p.AppState.Set(push.Background)
		server.Add(userID, feed.NotificationRecord{ID: "n3", UserID: userID, Title: "Holiday", CreatedAt: feed.NewTimestamp(now)})

		deliver(messaging.KindMessage, "device-1")
		Consistently(storeIDs, 200*time.Millisecond).Should(HaveLen(2))

		deliver(messaging.KindOpened, "device-1")
		Eventually(storeIDs).Should(HaveLen(3))
	})

	It("should register rotated tokens", func() {
		Eventually(server.Tokens).Should(HaveLen(1))
		b, err := messaging.Envelope{Kind: messaging.KindTokenRefresh, To: "device-1", Token: "device-2"}.Encode()
		Expect(err).To(BeNil())
		Expect(transport.Deliver(b)).To(Succeed())
		Eventually(server.Tokens).Should(Equal([]string{"device-1", "device-2"}))
	})

	It("should push a confirmed mark to the badge", func() {
		Eventually(storeIDs).Should(HaveLen(2))
		Eventually(badgeCount).Should(Equal(1))

		Expect(p.Store.MarkOne(ctx, "n1")).To(Succeed())
		Eventually(badgeCount).Should(Equal(0))
		Expect(p.Store.UnreadCount()).To(Equal(0))
	})

	It("should roll back when the backend rejects a mark-all", func() {
		Eventually(storeIDs).Should(HaveLen(2))
		server.FailNext("read-all", 500, 1)
		Expect(p.Store.MarkAll(ctx)).To(MatchError(feed.ErrMarkFailed))
		Expect(p.Store.UnreadCount()).To(Equal(1))
	})
})

var _ = Describe("Pipeline cold start", func() {

	It("should load the feed when launched from a notification", func() {
		server := fakebackend.New("")
		defer server.Close()
		server.Seed(userID, feed.NotificationRecord{ID: "n1", Title: "Exam", CreatedAt: feed.NewTimestamp(time.Now())})
		client, err := backend.NewClient(backend.Config{BaseURL: server.URL}, session.NewStatic("", userID))
		Expect(err).To(BeNil())

		transport := messaging.NewTransport("device-1", messaging.WithLaunchMessage(push.Message{ID: "launch"}))
		p := pipeline.New(pipeline.Config{ColdStartWindow: time.Second}, transport, client)
		p.Start(context.Background())
		defer p.Stop()

		Eventually(func() bool { return p.Store.State().Loaded }).Should(BeTrue())
		Eventually(func() bool { _, known := p.Badge.Count(); return known }).Should(BeTrue())
	})
})
