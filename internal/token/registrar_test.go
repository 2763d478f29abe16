package token_test

import (
	"context"
	"fmt"
	"time"

	"github.com/despondency/notification-sync/internal/push"
	"github.com/despondency/notification-sync/internal/push/pushmocks"
	"github.com/despondency/notification-sync/internal/token"
	"github.com/despondency/notification-sync/internal/token/tokenmocks"
	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Registrar", func() {

	var (
		ctrl      *gomock.Controller
		transport *pushmocks.MockTransport
		backend   *tokenmocks.MockBackend
		registrar *token.Registrar
		ctx       context.Context
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		transport = pushmocks.NewMockTransport(ctrl)
		backend = tokenmocks.NewMockBackend(ctrl)
		registrar = token.NewRegistrar(transport, backend)
		ctx = context.Background()
	})

	Context("RequestPermission", func() {
		It("should report a granted status", func() {
			transport.EXPECT().RequestPermission(gomock.Any()).Return(push.Provisional, nil).Times(1)
			Expect(registrar.RequestPermission(ctx)).To(Equal(push.Provisional))
		})

		It("should report a denial without failing", func() {
			transport.EXPECT().RequestPermission(gomock.Any()).Return(push.Denied, nil).Times(1)
			Expect(registrar.RequestPermission(ctx)).To(Equal(push.Denied))
		})

		It("should swallow transport errors", func() {
			transport.EXPECT().RequestPermission(gomock.Any()).Return(push.Authorized, fmt.Errorf("boom")).Times(1)
			Expect(registrar.RequestPermission(ctx)).To(Equal(push.NotDetermined))
		})
	})

	Context("ObtainAndRegister", func() {
		It("should register the current token once", func() {
			transport.EXPECT().Token(gomock.Any()).Return("device-1", nil).Times(1)
			backend.EXPECT().RegisterToken(gomock.Any(), "device-1").Return(nil).Times(1)
			registrar.ObtainAndRegister(ctx)
		})

		It("should not call the backend without a token", func() {
			transport.EXPECT().Token(gomock.Any()).Return("", nil).Times(1)
			backend.EXPECT().RegisterToken(gomock.Any(), gomock.Any()).Times(0)
			registrar.ObtainAndRegister(ctx)
		})

		It("should not call the backend when the token cannot be read", func() {
			transport.EXPECT().Token(gomock.Any()).Return("", fmt.Errorf("no play services")).Times(1)
			backend.EXPECT().RegisterToken(gomock.Any(), gomock.Any()).Times(0)
			registrar.ObtainAndRegister(ctx)
		})

		It("should not retry a failed registration", func() {
			transport.EXPECT().Token(gomock.Any()).Return("device-1", nil).Times(1)
			backend.EXPECT().RegisterToken(gomock.Any(), "device-1").Return(fmt.Errorf("503")).Times(1)
			registrar.ObtainAndRegister(ctx)
		})
	})

	Context("OnRefresh", func() {
		var (
			rotate       func(string)
			unsubscribed int
		)

		BeforeEach(func() {
			rotate, unsubscribed = nil, 0
		})

		subscribe := func() {
			transport.EXPECT().OnTokenRefresh(gomock.Any()).DoAndReturn(func(h func(string)) (push.Unsubscribe, error) {
				rotate = h
				return func() { unsubscribed++ }, nil
			}).Times(1)
		}

		It("should register every rotated token independently", func() {
			subscribe()
			registered := make(chan string, 2)
			first := backend.EXPECT().RegisterToken(gomock.Any(), "rotated-1").DoAndReturn(func(_ context.Context, t string) error {
				registered <- t
				return fmt.Errorf("offline")
			}).Times(1)
			backend.EXPECT().RegisterToken(gomock.Any(), "rotated-2").DoAndReturn(func(_ context.Context, t string) error {
				registered <- t
				return nil
			}).Times(1).After(first)

			stop := registrar.OnRefresh()
			rotate("rotated-1")
			Eventually(registered).Should(Receive(Equal("rotated-1")))
			rotate("")
			rotate("rotated-2")
			Eventually(registered).Should(Receive(Equal("rotated-2")))
			stop()
			Expect(unsubscribed).To(Equal(1))
		})

		It("should return to the caller while the backend is still answering", func() {
			subscribe()
			release := make(chan struct{})
			done := make(chan struct{})
			backend.EXPECT().RegisterToken(gomock.Any(), "rotated-1").DoAndReturn(func(context.Context, string) error {
				<-release
				close(done)
				return nil
			}).Times(1)

			stop := registrar.OnRefresh()
			defer stop()

			returned := make(chan struct{})
			go func() {
				rotate("rotated-1")
				close(returned)
			}()
			Eventually(returned).Should(BeClosed())
			Consistently(done, 50*time.Millisecond).ShouldNot(BeClosed())
			close(release)
			Eventually(done).Should(BeClosed())
		})

		It("should leave the newest token registered last", func() {
			subscribe()
			release := make(chan struct{})
			entered := make(chan struct{})
			var last string
			backend.EXPECT().RegisterToken(gomock.Any(), "rotated-1").DoAndReturn(func(context.Context, string) error {
				close(entered)
				<-release
				return nil
			}).Times(1)
			final := make(chan struct{})
			backend.EXPECT().RegisterToken(gomock.Any(), "rotated-3").DoAndReturn(func(_ context.Context, t string) error {
				last = t
				close(final)
				return nil
			}).Times(1)

			stop := registrar.OnRefresh()
			defer stop()
			rotate("rotated-1")
			Eventually(entered).Should(BeClosed())
			rotate("rotated-2")
			rotate("rotated-3")
			close(release)
			Eventually(final).Should(BeClosed())
			Expect(last).To(Equal("rotated-3"))
		})

		It("should return a no-op teardown when the subscription fails", func() {
			transport.EXPECT().OnTokenRefresh(gomock.Any()).Return(nil, fmt.Errorf("unsupported")).Times(1)
			stop := registrar.OnRefresh()
			Expect(stop).NotTo(BeNil())
			stop()
		})
	})

	Context("Setup", func() {
		It("should ask permission, register, then subscribe", func() {
			gomock.InOrder(
				transport.EXPECT().RequestPermission(gomock.Any()).Return(push.Authorized, nil),
				transport.EXPECT().Token(gomock.Any()).Return("device-1", nil),
				backend.EXPECT().RegisterToken(gomock.Any(), "device-1").Return(nil),
				transport.EXPECT().OnTokenRefresh(gomock.Any()).Return(push.Unsubscribe(func() {}), nil),
			)
			stop := registrar.Setup(ctx)
			stop()
		})

		It("should still register after a denial", func() {
			transport.EXPECT().RequestPermission(gomock.Any()).Return(push.Denied, nil).Times(1)
			transport.EXPECT().Token(gomock.Any()).Return("device-1", nil).Times(1)
			backend.EXPECT().RegisterToken(gomock.Any(), "device-1").Return(nil).Times(1)
			transport.EXPECT().OnTokenRefresh(gomock.Any()).Return(push.Unsubscribe(func() {}), nil).Times(1)
			registrar.Setup(ctx)()
		})
	})
})
