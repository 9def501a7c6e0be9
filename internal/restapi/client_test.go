package restapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/julienschmidt/httprouter"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/atomic"

	"github.com/vulnwatch/notifications-engine/internal/restapi"
)

var _ = Describe("Client", func() {

	var (
		router *httprouter.Router
		server *httptest.Server
		client *restapi.Client
	)

	BeforeEach(func() {
		router = httprouter.New()
		server = httptest.NewServer(router)
		client = restapi.NewClient(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	Context("Historical", func() {
		It("fetches one page of raw notifications", func() {
			router.GET("/notifications", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
				Expect(r.URL.Query().Get("page")).To(Equal("2"))
				Expect(r.URL.Query().Get("page_size")).To(Equal("10"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"results":[
					{"id":2,"title":"Scan finished","message":"scan finished","created_at":"2026-08-27T10:00:00Z","is_read":false},
					{"id":1,"title":"Engine updated","message":"engine updated","created_at":"2026-08-27T09:00:00Z","is_read":true}
				]}`))
			})

			raws, err := client.Historical(context.Background(), 2, 10)

			Expect(err).To(BeNil())
			Expect(raws).To(HaveLen(2))
			Expect(*raws[0].ID).To(Equal(int64(2)))
			Expect(raws[1].Title).To(Equal("Engine updated"))
		})

		It("retries a transient failure", func() {
			calls := atomic.NewInt32(0)
			router.GET("/notifications", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
				if calls.Inc() == 1 {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"results":[]}`))
			})

			raws, err := client.Historical(context.Background(), 1, 20)

			Expect(err).To(BeNil())
			Expect(raws).To(BeEmpty())
			Expect(calls.Load()).To(Equal(int32(2)))
		})

		It("surfaces a persistent failure", func() {
			router.GET("/notifications", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
				w.WriteHeader(http.StatusInternalServerError)
			})
			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			_, err := client.Historical(ctx, 1, 20)

			Expect(err).To(HaveOccurred())
		})
	})

	Context("MarkAllRead", func() {
		It("posts with no body", func() {
			called := atomic.NewBool(false)
			router.POST("/notifications/mark-all-read", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
				called.Store(true)
				w.WriteHeader(http.StatusOK)
			})

			Expect(client.MarkAllRead(context.Background())).To(BeNil())
			Expect(called.Load()).To(BeTrue())
		})

		It("errs on a non-2xx status", func() {
			router.POST("/notifications/mark-all-read", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
				w.WriteHeader(http.StatusBadGateway)
			})

			Expect(client.MarkAllRead(context.Background())).To(HaveOccurred())
		})
	})

	Context("UnreadCount", func() {
		It("fetches the coarse badge count", func() {
			router.GET("/notifications/unread-count", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"count":42}`))
			})

			count, err := client.UnreadCount(context.Background())

			Expect(err).To(BeNil())
			Expect(count).To(Equal(42))
		})
	})

})

var _ = Describe("BadgePoller", func() {

	It("polls on the configured period and never blocks the caller", func() {
		router := httprouter.New()
		router.GET("/notifications/unread-count", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"count":3}`))
		})
		server := httptest.NewServer(router)
		defer server.Close()

		counts := make(chan int, 10)
		poller := restapi.NewBadgePoller(restapi.NewClient(server.URL), 20*time.Millisecond, func(count int) {
			counts <- count
		})
		poller.Start()
		defer poller.Stop()

		Eventually(counts).Should(Receive(Equal(3)))
	})

	It("keeps polling after a failed poll", func() {
		router := httprouter.New()
		calls := atomic.NewInt32(0)
		router.GET("/notifications/unread-count", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
			if calls.Inc() == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"count":1}`))
		})
		server := httptest.NewServer(router)
		defer server.Close()

		counts := make(chan int, 10)
		poller := restapi.NewBadgePoller(restapi.NewClient(server.URL), 20*time.Millisecond, func(count int) {
			counts <- count
		})
		poller.Start()
		defer poller.Stop()

		Eventually(counts).Should(Receive(Equal(1)))
	})

})
