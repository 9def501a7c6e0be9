package store_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vulnwatch/notifications-engine/internal/notification"
	"github.com/vulnwatch/notifications-engine/internal/store"
)

var _ = Describe("ReconcileStore", func() {

	var s *store.ReconcileStore

	BeforeEach(func() {
		s = store.NewReconcileStore()
	})

	Context("live buffer eviction", func() {
		It("keeps only the 50 most recent stream events", func() {
			for i := 1; i <= 60; i++ {
				s.PushLive(note(int64(i), base.Add(time.Duration(i)*time.Second), true))
			}

			merged := s.Merged()
			Expect(merged).To(HaveLen(50))
			Expect(merged[0].ID).To(Equal(int64(60)))
			Expect(merged[49].ID).To(Equal(int64(11)))
		})

		It("keeps evicted entries reachable through the historical snapshot", func() {
			for i := 1; i <= 60; i++ {
				s.PushLive(note(int64(i), base.Add(time.Duration(i)*time.Second), true))
			}
			oldest := make([]*notification.Notification, 0, 10)
			for i := 1; i <= 10; i++ {
				oldest = append(oldest, note(int64(i), base.Add(time.Duration(i)*time.Second), true))
			}
			s.SetHistorical(oldest)

			merged := s.Merged()
			Expect(merged).To(HaveLen(60))
			Expect(merged[59].ID).To(Equal(int64(1)))
		})
	})

	Context("live and historical reconciliation", func() {
		It("merges an already-read live duplicate and a newer live event", func() {
			s.SetHistorical([]*notification.Notification{
				note(5, base.Add(-10*time.Second), true),
			})
			s.PushLive(note(5, base.Add(-10*time.Second), false))
			s.PushLive(note(6, base, true))

			merged := s.Merged()
			Expect(merged).To(HaveLen(2))
			Expect(merged[0].ID).To(Equal(int64(6)))
			Expect(merged[1].ID).To(Equal(int64(5)))
			Expect(merged[1].Unread).To(BeFalse())

			counts := s.Unread()
			Expect(counts.Total).To(Equal(1))
		})

		It("never evicts or reorders newer live entries on a historical refresh", func() {
			s.PushLive(note(6, base, true))
			s.SetHistorical([]*notification.Notification{
				note(5, base.Add(-10*time.Second), true),
			})
			s.SetHistorical([]*notification.Notification{
				note(5, base.Add(-10*time.Second), true),
				note(4, base.Add(-20*time.Second), true),
			})

			merged := s.Merged()
			Expect(merged).To(HaveLen(3))
			Expect(merged[0].ID).To(Equal(int64(6)))
		})
	})

	Context("change notification", func() {
		It("fires after every input change", func() {
			changes := 0
			s.SetOnChange(func() {
				changes++
			})
			s.PushLive(note(1, base, true))
			s.SetHistorical(nil)
			Expect(changes).To(Equal(2))
		})
	})

	Context("unread aggregation", func() {
		It("derives totals per category from the merged view", func() {
			scan := note(1, base, true)
			scan.Category = notification.Scan
			vuln := note(2, base.Add(-time.Second), true)
			vuln.Category = notification.Vulnerability
			read := note(3, base.Add(-2*time.Second), false)
			read.Category = notification.Vulnerability

			s.PushLive(scan)
			s.PushLive(vuln)
			s.SetHistorical([]*notification.Notification{read})

			counts := s.Unread()
			Expect(counts.Total).To(Equal(2))
			Expect(counts.ByCategory[notification.Scan]).To(Equal(1))
			Expect(counts.ByCategory[notification.Vulnerability]).To(Equal(1))
		})
	})

})
