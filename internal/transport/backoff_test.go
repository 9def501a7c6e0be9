package transport

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reconnect delay schedule", func() {

	It("doubles from the base delay and caps at the max for attempts 0 through 9", func() {
		delays := reconnectDelays(time.Second, 30*time.Second)
		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			30 * time.Second,
			30 * time.Second,
			30 * time.Second,
			30 * time.Second,
			30 * time.Second,
		}
		for i, want := range expected {
			Expect(delays.NextBackOff()).To(Equal(want), "attempt %d", i)
		}
	})

	It("restarts from the base delay after a reset", func() {
		delays := reconnectDelays(time.Second, 30*time.Second)
		Expect(delays.NextBackOff()).To(Equal(1 * time.Second))
		Expect(delays.NextBackOff()).To(Equal(2 * time.Second))
		delays.Reset()
		Expect(delays.NextBackOff()).To(Equal(1 * time.Second))
	})

})
