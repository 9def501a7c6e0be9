package notification

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Category conversion", func() {

	var (
		category         string
		err              error
		actualCategory   Category
		expectedCategory Category
	)

	JustBeforeEach(func() {
		actualCategory, err = toCategory(category)
	})

	Context("Scan category", func() {
		BeforeEach(func() {
			category = "scan"
			expectedCategory = Scan
		})

		It("should have no err and be converted", func() {
			Expect(actualCategory).To(Equal(expectedCategory))
			Expect(err).To(BeNil())
		})
	})

	Context("Vulnerability category", func() {
		BeforeEach(func() {
			category = "vulnerability"
			expectedCategory = Vulnerability
		})

		It("should have no err and be converted", func() {
			Expect(actualCategory).To(Equal(expectedCategory))
			Expect(err).To(BeNil())
		})
	})

	Context("Asset category", func() {
		BeforeEach(func() {
			category = "asset"
			expectedCategory = Asset
		})

		It("should have no err and be converted", func() {
			Expect(actualCategory).To(Equal(expectedCategory))
			Expect(err).To(BeNil())
		})
	})

	Context("System category", func() {
		BeforeEach(func() {
			category = "system"
			expectedCategory = System
		})

		It("should have no err and be converted", func() {
			Expect(actualCategory).To(Equal(expectedCategory))
			Expect(err).To(BeNil())
		})
	})

	Context("Unknown category", func() {
		BeforeEach(func() {
			category = "Unknown Category"
			expectedCategory = -1
		})

		It("should err", func() {
			Expect(actualCategory).To(Equal(expectedCategory))
			Expect(err).To(Equal(ErrNoSuchCategory))
		})
	})

})

var _ = Describe("Severity conversion", func() {

	var (
		level          string
		err            error
		actualSeverity Severity
	)

	JustBeforeEach(func() {
		actualSeverity, err = toSeverity(level)
	})

	Context("Known levels", func() {
		It("maps critical, high, medium and low 1:1", func() {
			for lvl, want := range map[string]Severity{
				"critical": Critical,
				"high":     High,
				"medium":   Medium,
				"low":      Low,
			} {
				got, errConv := toSeverity(lvl)
				Expect(errConv).To(BeNil())
				Expect(got).To(Equal(want))
			}
		})
	})

	Context("Absent level", func() {
		BeforeEach(func() {
			level = ""
		})

		It("maps to no severity without err", func() {
			Expect(actualSeverity).To(Equal(NoSeverity))
			Expect(err).To(BeNil())
		})
	})

	Context("Unknown level", func() {
		BeforeEach(func() {
			level = "catastrophic"
		})

		It("maps to no severity and errs", func() {
			Expect(actualSeverity).To(Equal(NoSeverity))
			Expect(err).To(Equal(ErrNoSuchSeverity))
		})
	})

})
