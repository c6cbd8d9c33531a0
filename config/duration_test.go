package config

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Duration", func() {
	var d Duration

	BeforeEach(func() {
		var zero Duration

		d = zero
	})

	Describe("UnmarshalText", func() {
		It("should parse duration with unit", func() {
			err := d.UnmarshalText([]byte("1m20s"))
			Expect(err).Should(Succeed())
			Expect(d).Should(Equal(Duration(80 * time.Second)))
			Expect(d.String()).Should(Equal("1 minute 20 seconds"))
		})

		It("should use seconds for numbers without unit", func() {
			err := d.UnmarshalText([]byte("3600"))
			Expect(err).Should(Succeed())
			Expect(d.ToDuration()).Should(Equal(time.Hour))
		})

		It("should fail if duration is in wrong format", func() {
			err := d.UnmarshalText([]byte("wrong"))
			Expect(err).Should(HaveOccurred())
			Expect(err).Should(MatchError("time: invalid duration \"wrong\""))
		})
	})

	Describe("IsAtLeastZero", func() {
		It("should be true for zero and positive values", func() {
			Expect(d.IsAtLeastZero()).Should(BeTrue())
			Expect(Duration(time.Second).IsAtLeastZero()).Should(BeTrue())
		})

		It("should be false for negative values", func() {
			Expect(Duration(-time.Second).IsAtLeastZero()).Should(BeFalse())
		})
	})
})
