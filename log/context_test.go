package log

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
)

var _ = Describe("Context logger", func() {
	It("should fall back to the global logger", func() {
		entry := FromCtx(context.Background())

		Expect(entry.Logger).Should(BeIdenticalTo(Log()))
	})

	It("should return the stored logger with the current context", func() {
		stored, hook := NewMockEntry()

		ctx, _ := NewCtx(context.Background(), stored)
		child, cancel := context.WithCancel(ctx)

		DeferCleanup(cancel)

		entry := FromCtx(child)
		entry.Info("from context")

		Expect(entry.Context).Should(BeIdenticalTo(child))
		Expect(hook.Messages).Should(ConsistOf("from context"))
	})

	It("should add fields", func() {
		stored, _ := NewMockEntry()

		ctx, _ := NewCtx(context.Background(), stored)
		ctx, entry := CtxWithFields(ctx, logrus.Fields{"zone": "example.com."})

		Expect(entry.Data).Should(HaveKeyWithValue("zone", "example.com."))
		Expect(FromCtx(ctx).Data).Should(HaveKeyWithValue("zone", "example.com."))
	})
})
