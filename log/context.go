package log

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

// NewCtx stores logger in ctx. The returned entry carries the new context.
func NewCtx(ctx context.Context, logger *logrus.Entry) (context.Context, *logrus.Entry) {
	ctx = context.WithValue(ctx, ctxKey{}, logger)

	return ctx, withCtx(ctx, logger)
}

// FromCtx returns the logger stored in ctx, or an entry of the global logger
func FromCtx(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(ctxKey{}).(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(Log())
	}

	// ctx may be a child of logger.Context
	return withCtx(ctx, logger)
}

// CtxWithFields adds fields to the logger stored in ctx
func CtxWithFields(ctx context.Context, fields logrus.Fields) (context.Context, *logrus.Entry) {
	return NewCtx(ctx, FromCtx(ctx).WithFields(fields))
}

func withCtx(ctx context.Context, logger *logrus.Entry) *logrus.Entry {
	c := *logger
	c.Context = ctx

	return &c
}
