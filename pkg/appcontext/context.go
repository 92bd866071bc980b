package appcontext

import (
	"context"

	"github.com/sirupsen/logrus"
)

type contextId int

const (
	runIdKeyId contextId = iota
	sourceKeyId
	triggerKeyId
	requestIdKeyId
)

func WithRequestId(ctx context.Context, requestId string) context.Context {
	return context.WithValue(ctx, requestIdKeyId, requestId)
}

func WithRunId(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIdKeyId, id)
}

func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKeyId, source)
}

// WithTrigger records whether a run was started manually or by the
// scheduler.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKeyId, trigger)
}

func LoggerFromContext(logger logrus.FieldLogger, ctx context.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	result := logger

	if ctxRunId, ok := ctx.Value(runIdKeyId).(string); ok && ctxRunId != "" {
		result = result.WithField("run_id", ctxRunId)
	}

	if ctxSource, ok := ctx.Value(sourceKeyId).(string); ok && ctxSource != "" {
		result = result.WithField("source", ctxSource)
	}

	if ctxTrigger, ok := ctx.Value(triggerKeyId).(string); ok && ctxTrigger != "" {
		result = result.WithField("trigger", ctxTrigger)
	}

	if ctxRequestId, ok := ctx.Value(requestIdKeyId).(string); ok && ctxRequestId != "" {
		result = result.WithField("request_id", ctxRequestId)
	}

	return result
}
