package storage

import (
	"context"
	"time"

	"instaclone/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Instrumented records latency, outcome and a client span for every call.
type Instrumented struct {
	inner ImageStore
}

// NewInstrumented wraps inner with metrics and tracing.
func NewInstrumented(inner ImageStore) *Instrumented {
	return &Instrumented{inner: inner}
}

func (i *Instrumented) Upload(ctx context.Context, file Upload, folder string) (url string, err error) {
	start := time.Now()
	ctx, span := observability.StartClientSpan(ctx, "image_store", "upload")
	span.SetAttributes(attribute.String("image.folder", folder), attribute.Int("image.bytes", len(file.Content)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		observability.ObserveImageStore("upload", start, err)
	}()
	return i.inner.Upload(ctx, file, folder)
}

func (i *Instrumented) Destroy(ctx context.Context, publicID string) (err error) {
	start := time.Now()
	ctx, span := observability.StartClientSpan(ctx, "image_store", "destroy")
	span.SetAttributes(attribute.String("image.public_id", publicID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		observability.ObserveImageStore("destroy", start, err)
	}()
	return i.inner.Destroy(ctx, publicID)
}

// New builds the production chain: local WebP store, upload throttle, instrumentation.
func New(root, baseURL string, maxBytes int64, maxDimension int, rps float64, burst int) ImageStore {
	var store ImageStore = NewLocalStore(root, baseURL, maxBytes, maxDimension)
	if rps > 0 {
		store = NewRateLimited(store, rps, burst)
	}
	return NewInstrumented(store)
}
