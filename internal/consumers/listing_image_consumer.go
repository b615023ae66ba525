package consumers

import (
	"context"
	"fmt"

	"imagematch/app"
	"imagematch/pkg/events"

	"go.uber.org/zap"
)

// ListingImageEventHandler turns images discovered by the listing crawler
// into unlabeled images.
type ListingImageEventHandler struct {
	repository app.Repository
}

func NewListingImageEventHandler(repository app.Repository) *ListingImageEventHandler {
	return &ListingImageEventHandler{
		repository: repository,
	}
}

func (h *ListingImageEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	zap.L().Info("Listing image event received",
		zap.String("event", event.Event),
		zap.String("version", event.Version),
		zap.String("traceId", event.TraceID),
	)

	switch event.Event {
	case events.ListingImageDiscoveredEvent:
		return h.handleImageDiscovered(ctx, event)
	default:
		zap.L().Warn("Unknown listing image event type", zap.String("event", event.Event))
		return nil
	}
}

func (h *ListingImageEventHandler) handleImageDiscovered(ctx context.Context, event *events.Event) error {
	var payload events.ListingImageDiscoveredPayload
	if err := event.DecodePayload(&payload); err != nil {
		return err
	}

	id, err := app.CreateUnlabeledImage(ctx, h.repository, app.ImageRow{
		ZillowID: payload.ZillowID,
		URL:      payload.URL,
	})
	if err != nil {
		return fmt.Errorf("store discovered image: %w", err)
	}

	zap.L().Info("Discovered image queued for review",
		zap.Int64("imageId", id),
		zap.String("zillowId", payload.ZillowID),
		zap.String("traceId", event.TraceID),
	)

	return nil
}
