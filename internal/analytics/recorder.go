package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/serroba/linkpulse/internal/messaging"
	"go.uber.org/zap"
)

// StoreRecorder writes click events straight to the click store on the
// request path.
type StoreRecorder struct {
	store Store
}

// NewStoreRecorder creates a recorder writing to store.
func NewStoreRecorder(store Store) *StoreRecorder {
	return &StoreRecorder{store: store}
}

func (r *StoreRecorder) Record(ctx context.Context, event *ClickEvent) error {
	if err := r.store.Record(ctx, event); err != nil {
		return fmt.Errorf("store click %s: %w", event.ID, err)
	}

	return nil
}

// StreamRecorder hands click events to the message stream instead of
// writing them on the request path. The consumer process persists them.
type StreamRecorder struct {
	publish messaging.Publish[ClickEvent]
}

// NewStreamRecorder creates a recorder publishing through publish.
func NewStreamRecorder(publish messaging.Publish[ClickEvent]) *StreamRecorder {
	return &StreamRecorder{publish: publish}
}

// Record publishes the event to TopicClickRecorded.
func (r *StreamRecorder) Record(ctx context.Context, event *ClickEvent) error {
	if err := r.publish(ctx, event); err != nil {
		return fmt.Errorf("publish click %s: %w", event.ID, err)
	}

	return nil
}

// PersistClicks returns the consumer handler writing streamed events to store.
// Redelivered events carry the same ID and are ignored by the stores.
// Events for links deleted while in flight are dropped; any other store
// failure is returned so the message is redelivered.
func PersistClicks(store Store, logger *zap.Logger) messaging.Handler[ClickEvent] {
	return func(ctx context.Context, event *ClickEvent) error {
		err := store.Record(ctx, event)
		if errors.Is(err, ErrUnknownLink) {
			logger.Warn("dropping click for deleted link",
				zap.String("id", event.ID),
				zap.String("shortLinkId", event.ShortLinkID),
			)

			return nil
		}

		if err != nil {
			return err
		}

		logger.Debug("click persisted",
			zap.String("id", event.ID),
			zap.String("shortLinkId", event.ShortLinkID),
		)

		return nil
	}
}
