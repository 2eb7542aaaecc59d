package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/ericborczuk/cloud-asset-manager/cmd/assetmanager/models"
	"github.com/ericborczuk/cloud-asset-manager/common/logger"
	"github.com/ericborczuk/cloud-asset-manager/common/queue"
)

// Lifecycle event names published to the queue
const (
	EventUploadInitiated = "asset.upload.initiated"
	EventStatusChanged   = "asset.status.changed"
)

// AssetEvent is the message published on lifecycle transitions
type AssetEvent struct {
	Event          string                `json:"event"`
	AssetID        int64                 `json:"asset_id"`
	ObjectKey      string                `json:"object_key,omitempty"`
	UploadedStatus models.UploadedStatus `json:"uploaded_status,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// EventPublisher publishes asset lifecycle events.
// Publishing is best-effort: failures are logged, never surfaced to callers.
type EventPublisher struct {
	queue queue.Queue
	topic string
	log   *logger.Logger
}

// NewEventPublisher creates an event publisher over the given queue
func NewEventPublisher(q queue.Queue, topic string, log *logger.Logger) *EventPublisher {
	return &EventPublisher{
		queue: q,
		topic: topic,
		log:   log,
	}
}

// UploadInitiated announces that an upload URL was issued for an asset
func (p *EventPublisher) UploadInitiated(ctx context.Context, asset *models.Asset) {
	p.publish(ctx, AssetEvent{
		Event:      EventUploadInitiated,
		AssetID:    asset.ID,
		ObjectKey:  asset.ObjectKey,
		OccurredAt: time.Now().UTC(),
	})
}

// StatusChanged announces that an asset moved to a new lifecycle state
func (p *EventPublisher) StatusChanged(ctx context.Context, assetID int64, status models.UploadedStatus) {
	p.publish(ctx, AssetEvent{
		Event:          EventStatusChanged,
		AssetID:        assetID,
		UploadedStatus: status,
		OccurredAt:     time.Now().UTC(),
	})
}

func (p *EventPublisher) publish(ctx context.Context, event AssetEvent) {
	if p == nil || p.queue == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to marshal asset event", "event", event.Event, "error", err)
		return
	}

	key := strconv.FormatInt(event.AssetID, 10)
	if err := p.queue.Publish(ctx, p.topic, key, payload); err != nil {
		p.log.Warn("failed to publish asset event",
			"event", event.Event,
			"asset_id", event.AssetID,
			"error", err,
		)
	}
}
