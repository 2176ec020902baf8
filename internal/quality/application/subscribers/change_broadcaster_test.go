package subscribers_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/application/subscribers"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/eventbus"
)

type captureBroadcaster struct {
	payloads []any
}

func (b *captureBroadcaster) Broadcast(payload any) {
	b.payloads = append(b.payloads, payload)
}

func TestChangeBroadcaster_Handle(t *testing.T) {
	ctx := context.Background()
	recordID := uuid.New()
	at := time.Date(2026, 2, 12, 9, 30, 0, 0, time.UTC)

	t.Run("broadcasts status changes with both statuses", func(t *testing.T) {
		hub := &captureBroadcaster{}
		broadcaster := subscribers.NewChangeBroadcaster(hub, nil)

		require.NoError(t, broadcaster.Handle(ctx, statusChangedEvent(t, recordID, at)))

		require.Len(t, hub.payloads, 1)
		change, ok := hub.payloads[0].(subscribers.RecordChange)
		require.True(t, ok)
		assert.Equal(t, record.RoutingKeyStatusChanged, change.Type)
		assert.Equal(t, recordID.String(), change.RecordID)
		assert.Equal(t, "ncr", change.Kind)
		assert.Equal(t, "draft", change.FromStatus)
		assert.Equal(t, "open", change.ToStatus)
		assert.Equal(t, "qa.lopez", change.Actor)
	})

	t.Run("broadcasts created events with the kind", func(t *testing.T) {
		evt := record.NewRecordCreated(recordID, lifecycle.KindCAPA, lifecycle.StatusDraft, "Recurring paint adhesion failures")
		payload, err := json.Marshal(evt)
		require.NoError(t, err)

		hub := &captureBroadcaster{}
		broadcaster := subscribers.NewChangeBroadcaster(hub, nil)

		require.NoError(t, broadcaster.Handle(ctx, &eventbus.ConsumedEvent{
			EventID:     evt.EventID(),
			AggregateID: recordID,
			RoutingKey:  record.RoutingKeyCreated,
			OccurredAt:  evt.OccurredAt(),
			Payload:     payload,
		}))

		require.Len(t, hub.payloads, 1)
		change := hub.payloads[0].(subscribers.RecordChange)
		assert.Equal(t, record.RoutingKeyCreated, change.Type)
		assert.Equal(t, "capa", change.Kind)
		assert.Empty(t, change.FromStatus)
		assert.Empty(t, change.ToStatus)
	})

	t.Run("still broadcasts when the payload is malformed", func(t *testing.T) {
		event := statusChangedEvent(t, recordID, at)
		event.Payload = json.RawMessage(`{broken`)

		hub := &captureBroadcaster{}
		broadcaster := subscribers.NewChangeBroadcaster(hub, nil)

		require.NoError(t, broadcaster.Handle(ctx, event))

		require.Len(t, hub.payloads, 1)
		change := hub.payloads[0].(subscribers.RecordChange)
		assert.Equal(t, record.RoutingKeyStatusChanged, change.Type)
		assert.Equal(t, recordID.String(), change.RecordID)
		assert.Empty(t, change.ToStatus)
	})

	t.Run("ignores unknown routing keys", func(t *testing.T) {
		event := statusChangedEvent(t, recordID, at)
		event.RoutingKey = "quality.supplier.rated"

		hub := &captureBroadcaster{}
		broadcaster := subscribers.NewChangeBroadcaster(hub, nil)

		require.NoError(t, broadcaster.Handle(ctx, event))

		assert.Empty(t, hub.payloads)
	})
}

func TestChangeBroadcaster_EventTypes(t *testing.T) {
	broadcaster := subscribers.NewChangeBroadcaster(&captureBroadcaster{}, nil)

	assert.Equal(t, []string{
		record.RoutingKeyCreated,
		record.RoutingKeyStatusChanged,
		record.RoutingKeyUpdated,
		record.RoutingKeyDeleted,
	}, broadcaster.EventTypes())
}
