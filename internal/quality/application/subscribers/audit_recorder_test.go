package subscribers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/application/subscribers"
	"github.com/veritrail/veritrail/internal/quality/domain/audit"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/eventbus"
)

type mockAuditRepository struct {
	mock.Mock
}

func (m *mockAuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockAuditRepository) FindByRecordID(ctx context.Context, recordID uuid.UUID) ([]audit.Entry, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.Entry), args.Error(1)
}

// statusChangedEvent marshals a real domain event into a consumer envelope.
func statusChangedEvent(t *testing.T, recordID uuid.UUID, at time.Time) *eventbus.ConsumedEvent {
	t.Helper()

	evt := record.NewStatusChanged(recordID, lifecycle.KindNCR, lifecycle.StatusDraft, lifecycle.StatusOpen, "qa.lopez", "submitting for triage", at)
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	return &eventbus.ConsumedEvent{
		EventID:       evt.EventID(),
		AggregateID:   recordID,
		AggregateType: record.AggregateType,
		RoutingKey:    record.RoutingKeyStatusChanged,
		OccurredAt:    evt.OccurredAt(),
		Payload:       payload,
	}
}

func TestAuditRecorder_Handle(t *testing.T) {
	ctx := context.Background()
	recordID := uuid.New()
	at := time.Date(2026, 2, 12, 9, 30, 0, 0, time.UTC)

	t.Run("appends one entry per status change", func(t *testing.T) {
		auditRepo := new(mockAuditRepository)
		var appended audit.Entry
		auditRepo.On("Append", ctx, mock.AnythingOfType("audit.Entry")).
			Run(func(args mock.Arguments) {
				appended = args.Get(1).(audit.Entry)
			}).
			Return(nil)

		recorder := subscribers.NewAuditRecorder(auditRepo, nil)
		err := recorder.Handle(ctx, statusChangedEvent(t, recordID, at))

		require.NoError(t, err)
		auditRepo.AssertNumberOfCalls(t, "Append", 1)
		assert.Equal(t, recordID, appended.RecordID)
		assert.Equal(t, lifecycle.KindNCR, appended.Kind)
		assert.Equal(t, lifecycle.StatusDraft, appended.FromStatus)
		assert.Equal(t, lifecycle.StatusOpen, appended.ToStatus)
		assert.Equal(t, "qa.lopez", appended.Actor)
		assert.Equal(t, "submitting for triage", appended.Comment)
		assert.Equal(t, at, appended.OccurredAt)
	})

	t.Run("falls back to envelope fields for sparse payloads", func(t *testing.T) {
		auditRepo := new(mockAuditRepository)
		var appended audit.Entry
		auditRepo.On("Append", ctx, mock.AnythingOfType("audit.Entry")).
			Run(func(args mock.Arguments) {
				appended = args.Get(1).(audit.Entry)
			}).
			Return(nil)

		event := &eventbus.ConsumedEvent{
			EventID:     uuid.New(),
			AggregateID: recordID,
			RoutingKey:  record.RoutingKeyStatusChanged,
			OccurredAt:  at,
			Payload:     json.RawMessage(`{"kind":"ncr","from_status":"draft","to_status":"open"}`),
			Metadata:    eventbus.EventMetadata{Actor: "qa.lopez"},
		}

		recorder := subscribers.NewAuditRecorder(auditRepo, nil)
		require.NoError(t, recorder.Handle(ctx, event))

		assert.Equal(t, recordID, appended.RecordID)
		assert.Equal(t, "qa.lopez", appended.Actor)
		assert.Equal(t, at, appended.OccurredAt)
	})

	t.Run("drops malformed payloads without retrying", func(t *testing.T) {
		auditRepo := new(mockAuditRepository)
		event := statusChangedEvent(t, recordID, at)
		event.Payload = json.RawMessage(`{broken`)

		recorder := subscribers.NewAuditRecorder(auditRepo, nil)
		require.NoError(t, recorder.Handle(ctx, event))

		auditRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("drops events with an unknown kind", func(t *testing.T) {
		auditRepo := new(mockAuditRepository)
		event := statusChangedEvent(t, recordID, at)
		event.Payload = json.RawMessage(`{"record_id":"` + recordID.String() + `","kind":"rma","from_status":"draft","to_status":"open"}`)

		recorder := subscribers.NewAuditRecorder(auditRepo, nil)
		require.NoError(t, recorder.Handle(ctx, event))

		auditRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("returns append failures so the transport retries", func(t *testing.T) {
		appendErr := errors.New("database unavailable")
		auditRepo := new(mockAuditRepository)
		auditRepo.On("Append", ctx, mock.AnythingOfType("audit.Entry")).Return(appendErr)

		recorder := subscribers.NewAuditRecorder(auditRepo, nil)
		err := recorder.Handle(ctx, statusChangedEvent(t, recordID, at))

		assert.ErrorIs(t, err, appendErr)
	})

	t.Run("ignores other routing keys", func(t *testing.T) {
		auditRepo := new(mockAuditRepository)
		event := statusChangedEvent(t, recordID, at)
		event.RoutingKey = record.RoutingKeyCreated

		recorder := subscribers.NewAuditRecorder(auditRepo, nil)
		require.NoError(t, recorder.Handle(ctx, event))

		auditRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestAuditRecorder_EventTypes(t *testing.T) {
	recorder := subscribers.NewAuditRecorder(new(mockAuditRepository), nil)

	assert.Equal(t, []string{record.RoutingKeyStatusChanged}, recorder.EventTypes())
}
