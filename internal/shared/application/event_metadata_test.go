package application_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/veritrail/veritrail/internal/shared/application"
	"github.com/veritrail/veritrail/internal/shared/domain"
)

type metadataEvent struct {
	domain.BaseEvent
}

func TestNewEventMetadata(t *testing.T) {
	meta := application.NewEventMetadata("qa.lopez")

	assert.NotEqual(t, uuid.Nil, meta.CorrelationID)
	assert.NotEqual(t, uuid.Nil, meta.CausationID)
	assert.Equal(t, "qa.lopez", meta.Actor)
}

func TestApplyEventMetadata(t *testing.T) {
	ev := &metadataEvent{BaseEvent: domain.NewBaseEvent(uuid.New(), "QualityRecord", "quality.record.status_changed")}
	meta := application.NewEventMetadata("qa.lopez")

	application.ApplyEventMetadata([]domain.DomainEvent{ev}, meta)

	assert.Equal(t, meta.CorrelationID, ev.Metadata().CorrelationID)
	assert.Equal(t, "qa.lopez", ev.Metadata().Actor)
}
