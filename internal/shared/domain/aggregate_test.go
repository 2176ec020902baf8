package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/veritrail/veritrail/internal/shared/domain"
)

type testAggregate struct {
	domain.BaseAggregateRoot
	Name string
}

func newTestAggregate(name string) *testAggregate {
	return &testAggregate{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		Name:              name,
	}
}

type testAggregateEvent struct {
	domain.BaseEvent
}

func newTestAggregateEvent(aggregateID uuid.UUID) testAggregateEvent {
	return testAggregateEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "TestAggregate", "test.aggregate.created"),
	}
}

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := domain.NewBaseAggregateRoot()

	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Equal(t, 0, agg.Version())
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_AddDomainEvent(t *testing.T) {
	agg := newTestAggregate("Test")
	event := newTestAggregateEvent(agg.ID())

	agg.AddDomainEvent(event)

	events := agg.DomainEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, event.EventID(), events[0].EventID())
}

func TestBaseAggregateRoot_ClearDomainEvents(t *testing.T) {
	agg := newTestAggregate("Test")
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))

	assert.Len(t, agg.DomainEvents(), 2)

	agg.ClearDomainEvents()

	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_IncrementVersion(t *testing.T) {
	agg := newTestAggregate("Test")

	assert.Equal(t, 0, agg.Version())

	agg.IncrementVersion()
	assert.Equal(t, 1, agg.Version())

	agg.IncrementVersion()
	assert.Equal(t, 2, agg.Version())
}

func TestBaseAggregateRoot_Rehydrate(t *testing.T) {
	original := newTestAggregate("Test")
	original.AddDomainEvent(newTestAggregateEvent(original.ID()))

	rehydrated := domain.RehydrateBaseAggregateRoot(
		domain.RehydrateBaseEntity(original.ID(), original.CreatedAt(), original.UpdatedAt()),
		7,
	)

	assert.Equal(t, original.ID(), rehydrated.ID())
	assert.Equal(t, 7, rehydrated.Version())
	assert.Empty(t, rehydrated.DomainEvents())
}

func TestBaseEvent_Metadata(t *testing.T) {
	event := newTestAggregateEvent(uuid.New())

	assert.Equal(t, "TestAggregate", event.AggregateType())
	assert.Equal(t, "test.aggregate.created", event.RoutingKey())
	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.False(t, event.OccurredAt().IsZero())

	meta := domain.EventMetadata{
		CorrelationID: uuid.New(),
		Actor:         "qa.lopez",
	}
	event.SetMetadata(meta)

	assert.Equal(t, meta.CorrelationID, event.Metadata().CorrelationID)
	assert.Equal(t, "qa.lopez", event.Metadata().Actor)
}
