package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/shared/infrastructure/outbox"
)

// testTxKey marks the fake transaction context handed out by the mocked
// unit of work.
type testTxKey struct{}

// mockRecordRepo is a mock implementation of record.Repository.
type mockRecordRepo struct {
	mock.Mock
}

func (m *mockRecordRepo) Save(ctx context.Context, rec *record.QualityRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockRecordRepo) FindByID(ctx context.Context, id uuid.UUID) (*record.QualityRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*record.QualityRecord), args.Error(1)
}

func (m *mockRecordRepo) List(ctx context.Context, filter record.Filter) ([]*record.QualityRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*record.QualityRecord), args.Error(1)
}

func (m *mockRecordRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRecordRepo) CompareAndSwapStatus(ctx context.Context, rec *record.QualityRecord, expected lifecycle.Status) error {
	args := m.Called(ctx, rec, expected)
	return args.Error(0)
}

// mockOutboxRepo is a mock implementation of outbox.Repository.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, err, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetFailed(ctx context.Context, maxRetries, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, maxRetries, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockApprovalGate is a mock implementation of ApprovalGate.
type mockApprovalGate struct {
	mock.Mock
}

func (m *mockApprovalGate) IsAuthorized(ctx context.Context, actor string, edge lifecycle.TransitionEdge) (bool, error) {
	args := m.Called(ctx, actor, edge)
	return args.Bool(0), args.Error(1)
}

func TestCreateRecordHandler_Handle(t *testing.T) {
	t.Run("successfully creates record with minimal fields", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		recordRepo.On("Save", txCtx, mock.AnythingOfType("*record.QualityRecord")).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		cmd := CreateRecordCommand{
			Kind:  lifecycle.KindNCR,
			Title: "Scratched housing on lot 42",
			Actor: "qa.lopez",
		}

		result, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.NotEqual(t, uuid.Nil, result.RecordID)
		assert.Equal(t, lifecycle.StatusDraft, result.Status)

		uow.AssertExpectations(t)
		recordRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("successfully creates record with all fields", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)

		var saved *record.QualityRecord
		recordRepo.On("Save", txCtx, mock.AnythingOfType("*record.QualityRecord")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*record.QualityRecord)
			}).
			Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(nil)

		cmd := CreateRecordCommand{
			Kind:        lifecycle.KindSCAR,
			Title:       "Late delivery of machined brackets",
			Description: "Third late shipment this quarter",
			Severity:    "major",
			Owner:       "qa.lopez",
			Supplier:    "Acme Machining",
			PartNumber:  "BRK-1142",
			LotNumbers:  []string{"L-88", "L-91"},
			Tags:        []string{"delivery", "supplier"},
			Actor:       "qa.lopez",
		}

		result, err := handler.Handle(ctx, cmd)

		require.NoError(t, err)
		require.NotNil(t, result)
		require.NotNil(t, saved)
		assert.Equal(t, lifecycle.KindSCAR, saved.Kind())
		assert.Equal(t, record.SeverityMajor, saved.Severity())
		assert.Equal(t, "Acme Machining", saved.Supplier())
		assert.Equal(t, []string{"L-88", "L-91"}, saved.LotNumbers())

		uow.AssertExpectations(t)
		recordRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("fails with empty title", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		cmd := CreateRecordCommand{
			Kind:  lifecycle.KindNCR,
			Title: "",
			Actor: "qa.lopez",
		}

		result, err := handler.Handle(ctx, cmd)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, record.ErrEmptyTitle)

		uow.AssertExpectations(t)
	})

	t.Run("fails with unknown kind", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		cmd := CreateRecordCommand{
			Kind:  lifecycle.Kind("RMA"),
			Title: "Returned unit",
			Actor: "qa.lopez",
		}

		result, err := handler.Handle(ctx, cmd)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, lifecycle.ErrUnknownKind)

		uow.AssertExpectations(t)
	})

	t.Run("fails with invalid severity", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)

		cmd := CreateRecordCommand{
			Kind:     lifecycle.KindCAPA,
			Title:    "Recurring solder defects",
			Severity: "catastrophic",
			Actor:    "qa.lopez",
		}

		result, err := handler.Handle(ctx, cmd)

		assert.Error(t, err)
		assert.Nil(t, result)

		uow.AssertExpectations(t)
	})

	t.Run("fails when unit of work begin fails", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

		ctx := context.Background()

		uow.On("Begin", ctx).Return(ctx, errors.New("database connection error"))

		cmd := CreateRecordCommand{
			Kind:  lifecycle.KindNCR,
			Title: "Scratched housing",
			Actor: "qa.lopez",
		}

		result, err := handler.Handle(ctx, cmd)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "database connection error")

		uow.AssertExpectations(t)
	})

	t.Run("fails when record repository save fails", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		recordRepo.On("Save", txCtx, mock.AnythingOfType("*record.QualityRecord")).Return(errors.New("database error"))

		cmd := CreateRecordCommand{
			Kind:  lifecycle.KindNCR,
			Title: "Scratched housing",
			Actor: "qa.lopez",
		}

		result, err := handler.Handle(ctx, cmd)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "database error")

		uow.AssertExpectations(t)
		recordRepo.AssertExpectations(t)
	})

	t.Run("fails when outbox save fails", func(t *testing.T) {
		recordRepo := new(mockRecordRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

		ctx := context.Background()
		txCtx := context.WithValue(ctx, testTxKey{}, "transaction")

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Rollback", txCtx).Return(nil)
		recordRepo.On("Save", txCtx, mock.AnythingOfType("*record.QualityRecord")).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.AnythingOfType("[]*outbox.Message")).Return(errors.New("outbox error"))

		cmd := CreateRecordCommand{
			Kind:  lifecycle.KindNCR,
			Title: "Scratched housing",
			Actor: "qa.lopez",
		}

		result, err := handler.Handle(ctx, cmd)

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Contains(t, err.Error(), "outbox error")

		uow.AssertExpectations(t)
		recordRepo.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})
}

func TestNewCreateRecordHandler(t *testing.T) {
	recordRepo := new(mockRecordRepo)
	outboxRepo := new(mockOutboxRepo)
	uow := new(mockUnitOfWork)

	handler := NewCreateRecordHandler(recordRepo, outboxRepo, uow)

	require.NotNil(t, handler)
}
