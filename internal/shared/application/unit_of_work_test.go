package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/shared/application"
)

type fakeUnitOfWork struct {
	beginErr   error
	began      bool
	committed  bool
	rolledBack bool
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if f.beginErr != nil {
		return ctx, f.beginErr
	}
	f.began = true
	return ctx, nil
}

func (f *fakeUnitOfWork) Commit(ctx context.Context) error {
	f.committed = true
	return nil
}

func (f *fakeUnitOfWork) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

func TestWithUnitOfWork_CommitsOnSuccess(t *testing.T) {
	uow := &fakeUnitOfWork{}

	err := application.WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.True(t, uow.began)
	assert.True(t, uow.committed)
	assert.False(t, uow.rolledBack)
}

func TestWithUnitOfWork_RollsBackOnError(t *testing.T) {
	uow := &fakeUnitOfWork{}
	boom := errors.New("boom")

	err := application.WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	assert.True(t, uow.rolledBack)
	assert.False(t, uow.committed)
}

func TestWithUnitOfWork_BeginFailure(t *testing.T) {
	uow := &fakeUnitOfWork{beginErr: errors.New("no connection")}
	called := false

	err := application.WithUnitOfWork(context.Background(), uow, func(ctx context.Context) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, called)
	assert.False(t, uow.committed)
}
