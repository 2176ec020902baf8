package persistence_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veritrail/veritrail/internal/quality/domain/lifecycle"
	"github.com/veritrail/veritrail/internal/quality/domain/record"
	"github.com/veritrail/veritrail/internal/quality/infrastructure/persistence"
)

func newStoredRecord(t *testing.T, repo record.Repository, kind lifecycle.Kind, title string) *record.QualityRecord {
	t.Helper()

	rec, err := record.NewRecord(kind, title)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), rec))
	return rec
}

func TestMemoryRecordRepository_SaveAndFindByID(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()
	ctx := context.Background()

	rec, err := record.NewRecord(lifecycle.KindNCR, "Scratched housing on lot 42")
	require.NoError(t, err)
	require.NoError(t, rec.SetSeverity(record.SeverityMajor))
	require.NoError(t, rec.SetOwner("qa.lopez"))
	require.NoError(t, rec.SetPartNumber("HSG-1042"))
	require.NoError(t, rec.SetLotNumbers([]string{"42", "43"}))
	require.NoError(t, rec.SetTags([]string{"surface-finish"}))

	require.NoError(t, repo.Save(ctx, rec))

	found, err := repo.FindByID(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), found.ID())
	assert.Equal(t, lifecycle.KindNCR, found.Kind())
	assert.Equal(t, lifecycle.StatusDraft, found.Status())
	assert.Equal(t, "Scratched housing on lot 42", found.Title())
	assert.Equal(t, record.SeverityMajor, found.Severity())
	assert.Equal(t, "qa.lopez", found.Owner())
	assert.Equal(t, []string{"42", "43"}, found.LotNumbers())
	assert.Equal(t, []string{"surface-finish"}, found.Tags())
	assert.Equal(t, 0, found.Version())
	assert.Nil(t, found.MilestoneDate(lifecycle.DateOpened))
}

func TestMemoryRecordRepository_FindByID_NotFound(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, record.ErrRecordNotFound)
}

func TestMemoryRecordRepository_Save_BumpsVersion(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()
	ctx := context.Background()

	rec := newStoredRecord(t, repo, lifecycle.KindCAPA, "Recurring torque spec misses")

	require.NoError(t, rec.SetDescription("Torque audit findings for Q1"))
	require.NoError(t, repo.Save(ctx, rec))
	assert.Equal(t, 1, rec.Version())

	found, err := repo.FindByID(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, found.Version())
	assert.Equal(t, "Torque audit findings for Q1", found.Description())
}

func TestMemoryRecordRepository_Save_StaleVersionLoses(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()
	ctx := context.Background()

	rec := newStoredRecord(t, repo, lifecycle.KindNCR, "Scratched housing")

	stale, err := repo.FindByID(ctx, rec.ID())
	require.NoError(t, err)

	require.NoError(t, rec.SetOwner("qa.lopez"))
	require.NoError(t, repo.Save(ctx, rec))

	require.NoError(t, stale.SetOwner("qm.okafor"))
	err = repo.Save(ctx, stale)

	assert.ErrorIs(t, err, record.ErrConcurrentModification)

	found, err := repo.FindByID(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, "qa.lopez", found.Owner())
}

func TestMemoryRecordRepository_CompareAndSwapStatus(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()
	ctx := context.Background()

	rec := newStoredRecord(t, repo, lifecycle.KindNCR, "Scratched housing")

	edge, err := lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusDraft, lifecycle.StatusOpen)
	require.NoError(t, err)
	require.NoError(t, rec.ApplyTransition(edge, "qa.lopez", ""))

	require.NoError(t, repo.CompareAndSwapStatus(ctx, rec, lifecycle.StatusDraft))
	assert.Equal(t, 1, rec.Version())

	found, err := repo.FindByID(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusOpen, found.Status())
	assert.NotNil(t, found.MilestoneDate(lifecycle.DateOpened))
}

func TestMemoryRecordRepository_CompareAndSwapStatus_WrongExpected(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()
	ctx := context.Background()

	rec := newStoredRecord(t, repo, lifecycle.KindNCR, "Scratched housing")

	edge, err := lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusDraft, lifecycle.StatusOpen)
	require.NoError(t, err)
	require.NoError(t, rec.ApplyTransition(edge, "qa.lopez", ""))

	err = repo.CompareAndSwapStatus(ctx, rec, lifecycle.StatusOpen)

	assert.ErrorIs(t, err, record.ErrConcurrentModification)

	found, err := repo.FindByID(ctx, rec.ID())
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusDraft, found.Status())
}

func TestMemoryRecordRepository_CompareAndSwapStatus_NotFound(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()

	rec, err := record.NewRecord(lifecycle.KindNCR, "Never saved")
	require.NoError(t, err)

	err = repo.CompareAndSwapStatus(context.Background(), rec, lifecycle.StatusDraft)

	assert.ErrorIs(t, err, record.ErrRecordNotFound)
}

// Two writers race the same draft record toward different statuses. Exactly
// one swap may land; the loser must see a conflict and leave no trace.
func TestMemoryRecordRepository_CompareAndSwapStatus_Race(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()
	ctx := context.Background()

	rec := newStoredRecord(t, repo, lifecycle.KindNCR, "Scratched housing")

	targets := []struct {
		to      lifecycle.Status
		comment string
	}{
		{lifecycle.StatusOpen, ""},
		{lifecycle.StatusClosed, "withdrawing duplicate report"},
	}

	var wg sync.WaitGroup
	results := make([]error, len(targets))
	for i, target := range targets {
		wg.Add(1)
		go func(i int, to lifecycle.Status, comment string) {
			defer wg.Done()

			loaded, err := repo.FindByID(ctx, rec.ID())
			if err != nil {
				results[i] = err
				return
			}
			edge, err := lifecycle.Validate(lifecycle.KindNCR, lifecycle.StatusDraft, to)
			if err != nil {
				results[i] = err
				return
			}
			if err := loaded.ApplyTransition(edge, "qa.lopez", comment); err != nil {
				results[i] = err
				return
			}
			results[i] = repo.CompareAndSwapStatus(ctx, loaded, lifecycle.StatusDraft)
		}(i, target.to, target.comment)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, record.ErrConcurrentModification)
		}
	}
	assert.Equal(t, 1, winners)

	found, err := repo.FindByID(ctx, rec.ID())
	require.NoError(t, err)
	assert.NotEqual(t, lifecycle.StatusDraft, found.Status())
	assert.Equal(t, 1, found.Version())
}

func TestMemoryRecordRepository_List(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()
	ctx := context.Background()

	first := newStoredRecord(t, repo, lifecycle.KindNCR, "First NCR")
	time.Sleep(time.Millisecond)
	second := newStoredRecord(t, repo, lifecycle.KindSCAR, "Supplier bracket issue")
	time.Sleep(time.Millisecond)
	third := newStoredRecord(t, repo, lifecycle.KindNCR, "Second NCR")

	all, err := repo.List(ctx, record.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID(), all[0].ID())
	assert.Equal(t, second.ID(), all[1].ID())
	assert.Equal(t, first.ID(), all[2].ID())

	kind := lifecycle.KindNCR
	ncrs, err := repo.List(ctx, record.Filter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, ncrs, 2)
	assert.Equal(t, third.ID(), ncrs[0].ID())

	status := lifecycle.StatusDraft
	limited, err := repo.List(ctx, record.Filter{Status: &status, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, second.ID(), limited[0].ID())
}

func TestMemoryRecordRepository_Delete(t *testing.T) {
	repo := persistence.NewMemoryRecordRepository()
	ctx := context.Background()

	rec := newStoredRecord(t, repo, lifecycle.KindMRB, "Disposition lot 77")

	require.NoError(t, repo.Delete(ctx, rec.ID()))

	_, err := repo.FindByID(ctx, rec.ID())
	assert.ErrorIs(t, err, record.ErrRecordNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, rec.ID()), record.ErrRecordNotFound)
}
