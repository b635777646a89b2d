package patients

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	repo.now = func() time.Time { return fixedNow.Add(time.Minute) }

	older := newTestPatient(t)
	older.CreatedAt = fixedNow.Add(-time.Hour)
	newer := newTestPatient(t)
	other := newTestPatient(t)

	require.NoError(t, repo.Insert(ctx, DefaultOwnerKey, older))
	require.NoError(t, repo.Insert(ctx, DefaultOwnerKey, newer))
	require.NoError(t, repo.Insert(ctx, "someone-else", other))

	list, err := repo.LoadAll(ctx, DefaultOwnerKey)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, older.ID}, ids(list))

	updated, err := repo.Update(ctx, newer.ID, Patch{Contact: strPtr("010")})
	require.NoError(t, err)
	assert.Equal(t, "010", updated.Contact)
	assert.Equal(t, fixedNow.Add(time.Minute), updated.UpdatedAt)

	updated.Contact = "changed outside"
	got, err := repo.Get(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "010", got.Contact, "returned records are copies")

	require.NoError(t, repo.Delete(ctx, newer.ID))
	_, err = repo.Get(ctx, newer.ID)
	assert.ErrorIs(t, err, ErrPatientNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, newer.ID), ErrPatientNotFound)
	_, err = repo.Update(ctx, newer.ID, Patch{Contact: strPtr("1")})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
