package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgemunganga/sweetshop/internal/modules/user"
)

var amy = user.User{ID: "u-1", Name: "Amy", Email: "amy@x.com", Role: user.RoleAdmin}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryRepository())

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, Record{Token: "tok", User: amy}))
	rec, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.Token)
	assert.Equal(t, amy, rec.User)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLoadCorrupt(t *testing.T) {
	ctx := context.Background()
	cases := map[string]map[string]string{
		"token only":       {KeyToken: "tok"},
		"user only":        {KeyUser: `{"id":"u-1","role":"admin"}`},
		"bad json":         {KeyToken: "tok", KeyUser: `{"id":`},
		"unknown role":     {KeyToken: "tok", KeyUser: `{"id":"u-1","role":"root"}`},
		"blank token":      {KeyToken: "  ", KeyUser: `{"id":"u-1","role":"admin"}`},
		"missing identity": {KeyToken: "tok", KeyUser: `{"role":"customer"}`},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			repo := NewMemoryRepository()
			for k, v := range values {
				require.NoError(t, repo.Put(ctx, k, v))
			}
			_, err := NewStore(repo).Load(ctx)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryRepository())
	assert.Error(t, store.Save(ctx, Record{Token: "", User: amy}))
	assert.Error(t, store.Save(ctx, Record{Token: "tok", User: user.User{ID: "u-1", Role: "root"}}))
}

type failingRepo struct {
	Repository
	failPut string
}

func (f *failingRepo) Put(ctx context.Context, key, value string) error {
	if key == f.failPut {
		return errors.New("disk full")
	}
	return f.Repository.Put(ctx, key, value)
}

func TestStoreSaveTokenFailureLeavesNothingBehind(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryRepository()
	store := NewStore(&failingRepo{Repository: inner, failPut: KeyToken})

	err := store.Save(ctx, Record{Token: "tok", User: amy})
	require.Error(t, err)

	_, err = inner.Get(ctx, KeyUser)
	assert.ErrorIs(t, err, ErrNotFound)
}
