package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridecircle/backend/commuter"
)

func sample() commuter.Profile {
	return commuter.Profile{
		Name:          "Noah Kim",
		Age:           31,
		Gender:        "Male",
		From:          "Etobicoke",
		To:            "Downtown Toronto",
		Bio:           "Professional seeking reliable carpool partners.",
		Interests:     []string{"Music", "Books"},
		CommuteTime:   "8:00 AM",
		RouteDistance: "20 km",
	}
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	sid := uuid.NewString()

	t.Run("Unknown session is ErrNotFound", func(t *testing.T) {
		_, err := s.Load(ctx, sid)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Save then load", func(t *testing.T) {
		p := sample()
		p.ID = "abc"
		require.NoError(t, s.Save(ctx, sid, p))
		got, err := s.Load(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	})

	t.Run("Save is a full replace", func(t *testing.T) {
		p := commuter.Profile{ID: "abc", Name: "Only Name"}
		require.NoError(t, s.Save(ctx, sid, p))
		got, err := s.Load(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, "Only Name", got.Name)
		assert.Empty(t, got.Interests)
	})

	t.Run("Clear removes the record", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx, sid))
		_, err := s.Load(ctx, sid)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Clearing twice is fine", func(t *testing.T) {
		assert.NoError(t, s.Clear(ctx, sid))
	})
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	require.NoError(t, client.Ping(context.Background()).Err())

	exerciseStore(t, NewRedisStore(client, time.Minute))
}

type failingStore struct{ Store }

func (failingStore) Load(context.Context, string) (commuter.Profile, error) {
	return commuter.Profile{}, errors.New("store down")
}

type failingDirectory struct{ *commuter.MemoryDirectory }

func (failingDirectory) Save(context.Context, commuter.Profile) error {
	return errors.New("db down")
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("First save assigns an id and mirrors into the directory", func(t *testing.T) {
		dir := commuter.NewMemoryDirectory()
		m := NewManager(NewMemoryStore(), dir)

		in := sample()
		in.ID = "client-chosen"
		in.Verified = true
		saved, err := m.Save(ctx, "s1", in)
		require.NoError(t, err)

		_, perr := uuid.Parse(saved.ID)
		assert.NoError(t, perr)
		assert.False(t, saved.Verified)
		assert.Equal(t, commuter.AvatarURL("Noah Kim"), saved.ProfileImage)
		assert.Equal(t, commuter.AnyGender, saved.PreferredGender)

		fromDir, err := dir.Get(ctx, saved.ID)
		require.NoError(t, err)
		assert.Equal(t, saved, fromDir)

		loaded, err := m.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, saved, loaded)
	})

	t.Run("Re-save keeps id and verified flag", func(t *testing.T) {
		dir := commuter.NewMemoryDirectory()
		store := NewMemoryStore()
		m := NewManager(store, dir)

		first, err := m.Save(ctx, "s1", sample())
		require.NoError(t, err)

		// an administrator verified the profile in the meantime
		first.Verified = true
		require.NoError(t, store.Save(ctx, "s1", first))

		edit := sample()
		edit.Name = "Noah K."
		edit.Verified = false
		second, err := m.Save(ctx, "s1", edit)
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.Verified)
		assert.Equal(t, commuter.AvatarURL("Noah K."), second.ProfileImage)

		all, err := dir.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Noah K.", all[0].Name)
	})

	t.Run("Clear keeps the directory entry", func(t *testing.T) {
		dir := commuter.NewMemoryDirectory()
		m := NewManager(NewMemoryStore(), dir)

		saved, err := m.Save(ctx, "s1", sample())
		require.NoError(t, err)
		require.NoError(t, m.Clear(ctx, "s1"))

		_, err = m.Load(ctx, "s1")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = dir.Get(ctx, saved.ID)
		assert.NoError(t, err)
	})

	t.Run("Store failure aborts the save", func(t *testing.T) {
		dir := commuter.NewMemoryDirectory()
		m := NewManager(failingStore{NewMemoryStore()}, dir)
		_, err := m.Save(ctx, "s1", sample())
		assert.Error(t, err)
		all, _ := dir.All(ctx)
		assert.Empty(t, all)
	})

	t.Run("Directory failure leaves the session untouched", func(t *testing.T) {
		store := NewMemoryStore()
		m := NewManager(store, failingDirectory{commuter.NewMemoryDirectory()})

		_, err := m.Save(ctx, "s1", sample())
		assert.ErrorContains(t, err, "directory upsert")
		_, err = m.Load(ctx, "s1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Directory failure keeps the previous session profile", func(t *testing.T) {
		store := NewMemoryStore()
		first, err := NewManager(store, commuter.NewMemoryDirectory()).Save(ctx, "s1", sample())
		require.NoError(t, err)

		edit := sample()
		edit.Name = "Someone Else"
		_, err = NewManager(store, failingDirectory{commuter.NewMemoryDirectory()}).Save(ctx, "s1", edit)
		require.Error(t, err)

		loaded, err := store.Load(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, first, loaded)
	})
}
