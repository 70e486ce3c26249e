package commuter

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(ps []Profile) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

// exerciseDirectory runs the Directory contract against an empty store.
func exerciseDirectory(t *testing.T, d Directory) {
	ctx := context.Background()

	a := validProfile()
	a.ID = "a"
	b := validProfile()
	b.ID = "b"
	b.Name = "Noah Kim"

	require.NoError(t, d.Save(ctx, a))
	require.NoError(t, d.Save(ctx, b))

	t.Run("All keeps insertion order", func(t *testing.T) {
		all, err := d.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(all))
	})

	t.Run("Save replaces the whole record in place", func(t *testing.T) {
		replaced := a
		replaced.Bio = "Replaced bio for the test."
		replaced.Interests = []string{"Yoga"}
		require.NoError(t, d.Save(ctx, replaced))

		got, err := d.Get(ctx, "a")
		require.NoError(t, err)
		if diff := cmp.Diff(replaced, got); diff != "" {
			t.Errorf("Get mismatch (-want +got):\n%s", diff)
		}

		all, err := d.All(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(all))
	})

	t.Run("Unknown id is ErrNotFound", func(t *testing.T) {
		_, err := d.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("GetMany follows the requested order", func(t *testing.T) {
		got, err := d.GetMany(ctx, []string{"b", "missing", "a"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "b", got[0].ID)
		assert.Nil(t, got[1])
		assert.Equal(t, "a", got[2].ID)
	})

	t.Run("Save without id fails", func(t *testing.T) {
		assert.Error(t, d.Save(ctx, Profile{Name: "No Id"}))
	})
}

func TestMemoryDirectory(t *testing.T) {
	exerciseDirectory(t, NewMemoryDirectory())

	t.Run("Returned profiles do not alias the store", func(t *testing.T) {
		ctx := context.Background()
		p := validProfile()
		p.ID = "x"
		d := NewMemoryDirectory(p)

		got, err := d.Get(ctx, "x")
		require.NoError(t, err)
		got.Interests[0] = "Changed"

		again, err := d.Get(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, "Coffee", again.Interests[0])
	})
}

func TestPostgresDirectory(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	d := NewPostgresDirectory(db)
	require.NoError(t, d.EnsureSchema(ctx))
	require.NoError(t, d.SaveAll(ctx, nil, true))

	exerciseDirectory(t, d)

	t.Run("SaveAll inserts a generated population", func(t *testing.T) {
		require.NoError(t, d.SaveAll(ctx, Generate(testRegistry(t), 1, 1), true))
		all, err := d.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 42)
		assert.Equal(t, "1", all[0].ID)
	})
}
