package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/session"
)

func TestWriteProfiles(t *testing.T) {
	profiles := commuter.Generate(location.Default(), 7, 1)
	var buf bytes.Buffer
	require.NoError(t, writeProfiles(&buf, profiles))

	var got []commuter.Profile
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, profiles, got)
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
}

func TestOpenStoresInMemory(t *testing.T) {
	ctx := context.Background()
	cfg := Config{DirectorySeed: 1, DirectoryPerRoute: 2}

	dir, closeDir, err := openDirectory(ctx, cfg, location.Default())
	require.NoError(t, err)
	defer closeDir()
	all, err := dir.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 84)

	store, closeStore, err := openSessionStore(ctx, cfg)
	require.NoError(t, err)
	defer closeStore()
	_, err = store.Load(ctx, "nobody")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
