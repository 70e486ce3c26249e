package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ridecircle/backend/commuter"
)

// Manager ties a session store to the commuter directory.
type Manager struct {
	store     Store
	directory commuter.Directory
}

func NewManager(store Store, directory commuter.Directory) *Manager {
	return &Manager{store: store, directory: directory}
}

// NewSessionID returns a fresh opaque session id.
func NewSessionID() string {
	return uuid.NewString()
}

func (m *Manager) Load(ctx context.Context, sessionID string) (commuter.Profile, error) {
	return m.store.Load(ctx, sessionID)
}

// Save stores p as the session's current profile, replacing any previous
// one, and upserts it into the directory. The profile keeps the session's
// id and verified flag; a first save gets a new id and starts unverified.
// The avatar is always derived from the name. The directory is written
// first, so a failed save never leaves a session profile that searches
// and chats cannot find.
func (m *Manager) Save(ctx context.Context, sessionID string, p commuter.Profile) (commuter.Profile, error) {
	p.ProfileImage = ""
	current, err := m.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		p.ID = current.ID
		p.Verified = current.Verified
	case errors.Is(err, ErrNotFound):
		p.ID = uuid.NewString()
		p.Verified = false
	default:
		return commuter.Profile{}, err
	}
	p.Normalize()

	if err := m.directory.Save(ctx, p); err != nil {
		return commuter.Profile{}, fmt.Errorf("directory upsert: %w", err)
	}
	if err := m.store.Save(ctx, sessionID, p); err != nil {
		return commuter.Profile{}, err
	}
	return p, nil
}

// Clear forgets the session's profile. The directory entry stays.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.store.Clear(ctx, sessionID)
}
