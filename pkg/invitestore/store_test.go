package invitestore

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardpost/guardpost/pkg/observability"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invites.json")
	return New(path, observability.NewLogger(observability.ErrorLevel, io.Discard), nil)
}

func TestStore_LoadMissingFileReturnsEmpty(t *testing.T) {
	store := newTestStore(t)

	invites, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, invites)

	// Unlike the credential store, no skeleton is written
	_, err = os.Stat(store.path)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_SaveAndLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	invites := map[string]Invitation{
		"tok-abc": {
			Email:       "bob@example.com",
			Groups:      []string{"users"},
			DisplayName: "Bob",
			CreatedAt:   now,
			ExpiresAt:   now.Add(time.Hour),
		},
	}
	require.NoError(t, store.Save(invites))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Contains(t, loaded, "tok-abc")
	assert.Equal(t, "bob@example.com", loaded["tok-abc"].Email)
	assert.True(t, loaded["tok-abc"].ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestStore_MalformedContentResetsToEmpty(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.path, []byte("{not json"), 0600))

	invites, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, invites)
}

func TestInvitation_Expired(t *testing.T) {
	now := time.Now()
	inv := Invitation{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, inv.Expired(now))
	assert.True(t, inv.Expired(now.Add(2*time.Minute)))
}
