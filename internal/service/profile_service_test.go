package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/wallify/internal/models"
	"github.com/digkill/wallify/internal/repository/memstore"
)

func newProfiles(t *testing.T) (*ProfileService, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	require.NoError(t, signupUser(store, "alice"))
	require.NoError(t, signupUser(store, "bob"))
	return NewProfileService(discardLogger(), store.Users(), store.Images(), store.Favorites(), newFakeStorage()), store
}

func TestViewOwnProfile(t *testing.T) {
	profiles, store := newProfiles(t)
	ctx := context.Background()
	require.NoError(t, store.Images().Create(ctx, models.Image{Key: "mine.jpg", Description: "lake", Username: "alice"}))
	require.NoError(t, store.Favorites().Add(ctx, "alice", "other.jpg"))

	view, err := profiles.View(ctx, "alice", "")
	require.NoError(t, err)
	assert.True(t, view.CanEdit)
	assert.Equal(t, "alice", view.User.Username)
	assert.Equal(t, "alice@example.com", view.User.Email)
	assert.Empty(t, view.User.PasswordHash)
	require.Len(t, view.Uploads, 1)
	assert.Equal(t, "https://cdn.test/images/mine.jpg", view.Uploads[0].URL)
	require.Len(t, view.Favorites, 1)
	assert.Equal(t, "other.jpg", view.Favorites[0].Key)
}

func TestViewOtherProfile(t *testing.T) {
	profiles, _ := newProfiles(t)
	ctx := context.Background()

	view, err := profiles.View(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, view.CanEdit)

	_, err = profiles.View(ctx, "alice", "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = profiles.View(ctx, "", "bob")
	assert.True(t, errors.Is(err, ErrAuth))
}

func TestUpdatePicture(t *testing.T) {
	profiles, store := newProfiles(t)
	ctx := context.Background()

	err := profiles.UpdatePicture(ctx, "alice", "bob", pngPixel)
	assert.True(t, errors.Is(err, ErrForbidden))

	err = profiles.UpdatePicture(ctx, "alice", "alice", []byte("plain text"))
	assert.True(t, errors.Is(err, ErrValidation))

	require.NoError(t, profiles.UpdatePicture(ctx, "alice", "", pngPixel))
	pic, err := store.Users().PictureByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, pngPixel, pic)
}

func TestPictureLookup(t *testing.T) {
	profiles, store := newProfiles(t)
	ctx := context.Background()

	bob, err := store.Users().FindByUsername(ctx, "bob")
	require.NoError(t, err)

	pic, err := profiles.PictureByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "image/png", pic.ContentType)

	pic, err = profiles.PictureByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, defaultProfilePicture, pic.Data)

	_, err = profiles.PictureByID(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = profiles.PictureByUsername(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUnfavorite(t *testing.T) {
	profiles, store := newProfiles(t)
	ctx := context.Background()
	require.NoError(t, store.Favorites().Add(ctx, "alice", "a.jpg"))

	require.NoError(t, profiles.Unfavorite(ctx, "alice", "a.jpg"))
	keys, err := store.Favorites().ListKeys(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.True(t, errors.Is(profiles.Unfavorite(ctx, "alice", "a.jpg"), ErrNotFound))
	assert.True(t, errors.Is(profiles.Unfavorite(ctx, "", "a.jpg"), ErrAuth))
}
