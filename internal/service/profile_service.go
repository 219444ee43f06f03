package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/digkill/wallify/internal/models"
)

type ProfileView struct {
	User      models.User
	Favorites []GalleryImage
	Uploads   []GalleryImage
	CanEdit   bool
}

type Picture struct {
	Data        []byte
	ContentType string
}

type ProfileService struct {
	log       *slog.Logger
	users     UserStore
	images    ImageStore
	favorites FavoriteStore
	storage   ObjectStorage
}

func NewProfileService(log *slog.Logger, users UserStore, images ImageStore, favorites FavoriteStore, storage ObjectStorage) *ProfileService {
	return &ProfileService{
		log:       log,
		users:     users,
		images:    images,
		favorites: favorites,
		storage:   storage,
	}
}

// View loads target's public profile. An empty target means the viewer.
func (s *ProfileService) View(ctx context.Context, viewer, target string) (*ProfileView, error) {
	if viewer == "" {
		return nil, fmt.Errorf("%w: sign in to view profiles", ErrAuth)
	}
	if target == "" {
		target = viewer
	}

	user, err := s.users.FindByUsername(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", ErrPersistence, err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, target)
	}
	user.PasswordHash = ""

	keys, err := s.favorites.ListKeys(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: list favorites: %v", ErrPersistence, err)
	}
	favorites := make([]GalleryImage, 0, len(keys))
	for _, key := range keys {
		favorites = append(favorites, GalleryImage{Key: key, URL: s.storage.PublicURL(key)})
	}

	uploads, err := s.images.ListByUser(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: list uploads: %v", ErrPersistence, err)
	}
	owned := make([]GalleryImage, 0, len(uploads))
	for _, img := range uploads {
		owned = append(owned, GalleryImage{
			Key:         img.Key,
			URL:         s.storage.PublicURL(img.Key),
			Description: img.Description,
			Username:    img.Username,
		})
	}

	return &ProfileView{
		User:      *user,
		Favorites: favorites,
		Uploads:   owned,
		CanEdit:   viewer == target,
	}, nil
}

// UpdatePicture replaces target's picture; only the owner may do it.
func (s *ProfileService) UpdatePicture(ctx context.Context, viewer, target string, data []byte) error {
	if viewer == "" {
		return fmt.Errorf("%w: sign in to edit your profile", ErrAuth)
	}
	if target == "" {
		target = viewer
	}
	if viewer != target {
		return fmt.Errorf("%w: you can only change your own picture", ErrForbidden)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: picture file is required", ErrValidation)
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("%w: picture must be an image", ErrValidation)
	}
	if err := s.users.UpdatePicture(ctx, target, data); err != nil {
		return fmt.Errorf("%w: update picture: %v", ErrPersistence, err)
	}
	s.log.Info("profile picture updated", "username", target, "bytes", len(data))
	return nil
}

func (s *ProfileService) PictureByID(ctx context.Context, id int64) (*Picture, error) {
	data, err := s.users.PictureByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: load picture: %v", ErrPersistence, err)
	}
	return picture(data, fmt.Sprintf("user id %d", id))
}

func (s *ProfileService) PictureByUsername(ctx context.Context, username string) (*Picture, error) {
	data, err := s.users.PictureByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: load picture: %v", ErrPersistence, err)
	}
	return picture(data, username)
}

func picture(data []byte, owner string) (*Picture, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no picture for %s", ErrNotFound, owner)
	}
	return &Picture{Data: data, ContentType: mimetype.Detect(data).String()}, nil
}

func (s *ProfileService) Unfavorite(ctx context.Context, username, imageKey string) error {
	if username == "" {
		return fmt.Errorf("%w: sign in to manage favorites", ErrAuth)
	}
	imageKey = strings.TrimSpace(imageKey)
	if imageKey == "" {
		return fmt.Errorf("%w: image key is required", ErrValidation)
	}
	removed, err := s.favorites.Remove(ctx, username, imageKey)
	if err != nil {
		return fmt.Errorf("%w: remove favorite: %v", ErrPersistence, err)
	}
	if !removed {
		return fmt.Errorf("%w: %s is not in your favorites", ErrNotFound, imageKey)
	}
	return nil
}

// IsPremium reads the stored flag, used to refresh a stale session.
func (s *ProfileService) IsPremium(ctx context.Context, username string) (bool, error) {
	premium, err := s.users.IsPremium(ctx, username)
	if err != nil {
		return false, fmt.Errorf("%w: premium flag: %v", ErrPersistence, err)
	}
	return premium, nil
}
