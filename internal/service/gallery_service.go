package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/digkill/wallify/internal/metrics"
	"github.com/digkill/wallify/internal/models"
	"github.com/digkill/wallify/internal/repository"
)

// ErrImageExists means another image already owns the uploaded file name.
var ErrImageExists = fmt.Errorf("%w: an image with that file name already exists", ErrPersistence)

const (
	DefaultSearchQuery = "4k wallpapers"
	topSearchesLimit   = 10
)

// GalleryImage is an image entry resolved to its public URL.
type GalleryImage struct {
	Key         string
	URL         string
	Description string
	Username    string
}

type SearchResult struct {
	Query       string
	Images      []GalleryImage
	TopSearches []models.SearchTerm
}

type GalleryService struct {
	log       *slog.Logger
	images    ImageStore
	favorites FavoriteStore
	searches  SearchLogStore
	storage   ObjectStorage
}

func NewGalleryService(log *slog.Logger, images ImageStore, favorites FavoriteStore, searches SearchLogStore, storage ObjectStorage) *GalleryService {
	return &GalleryService{
		log:       log,
		images:    images,
		favorites: favorites,
		searches:  searches,
		storage:   storage,
	}
}

// Search returns images whose description contains every keyword of query
// and bumps the frequency counter for the trimmed query.
func (s *GalleryService) Search(ctx context.Context, query string) (*SearchResult, error) {
	term := strings.TrimSpace(query)
	if term == "" {
		term = DefaultSearchQuery
	}

	found, err := s.images.Search(ctx, strings.Fields(term))
	if err != nil {
		return nil, fmt.Errorf("%w: search images: %v", ErrPersistence, err)
	}
	metrics.Searches.Inc()

	if err := s.searches.Increment(ctx, term); err != nil {
		s.log.Error("failed to record search term", "term", term, "err", err)
	}
	top, err := s.searches.Top(ctx, topSearchesLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: top searches: %v", ErrPersistence, err)
	}

	return &SearchResult{
		Query:       term,
		Images:      s.resolve(found),
		TopSearches: top,
	}, nil
}

// Favorite is idempotent: favoriting twice keeps one pair.
func (s *GalleryService) Favorite(ctx context.Context, username, imageKey string) error {
	if username == "" {
		return fmt.Errorf("%w: sign in to save favorites", ErrAuth)
	}
	imageKey = strings.TrimSpace(imageKey)
	if imageKey == "" {
		return fmt.Errorf("%w: image key is required", ErrValidation)
	}
	if err := s.favorites.Add(ctx, username, imageKey); err != nil {
		return fmt.Errorf("%w: add favorite: %v", ErrPersistence, err)
	}
	return nil
}

// Upload stores a user-supplied image under its base file name.
func (s *GalleryService) Upload(ctx context.Context, owner, filename, description string, data []byte) (*GalleryImage, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: sign in to upload images", ErrAuth)
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image file is required", ErrValidation)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: file is not an image (%s)", ErrValidation, mt.String())
	}

	// The row claims the key before any bytes reach the bucket.
	img := models.Image{Key: name, Description: strings.TrimSpace(description), Username: owner}
	if err := s.images.Create(ctx, img); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrImageExists
		}
		return nil, fmt.Errorf("%w: record image: %v", ErrPersistence, err)
	}
	url, err := s.storage.Upload(ctx, name, data, mt.String())
	if err != nil {
		if delErr := s.images.Delete(context.WithoutCancel(ctx), name); delErr != nil {
			s.log.Error("failed to drop image row after upload failure", "key", name, "err", delErr)
		}
		return nil, fmt.Errorf("%w: store image: %v", ErrPersistence, err)
	}
	s.log.Info("image uploaded", "key", name, "username", owner, "content_type", mt.String(), "bytes", len(data))

	return &GalleryImage{Key: name, URL: url, Description: img.Description, Username: owner}, nil
}

func (s *GalleryService) resolve(images []models.Image) []GalleryImage {
	out := make([]GalleryImage, 0, len(images))
	for _, img := range images {
		out = append(out, GalleryImage{
			Key:         img.Key,
			URL:         s.storage.PublicURL(img.Key),
			Description: img.Description,
			Username:    img.Username,
		})
	}
	return out
}
