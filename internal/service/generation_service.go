package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/digkill/wallify/internal/metrics"
	"github.com/digkill/wallify/internal/models"
	"github.com/digkill/wallify/internal/replicate"
	"github.com/digkill/wallify/internal/repository"
	"github.com/digkill/wallify/internal/storage"
)

const (
	DefaultAspectRatio = "9:16"
	mirrorTimeout      = 30 * time.Second
	maxMirrorBytes     = 50 << 20
	aiDescriptionTags  = ", ai-generated, AI, AI generated"
)

var AspectRatios = []string{"1:1", "3:4", "4:3", "16:9", "9:16", "2:3", "3:2", "21:9"}

type GenerationService struct {
	log         *slog.Logger
	users       UserStore
	generations GenerationStore
	images      ImageStore
	storage     ObjectStorage
	generator   ImageGenerator
	dailyLimit  int
	fetch       *http.Client
	now         func() time.Time
}

type GenerationResult struct {
	ImageURL    string
	Prompt      string
	AspectRatio string
	MirrorKey   string
	MirrorURL   string
	MirrorError string
	UsedToday   int
	Limit       int
	Premium     bool
}

type QuotaStatus struct {
	UsedToday int
	Limit     int
	Remaining int
	Premium   bool
}

func NewGenerationService(log *slog.Logger, users UserStore, generations GenerationStore, images ImageStore, objects ObjectStorage, generator ImageGenerator, dailyLimit int) *GenerationService {
	return &GenerationService{
		log:         log,
		users:       users,
		generations: generations,
		images:      images,
		storage:     objects,
		generator:   generator,
		dailyLimit:  dailyLimit,
		fetch:       &http.Client{Timeout: mirrorTimeout},
		now:         time.Now,
	}
}

// Generate reserves a quota slot, calls the provider and mirrors the result
// into the gallery. The slot is released when the provider fails; a failed
// mirror is reported in the result without failing the generation.
func (s *GenerationService) Generate(ctx context.Context, username, prompt, aspectRatio string) (*GenerationResult, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: sign in to generate images", ErrAuth)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrValidation)
	}
	aspectRatio = strings.TrimSpace(aspectRatio)
	if aspectRatio == "" {
		aspectRatio = DefaultAspectRatio
	}
	if !slices.Contains(AspectRatios, aspectRatio) {
		return nil, fmt.Errorf("%w: aspect ratio must be one of %s", ErrValidation, strings.Join(AspectRatios, ", "))
	}

	reservation, err := s.generations.Reserve(ctx, models.AIGeneration{
		Username:    username,
		Prompt:      prompt,
		AspectRatio: aspectRatio,
		CreatedAt:   s.now().UTC(),
	}, s.dailyLimit)
	switch {
	case errors.Is(err, repository.ErrQuotaExceeded):
		metrics.RecordGeneration("quota_exceeded", 0)
		return nil, fmt.Errorf("%w: free accounts can generate %d images per day", ErrQuotaExceeded, s.dailyLimit)
	case errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, username)
	case err != nil:
		return nil, fmt.Errorf("%w: reserve generation: %v", ErrPersistence, err)
	}

	started := time.Now()
	image, err := s.generator.Generate(ctx, replicate.GenerateOptions{Prompt: prompt, AspectRatio: aspectRatio})
	if err != nil {
		metrics.RecordGeneration("failure", time.Since(started))
		if relErr := s.generations.Release(context.WithoutCancel(ctx), reservation.ID); relErr != nil {
			s.log.Error("failed to release generation slot", "generation_id", reservation.ID, "err", relErr)
		}
		s.log.Error("image generation failed", "username", username, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	metrics.RecordGeneration("success", time.Since(started))

	// Completion and mirroring outlive a disconnected caller.
	detached := context.WithoutCancel(ctx)
	if err := s.generations.Complete(detached, reservation.ID, image.URL); err != nil {
		s.log.Error("failed to store generation url", "generation_id", reservation.ID, "err", err)
	}

	result := &GenerationResult{
		ImageURL:    image.URL,
		Prompt:      prompt,
		AspectRatio: aspectRatio,
		UsedToday:   reservation.UsedToday,
		Limit:       s.dailyLimit,
		Premium:     reservation.Premium,
	}

	key, url, err := s.mirror(detached, username, prompt, image.URL)
	if err != nil {
		s.log.Warn("failed to mirror generated image", "username", username, "source", image.URL, "err", err)
		result.MirrorError = err.Error()
	} else {
		result.MirrorKey = key
		result.MirrorURL = url
	}
	return result, nil
}

// Status reports today's usage for the quota widget.
func (s *GenerationService) Status(ctx context.Context, username string) (*QuotaStatus, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: sign in to generate images", ErrAuth)
	}
	premium, err := s.users.IsPremium(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: premium flag: %v", ErrPersistence, err)
	}
	used, err := s.generations.CountForDay(ctx, username, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: count generations: %v", ErrPersistence, err)
	}

	status := &QuotaStatus{UsedToday: used, Limit: s.dailyLimit, Premium: premium}
	if !premium {
		status.Remaining = max(s.dailyLimit-used, 0)
	}
	return status, nil
}

// mirror copies the provider's output into our bucket and the gallery.
func (s *GenerationService) mirror(ctx context.Context, username, prompt, sourceURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.fetch.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("download generated image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("download generated image: status=%d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMirrorBytes))
	if err != nil {
		return "", "", fmt.Errorf("read generated image: %w", err)
	}
	if len(data) == 0 {
		return "", "", errors.New("generated image is empty")
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(contentType, "image/") {
		contentType = mimetype.Detect(data).String()
	}

	key := storage.GeneratedKey(username, s.now(), contentType)
	url, err := s.storage.Upload(ctx, key, data, contentType)
	if err != nil {
		return "", "", fmt.Errorf("upload generated image: %w", err)
	}
	if err := s.images.Create(ctx, models.Image{
		Key:         key,
		Description: prompt + aiDescriptionTags,
		Username:    username,
	}); err != nil {
		return "", "", fmt.Errorf("record generated image: %w", err)
	}
	return key, url, nil
}
