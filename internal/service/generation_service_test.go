package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/wallify/internal/repository/memstore"
)

type generationFixture struct {
	store     *memstore.Store
	storage   *fakeStorage
	generator *fakeGenerator
	svc       *GenerationService
}

func newGenerationFixture(t *testing.T) *generationFixture {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngPixel)
	}))
	t.Cleanup(srv.Close)

	store := memstore.New()
	require.NoError(t, signupUser(store, "alice"))

	f := &generationFixture{
		store:     store,
		storage:   newFakeStorage(),
		generator: &fakeGenerator{url: srv.URL + "/out.png"},
	}
	f.svc = NewGenerationService(discardLogger(), store.Users(), store.Generations(), store.Images(), f.storage, f.generator, 3)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC) }
	return f
}

func TestGenerateQuotaPerDay(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := f.svc.Generate(ctx, "alice", "misty forest", "")
		require.NoError(t, err)
		assert.Equal(t, i, res.UsedToday)
	}

	_, err := f.svc.Generate(ctx, "alice", "misty forest", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.Contains(t, err.Error(), "3 images per day")
	assert.Equal(t, 3, f.generator.calls)

	f.svc.now = func() time.Time { return time.Date(2026, 10, 17, 0, 0, 1, 0, time.UTC) }
	_, err = f.svc.Generate(ctx, "alice", "misty forest", "")
	require.NoError(t, err)
}

func TestGeneratePremiumBypassesQuota(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()
	_, err := f.store.Users().SetPremium(ctx, "alice")
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		res, err := f.svc.Generate(ctx, "alice", "neon city", "16:9")
		require.NoError(t, err)
		assert.True(t, res.Premium)
	}
}

func TestGenerateMirrorsIntoGallery(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	res, err := f.svc.Generate(ctx, "alice", "misty forest", "1:1")
	require.NoError(t, err)
	assert.Empty(t, res.MirrorError)
	assert.Equal(t, "1:1", f.generator.last.AspectRatio)
	assert.True(t, strings.HasPrefix(res.MirrorKey, "ai/alice/20261016_093000_"), res.MirrorKey)
	assert.True(t, strings.HasSuffix(res.MirrorKey, ".png"), res.MirrorKey)
	assert.Equal(t, pngPixel, f.storage.objects[res.MirrorKey])

	owned, err := f.store.Images().ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "misty forest, ai-generated, AI, AI generated", owned[0].Description)

	gens := f.store.Generations().All()
	require.Len(t, gens, 1)
	assert.Equal(t, res.ImageURL, gens[0].ImageURL)
}

func TestGenerateMirrorFailureIsReported(t *testing.T) {
	f := newGenerationFixture(t)
	f.generator.url = strings.Replace(f.generator.url, "/out.png", "/missing.png", 1)

	res, err := f.svc.Generate(context.Background(), "alice", "misty forest", "")
	require.NoError(t, err)
	assert.Contains(t, res.MirrorError, "status=404")
	assert.Empty(t, res.MirrorKey)
	assert.Len(t, f.store.Generations().All(), 1)
}

// cancelAwareGenerations fails writes on a cancelled context the way a SQL driver does.
type cancelAwareGenerations struct {
	GenerationStore
}

func (g cancelAwareGenerations) Complete(ctx context.Context, id int64, imageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.GenerationStore.Complete(ctx, id, imageURL)
}

func TestGenerateFinishesAfterCallerDisconnects(t *testing.T) {
	f := newGenerationFixture(t)
	f.svc.generations = cancelAwareGenerations{GenerationStore: f.store.Generations()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.generator.done = cancel

	res, err := f.svc.Generate(ctx, "alice", "misty forest", "")
	require.NoError(t, err)
	assert.Empty(t, res.MirrorError)
	assert.NotEmpty(t, res.MirrorKey)

	gens := f.store.Generations().All()
	require.Len(t, gens, 1)
	assert.Equal(t, res.ImageURL, gens[0].ImageURL)
}

func TestGenerateProviderFailureReleasesSlot(t *testing.T) {
	f := newGenerationFixture(t)
	f.generator.err = errors.New("prediction failed: NSFW")

	_, err := f.svc.Generate(context.Background(), "alice", "misty forest", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))
	assert.Empty(t, f.store.Generations().All())

	status, err := f.svc.Status(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, status.UsedToday)
	assert.Equal(t, 3, status.Remaining)
}

func TestGenerateValidation(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, "", "x", "")
	assert.True(t, errors.Is(err, ErrAuth))

	_, err = f.svc.Generate(ctx, "alice", "   ", "")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.svc.Generate(ctx, "alice", "x", "5:4")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = f.svc.Generate(ctx, "ghost", "x", "")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Zero(t, f.generator.calls)
}

func TestGenerationStatus(t *testing.T) {
	f := newGenerationFixture(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.svc.Generate(ctx, "alice", "x", "")
		require.NoError(t, err)
	}
	status, err := f.svc.Status(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, QuotaStatus{UsedToday: 2, Limit: 3, Remaining: 1}, *status)
}
