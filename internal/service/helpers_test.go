package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/digkill/wallify/internal/billing"
	"github.com/digkill/wallify/internal/replicate"
	"github.com/digkill/wallify/internal/repository/memstore"
)

// pngPixel is a valid 1x1 PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x60, 0x00, 0x02, 0x00,
	0x00, 0x05, 0x00, 0x01, 0x7a, 0x5e, 0xab, 0x3f, 0x00, 0x00, 0x00, 0x00,
	0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStorage) Upload(_ context.Context, key string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return f.PublicURL(key), nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/images/" + key
}

type fakeGenerator struct {
	url   string
	err   error
	calls int
	last  replicate.GenerateOptions
	// done runs after the prediction finishes, before Generate returns.
	done func()
}

func (f *fakeGenerator) Generate(_ context.Context, opts replicate.GenerateOptions) (*replicate.Image, error) {
	f.calls++
	f.last = opts
	if f.done != nil {
		f.done()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &replicate.Image{URL: f.url, PredictionID: "p1"}, nil
}

type fakeGateway struct {
	webhook  *billing.Gateway
	request  billing.CheckoutRequest
	session  *billing.CheckoutSession
	err      error
	lookedUp string
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	f.request = req
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*billing.CheckoutSession, error) {
	f.lookedUp = id
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakeGateway) ParseWebhook(payload []byte, signature string) (*billing.Event, error) {
	if f.webhook == nil {
		return nil, errors.New("webhook gateway not configured")
	}
	return f.webhook.ParseWebhook(payload, signature)
}

// signupUser creates an account through the auth service with a cheap hash.
func signupUser(store *memstore.Store, username string) error {
	auth := NewAuthService(discardLogger(), store.Users())
	auth.hashCost = 4
	_, err := auth.Signup(context.Background(), SignupInput{
		Username:        username,
		Password:        "secret",
		ConfirmPassword: "secret",
		Email:           username + "@example.com",
	})
	return err
}
