package service

import (
	"context"
	"time"

	"github.com/digkill/wallify/internal/billing"
	"github.com/digkill/wallify/internal/models"
	"github.com/digkill/wallify/internal/replicate"
	"github.com/digkill/wallify/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	PictureByID(ctx context.Context, id int64) ([]byte, error)
	PictureByUsername(ctx context.Context, username string) ([]byte, error)
	UpdatePicture(ctx context.Context, username string, data []byte) error
	IsPremium(ctx context.Context, username string) (bool, error)
	SetPremium(ctx context.Context, username string) (bool, error)
}

type ImageStore interface {
	Create(ctx context.Context, img models.Image) error
	Delete(ctx context.Context, key string) error
	Search(ctx context.Context, keywords []string) ([]models.Image, error)
	ListByUser(ctx context.Context, username string) ([]models.Image, error)
}

type FavoriteStore interface {
	Add(ctx context.Context, username, imageKey string) error
	Remove(ctx context.Context, username, imageKey string) (bool, error)
	ListKeys(ctx context.Context, username string) ([]string, error)
}

type SearchLogStore interface {
	Increment(ctx context.Context, term string) error
	Top(ctx context.Context, limit int) ([]models.SearchTerm, error)
}

type GenerationStore interface {
	Reserve(ctx context.Context, gen models.AIGeneration, dailyLimit int) (*repository.Reservation, error)
	Complete(ctx context.Context, id int64, imageURL string) error
	Release(ctx context.Context, id int64) error
	CountForDay(ctx context.Context, username string, day time.Time) (int, error)
}

type SupportStore interface {
	CreateThread(ctx context.Context, thread *models.SupportThread, first *models.ThreadMessage) (*models.SupportThread, error)
	GetThread(ctx context.Context, id int64) (*models.SupportThread, error)
	ListThreads(ctx context.Context, filter models.ThreadFilter, limit, offset int) ([]models.SupportThread, error)
	CountThreads(ctx context.Context, filter models.ThreadFilter) (int, error)
	Messages(ctx context.Context, threadID int64) ([]models.ThreadMessage, error)
	AddMessage(ctx context.Context, msg *models.ThreadMessage) error
	UpdateStatus(ctx context.Context, id int64, status models.ThreadStatus) error
	DeleteThread(ctx context.Context, id int64) error
}

type PaymentStore interface {
	Record(ctx context.Context, payment *models.Payment) error
	FindBySession(ctx context.Context, provider, sessionID string) (*models.Payment, error)
}

// ObjectStorage stores blobs under keys relative to the image prefix.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PublicURL(key string) string
}

type ImageGenerator interface {
	Generate(ctx context.Context, opts replicate.GenerateOptions) (*replicate.Image, error)
}

type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*billing.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*billing.Event, error)
}

var (
	_ UserStore       = (*repository.UserRepository)(nil)
	_ ImageStore      = (*repository.ImageRepository)(nil)
	_ FavoriteStore   = (*repository.FavoriteRepository)(nil)
	_ SearchLogStore  = (*repository.SearchLogRepository)(nil)
	_ GenerationStore = (*repository.GenerationRepository)(nil)
	_ SupportStore    = (*repository.SupportRepository)(nil)
	_ PaymentStore    = (*repository.PaymentRepository)(nil)
)
