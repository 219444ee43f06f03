package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/digkill/wallify/internal/models"
)

const ThreadsPerPage = 10

type CreateThreadInput struct {
	Title    string `validate:"required,max=200"`
	Category string `validate:"required,oneof=technical order general feedback"`
	Content  string `validate:"required"`
}

type ThreadPage struct {
	Threads    []models.SupportThread
	Filter     models.ThreadFilter
	Page       int
	TotalPages int
	Total      int
}

func (p *ThreadPage) HasPrevious() bool { return p.Page > 1 }
func (p *ThreadPage) HasNext() bool     { return p.Page < p.TotalPages }

type ThreadDetail struct {
	Thread   models.SupportThread
	Messages []models.ThreadMessage
}

type SupportService struct {
	log      *slog.Logger
	threads  SupportStore
	validate *validator.Validate
	now      func() time.Time
}

func NewSupportService(log *slog.Logger, threads SupportStore) *SupportService {
	return &SupportService{
		log:      log,
		threads:  threads,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// List pages through threads matching filter, newest first. Out-of-range
// pages are clamped to the first or last page.
func (s *SupportService) List(ctx context.Context, filter models.ThreadFilter, page int) (*ThreadPage, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, filter.Category)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}

	total, err := s.threads.CountThreads(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: count threads: %v", ErrPersistence, err)
	}
	totalPages := max((total+ThreadsPerPage-1)/ThreadsPerPage, 1)
	page = min(max(page, 1), totalPages)

	threads, err := s.threads.ListThreads(ctx, filter, ThreadsPerPage, (page-1)*ThreadsPerPage)
	if err != nil {
		return nil, fmt.Errorf("%w: list threads: %v", ErrPersistence, err)
	}
	return &ThreadPage{
		Threads:    threads,
		Filter:     filter,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// Create opens a thread with its first message.
func (s *SupportService) Create(ctx context.Context, author string, in CreateThreadInput) (*models.SupportThread, error) {
	if author == "" {
		return nil, fmt.Errorf("%w: sign in to contact support", ErrAuth)
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.Content = strings.TrimSpace(in.Content)
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	now := s.now().UTC()
	thread, err := s.threads.CreateThread(ctx,
		&models.SupportThread{
			Title:          in.Title,
			AuthorUsername: author,
			Category:       models.ThreadCategory(in.Category),
			Status:         models.ThreadOpen,
			CreatedAt:      now,
		},
		&models.ThreadMessage{
			AuthorUsername: author,
			Content:        in.Content,
			CreatedAt:      now,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create thread: %v", ErrPersistence, err)
	}
	s.log.Info("support thread created", "thread_id", thread.ID, "author", author, "category", thread.Category)
	return thread, nil
}

func (s *SupportService) Detail(ctx context.Context, id int64) (*ThreadDetail, error) {
	thread, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	messages, err := s.threads.Messages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: load messages: %v", ErrPersistence, err)
	}
	return &ThreadDetail{Thread: *thread, Messages: messages}, nil
}

// Reply appends a message. Blank content is ignored.
func (s *SupportService) Reply(ctx context.Context, author string, id int64, content string) error {
	if author == "" {
		return fmt.Errorf("%w: sign in to reply", ErrAuth)
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	err := s.threads.AddMessage(ctx, &models.ThreadMessage{
		ThreadID:       id,
		AuthorUsername: author,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%w: add message: %v", ErrPersistence, err)
	}
	return nil
}

// SetStatus moves the thread to any state; only its author may do so.
func (s *SupportService) SetStatus(ctx context.Context, actor string, id int64, status string) error {
	next := models.ThreadStatus(status)
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	thread, err := s.authored(ctx, actor, id)
	if err != nil {
		return err
	}
	if thread.Status == next {
		return nil
	}
	if err := s.threads.UpdateStatus(ctx, id, next); err != nil {
		return fmt.Errorf("%w: update status: %v", ErrPersistence, err)
	}
	s.log.Info("support thread status changed", "thread_id", id, "from", thread.Status, "to", next)
	return nil
}

func (s *SupportService) Delete(ctx context.Context, actor string, id int64) error {
	if _, err := s.authored(ctx, actor, id); err != nil {
		return err
	}
	if err := s.threads.DeleteThread(ctx, id); err != nil {
		return fmt.Errorf("%w: delete thread: %v", ErrPersistence, err)
	}
	s.log.Info("support thread deleted", "thread_id", id, "author", actor)
	return nil
}

func (s *SupportService) authored(ctx context.Context, actor string, id int64) (*models.SupportThread, error) {
	if actor == "" {
		return nil, fmt.Errorf("%w: sign in to manage threads", ErrAuth)
	}
	thread, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if thread.AuthorUsername != actor {
		return nil, fmt.Errorf("%w: only the author can change this thread", ErrForbidden)
	}
	return thread, nil
}

func (s *SupportService) find(ctx context.Context, id int64) (*models.SupportThread, error) {
	thread, err := s.threads.GetThread(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: load thread: %v", ErrPersistence, err)
	}
	if thread == nil {
		return nil, fmt.Errorf("%w: thread %d", ErrNotFound, id)
	}
	return thread, nil
}
