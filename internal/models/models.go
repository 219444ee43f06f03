package models

import "time"

type ThreadStatus string

const (
	ThreadOpen     ThreadStatus = "open"
	ThreadResolved ThreadStatus = "resolved"
	ThreadClosed   ThreadStatus = "closed"
)

func (s ThreadStatus) Valid() bool {
	switch s {
	case ThreadOpen, ThreadResolved, ThreadClosed:
		return true
	}
	return false
}

type ThreadCategory string

const (
	CategoryTechnical ThreadCategory = "technical"
	CategoryOrder     ThreadCategory = "order"
	CategoryGeneral   ThreadCategory = "general"
	CategoryFeedback  ThreadCategory = "feedback"
)

func (c ThreadCategory) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryOrder, CategoryGeneral, CategoryFeedback:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Picture      []byte
	HasPicture   bool
	Premium      bool
	CreatedAt    time.Time
}

// Image is a gallery entry. Key is relative to the storage prefix.
type Image struct {
	Key         string
	Description string
	Username    string
}

type SearchTerm struct {
	Term  string
	Count int
}

type AIGeneration struct {
	ID          int64
	Username    string
	Prompt      string
	ImageURL    string
	AspectRatio string
	CreatedAt   time.Time
}

type SupportThread struct {
	ID             int64
	Title          string
	AuthorUsername string
	Category       ThreadCategory
	Status         ThreadStatus
	CreatedAt      time.Time
}

type ThreadMessage struct {
	ID             int64
	ThreadID       int64
	AuthorUsername string
	Content        string
	IsAdminReply   bool
	CreatedAt      time.Time
}

// ThreadFilter narrows a support listing. Zero values mean "any".
type ThreadFilter struct {
	Query    string
	Category ThreadCategory
	Status   ThreadStatus
}

type PaymentSource string

const (
	PaymentSourceWebhook PaymentSource = "webhook"
	PaymentSourceReturn  PaymentSource = "return"
)

type Payment struct {
	ID                int64
	Username          string
	Provider          string
	CheckoutSessionID string
	Status            string
	Source            PaymentSource
	RawPayload        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
