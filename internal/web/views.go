package web

import (
	"fmt"
	"time"

	"github.com/digkill/wallify/internal/models"
	"github.com/digkill/wallify/internal/service"
)

type imageView struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Username    string `json:"username,omitempty"`
}

type termView struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

type userView struct {
	ID                   int64  `json:"id"`
	Username             string `json:"username"`
	FirstName            string `json:"first_name"`
	LastName             string `json:"last_name"`
	Email                string `json:"email"`
	PictureURL           string `json:"picture_url"`
	PictureByUsernameURL string `json:"picture_by_username_url"`
	Premium              bool   `json:"is_premium"`
}

type threadView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type messageView struct {
	ID           int64     `json:"id"`
	Author       string    `json:"author"`
	Content      string    `json:"content"`
	IsAdminReply bool      `json:"is_admin_reply"`
	CreatedAt    time.Time `json:"created_at"`
}

func imageViews(images []service.GalleryImage) []imageView {
	out := make([]imageView, 0, len(images))
	for _, img := range images {
		out = append(out, imageView{Key: img.Key, URL: img.URL, Description: img.Description, Username: img.Username})
	}
	return out
}

func termViews(terms []models.SearchTerm) []termView {
	out := make([]termView, 0, len(terms))
	for _, t := range terms {
		out = append(out, termView{Term: t.Term, Count: t.Count})
	}
	return out
}

func newUserView(u models.User) userView {
	return userView{
		ID:                   u.ID,
		Username:             u.Username,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Email:                u.Email,
		PictureURL:           fmt.Sprintf("/profile_picture/%d", u.ID),
		PictureByUsernameURL: "/profile-picture/" + u.Username,
		Premium:              u.Premium,
	}
}

func newThreadView(t models.SupportThread) threadView {
	return threadView{
		ID:        t.ID,
		Title:     t.Title,
		Author:    t.AuthorUsername,
		Category:  string(t.Category),
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
}

func threadViews(threads []models.SupportThread) []threadView {
	out := make([]threadView, 0, len(threads))
	for _, t := range threads {
		out = append(out, newThreadView(t))
	}
	return out
}

func messageViews(messages []models.ThreadMessage) []messageView {
	out := make([]messageView, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageView{
			ID:           m.ID,
			Author:       m.AuthorUsername,
			Content:      m.Content,
			IsAdminReply: m.IsAdminReply,
			CreatedAt:    m.CreatedAt,
		})
	}
	return out
}
