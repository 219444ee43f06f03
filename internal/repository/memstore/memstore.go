// Package memstore keeps every table in process memory. It mirrors the
// MySQL repositories closely enough to back service and handler tests.
package memstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/digkill/wallify/internal/models"
	"github.com/digkill/wallify/internal/repository"
)

type Store struct {
	mu          sync.RWMutex
	nextUserID  int64
	users       map[string]*models.User
	images      []models.Image
	favorites   []favorite
	searches    map[string]int
	nextGenID   int64
	generations map[int64]models.AIGeneration
	nextThread  int64
	threads     map[int64]*models.SupportThread
	nextMessage int64
	messages    []models.ThreadMessage
	payments    map[string]*models.Payment
}

type favorite struct {
	username string
	imageKey string
}

func New() *Store {
	return &Store{
		users:       make(map[string]*models.User),
		searches:    make(map[string]int),
		generations: make(map[int64]models.AIGeneration),
		threads:     make(map[int64]*models.SupportThread),
		payments:    make(map[string]*models.Payment),
	}
}

func (s *Store) Users() *Users             { return &Users{s} }
func (s *Store) Images() *Images           { return &Images{s} }
func (s *Store) Favorites() *Favorites     { return &Favorites{s} }
func (s *Store) SearchLogs() *SearchLogs   { return &SearchLogs{s} }
func (s *Store) Generations() *Generations { return &Generations{s} }
func (s *Store) Support() *Support         { return &Support{s} }
func (s *Store) Payments() *Payments       { return &Payments{s} }

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *models.User) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if _, ok := u.s.users[user.Username]; ok {
		return nil, repository.ErrDuplicate
	}
	u.s.nextUserID++
	user.ID = u.s.nextUserID
	stored := *user
	stored.HasPicture = len(stored.Picture) > 0
	u.s.users[user.Username] = &stored
	return user, nil
}

func (u *Users) FindByUsername(_ context.Context, username string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[username]
	if !ok {
		return nil, nil
	}
	cp := *user
	cp.Picture = nil
	return &cp, nil
}

func (u *Users) PictureByID(_ context.Context, id int64) ([]byte, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if user.ID == id {
			return user.Picture, nil
		}
	}
	return nil, nil
}

func (u *Users) PictureByUsername(_ context.Context, username string) ([]byte, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	if user, ok := u.s.users[username]; ok {
		return user.Picture, nil
	}
	return nil, nil
}

func (u *Users) UpdatePicture(_ context.Context, username string, data []byte) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user, ok := u.s.users[username]; ok {
		user.Picture = data
		user.HasPicture = len(data) > 0
	}
	return nil
}

func (u *Users) IsPremium(_ context.Context, username string) (bool, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	if user, ok := u.s.users[username]; ok {
		return user.Premium, nil
	}
	return false, nil
}

func (u *Users) SetPremium(_ context.Context, username string) (bool, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[username]
	if !ok {
		return false, nil
	}
	user.Premium = true
	return true, nil
}

type Images struct{ s *Store }

func (i *Images) Create(_ context.Context, img models.Image) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	for _, existing := range i.s.images {
		if existing.Key == img.Key {
			return repository.ErrDuplicate
		}
	}
	i.s.images = append(i.s.images, img)
	return nil
}

func (i *Images) Delete(_ context.Context, key string) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	i.s.images = slices.DeleteFunc(i.s.images, func(img models.Image) bool { return img.Key == key })
	return nil
}

func (i *Images) Search(_ context.Context, keywords []string) ([]models.Image, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	var out []models.Image
	for idx := len(i.s.images) - 1; idx >= 0; idx-- {
		img := i.s.images[idx]
		desc := strings.ToLower(img.Description)
		match := true
		for _, kw := range keywords {
			if !strings.Contains(desc, strings.ToLower(kw)) {
				match = false
				break
			}
		}
		if match {
			out = append(out, img)
		}
	}
	return out, nil
}

func (i *Images) ListByUser(_ context.Context, username string) ([]models.Image, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	var out []models.Image
	for idx := len(i.s.images) - 1; idx >= 0; idx-- {
		if i.s.images[idx].Username == username {
			out = append(out, i.s.images[idx])
		}
	}
	return out, nil
}

type Favorites struct{ s *Store }

func (f *Favorites) Add(_ context.Context, username, imageKey string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, fav := range f.s.favorites {
		if fav.username == username && fav.imageKey == imageKey {
			return nil
		}
	}
	f.s.favorites = append(f.s.favorites, favorite{username: username, imageKey: imageKey})
	return nil
}

func (f *Favorites) Remove(_ context.Context, username, imageKey string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for idx, fav := range f.s.favorites {
		if fav.username == username && fav.imageKey == imageKey {
			f.s.favorites = append(f.s.favorites[:idx], f.s.favorites[idx+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *Favorites) ListKeys(_ context.Context, username string) ([]string, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	var keys []string
	for _, fav := range f.s.favorites {
		if fav.username == username {
			keys = append(keys, fav.imageKey)
		}
	}
	return keys, nil
}

type SearchLogs struct{ s *Store }

func (l *SearchLogs) Increment(_ context.Context, term string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.searches[term]++
	return nil
}

func (l *SearchLogs) Top(_ context.Context, limit int) ([]models.SearchTerm, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	terms := make([]models.SearchTerm, 0, len(l.s.searches))
	for term, count := range l.s.searches {
		terms = append(terms, models.SearchTerm{Term: term, Count: count})
	}
	sort.Slice(terms, func(a, b int) bool {
		if terms[a].Count != terms[b].Count {
			return terms[a].Count > terms[b].Count
		}
		return terms[a].Term < terms[b].Term
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms, nil
}

type Generations struct{ s *Store }

func (g *Generations) Reserve(_ context.Context, gen models.AIGeneration, dailyLimit int) (*repository.Reservation, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	user, ok := g.s.users[gen.Username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	used := g.countLocked(gen.Username, gen.CreatedAt)
	if !user.Premium && used >= dailyLimit {
		return nil, repository.ErrQuotaExceeded
	}
	g.s.nextGenID++
	gen.ID = g.s.nextGenID
	g.s.generations[gen.ID] = gen
	return &repository.Reservation{ID: gen.ID, Premium: user.Premium, UsedToday: used + 1}, nil
}

func (g *Generations) Complete(_ context.Context, id int64, imageURL string) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if gen, ok := g.s.generations[id]; ok {
		gen.ImageURL = imageURL
		g.s.generations[id] = gen
	}
	return nil
}

func (g *Generations) Release(_ context.Context, id int64) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	delete(g.s.generations, id)
	return nil
}

func (g *Generations) CountForDay(_ context.Context, username string, day time.Time) (int, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()
	return g.countLocked(username, day), nil
}

func (g *Generations) countLocked(username string, day time.Time) int {
	y, m, d := day.UTC().Date()
	count := 0
	for _, gen := range g.s.generations {
		gy, gm, gd := gen.CreatedAt.UTC().Date()
		if gen.Username == username && gy == y && gm == m && gd == d {
			count++
		}
	}
	return count
}

// All returns every stored generation, oldest first.
func (g *Generations) All() []models.AIGeneration {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()
	out := make([]models.AIGeneration, 0, len(g.s.generations))
	for _, gen := range g.s.generations {
		out = append(out, gen)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

type Support struct{ s *Store }

func (sp *Support) CreateThread(_ context.Context, thread *models.SupportThread, first *models.ThreadMessage) (*models.SupportThread, error) {
	sp.s.mu.Lock()
	defer sp.s.mu.Unlock()
	sp.s.nextThread++
	thread.ID = sp.s.nextThread
	stored := *thread
	sp.s.threads[thread.ID] = &stored

	sp.s.nextMessage++
	first.ID = sp.s.nextMessage
	first.ThreadID = thread.ID
	sp.s.messages = append(sp.s.messages, *first)
	return thread, nil
}

func (sp *Support) GetThread(_ context.Context, id int64) (*models.SupportThread, error) {
	sp.s.mu.RLock()
	defer sp.s.mu.RUnlock()
	t, ok := sp.s.threads[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (sp *Support) ListThreads(_ context.Context, filter models.ThreadFilter, limit, offset int) ([]models.SupportThread, error) {
	sp.s.mu.RLock()
	defer sp.s.mu.RUnlock()
	matched := sp.filterLocked(filter)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (sp *Support) CountThreads(_ context.Context, filter models.ThreadFilter) (int, error) {
	sp.s.mu.RLock()
	defer sp.s.mu.RUnlock()
	return len(sp.filterLocked(filter)), nil
}

func (sp *Support) filterLocked(filter models.ThreadFilter) []models.SupportThread {
	q := strings.ToLower(strings.TrimSpace(filter.Query))
	var out []models.SupportThread
	for _, t := range sp.s.threads {
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) && !sp.messageMatchesLocked(t.ID, q) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID > out[b].ID
	})
	return out
}

func (sp *Support) messageMatchesLocked(threadID int64, q string) bool {
	for _, m := range sp.s.messages {
		if m.ThreadID == threadID && strings.Contains(strings.ToLower(m.Content), q) {
			return true
		}
	}
	return false
}

func (sp *Support) Messages(_ context.Context, threadID int64) ([]models.ThreadMessage, error) {
	sp.s.mu.RLock()
	defer sp.s.mu.RUnlock()
	var out []models.ThreadMessage
	for _, m := range sp.s.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (sp *Support) AddMessage(_ context.Context, msg *models.ThreadMessage) error {
	sp.s.mu.Lock()
	defer sp.s.mu.Unlock()
	sp.s.nextMessage++
	msg.ID = sp.s.nextMessage
	sp.s.messages = append(sp.s.messages, *msg)
	return nil
}

func (sp *Support) UpdateStatus(_ context.Context, id int64, status models.ThreadStatus) error {
	sp.s.mu.Lock()
	defer sp.s.mu.Unlock()
	if t, ok := sp.s.threads[id]; ok {
		t.Status = status
	}
	return nil
}

func (sp *Support) DeleteThread(_ context.Context, id int64) error {
	sp.s.mu.Lock()
	defer sp.s.mu.Unlock()
	delete(sp.s.threads, id)
	kept := sp.s.messages[:0]
	for _, m := range sp.s.messages {
		if m.ThreadID != id {
			kept = append(kept, m)
		}
	}
	sp.s.messages = kept
	return nil
}

type Payments struct{ s *Store }

func (p *Payments) Record(_ context.Context, payment *models.Payment) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	key := payment.Provider + "/" + payment.CheckoutSessionID
	cp := *payment
	if existing, ok := p.s.payments[key]; ok {
		cp.ID = existing.ID
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.ID = int64(len(p.s.payments) + 1)
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = time.Now().UTC()
	p.s.payments[key] = &cp
	return nil
}

func (p *Payments) FindBySession(_ context.Context, provider, sessionID string) (*models.Payment, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()
	if existing, ok := p.s.payments[provider+"/"+sessionID]; ok {
		cp := *existing
		return &cp, nil
	}
	return nil, nil
}
