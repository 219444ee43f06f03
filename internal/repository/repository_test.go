package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digkill/wallify/internal/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestUserCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallify_users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice'"})

	_, err := repo.Create(context.Background(), &models.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserCreateSetsID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wallify_users")).
		WithArgs("Alice", "", "a@example.com", "alice", "hash", []byte{1}, false).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u, err := repo.Create(context.Background(), &models.User{
		Username: "alice", FirstName: "Alice", Email: "a@example.com", PasswordHash: "hash", Picture: []byte{1},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
}

func TestUserFindByUsernameMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM wallify_users WHERE username = ?")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	u, err := repo.FindByUsername(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserSetPremiumAlreadySet(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE wallify_users SET premium = 1 WHERE username = ?")).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM wallify_users WHERE username = ?")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	ok, err := repo.SetPremium(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuildSearchQueryRequiresEveryKeyword(t *testing.T) {
	query, args := buildSearchQuery([]string{"Blue", "50%_off"})
	assert.Contains(t, query, "WHERE LOWER(description) LIKE ? AND LOWER(description) LIKE ?")
	assert.Equal(t, []any{"%blue%", `%50\%\_off%`}, args)
}

func TestImageSearch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewImageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM images_table WHERE LOWER(description) LIKE ? AND LOWER(description) LIKE ?")).
		WithArgs("%dark%", "%forest%").
		WillReturnRows(sqlmock.NewRows([]string{"image_key", "description", "user"}).
			AddRow("forest.jpg", "Dark Forest at night", "alice"))

	images, err := repo.Search(context.Background(), []string{"dark", "forest"})
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, models.Image{Key: "forest.jpg", Description: "Dark Forest at night", Username: "alice"}, images[0])
}

func TestSearchLogIncrementUpserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSearchLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE search_count = search_count + 1")).
		WithArgs("4k wallpapers").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Increment(context.Background(), "4k wallpapers"))
}

func TestSearchLogTop(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSearchLogRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY search_count DESC, search_term ASC LIMIT ?")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"search_term", "search_count"}).
			AddRow("cats", 5).
			AddRow("dogs", 2))

	terms, err := repo.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []models.SearchTerm{{Term: "cats", Count: 5}, {Term: "dogs", Count: 2}}, terms)
}

func TestImageDelete(t *testing.T) {
	db, mock := newMock(t)
	repo := NewImageRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM images_table WHERE image_key = ?")).
		WithArgs("cat.png").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "cat.png"))
}

func TestFavoriteRemove(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites WHERE username = ? AND image_key = ?")).
		WithArgs("alice", "a.jpg").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.Remove(context.Background(), "alice", "a.jpg")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestReserveRejectsWhenQuotaUsed(t *testing.T) {
	db, mock := newMock(t)
	repo := NewGenerationRepository(db)
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT premium FROM wallify_users WHERE username = ? FOR UPDATE")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"premium"}).AddRow(false))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ai_generations")).
		WithArgs("alice", time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, err := repo.Reserve(context.Background(), models.AIGeneration{Username: "alice", Prompt: "p", AspectRatio: "9:16", CreatedAt: now}, 3)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestReservePremiumBypassesQuota(t *testing.T) {
	db, mock := newMock(t)
	repo := NewGenerationRepository(db)
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"premium"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ai_generations")).
		WithArgs("bob", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ai_generations")).
		WithArgs("bob", "sunset", "16:9", now).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	res, err := repo.Reserve(context.Background(), models.AIGeneration{Username: "bob", Prompt: "sunset", AspectRatio: "16:9", CreatedAt: now}, 3)
	require.NoError(t, err)
	assert.Equal(t, &Reservation{ID: 42, Premium: true, UsedToday: 11}, res)
}

func TestReserveUnknownUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewGenerationRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Reserve(context.Background(), models.AIGeneration{Username: "ghost", CreatedAt: time.Now()}, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateThreadIsTransactional(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSupportRepository(db)
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO support_threads")).
		WithArgs("Help", "alice", now, models.ThreadOpen, models.CategoryTechnical).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO thread_messages")).
		WithArgs(int64(5), "alice", "issue", now, false).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	thread := &models.SupportThread{Title: "Help", AuthorUsername: "alice", Category: models.CategoryTechnical, Status: models.ThreadOpen, CreatedAt: now}
	msg := &models.ThreadMessage{AuthorUsername: "alice", Content: "issue", CreatedAt: now}
	created, err := repo.CreateThread(context.Background(), thread, msg)
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)
	assert.Equal(t, int64(5), msg.ThreadID)
	assert.Equal(t, int64(9), msg.ID)
}

func TestCreateThreadRollsBackOnMessageFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSupportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO support_threads")).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO thread_messages")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := repo.CreateThread(context.Background(), &models.SupportThread{Title: "Help"}, &models.ThreadMessage{Content: "issue"})
	assert.Error(t, err)
}

func TestThreadFilterClause(t *testing.T) {
	where, args := threadFilterClause(models.ThreadFilter{Query: " Login ", Category: models.CategoryTechnical, Status: models.ThreadOpen})
	assert.Contains(t, where, "LOWER(t.title) LIKE ?")
	assert.Contains(t, where, "t.category = ?")
	assert.Contains(t, where, "t.status = ?")
	assert.Equal(t, []any{"%login%", "%login%", models.CategoryTechnical, models.ThreadOpen}, args)

	where, args = threadFilterClause(models.ThreadFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestListThreadsAppliesPaging(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSupportRepository(db)
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT ? OFFSET ?")).
		WithArgs(models.ThreadOpen, 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author_username", "category", "status", "created_at"}).
			AddRow(int64(1), "Help", "alice", "technical", "open", now))

	threads, err := repo.ListThreads(context.Background(), models.ThreadFilter{Status: models.ThreadOpen}, 10, 20)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, models.CategoryTechnical, threads[0].Category)
	assert.Equal(t, models.ThreadOpen, threads[0].Status)
}

func TestPaymentRecordUpserts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON DUPLICATE KEY UPDATE status = VALUES(status)")).
		WithArgs("alice", "stripe", "cs_1", "complete", models.PaymentSourceWebhook, "{}").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Record(context.Background(), &models.Payment{
		Username: "alice", Provider: "stripe", CheckoutSessionID: "cs_1", Status: "complete", Source: models.PaymentSourceWebhook, RawPayload: "{}",
	})
	require.NoError(t, err)
}
