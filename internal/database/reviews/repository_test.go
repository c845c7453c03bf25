package reviews

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	t.Helper()
	dbPath := "./test_reviews_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Review{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestBook(t *testing.T, db *gorm.DB) *entities.Book {
	t.Helper()
	book := &entities.Book{Title: "Reviewed Book", TotalCopies: 1, AvailableCopies: 1}
	require.NoError(t, db.Create(book).Error)
	return book
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func bookAggregates(t *testing.T, db *gorm.DB, bookID uint) (float64, int64) {
	t.Helper()
	var book entities.Book
	require.NoError(t, db.First(&book, bookID).Error)
	return book.AverageRating, book.ReviewCount
}

func TestRepository_Upsert_CreatesAndRecomputes(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	review, created, err := repo.Upsert(alice.ID, book.ID, 4, "solid")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 4, review.Rating)

	avg, count := bookAggregates(t, db, book.ID)
	assert.Equal(t, 4.0, avg)
	assert.Equal(t, int64(1), count)

	_, created, err = repo.Upsert(bob.ID, book.ID, 2, "not for me")
	require.NoError(t, err)
	assert.True(t, created)

	avg, count = bookAggregates(t, db, book.ID)
	assert.Equal(t, 3.0, avg)
	assert.Equal(t, int64(2), count)
}

func TestRepository_Upsert_SecondSubmissionUpdates(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db)
	user := createTestUser(t, db, "alice")

	_, created, err := repo.Upsert(user.ID, book.ID, 5, "great")
	require.NoError(t, err)
	require.True(t, created)

	_, created, err = repo.Upsert(user.ID, book.ID, 3, "on reflection")
	require.NoError(t, err)
	assert.False(t, created)

	// Still one review per (user, book)
	var count int64
	db.Model(&entities.Review{}).Where("user_id = ? AND book_id = ?", user.ID, book.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	avg, total := bookAggregates(t, db, book.ID)
	assert.Equal(t, 3.0, avg)
	assert.Equal(t, int64(1), total)
}

func TestRepository_Upsert_InvalidRating(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db)
	user := createTestUser(t, db, "alice")

	for _, rating := range []int{0, -1, 6} {
		_, _, err := repo.Upsert(user.ID, book.ID, rating, "")
		assert.ErrorIs(t, err, ErrInvalidRating)
	}
}

func TestRepository_Upsert_BookNotFound(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice")

	_, _, err := repo.Upsert(user.ID, 999, 4, "")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRepository_Delete_Recomputes(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, _, err := repo.Upsert(alice.ID, book.ID, 5, "")
	require.NoError(t, err)
	_, _, err = repo.Upsert(bob.ID, book.ID, 1, "")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(bob.ID, book.ID))

	avg, count := bookAggregates(t, db, book.ID)
	assert.Equal(t, 5.0, avg)
	assert.Equal(t, int64(1), count)

	require.NoError(t, repo.Delete(alice.ID, book.ID))

	avg, count = bookAggregates(t, db, book.ID)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, int64(0), count)
}

func TestRepository_Delete_NotFound(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db)
	user := createTestUser(t, db, "alice")

	err := repo.Delete(user.ID, book.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestRepository_ListByBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db)
	for _, name := range []string{"alice", "bob", "carol"} {
		user := createTestUser(t, db, name)
		_, _, err := repo.Upsert(user.ID, book.ID, 4, "by "+name)
		require.NoError(t, err)
	}

	reviews, total, err := repo.ListByBook(book.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, reviews, 2)
}

func TestRepository_GetByUserAndBook(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := createTestBook(t, db)
	user := createTestUser(t, db, "alice")

	_, err := repo.GetByUserAndBook(user.ID, book.ID)
	assert.ErrorIs(t, err, ErrReviewNotFound)

	_, _, err = repo.Upsert(user.ID, book.ID, 4, "mine")
	require.NoError(t, err)

	review, err := repo.GetByUserAndBook(user.ID, book.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", review.Comment)
}
