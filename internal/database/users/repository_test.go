package users

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
	dbPath := "./test_users_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.User{}))

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role entities.UserRole) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestRepository_List(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestUser(t, db, "alice", entities.UserRoleReader)
	createTestUser(t, db, "bob", entities.UserRoleStaff)

	users, total, err := repo.List(10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)

	users, _, err = repo.List(1, 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestRepository_GetByID(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice", entities.UserRoleReader)

	loaded, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Username)

	_, err = repo.GetByID(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_UpdateRole(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice", entities.UserRoleReader)

	old, updated, err := repo.UpdateRole(user.ID, entities.UserRoleStaff)
	require.NoError(t, err)
	assert.Equal(t, entities.UserRoleReader, old.Role)
	assert.Equal(t, entities.UserRoleStaff, updated.Role)

	var persisted entities.User
	require.NoError(t, db.First(&persisted, user.ID).Error)
	assert.Equal(t, entities.UserRoleStaff, persisted.Role)
}

func TestRepository_UpdateRole_Invalid(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := createTestUser(t, db, "alice", entities.UserRoleReader)

	_, _, err := repo.UpdateRole(user.ID, "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, _, err = repo.UpdateRole(999, entities.UserRoleStaff)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
