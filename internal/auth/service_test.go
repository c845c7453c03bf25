package auth

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
)

func setupTestService(t *testing.T) (*gorm.DB, *Service, func()) {
	t.Helper()
	dbPath := "./test_auth_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&entities.User{}))

	service := NewService(db, config.Auth{
		Mode:             config.AuthModeLocal,
		BcryptCost:       bcrypt.MinCost,
		TokenExpiry:      time.Hour,
		MaxLoginAttempts: 3,
		LockoutDuration:  30 * time.Minute,
	})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, service, cleanup
}

func TestService_CreateUser(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleReader)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, entities.UserRoleReader, user.Role)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "a-long-password", user.PasswordHash)
}

func TestService_CreateUser_Duplicate(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleReader)
	require.NoError(t, err)

	_, err = service.CreateUser("alice", "other@example.com", "a-long-password", entities.UserRoleReader)
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = service.CreateUser("alice2", "alice@example.com", "a-long-password", entities.UserRoleReader)
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestService_CreateUser_Validation(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.CreateUser("", "a@example.com", "a-long-password", entities.UserRoleReader)
	assert.ErrorIs(t, err, ErrUsernameRequired)

	_, err = service.CreateUser("ab", "a@example.com", "a-long-password", entities.UserRoleReader)
	assert.ErrorIs(t, err, ErrUsernameInvalid)

	_, err = service.CreateUser("has spaces", "a@example.com", "a-long-password", entities.UserRoleReader)
	assert.ErrorIs(t, err, ErrUsernameInvalid)

	_, err = service.CreateUser("alice", "not-an-email", "a-long-password", entities.UserRoleReader)
	assert.ErrorIs(t, err, ErrEmailInvalid)

	_, err = service.CreateUser("alice", "a@example.com", "short", entities.UserRoleReader)
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = service.CreateUser("alice", "a@example.com", "a-long-password", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestService_Authenticate(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	created, err := service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleStaff)
	require.NoError(t, err)

	user, err := service.Authenticate("alice", "a-long-password")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.Equal(t, entities.UserRoleStaff, user.Role)

	// Email also works as the identifier
	user, err = service.Authenticate("alice@example.com", "a-long-password")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = service.Authenticate("alice", "wrong-password-here")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = service.Authenticate("nobody", "a-long-password")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_Authenticate_Lockout(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleReader)
	require.NoError(t, err)

	// MaxLoginAttempts is 3 in the test config
	for i := 0; i < 3; i++ {
		_, err = service.Authenticate("alice", "wrong-password-here")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	}

	var locked entities.User
	require.NoError(t, db.First(&locked, user.ID).Error)
	require.NotNil(t, locked.LockedUntil)
	assert.True(t, locked.LockedUntil.After(time.Now()))

	// Even the correct password is rejected while locked
	_, err = service.Authenticate("alice", "a-long-password")
	assert.ErrorIs(t, err, ErrAccountLocked)
}

func TestService_Authenticate_ResetsCounterOnSuccess(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleReader)
	require.NoError(t, err)

	_, err = service.Authenticate("alice", "wrong-password-here")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = service.Authenticate("alice", "a-long-password")
	require.NoError(t, err)

	var loaded entities.User
	require.NoError(t, db.First(&loaded, user.ID).Error)
	assert.Equal(t, 0, loaded.FailedLoginCount)
	assert.Nil(t, loaded.LockedUntil)
	assert.NotNil(t, loaded.LastLoginAt)
}

func TestService_Tokens(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleReader)
	require.NoError(t, err)

	token, err := service.GenerateToken(user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	validated, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)

	// Regenerating invalidates the old token
	token2, err := service.GenerateToken(user.ID)
	require.NoError(t, err)
	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = service.ValidateToken(token2)
	require.NoError(t, err)

	require.NoError(t, service.RevokeToken(user.ID))
	_, err = service.ValidateToken(token2)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	db, service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleReader)
	require.NoError(t, err)

	token, err := service.GenerateToken(user.ID)
	require.NoError(t, err)

	// Age the token past the configured expiry
	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&entities.User{}).Where("id = ?", user.ID).
		Update("token_created_at", stale).Error)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestService_GenerateToken_UnknownUser(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.GenerateToken(999)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = service.RevokeToken(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_ChangePassword(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	user, err := service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleReader)
	require.NoError(t, err)

	err = service.ChangePassword(user.ID, "wrong-password-here", "another-long-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, service.ChangePassword(user.ID, "a-long-password", "another-long-password"))

	_, err = service.Authenticate("alice", "a-long-password")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = service.Authenticate("alice", "another-long-password")
	require.NoError(t, err)
}

func TestService_HasUsers(t *testing.T) {
	_, service, cleanup := setupTestService(t)
	defer cleanup()

	has, err := service.HasUsers()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = service.CreateUser("alice", "alice@example.com", "a-long-password", entities.UserRoleAdmin)
	require.NoError(t, err)

	has, err = service.HasUsers()
	require.NoError(t, err)
	assert.True(t, has)
}
