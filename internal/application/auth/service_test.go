package auth

import (
	"testing"

	"deedbook-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestVerifyUser_Nil(t *testing.T) {
	u, err := VerifyUser(nil)
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_EmptyMap(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{})
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_NoUserID(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{
		"fullname": "Test",
		"email":    "a@b.com",
	})
	assert.Nil(t, u)
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestVerifyUser_Valid(t *testing.T) {
	u, err := VerifyUser(map[string]interface{}{
		"user_id":  "550e8400-e29b-41d4-a716-446655440000",
		"fullname": "Test User",
		"email":    "test@example.com",
		"role":     "viewer",
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", u.UserID)
	assert.Equal(t, "Test User", u.Fullname)
	assert.Equal(t, "test@example.com", u.Email)
	assert.Equal(t, "viewer", u.Role)
}

func setupAuthDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func TestLoginUser(t *testing.T) {
	db := setupAuthDB(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&domain.User{
		Fullname:     "Test User",
		Email:        "test@example.com",
		PasswordHash: string(hash),
		Role:         "manager",
	}).Error)

	_, err = LoginUser(db, LoginInput{})
	assert.Equal(t, ErrEmailPasswordRequired, err)

	_, err = LoginUser(db, LoginInput{Email: "nobody@example.com", Password: "x"})
	assert.Equal(t, ErrInvalidEmail, err)

	_, err = LoginUser(db, LoginInput{Email: "test@example.com", Password: "wrong"})
	assert.Equal(t, ErrIncorrectPassword, err)

	u, err := LoginUser(db, LoginInput{Email: "test@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "manager", u.Role)
	assert.Equal(t, "Test User", u.Fullname)
}
