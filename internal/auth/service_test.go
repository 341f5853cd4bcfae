package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/database"
	"github.com/beesmart/beesmart/internal/database/users"
	"github.com/beesmart/beesmart/internal/entities"
	"github.com/beesmart/beesmart/internal/logging"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver:   config.DriverSQLite,
		Path:     ":memory:",
		LogLevel: "silent",
	}, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testAuthConfig(mode config.AuthMode) config.Auth {
	return config.Auth{
		Mode:            mode,
		SessionLifetime: 24 * time.Hour,
		BcryptCost:      4,
	}
}

func setupTestService(t *testing.T) (*Service, *database.Database) {
	t.Helper()
	db := setupTestDB(t)
	svc := NewService(users.NewRepository(db.DB), testAuthConfig(config.AuthModeLocal), logging.Discard())
	return svc, db
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
		wantErr  error
	}{
		{name: "valid user", userName: "Ana", email: "ana@example.com", password: "secret1"},
		{name: "missing name", userName: "  ", email: "ana@example.com", password: "secret1", wantErr: ErrNameRequired},
		{name: "missing email", userName: "Ana", email: "", password: "secret1", wantErr: ErrEmailRequired},
		{name: "missing password", userName: "Ana", email: "ana@example.com", password: "", wantErr: ErrPasswordRequired},
		{name: "invalid email", userName: "Ana", email: "not-an-email", password: "secret1", wantErr: ErrEmailInvalid},
		{name: "password too short", userName: "Ana", email: "ana@example.com", password: "12345", wantErr: ErrPasswordTooShort},
		{name: "guest email reserved", userName: "Ana", email: "GUEST@app.local", password: "secret1", wantErr: ErrUserExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := setupTestService(t)

			user, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.Equal(t, "Ana", user.Name)
			assert.False(t, user.IsGuest)
			assert.NotEqual(t, tt.password, user.PasswordHash)
		})
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Otra Ana", "ANA@example.com", "secret2")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "ana@example.com", "secret1")
		require.NoError(t, err)
		assert.Equal(t, "Ana", user.Name)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("email is case insensitive", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, " Ana@Example.com ", "secret1")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "ana@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody@example.com", "secret1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("guest cannot sign in with a password", func(t *testing.T) {
		_, err := svc.Guest(ctx)
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, entities.GuestEmail, "")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestService_Guest(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()

	first, err := svc.Guest(ctx)
	require.NoError(t, err)
	assert.True(t, first.IsGuest)
	assert.Equal(t, "Invitado", first.Name)

	second, err := svc.Guest(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.DB.Table("users").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestService_GetUserByID(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "Ana", "ana@example.com", "secret1")
	require.NoError(t, err)

	found, err := svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, found.Email)

	_, err = svc.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_AuthMode(t *testing.T) {
	db := setupTestDB(t)
	repo := users.NewRepository(db.DB)

	local := NewService(repo, testAuthConfig(config.AuthModeLocal), logging.Discard())
	assert.True(t, local.IsAuthEnabled())
	assert.Equal(t, config.AuthModeLocal, local.GetAuthMode())

	none := NewService(repo, testAuthConfig(config.AuthModeNone), logging.Discard())
	assert.False(t, none.IsAuthEnabled())
}
