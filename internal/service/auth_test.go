package service

import (
	"context"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipa/notefournote-server/internal/auth"
	domainerrors "github.com/dipa/notefournote-server/internal/errors"
	"github.com/dipa/notefournote-server/internal/store/sqlite"
)

// setupAuthTest creates an auth service with temporary storage for testing.
func setupAuthTest(t *testing.T) (*AuthService, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "notefournote-auth-test-*")
	require.NoError(t, err)

	s, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), nil)
	require.NoError(t, err)

	authKey, err := auth.LoadOrGenerateKey(tmpDir)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(hex.EncodeToString(authKey), 15*time.Minute)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	authService := NewAuthService(s, tokenService, logger)

	cleanup := func() {
		_ = s.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return authService, cleanup
}

func TestAuthService_Register(t *testing.T) {
	svc, cleanup := setupAuthTest(t)
	defer cleanup()
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)
	// The hash never equals the raw password.
	assert.NotEqual(t, "correct horse battery staple", user.PasswordHash)

	// Duplicate usernames conflict.
	_, err = svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Password: "another password entirely",
	})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, cleanup := setupAuthTest(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "ab", Password: "long enough password"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice", Password: "short"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestAuthService_Login(t *testing.T) {
	svc, cleanup := setupAuthTest(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{
		Username: "alice",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), resp.ExpiresIn)

	// Wrong password and unknown user return the same error shape.
	_, err = svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong password here"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Username: "mallory", Password: "whatever password"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	svc, cleanup := setupAuthTest(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "alice",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{
		Username: "alice",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)

	user, claims, err := svc.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.VerifyAccessToken(ctx, "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
