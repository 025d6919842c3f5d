package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"aarambh/internal/database"
	"aarambh/internal/models"
)

func startMongo(t *testing.T) database.Service {
	t.Helper()

	ctx := context.Background()
	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := database.New(uri, "aarambh_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	return db
}

func TestUserRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	db := startMongo(t)
	userRepo := NewUserRepository(db)
	ctx := context.Background()
	require.NoError(t, userRepo.EnsureIndexes(ctx))

	t.Run("Create and Get User", func(t *testing.T) {
		user := &models.User{
			Name:     "Test Student",
			Email:    "test@example.com",
			Password: "hashed",
			Role:     models.RoleStudent,
		}

		createdUser, err := userRepo.Create(ctx, user)
		require.NoError(t, err)
		assert.False(t, createdUser.ID.IsZero())

		foundUser, err := userRepo.FindByID(ctx, createdUser.ID)
		require.NoError(t, err)
		assert.Equal(t, createdUser.ID, foundUser.ID)

		byEmail, err := userRepo.FindByEmail(ctx, "test@example.com")
		require.NoError(t, err)
		assert.Equal(t, createdUser.ID, byEmail.ID)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		_, err := userRepo.Create(ctx, &models.User{Name: "Dup", Email: "test@example.com", Password: "x"})
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})

	t.Run("Missing user", func(t *testing.T) {
		_, err := userRepo.FindByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SetVerified flips once", func(t *testing.T) {
		user, err := userRepo.FindByEmail(ctx, "test@example.com")
		require.NoError(t, err)

		changed, err := userRepo.SetVerified(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = userRepo.SetVerified(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, changed)

		user, err = userRepo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, user.IsVerified)
	})

	t.Run("UpdateLastLogin and CountAll", func(t *testing.T) {
		user, err := userRepo.FindByEmail(ctx, "test@example.com")
		require.NoError(t, err)
		require.NoError(t, userRepo.UpdateLastLogin(ctx, user.ID, time.Now()))

		count, err := userRepo.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestMongoOTPStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode.")
	}

	db := startMongo(t)
	store := NewMongoOTPStore(db)
	require.NoError(t, store.(Indexer).EnsureIndexes(context.Background()))

	runOTPStoreContract(t, store)
}
