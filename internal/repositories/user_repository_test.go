package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/anonto42/job-board/backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	repo := NewPostgresUserRepository(testutil.NewDB(t))
	ctx := context.Background()

	uid := "firebase-uid-1"
	user := &models.User{Email: "Jane@Example.com", DisplayName: "Jane", FirebaseUID: &uid}
	require.NoError(t, repo.CreateUser(ctx, user))
	require.NotEqual(t, uuid.Nil, user.ID)

	byEmail, err := repo.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byUID, err := repo.GetUserByFirebaseUID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byUID.ID)

	byUID.DisplayName = "Jane D."
	require.NoError(t, repo.UpdateUser(ctx, byUID))

	byID, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane D.", byID.DisplayName)

	_, err = repo.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
