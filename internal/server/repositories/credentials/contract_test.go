package credentials

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newUser(name, id string) *models.User {
	return &models.User{
		ID:           id,
		UserName:     name,
		PasswordHash: []byte{0x00, 0x01, 0xfe, 0xff},
		PasswordSalt: []byte("salt-" + id),
		CreatedAt:    epoch,
	}
}

func newToken(value string) *models.RefreshToken {
	return &models.RefreshToken{
		Token:     value,
		CreatedAt: epoch,
		ExpiresAt: epoch.Add(time.Hour),
	}
}

// runRepositoryContract checks the behaviour every backend must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("find missing", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Find(ctx, "ghost")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("save and find", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-1")))

		got, err := repo.Find(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "id-1", got.ID)
		assert.Equal(t, "alice", got.UserName)
		assert.Equal(t, []byte{0x00, 0x01, 0xfe, 0xff}, got.PasswordHash)
		assert.Equal(t, []byte("salt-id-1"), got.PasswordSalt)
		assert.True(t, epoch.Equal(got.CreatedAt))
	})

	t.Run("save overwrites and clears refresh", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-1")))
		require.NoError(t, repo.AttachRefresh(ctx, "alice", "id-1", newToken("r1")))

		require.NoError(t, repo.Save(ctx, newUser("alice", "id-2")))

		got, err := repo.Find(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "id-2", got.ID)

		_, err = repo.CurrentRefresh(ctx, "alice")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = repo.FindRefresh(ctx, "r1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("create rejects duplicate", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(ctx, newUser("alice", "id-1")))
		err := repo.Create(ctx, newUser("alice", "id-2"))
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)

		got, err := repo.Find(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "id-1", got.ID)
	})

	t.Run("attach to missing identity", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.AttachRefresh(ctx, "ghost", "id-1", newToken("r1"))
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("attach to re-registered identity", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-1")))
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-2")))

		err := repo.AttachRefresh(ctx, "alice", "id-1", newToken("r1"))
		assert.ErrorIs(t, err, common.ErrorNotFound)

		_, err = repo.CurrentRefresh(ctx, "alice")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = repo.FindRefresh(ctx, "r1")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		require.NoError(t, repo.AttachRefresh(ctx, "alice", "id-2", newToken("r2")))
	})

	t.Run("attach racing re-registration never survives it", func(t *testing.T) {
		repo := newRepo(t)

		// Whichever write lands first, the re-registration supersedes the
		// token attached for the old identity.
		for i := 0; i < 50; i++ {
			name := fmt.Sprintf("user-%d", i)
			require.NoError(t, repo.Save(ctx, newUser(name, "old")))

			var wg sync.WaitGroup
			start := make(chan struct{})
			wg.Add(2)
			go func() {
				defer wg.Done()
				<-start
				assert.NoError(t, repo.Save(ctx, newUser(name, "new")))
			}()
			go func() {
				defer wg.Done()
				<-start
				err := repo.AttachRefresh(ctx, name, "old", newToken("tok-"+name))
				if err != nil {
					assert.ErrorIs(t, err, common.ErrorNotFound)
				}
			}()
			close(start)
			wg.Wait()

			_, err := repo.CurrentRefresh(ctx, name)
			assert.ErrorIs(t, err, common.ErrorNotFound, "iteration %d", i)
			_, err = repo.FindRefresh(ctx, "tok-"+name)
			assert.ErrorIs(t, err, common.ErrorNotFound, "iteration %d", i)
		}
	})

	t.Run("attach replaces previous token", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-1")))
		require.NoError(t, repo.AttachRefresh(ctx, "alice", "id-1", newToken("r1")))
		require.NoError(t, repo.AttachRefresh(ctx, "alice", "id-1", newToken("r2")))

		cur, err := repo.CurrentRefresh(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "r2", cur.Token)
		assert.Equal(t, "alice", cur.UserName)
		assert.True(t, epoch.Add(time.Hour).Equal(cur.ExpiresAt))

		_, err = repo.FindRefresh(ctx, "r1")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		found, err := repo.FindRefresh(ctx, "r2")
		require.NoError(t, err)
		assert.Equal(t, "alice", found.UserName)
	})

	t.Run("rotate requires current token", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-1")))
		require.NoError(t, repo.AttachRefresh(ctx, "alice", "id-1", newToken("r1")))

		err := repo.RotateRefresh(ctx, "alice", "nope", newToken("r2"))
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

		require.NoError(t, repo.RotateRefresh(ctx, "alice", "r1", newToken("r2")))

		err = repo.RotateRefresh(ctx, "alice", "r1", newToken("r3"))
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

		cur, err := repo.CurrentRefresh(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "r2", cur.Token)
	})

	t.Run("rotate without token", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-1")))
		err := repo.RotateRefresh(ctx, "alice", "r1", newToken("r2"))
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)

		err = repo.RotateRefresh(ctx, "ghost", "r1", newToken("r2"))
		assert.ErrorIs(t, err, common.ErrInvalidRefreshToken)
	})

	t.Run("concurrent rotation has one winner", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-1")))
		require.NoError(t, repo.AttachRefresh(ctx, "alice", "id-1", newToken("r0")))

		const workers = 16
		var (
			wg      sync.WaitGroup
			wins    atomic.Int32
			invalid atomic.Int32
			start   = make(chan struct{})
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				err := repo.RotateRefresh(ctx, "alice", "r0", newToken("next-"+string(rune('a'+i))))
				switch {
				case err == nil:
					wins.Add(1)
				case assert.ErrorIs(t, err, common.ErrInvalidRefreshToken):
					invalid.Add(1)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		assert.EqualValues(t, 1, wins.Load())
		assert.EqualValues(t, workers-1, invalid.Load())
	})

	t.Run("returned records are copies", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Save(ctx, newUser("alice", "id-1")))

		got, err := repo.Find(ctx, "alice")
		require.NoError(t, err)
		got.PasswordHash[0] = 0x42

		again, err := repo.Find(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, byte(0x00), again.PasswordHash[0])
	})
}
