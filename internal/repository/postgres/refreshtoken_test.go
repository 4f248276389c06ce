package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvoronin/taskdeck/internal/apperrors"
	"github.com/nvoronin/taskdeck/internal/models"
	"github.com/nvoronin/taskdeck/internal/testutil"
)

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Refresh tokens reference users, so every subtest needs an owner
	makeToken := func(t *testing.T, tx pgx.Tx, value string) models.RefreshToken {
		t.Helper()

		users := UserRepo{DB: tx}
		user, err := users.CreateUser(t.Context(), "Token Owner", uuid.NewString()+"@example.com", "hash")
		require.NoError(t, err)

		now := time.Now().Truncate(time.Second)
		return models.RefreshToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			Token:     value,
			CreatedAt: now,
			ExpiresAt: now.Add(30 * 24 * time.Hour),
		}
	}

	t.Run("save and get ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := makeToken(t, tx, "refresh-token-value")

			saved, err := r.Save(t.Context(), token)
			require.NoError(t, err)
			assert.Equal(t, token.ID, saved.ID)
			assert.Equal(t, token.Token, saved.Token)

			got, err := r.Get(t.Context(), "refresh-token-value")
			require.NoError(t, err)
			assert.Equal(t, token.ID, got.ID)
			assert.Equal(t, token.UserID, got.UserID)
			assert.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Second)
		})
	})

	t.Run("get returns expired rows too", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := makeToken(t, tx, "expired-token")
			token.ExpiresAt = time.Now().Add(-time.Hour)

			_, err := r.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := r.Get(t.Context(), "expired-token")

			require.NoError(t, err, "expiry is the caller's concern, the row must still be readable")
			assert.Equal(t, token.ID, got.ID)
		})
	})

	t.Run("get not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}

			_, err := r.Get(t.Context(), "never-issued")

			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("redeem ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := makeToken(t, tx, "redeem-me")
			_, err := r.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := r.Redeem(t.Context(), "redeem-me")

			require.NoError(t, err)
			assert.Equal(t, token.ID, got.ID, "redeem should return the deleted row")

			_, err = r.Get(t.Context(), "redeem-me")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "row must be gone after redemption")
		})
	})

	t.Run("redeem twice fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := makeToken(t, tx, "single-use")
			_, err := r.Save(t.Context(), token)
			require.NoError(t, err)

			_, err = r.Redeem(t.Context(), "single-use")
			require.NoError(t, err)

			_, err = r.Redeem(t.Context(), "single-use")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "only one redemption may win")
		})
	})

	t.Run("delete ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := makeToken(t, tx, "delete-me")
			_, err := r.Save(t.Context(), token)
			require.NoError(t, err)

			err = r.Delete(t.Context(), "delete-me")
			require.NoError(t, err)

			_, err = r.Get(t.Context(), "delete-me")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("delete absent token is fine", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}

			err := r.Delete(t.Context(), "never-existed")

			require.NoError(t, err)
		})
	})

	t.Run("deleting user cascades to tokens", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := RefreshTokenRepo{DB: tx}
			token := makeToken(t, tx, "cascade-token")
			_, err := r.Save(t.Context(), token)
			require.NoError(t, err)

			_, err = tx.Exec(t.Context(), "DELETE FROM users WHERE id = $1", token.UserID)
			require.NoError(t, err)

			_, err = r.Get(t.Context(), "cascade-token")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})
}

// Exactly one of several concurrent redeemers may observe the row.
// Runs against the pool directly: the race only exists on a committed row
// visible to independent connections
func Test_RefreshTokenRepo_ConcurrentRedeem(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	users := UserRepo{DB: pg.Pool}
	r := RefreshTokenRepo{DB: pg.Pool}

	user, err := users.CreateUser(t.Context(), "Racer", "racer@example.com", "hash")
	require.NoError(t, err)

	now := time.Now().Truncate(time.Second)
	_, err = r.Save(t.Context(), models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "contested-token",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	const redeemers = 8
	errs := make(chan error, redeemers)

	var wg sync.WaitGroup
	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Redeem(t.Context(), "contested-token")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	won := 0
	for err := range errs {
		if err == nil {
			won++
			continue
		}
		require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "losers must see the row as gone")
	}
	require.Equal(t, 1, won, "exactly one concurrent redemption may win")
}
