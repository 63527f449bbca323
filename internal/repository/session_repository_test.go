package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Stewz00/go-login-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionRowColumns = []string{"id", "account_id", "token_hash", "user_agent", "ip_address", "expires_at", "created_at", "revoked_at"}

func TestSessionRepository_CreateSession(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	s := &model.Session{
		ID:        ulid.Make(),
		AccountID: 1,
		TokenHash: "abc",
		UserAgent: "test-agent",
		IPAddress: "127.0.0.1",
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
	}

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(s.ID.String(), s.AccountID, s.TokenHash, s.UserAgent, s.IPAddress, s.ExpiresAt, s.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewSessionRepository(mock)
	require.NoError(t, repo.CreateSession(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_FindByTokenHash(t *testing.T) {
	id := ulid.Make()
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM sessions WHERE token_hash = \$1`).
			WithArgs("abc").
			WillReturnRows(pgxmock.NewRows(sessionRowColumns).
				AddRow(id.String(), int64(1), "abc", "ua", "ip", now.Add(time.Hour), now, (*time.Time)(nil)))

		repo := NewSessionRepository(mock)
		s, err := repo.FindByTokenHash(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, id, s.ID)
		assert.Equal(t, int64(1), s.AccountID)
		assert.Nil(t, s.RevokedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM sessions WHERE token_hash`).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		repo := NewSessionRepository(mock)
		_, err := repo.FindByTokenHash(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("corrupt id", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM sessions WHERE token_hash`).
			WillReturnRows(pgxmock.NewRows(sessionRowColumns).
				AddRow("not-a-ulid", int64(1), "abc", "", "", now, now, (*time.Time)(nil)))

		repo := NewSessionRepository(mock)
		_, err := repo.FindByTokenHash(context.Background(), "abc")
		assert.Error(t, err)
	})
}

func TestSessionRepository_RevokeSession(t *testing.T) {
	mock := newMock(t)
	id := ulid.Make()
	at := time.Now()

	mock.ExpectExec(`UPDATE sessions\s+SET revoked_at`).
		WithArgs(id.String(), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE sessions\s+SET revoked_at`).
		WithArgs(id.String(), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewSessionRepository(mock)
	assert.NoError(t, repo.RevokeSession(context.Background(), id, at))
	assert.ErrorIs(t, repo.RevokeSession(context.Background(), id, at), ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_RevokeByAccountAndDeleteExpired(t *testing.T) {
	mock := newMock(t)
	at := time.Now()

	mock.ExpectExec(`UPDATE sessions`).
		WithArgs(int64(3), at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at < \$1`).
		WithArgs(at).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	repo := NewSessionRepository(mock)

	n, err := repo.RevokeByAccount(context.Background(), 3, at)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteExpired(context.Background(), at)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
