package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmc-todo/backend/internal/model"
)

// --- in-memory fakes ---

type fakeUserStore struct {
	nextID  int64
	byEmail map[string]*model.User
	byID    map[int64]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: map[string]*model.User{},
		byID:    map[int64]*model.User{},
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, email, username, passwordHash string) (*model.User, error) {
	if _, ok := f.byEmail[email]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	f.nextID++
	user := &model.User{
		ID:           f.nextID,
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	f.byEmail[email] = user
	f.byID[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserStore) DeleteUser(_ context.Context, userID int64) (int64, error) {
	user, ok := f.byID[userID]
	if !ok {
		return 0, nil
	}
	delete(f.byEmail, user.Email)
	delete(f.byID, userID)
	return 1, nil
}

type fakeTokenStore struct {
	nextID int64
	rows   map[string]model.RefreshToken
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{rows: map[string]model.RefreshToken{}}
}

func (f *fakeTokenStore) InsertRefreshToken(_ context.Context, userID int64, token string) error {
	f.nextID++
	f.rows[token] = model.RefreshToken{
		ID:        f.nextID,
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeTokenStore) GetRefreshTokenByValue(_ context.Context, token string) (*model.RefreshToken, error) {
	row, ok := f.rows[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &row, nil
}

func (f *fakeTokenStore) DeleteRefreshTokenByValue(_ context.Context, token string) (int64, error) {
	if _, ok := f.rows[token]; !ok {
		return 0, nil
	}
	delete(f.rows, token)
	return 1, nil
}

func (f *fakeTokenStore) DeleteRefreshTokensByUser(_ context.Context, userID int64) (int64, error) {
	var affected int64
	for token, row := range f.rows {
		if row.UserID == userID {
			delete(f.rows, token)
			affected++
		}
	}
	return affected, nil
}

func newTestSessionService(t *testing.T) (*SessionService, *fakeUserStore, *fakeTokenStore, *TokenCodec) {
	t.Helper()
	codec := newTestCodec(t)
	hasher, err := NewPasswordHasher(testAuthConfig())
	require.NoError(t, err)
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSessionService(users, tokens, codec, hasher, logger), users, tokens, codec
}

// --- tests ---

func TestRegisterAndLogin(t *testing.T) {
	svc, _, tokens, codec := newTestSessionService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), registered.UserID)

	session, err := svc.Login(ctx, "john@x.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, session.UserID)

	claims, err := codec.VerifyAccess(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, claims.UID)

	// registration and login each stored one refresh token
	assert.Len(t, tokens.rows, 2)
}

func TestLoginFailures(t *testing.T) {
	svc, _, tokens, _ := newTestSessionService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)
	issued := len(tokens.rows)

	_, err = svc.Login(ctx, "", "password123")
	assert.ErrorIs(t, err, ErrLogin)

	_, err = svc.Login(ctx, "nobody@x.com", "password123")
	assert.ErrorIs(t, err, ErrLogin)
	assert.ErrorContains(t, err, "user not found")

	_, err = svc.Login(ctx, "john@x.com", "wrong-password")
	assert.ErrorIs(t, err, ErrLogin)
	assert.ErrorContains(t, err, "invalid password")

	// failed logins must not issue or store tokens
	assert.Len(t, tokens.rows, issued)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, users, tokens, _ := newTestSessionService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "john_two", "john@x.com", "password456")
	assert.ErrorIs(t, err, ErrRegister)
	assert.ErrorContains(t, err, "already exists")

	assert.Len(t, users.byEmail, 1)
	assert.Len(t, tokens.rows, 1)
}

func TestRefreshIssuesAccessWithoutRotating(t *testing.T) {
	svc, _, tokens, codec := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)

	uid, accessToken, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, uid)

	claims, err := codec.VerifyAccess(accessToken)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, claims.UID)

	// the refresh token is reused, not rotated
	_, ok := tokens.rows[session.RefreshToken]
	assert.True(t, ok)
	assert.Len(t, tokens.rows, 1)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _, codec := newTestSessionService(t)
	ctx := context.Background()

	_, _, err := svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrRefreshToken)

	// a well-signed token that was never stored is rejected too
	unstored, err := codec.IssueRefresh(99)
	require.NoError(t, err)
	_, _, err = svc.Refresh(ctx, unstored)
	assert.ErrorIs(t, err, ErrRefreshToken)
	assert.ErrorContains(t, err, "not found")
}

func TestRefreshPurgesStoredTokenWithBadSignature(t *testing.T) {
	svc, _, tokens, _ := newTestSessionService(t)
	ctx := context.Background()

	// a row whose value does not verify under the refresh secret
	require.NoError(t, tokens.InsertRefreshToken(ctx, 5, "not-a-valid-jwt"))

	_, _, err := svc.Refresh(ctx, "not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrRefreshToken)
	assert.ErrorContains(t, err, "invalid or expired")

	// the stale row was deleted during validation
	assert.Empty(t, tokens.rows)
}

func TestRefreshPurgesExpiredToken(t *testing.T) {
	svc, _, tokens, codec := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)

	codec.now = func() time.Time { return time.Now().Add(73 * time.Hour) }

	_, _, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshToken)
	assert.Empty(t, tokens.rows)
}

func TestLogoutSingleDevice(t *testing.T) {
	svc, _, _, _ := newTestSessionService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "john@x.com", "password123")
	require.NoError(t, err)

	affected, err := svc.Logout(ctx, first.RefreshToken, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	_, _, err = svc.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshToken)

	// the other device's session survives
	_, _, err = svc.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestLogoutEverywhere(t *testing.T) {
	svc, _, tokens, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := svc.Login(ctx, "john@x.com", "password123")
		require.NoError(t, err)
	}
	require.Len(t, tokens.rows, 3)

	affected, err := svc.Logout(ctx, session.RefreshToken, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.Empty(t, tokens.rows)
}

func TestCloseAccount(t *testing.T) {
	svc, users, tokens, _ := newTestSessionService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)

	uid, err := svc.CloseAccount(ctx, "john@x.com", "password123", session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, uid)

	assert.Empty(t, users.byEmail)
	assert.Empty(t, tokens.rows)

	_, err = svc.Login(ctx, "john@x.com", "password123")
	assert.ErrorIs(t, err, ErrLogin)
	assert.ErrorContains(t, err, "user not found")
}

func TestCloseAccountTokenOwnerMismatch(t *testing.T) {
	svc, users, _, _ := newTestSessionService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "john_doe", "john@x.com", "password123")
	require.NoError(t, err)
	other, err := svc.Register(ctx, "jane_doe", "jane@x.com", "password456")
	require.NoError(t, err)

	_, err = svc.CloseAccount(ctx, "john@x.com", "password123", other.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshToken)
	assert.ErrorContains(t, err, "does not match")

	// nobody was deleted
	assert.Len(t, users.byEmail, 2)
}
