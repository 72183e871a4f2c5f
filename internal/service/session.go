package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vmc-todo/backend/internal/db"
	"github.com/vmc-todo/backend/internal/model"
)

var (
	ErrMisconfigured = errors.New("auth config invalid")
	ErrLogin         = errors.New("login failed")
	ErrRegister      = errors.New("registration failed")
	ErrRefreshToken  = errors.New("refresh token rejected")
)

type UserStore interface {
	CreateUser(ctx context.Context, email, username, passwordHash string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	DeleteUser(ctx context.Context, userID int64) (int64, error)
}

type RefreshTokenStore interface {
	InsertRefreshToken(ctx context.Context, userID int64, token string) error
	GetRefreshTokenByValue(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshTokenByValue(ctx context.Context, token string) (int64, error)
	DeleteRefreshTokensByUser(ctx context.Context, userID int64) (int64, error)
}

// RefreshTokenStatus is the outcome of a store-backed validation.
// Purged means the row existed but its signature no longer verified,
// and the row has been deleted as part of the call.
type RefreshTokenStatus int

const (
	RefreshTokenValid RefreshTokenStatus = iota
	RefreshTokenNotFound
	RefreshTokenPurged
)

// Session is what a successful login or registration hands back.
type Session struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
}

// SessionService orchestrates the session lifecycle: login,
// registration, access-token refresh, logout and account closure.
type SessionService struct {
	users  UserStore
	tokens RefreshTokenStore
	codec  *TokenCodec
	hasher *PasswordHasher
	logger *slog.Logger
}

func NewSessionService(users UserStore, tokens RefreshTokenStore, codec *TokenCodec, hasher *PasswordHasher, logger *slog.Logger) *SessionService {
	return &SessionService{
		users:  users,
		tokens: tokens,
		codec:  codec,
		hasher: hasher,
		logger: logger,
	}
}

// Login authenticates by email/password and issues a fresh token pair.
// Existing refresh tokens for the user stay valid, so sessions on
// other devices keep working.
func (s *SessionService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user.ID)
}

// Register hashes the password, inserts the user and logs them in.
// Input shape validation (username length, email format, password
// length) happens at the HTTP boundary before this is reached.
func (s *SessionService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, email, username, digest)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: user with this email already exists", ErrRegister)
		}
		s.logger.Warn("user insert failed", "error", err)
		return nil, fmt.Errorf("%w: error inserting user", ErrRegister)
	}

	s.logger.Info("user registered", "userId", user.ID)
	return s.issueSession(ctx, user.ID)
}

// Refresh exchanges a valid, stored refresh token for a new access
// token. The refresh token itself is not rotated here; rotation only
// happens at login and registration.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (int64, string, error) {
	uid, status, err := s.validateRefreshToken(ctx, refreshToken)
	if err != nil {
		return 0, "", err
	}
	if status != RefreshTokenValid {
		return 0, "", refreshTokenError(status)
	}

	accessToken, err := s.codec.IssueAccess(uid)
	if err != nil {
		return 0, "", err
	}
	return uid, accessToken, nil
}

// Logout revokes the presented refresh token, or every token of its
// owner when everywhere is set, and reports how many were removed.
func (s *SessionService) Logout(ctx context.Context, refreshToken string, everywhere bool) (int64, error) {
	uid, status, err := s.validateRefreshToken(ctx, refreshToken)
	if err != nil {
		return 0, err
	}
	if status != RefreshTokenValid {
		return 0, refreshTokenError(status)
	}

	if everywhere {
		return s.tokens.DeleteRefreshTokensByUser(ctx, uid)
	}
	return s.tokens.DeleteRefreshTokenByValue(ctx, refreshToken)
}

// CloseAccount re-authenticates with email/password, checks that the
// refresh token belongs to the same user, then deletes the user's
// refresh tokens and the user row. Tasks go with the row via cascade.
func (s *SessionService) CloseAccount(ctx context.Context, email, password, refreshToken string) (int64, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return 0, err
	}

	uid, status, err := s.validateRefreshToken(ctx, refreshToken)
	if err != nil {
		return 0, err
	}
	if status != RefreshTokenValid {
		return 0, refreshTokenError(status)
	}
	if uid != user.ID {
		return 0, fmt.Errorf("%w: refresh token does not match the user id", ErrRefreshToken)
	}

	if _, err := s.tokens.DeleteRefreshTokensByUser(ctx, uid); err != nil {
		return 0, err
	}
	if _, err := s.users.DeleteUser(ctx, uid); err != nil {
		return 0, err
	}

	s.logger.Info("account closed", "userId", uid)
	return uid, nil
}

func (s *SessionService) authenticate(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrLogin)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, fmt.Errorf("%w: user not found", ErrLogin)
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid password", ErrLogin)
	}
	return user, nil
}

func (s *SessionService) issueSession(ctx context.Context, uid int64) (*Session, error) {
	accessToken, err := s.codec.IssueAccess(uid)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.codec.IssueRefresh(uid)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.InsertRefreshToken(ctx, uid, refreshToken); err != nil {
		return nil, err
	}

	return &Session{
		UserID:       uid,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// validateRefreshToken checks the presented token against the store and
// then against its own signature. A stored row whose signature fails is
// deleted on the spot, so the table never keeps tokens the codec would
// reject for longer than one validation call.
func (s *SessionService) validateRefreshToken(ctx context.Context, token string) (int64, RefreshTokenStatus, error) {
	if token == "" {
		return 0, RefreshTokenNotFound, nil
	}

	row, err := s.tokens.GetRefreshTokenByValue(ctx, token)
	if err != nil {
		if db.IsNoRows(err) {
			return 0, RefreshTokenNotFound, nil
		}
		return 0, RefreshTokenNotFound, err
	}

	claims, err := s.codec.VerifyRefresh(row.Token)
	if err != nil {
		if _, delErr := s.tokens.DeleteRefreshTokenByValue(ctx, row.Token); delErr != nil {
			return 0, RefreshTokenNotFound, delErr
		}
		s.logger.Info("purged stale refresh token", "userId", row.UserID)
		return 0, RefreshTokenPurged, nil
	}

	return claims.UID, RefreshTokenValid, nil
}

func refreshTokenError(status RefreshTokenStatus) error {
	if status == RefreshTokenPurged {
		return fmt.Errorf("%w: refresh token is invalid or expired, please log in again", ErrRefreshToken)
	}
	return fmt.Errorf("%w: refresh token not found", ErrRefreshToken)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
