package db

import (
	"context"

	"github.com/vmc-todo/backend/internal/model"
)

func (db *Postgres) InsertRefreshToken(ctx context.Context, userID int64, token string) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, created_at)
		VALUES ($1, $2, NOW())
	`
	_, err := db.Pool.Exec(ctx, query, userID, token)
	return err
}

func (db *Postgres) GetRefreshTokenByValue(ctx context.Context, token string) (*model.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, created_at
		FROM refresh_tokens
		WHERE token = $1
	`
	var row model.RefreshToken
	err := db.Pool.QueryRow(ctx, query, token).Scan(
		&row.ID,
		&row.UserID,
		&row.Token,
		&row.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (db *Postgres) DeleteRefreshTokenByValue(ctx context.Context, token string) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (db *Postgres) DeleteRefreshTokensByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
