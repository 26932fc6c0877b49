package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/uptrace/bun"
)

var ErrChallengeNotFound = errors.New("challenge not found")

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByToken(ctx context.Context, token string) (*models.Challenge, error)
	Delete(ctx context.Context, token string) error
	DeleteByDrop(ctx context.Context, dropID string) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type challengeRepository struct {
	db *bun.DB
}

func NewChallengeRepository(db *bun.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	challenge.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(challenge).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (r *challengeRepository) GetByToken(ctx context.Context, token string) (*models.Challenge, error) {
	challenge := new(models.Challenge)
	err := r.db.NewSelect().
		Model(challenge).
		Where("token = ?", token).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

func (r *challengeRepository) Delete(ctx context.Context, token string) error {
	result, err := r.db.NewDelete().
		Model((*models.Challenge)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrChallengeNotFound
	}
	return nil
}

func (r *challengeRepository) DeleteByDrop(ctx context.Context, dropID string) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.Challenge)(nil)).
		Where("drop_id = ?", dropID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *challengeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.Challenge)(nil)).
		Where("expires_at <= ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
