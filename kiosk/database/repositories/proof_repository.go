package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/uptrace/bun"
)

var ErrProofNotFound = errors.New("proof not found")

type ProofRepository interface {
	Create(ctx context.Context, proof *models.Proof) error
	GetByToken(ctx context.Context, token string) (*models.Proof, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type proofRepository struct {
	db *bun.DB
}

func NewProofRepository(db *bun.DB) ProofRepository {
	return &proofRepository{db: db}
}

func (r *proofRepository) Create(ctx context.Context, proof *models.Proof) error {
	proof.CreatedAt = time.Now()
	_, err := r.db.NewInsert().Model(proof).Exec(ctx)
	return err
}

func (r *proofRepository) GetByToken(ctx context.Context, token string) (*models.Proof, error) {
	proof := new(models.Proof)
	err := r.db.NewSelect().
		Model(proof).
		Where("token = ?", token).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProofNotFound
	}
	if err != nil {
		return nil, err
	}
	return proof, nil
}

func (r *proofRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*models.Proof)(nil)).
		Where("token = ?", token).
		Exec(ctx)
	return err
}

func (r *proofRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.Proof)(nil)).
		Where("expires_at <= ?", time.Now()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
