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

var ErrDropNotFound = errors.New("drop not found")

type DropRepository interface {
	Create(ctx context.Context, drop *models.Drop) error
	GetByID(ctx context.Context, id string) (*models.Drop, error)
	GetAll(ctx context.Context) ([]*models.Drop, error)
	ListIDs(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	SetAccessTokens(ctx context.Context, id string, current, previous models.AccessToken) error
	DistinctEmails(ctx context.Context) ([]string, error)
}

type dropRepository struct {
	db *bun.DB
}

func NewDropRepository(db *bun.DB) DropRepository {
	return &dropRepository{db: db}
}

func (r *dropRepository) Create(ctx context.Context, drop *models.Drop) error {
	now := time.Now()
	drop.CreatedAt = now
	drop.UpdatedAt = now

	_, err := r.db.NewInsert().Model(drop).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create drop: %w", err)
	}
	return nil
}

func (r *dropRepository) GetByID(ctx context.Context, id string) (*models.Drop, error) {
	drop := new(models.Drop)
	err := r.db.NewSelect().
		Model(drop).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDropNotFound
	}
	if err != nil {
		return nil, err
	}
	return drop, nil
}

func (r *dropRepository) GetAll(ctx context.Context) ([]*models.Drop, error) {
	var drops []*models.Drop
	err := r.db.NewSelect().
		Model(&drops).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return drops, nil
}

func (r *dropRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.NewSelect().
		Model((*models.Drop)(nil)).
		Column("id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *dropRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().
		Model((*models.Drop)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrDropNotFound
	}
	return nil
}

// SetAccessTokens atomically replaces the drop's rotating token pair.
func (r *dropRepository) SetAccessTokens(ctx context.Context, id string, current, previous models.AccessToken) error {
	_, err := r.db.NewUpdate().
		Model((*models.Drop)(nil)).
		Set("current_access_token = ?", current.Token).
		Set("current_access_created_at = ?", current.CreatedAt).
		Set("current_access_expires_at = ?", current.ExpiresAt).
		Set("current_access_validity_minutes = ?", current.ValidityMinutes).
		Set("previous_access_token = ?", previous.Token).
		Set("previous_access_created_at = ?", previous.CreatedAt).
		Set("previous_access_expires_at = ?", previous.ExpiresAt).
		Set("previous_access_validity_minutes = ?", previous.ValidityMinutes).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to rotate access tokens: %w", err)
	}
	return nil
}

func (r *dropRepository) DistinctEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.NewSelect().
		Model((*models.Drop)(nil)).
		ColumnExpr("DISTINCT email").
		Scan(ctx, &emails)
	if err != nil {
		return nil, err
	}
	return emails, nil
}
