package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/allocation/counter"
	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/uptrace/bun"
)

var ErrCodeNotFound = errors.New("code not found")

type CodeRepository interface {
	BulkCreate(ctx context.Context, codes []*models.Code) (int, error)
	GetByID(ctx context.Context, id string) (*models.Code, error)
	OldestAvailable(ctx context.Context, dropID string) (*models.Code, error)
	Reserve(ctx context.Context, dropID, codeID string) (bool, error)
	ApplyRemoteStatus(ctx context.Context, codeID string, claimed bool) error
	RecordCheckError(ctx context.Context, codeID, msg string) error
	ResetScanned(ctx context.Context, codeID string) error
	UnknownSince(ctx context.Context, dropID string, cutoff time.Time) ([]*models.Code, error)
	Unchecked(ctx context.Context, dropID string) ([]*models.Code, error)
	ScannedUnclaimed(ctx context.Context, dropID string) ([]*models.Code, error)
	DeleteByDrop(ctx context.Context, dropID string) (int64, error)
}

type codeRepository struct {
	db *bun.DB
}

func NewCodeRepository(db *bun.DB) CodeRepository {
	return &codeRepository{db: db}
}

func (r *codeRepository) BulkCreate(ctx context.Context, codes []*models.Code) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}

	now := time.Now()
	for _, c := range codes {
		if c.Claimed == "" {
			c.Claimed = models.ClaimStatusUnclaimed
		}
		c.CreatedAt = now
		c.UpdatedAt = now
	}

	res, err := r.db.NewInsert().Model(&codes).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to insert codes: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return len(codes), nil
	}
	return int(rows), nil
}

func (r *codeRepository) GetByID(ctx context.Context, id string) (*models.Code, error) {
	code := new(models.Code)
	err := r.db.NewSelect().
		Model(code).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeNotFound
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

// OldestAvailable picks the least recently touched unclaimed code so the
// pool ages evenly. Returns nil when the pool is empty.
func (r *codeRepository) OldestAvailable(ctx context.Context, dropID string) (*models.Code, error) {
	code := new(models.Code)
	err := r.db.NewSelect().
		Model(code).
		Where("drop_id = ?", dropID).
		Where("claimed = ?", models.ClaimStatusUnclaimed).
		Order("updated_at ASC").
		Limit(1).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

// Reserve provisionally takes a code out of the pool: scanned=true and
// claimed=unknown, guarded so only one caller can win a still-unclaimed
// code. Returns false when a concurrent attempt got there first.
func (r *codeRepository) Reserve(ctx context.Context, dropID, codeID string) (bool, error) {
	var won bool
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Code)(nil)).
			Set("scanned = ?", true).
			Set("claimed = ?", models.ClaimStatusUnknown).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", codeID).
			Where("claimed = ?", models.ClaimStatusUnclaimed).
			Exec(ctx)
		if err != nil {
			return err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return nil
		}
		won = true

		delta := counter.Delta(models.ClaimStatusUnclaimed, models.ClaimStatusUnknown)
		return r.adjustAvailableTx(ctx, tx, dropID, delta)
	})
	if err != nil {
		return false, fmt.Errorf("failed to reserve code: %w", err)
	}
	return won, nil
}

// ApplyRemoteStatus folds a ledger-confirmed claim status into the local
// cache, bumping the check counters and the drop's available count in one
// transaction. A ledger-confirmed redemption is sticky and never reverts.
func (r *codeRepository) ApplyRemoteStatus(ctx context.Context, codeID string, claimed bool) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		code := new(models.Code)
		err := tx.NewSelect().
			Model(code).
			Where("id = ?", codeID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCodeNotFound
		}
		if err != nil {
			return err
		}

		newStatus := models.ClaimStatusFromBool(claimed)
		if code.Claimed == models.ClaimStatusClaimed {
			newStatus = models.ClaimStatusClaimed
		}

		now := time.Now()
		_, err = tx.NewUpdate().
			Model((*models.Code)(nil)).
			Set("claimed = ?", newStatus).
			Set("remote_check_count = remote_check_count + 1").
			Set("last_remote_check_at = ?", now).
			Set("updated_at = ?", now).
			Where("id = ?", codeID).
			Exec(ctx)
		if err != nil {
			return err
		}

		delta := counter.Delta(code.Claimed, newStatus)
		return r.adjustAvailableTx(ctx, tx, code.DropID, delta)
	})
}

func (r *codeRepository) adjustAvailableTx(ctx context.Context, tx bun.Tx, dropID string, delta int) error {
	if delta == 0 {
		return nil
	}
	_, err := tx.NewUpdate().
		Model((*models.Drop)(nil)).
		Set("available_count = available_count + ?", delta).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", dropID).
		Exec(ctx)
	return err
}

// RecordCheckError stores the last remote-ledger failure on the code. The
// claim status and check counters stay untouched.
func (r *codeRepository) RecordCheckError(ctx context.Context, codeID, msg string) error {
	_, err := r.db.NewUpdate().
		Model((*models.Code)(nil)).
		Set("error = ?", msg).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", codeID).
		Exec(ctx)
	return err
}

// ResetScanned returns a presumed-abandoned code to the allocatable pool.
func (r *codeRepository) ResetScanned(ctx context.Context, codeID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.Code)(nil)).
		Set("scanned = ?", false).
		Set("remote_check_count = 0").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", codeID).
		Exec(ctx)
	return err
}

func (r *codeRepository) UnknownSince(ctx context.Context, dropID string, cutoff time.Time) ([]*models.Code, error) {
	var codes []*models.Code
	err := r.db.NewSelect().
		Model(&codes).
		Where("drop_id = ?", dropID).
		Where("claimed = ?", models.ClaimStatusUnknown).
		Where("updated_at < ?", cutoff).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *codeRepository) Unchecked(ctx context.Context, dropID string) ([]*models.Code, error) {
	var codes []*models.Code
	err := r.db.NewSelect().
		Model(&codes).
		Where("drop_id = ?", dropID).
		Where("remote_check_count = 0").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *codeRepository) ScannedUnclaimed(ctx context.Context, dropID string) ([]*models.Code, error) {
	var codes []*models.Code
	err := r.db.NewSelect().
		Model(&codes).
		Where("drop_id = ?", dropID).
		Where("scanned = ?", true).
		Where("claimed = ?", models.ClaimStatusUnclaimed).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *codeRepository) DeleteByDrop(ctx context.Context, dropID string) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.Code)(nil)).
		Where("drop_id = ?", dropID).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
