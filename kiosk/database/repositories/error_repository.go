package repositories

import (
	"context"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/uptrace/bun"
)

// ErrorRepository tracks remote check failure frequency, per code and per
// error message. Best-effort bookkeeping for operational triage.
type ErrorRepository interface {
	StrikeCode(ctx context.Context, codeID, errMsg string) error
	StrikeRemote(ctx context.Context, errKey, message string) error
}

type errorRepository struct {
	db *bun.DB
}

func NewErrorRepository(db *bun.DB) ErrorRepository {
	return &errorRepository{db: db}
}

func (r *errorRepository) StrikeCode(ctx context.Context, codeID, errMsg string) error {
	row := &models.CodeError{
		CodeID:    codeID,
		Error:     errMsg,
		Strikes:   1,
		UpdatedAt: time.Now(),
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (code_id) DO UPDATE").
		Set("error = EXCLUDED.error").
		Set("strikes = code_errors.strikes + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *errorRepository) StrikeRemote(ctx context.Context, errKey, message string) error {
	row := &models.RemoteError{
		Error:     errKey,
		Message:   message,
		Strikes:   1,
		UpdatedAt: time.Now(),
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (error) DO UPDATE").
		Set("message = EXCLUDED.message").
		Set("strikes = remote_errors.strikes + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
