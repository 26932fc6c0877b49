package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/uptrace/bun"
)

type MarkerRepository interface {
	Get(ctx context.Context, id string) (*models.JobMarker, error)
	Start(ctx context.Context, id string, at time.Time) error
	Finish(ctx context.Context, id string, at time.Time) error
}

type markerRepository struct {
	db *bun.DB
}

func NewMarkerRepository(db *bun.DB) MarkerRepository {
	return &markerRepository{db: db}
}

// Get returns nil when no marker exists for the job.
func (r *markerRepository) Get(ctx context.Context, id string) (*models.JobMarker, error) {
	marker := new(models.JobMarker)
	err := r.db.NewSelect().
		Model(marker).
		Where("id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return marker, nil
}

func (r *markerRepository) Start(ctx context.Context, id string, at time.Time) error {
	marker := &models.JobMarker{ID: id, StartedAt: at}
	_, err := r.db.NewInsert().
		Model(marker).
		On("CONFLICT (id) DO UPDATE").
		Set("started_at = EXCLUDED.started_at").
		Set("ended_at = NULL").
		Exec(ctx)
	return err
}

func (r *markerRepository) Finish(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.NewDelete().
		Model((*models.JobMarker)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	// Keep a completion record around for triage
	marker := &models.JobMarker{ID: id + "_last", StartedAt: at, EndedAt: time.Now()}
	_, err = r.db.NewInsert().
		Model(marker).
		On("CONFLICT (id) DO UPDATE").
		Set("started_at = EXCLUDED.started_at").
		Set("ended_at = EXCLUDED.ended_at").
		Exec(ctx)
	return err
}
