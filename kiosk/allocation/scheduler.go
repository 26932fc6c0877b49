package allocation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/logger"
)

// Janitor removes expired rows of one table. Challenge and proof stores
// implement it.
type Janitor interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Scheduler periodically runs both reconciliation jobs for every registered
// drop plus the expired-token janitors. The per-drop debounce inside the
// reconciler keeps overlapping triggers (ticker plus on-demand refreshes)
// from doubling the work.
type Scheduler struct {
	drops      DropStore
	reconciler *Reconciler
	interval   time.Duration
	janitors   []Janitor
}

func NewScheduler(drops DropStore, reconciler *Reconciler, interval time.Duration, janitors ...Janitor) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		drops:      drops,
		reconciler: reconciler,
		interval:   interval,
		janitors:   janitors,
	}
}

// Start launches the background loop. It stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	for _, janitor := range s.janitors {
		if removed, err := janitor.DeleteExpired(ctx); err != nil {
			slog.Warn("Expired-row cleanup failed",
				slog.String("type", "job"),
				slog.Any("error", err))
		} else if removed > 0 {
			slog.Debug("Removed expired rows",
				slog.String("type", "job"),
				slog.Int64("removed", removed))
		}
	}

	ids, err := s.drops.ListIDs(ctx)
	if err != nil {
		slog.Error("Failed to list drops for reconciliation",
			slog.String("type", "job"),
			slog.Any("error", err))
		return
	}

	for _, dropID := range ids {
		start := time.Now()
		if _, err := s.reconciler.RefreshUnknownAndUnchecked(ctx, dropID); err != nil &&
			!errors.Is(err, ErrDebounced) {
			logger.LogJob("drop_refresh", dropID, time.Since(start), err)
		}

		start = time.Now()
		if _, _, err := s.reconciler.RefreshScanned(ctx, dropID); err != nil &&
			!errors.Is(err, ErrDebounced) {
			logger.LogJob("scanned_refresh", dropID, time.Since(start), err)
		}
	}
}
