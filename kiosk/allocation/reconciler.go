package allocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/dropkiosk/dropkiosk/kiosk/database/repositories"
	"github.com/dropkiosk/dropkiosk/kiosk/executor"
)

const (
	// Sane defaults against complete self-DOSsing of the ledger API
	unknownMinAge       = 5 * time.Minute
	errorSlowdownFactor = 10
	debounceWindow      = time.Minute
	checkCodesAtLeast   = 2
	checkCooldown       = 30 * time.Second
	// A claimer that scanned but has not redeemed gets this long, on top of
	// the game duration, before the code returns to the pool.
	expectedMaxClaimDuration = 2 * time.Minute
	defaultGameDuration      = time.Minute
)

// ErrDebounced is returned when a job refuses to run because another run for
// the same drop started within the debounce window.
var ErrDebounced = errors.New("job already running for drop")

// Reconciler re-derives local code state from the external ledger via two
// debounced, throttled background jobs.
type Reconciler struct {
	drops   DropStore
	codes   CodeStore
	markers MarkerStore
	strikes ErrorSink
	ledger  Ledger
	exec    *executor.Executor
	now     func() time.Time
}

func NewReconciler(drops DropStore, codes CodeStore, markers MarkerStore, strikes ErrorSink, lg Ledger, exec *executor.Executor) *Reconciler {
	return &Reconciler{
		drops:   drops,
		codes:   codes,
		markers: markers,
		strikes: strikes,
		ledger:  lg,
		exec:    exec,
		now:     time.Now,
	}
}

// RefreshUnknownAndUnchecked rechecks codes whose status is locally
// uncertain: old unknowns (with an extra slowdown for codes whose checks
// keep erroring) and codes never checked at all. Returns how many codes were
// pushed to the ledger.
func (r *Reconciler) RefreshUnknownAndUnchecked(ctx context.Context, dropID string) (int, error) {
	markerID := "drop_refresh_" + dropID
	startedAt, err := r.acquire(ctx, markerID)
	if err != nil {
		return 0, err
	}
	defer r.release(ctx, markerID, startedAt)

	now := r.now()
	oldUnknowns, err := r.codes.UnknownSince(ctx, dropID, now.Add(-unknownMinAge))
	if err != nil {
		return 0, fmt.Errorf("failed to query unknown codes: %w", err)
	}

	unchecked, err := r.codes.Unchecked(ctx, dropID)
	if err != nil {
		return 0, fmt.Errorf("failed to query unchecked codes: %w", err)
	}

	// Codes with a prior remote error get rechecked less often
	errorCutoff := now.Add(-unknownMinAge * errorSlowdownFactor)
	var due []*models.Code
	for _, code := range oldUnknowns {
		if code.Error == "" || code.UpdatedAt.Before(errorCutoff) {
			due = append(due, code)
		}
	}
	due = append(due, unchecked...)

	seen := make(map[string]bool, len(due))
	var tasks []executor.Task
	for _, code := range due {
		if seen[code.ID] {
			continue
		}
		seen[code.ID] = true

		codeID := code.ID
		tasks = append(tasks, func(ctx context.Context) error {
			return r.UpdateCodeStatus(ctx, codeID)
		})
	}

	r.runTasks(ctx, "drop_refresh", dropID, tasks)
	return len(tasks), nil
}

// RefreshScanned rechecks codes a human was routed toward but which the
// ledger has not confirmed claimed. Codes checked enough times and quiet for
// longer than the claim timeout are presumed abandoned and returned to the
// pool; the rest get a fresh status check unless checked very recently.
func (r *Reconciler) RefreshScanned(ctx context.Context, dropID string) (checked, reset int, err error) {
	markerID := "scanned_refresh_" + dropID
	startedAt, err := r.acquire(ctx, markerID)
	if err != nil {
		return 0, 0, err
	}
	defer r.release(ctx, markerID, startedAt)

	resetTimeout := expectedMaxClaimDuration + defaultGameDuration
	if drop, derr := r.drops.GetByID(ctx, dropID); derr == nil && drop.Game.DurationSeconds > 0 {
		resetTimeout = expectedMaxClaimDuration + time.Duration(drop.Game.DurationSeconds)*time.Second
	}

	scanned, err := r.codes.ScannedUnclaimed(ctx, dropID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query scanned codes: %w", err)
	}

	now := r.now()
	var resetTasks, checkTasks []executor.Task
	for _, code := range scanned {
		codeID := code.ID

		if code.RemoteCheckCount > checkCodesAtLeast &&
			!code.LastRemoteCheckAt.IsZero() &&
			code.LastRemoteCheckAt.Before(now.Add(-resetTimeout)) {
			resetTasks = append(resetTasks, func(ctx context.Context) error {
				return r.codes.ResetScanned(ctx, codeID)
			})
			continue
		}

		// Skip codes checked within the cooldown; fifty kiosk tablets at a
		// venue all trigger rechecks at once
		if code.UpdatedAt.Before(now.Add(-checkCooldown)) {
			checkTasks = append(checkTasks, func(ctx context.Context) error {
				return r.UpdateCodeStatus(ctx, codeID)
			})
		}
	}

	r.runTasks(ctx, "scanned_reset", dropID, resetTasks)
	r.runTasks(ctx, "scanned_refresh", dropID, checkTasks)
	return len(checkTasks), len(resetTasks), nil
}

// UpdateCodeStatus re-derives one code's claim status from the ledger. A
// transport failure is returned so the executor retries it; an API-level
// error is recorded on the code and in the strike counters and swallowed.
func (r *Reconciler) UpdateCodeStatus(ctx context.Context, codeID string) error {
	status, err := r.ledger.CheckStatus(ctx, codeID)
	if err != nil {
		if rerr := r.codes.RecordCheckError(ctx, codeID, err.Error()); rerr != nil {
			slog.Warn("Failed to record check error",
				slog.String("type", "job"),
				slog.String("code", codeID),
				slog.Any("error", rerr))
		}
		return err
	}

	if status.Errored() {
		readable := status.Readable()
		if rerr := r.codes.RecordCheckError(ctx, codeID, readable); rerr != nil {
			return rerr
		}

		// Failure-frequency counters are best effort
		if status.Error != "" {
			if serr := r.strikes.StrikeCode(ctx, codeID, status.Error); serr != nil {
				slog.Warn("Unable to write code strike", slog.String("type", "job"), slog.Any("error", serr))
			}
			if serr := r.strikes.StrikeRemote(ctx, status.Error, status.Message); serr != nil {
				// Remote error keys can contain characters the store rejects
				slog.Warn("Unable to write error strike", slog.String("type", "job"), slog.Any("error", serr))
			}
		}
		return nil
	}

	if err := r.codes.ApplyRemoteStatus(ctx, codeID, status.Claimed); err != nil {
		if errors.Is(err, repositories.ErrCodeNotFound) {
			// Drop deleted mid-sweep
			return nil
		}
		return err
	}
	return nil
}

// acquire enforces the per-drop debounce: refuse to start if another run
// started within the last debounce interval and has not finished. Stale
// markers are treated as crashed runs and taken over.
func (r *Reconciler) acquire(ctx context.Context, markerID string) (time.Time, error) {
	marker, err := r.markers.Get(ctx, markerID)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read job marker: %w", err)
	}

	now := r.now()
	if marker != nil && marker.StartedAt.After(now.Add(-debounceWindow)) {
		slog.Debug("Job debounced",
			slog.String("type", "job"),
			slog.String("marker", markerID))
		return time.Time{}, ErrDebounced
	}

	if err := r.markers.Start(ctx, markerID, now); err != nil {
		return time.Time{}, fmt.Errorf("failed to write job marker: %w", err)
	}
	return now, nil
}

// release clears an acquired marker. Runs on every exit path so a failed
// sweep does not block the next run for a whole debounce window.
func (r *Reconciler) release(ctx context.Context, markerID string, startedAt time.Time) {
	if err := r.markers.Finish(ctx, markerID, startedAt); err != nil {
		slog.Warn("Failed to clear job marker",
			slog.String("type", "job"),
			slog.String("marker", markerID),
			slog.Any("error", err))
	}
}

func (r *Reconciler) runTasks(ctx context.Context, job, dropID string, tasks []executor.Task) {
	if len(tasks) == 0 {
		return
	}

	start := r.now()
	failed := 0
	for _, err := range r.exec.Run(ctx, tasks) {
		if err != nil {
			failed++
		}
	}

	slog.Info("Reconciliation batch done",
		slog.String("type", "job"),
		slog.String("job", job),
		slog.String("drop_id", dropID),
		slog.Int("total", len(tasks)),
		slog.Int("failed", failed),
		slog.Duration("took", time.Since(start)))
}
