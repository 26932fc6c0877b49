package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/allocation/mock"
	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/dropkiosk/dropkiosk/kiosk/executor"
	"github.com/dropkiosk/dropkiosk/kiosk/ledger"
	"go.uber.org/mock/gomock"
)

type reconcilerMocks struct {
	drops   *mock.MockDropStore
	codes   *mock.MockCodeStore
	markers *mock.MockMarkerStore
	strikes *mock.MockErrorSink
	ledger  *mock.MockLedger
}

func newReconciler(t *testing.T) (*Reconciler, reconcilerMocks) {
	ctrl := gomock.NewController(t)
	m := reconcilerMocks{
		drops:   mock.NewMockDropStore(ctrl),
		codes:   mock.NewMockCodeStore(ctrl),
		markers: mock.NewMockMarkerStore(ctrl),
		strikes: mock.NewMockErrorSink(ctrl),
		ledger:  mock.NewMockLedger(ctrl),
	}
	exec := executor.New(executor.WithRetry(0, 0), executor.WithoutJitter())
	r := NewReconciler(m.drops, m.codes, m.markers, m.strikes, m.ledger, exec)
	r.now = func() time.Time { return testNow }
	return r, m
}

func expectMarkerCycle(m reconcilerMocks, markerID string) {
	m.markers.EXPECT().Get(gomock.Any(), markerID).Return(nil, nil)
	m.markers.EXPECT().Start(gomock.Any(), markerID, testNow).Return(nil)
	m.markers.EXPECT().Finish(gomock.Any(), markerID, testNow).Return(nil)
}

func TestRefreshUnknownAndUnchecked_Debounce(t *testing.T) {
	tests := []struct {
		name      string
		marker    *models.JobMarker
		wantStart bool
	}{
		{
			name:      "no prior run starts",
			marker:    nil,
			wantStart: true,
		},
		{
			name:      "run started seconds ago is refused",
			marker:    &models.JobMarker{ID: "drop_refresh_drop-1", StartedAt: testNow.Add(-10 * time.Second)},
			wantStart: false,
		},
		{
			name:      "stale marker is taken over",
			marker:    &models.JobMarker{ID: "drop_refresh_drop-1", StartedAt: testNow.Add(-2 * time.Minute)},
			wantStart: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newReconciler(t)
			ctx := context.Background()

			m.markers.EXPECT().Get(ctx, "drop_refresh_drop-1").Return(tt.marker, nil)
			if tt.wantStart {
				m.markers.EXPECT().Start(ctx, "drop_refresh_drop-1", testNow).Return(nil)
				m.markers.EXPECT().Finish(ctx, "drop_refresh_drop-1", testNow).Return(nil)
				m.codes.EXPECT().UnknownSince(ctx, "drop-1", testNow.Add(-5*time.Minute)).Return(nil, nil)
				m.codes.EXPECT().Unchecked(ctx, "drop-1").Return(nil, nil)
			}

			_, err := r.RefreshUnknownAndUnchecked(ctx, "drop-1")
			if tt.wantStart && err != nil {
				t.Fatalf("RefreshUnknownAndUnchecked() error = %v", err)
			}
			if !tt.wantStart && !errors.Is(err, ErrDebounced) {
				t.Errorf("RefreshUnknownAndUnchecked() error = %v, want ErrDebounced", err)
			}
		})
	}
}

func TestRefreshUnknownAndUnchecked_ClearsMarkerOnFailure(t *testing.T) {
	r, m := newReconciler(t)
	ctx := context.Background()

	m.markers.EXPECT().Get(ctx, "drop_refresh_drop-1").Return(nil, nil)
	m.markers.EXPECT().Start(ctx, "drop_refresh_drop-1", testNow).Return(nil)
	m.codes.EXPECT().UnknownSince(ctx, "drop-1", gomock.Any()).
		Return(nil, errors.New("connection reset"))

	// A failed sweep still clears its marker; otherwise the next run is
	// locked out for a full debounce window
	m.markers.EXPECT().Finish(ctx, "drop_refresh_drop-1", testNow).Return(nil)

	if _, err := r.RefreshUnknownAndUnchecked(ctx, "drop-1"); err == nil {
		t.Fatal("RefreshUnknownAndUnchecked() error = nil, want query failure")
	}
}

func TestRefreshScanned_ClearsMarkerOnFailure(t *testing.T) {
	r, m := newReconciler(t)
	ctx := context.Background()

	m.markers.EXPECT().Get(ctx, "scanned_refresh_drop-1").Return(nil, nil)
	m.markers.EXPECT().Start(ctx, "scanned_refresh_drop-1", testNow).Return(nil)
	m.drops.EXPECT().GetByID(ctx, "drop-1").Return(&models.Drop{ID: "drop-1"}, nil)
	m.codes.EXPECT().ScannedUnclaimed(ctx, "drop-1").
		Return(nil, errors.New("connection reset"))
	m.markers.EXPECT().Finish(ctx, "scanned_refresh_drop-1", testNow).Return(nil)

	if _, _, err := r.RefreshScanned(ctx, "drop-1"); err == nil {
		t.Fatal("RefreshScanned() error = nil, want query failure")
	}
}

func TestRefreshUnknownAndUnchecked_ErrorSlowdown(t *testing.T) {
	r, m := newReconciler(t)
	ctx := context.Background()

	expectMarkerCycle(m, "drop_refresh_drop-1")

	// Three old unknowns: one clean, one with a recent check error, one with
	// an error old enough to have aged past the slowed-down cutoff.
	cleanCode := &models.Code{ID: "clean", UpdatedAt: testNow.Add(-10 * time.Minute)}
	recentError := &models.Code{ID: "flaky", Error: "timeout", UpdatedAt: testNow.Add(-10 * time.Minute)}
	agedError := &models.Code{ID: "aged", Error: "timeout", UpdatedAt: testNow.Add(-51 * time.Minute)}
	m.codes.EXPECT().UnknownSince(ctx, "drop-1", testNow.Add(-5*time.Minute)).
		Return([]*models.Code{cleanCode, recentError, agedError}, nil)
	m.codes.EXPECT().Unchecked(ctx, "drop-1").Return(nil, nil)

	m.ledger.EXPECT().CheckStatus(gomock.Any(), "clean").Return(&ledger.Status{}, nil)
	m.ledger.EXPECT().CheckStatus(gomock.Any(), "aged").Return(&ledger.Status{}, nil)
	m.codes.EXPECT().ApplyRemoteStatus(gomock.Any(), "clean", false).Return(nil)
	m.codes.EXPECT().ApplyRemoteStatus(gomock.Any(), "aged", false).Return(nil)

	refreshed, err := r.RefreshUnknownAndUnchecked(ctx, "drop-1")
	if err != nil {
		t.Fatalf("RefreshUnknownAndUnchecked() error = %v", err)
	}
	if refreshed != 2 {
		t.Errorf("refreshed = %d, want 2", refreshed)
	}
}

func TestRefreshUnknownAndUnchecked_DeduplicatesBuckets(t *testing.T) {
	r, m := newReconciler(t)
	ctx := context.Background()

	expectMarkerCycle(m, "drop_refresh_drop-1")

	// The same code shows up both as an old unknown and as never checked
	twice := &models.Code{ID: "twice", UpdatedAt: testNow.Add(-10 * time.Minute)}
	m.codes.EXPECT().UnknownSince(ctx, "drop-1", gomock.Any()).Return([]*models.Code{twice}, nil)
	m.codes.EXPECT().Unchecked(ctx, "drop-1").Return([]*models.Code{twice}, nil)

	m.ledger.EXPECT().CheckStatus(gomock.Any(), "twice").Return(&ledger.Status{}, nil)
	m.codes.EXPECT().ApplyRemoteStatus(gomock.Any(), "twice", false).Return(nil)

	refreshed, err := r.RefreshUnknownAndUnchecked(ctx, "drop-1")
	if err != nil {
		t.Fatalf("RefreshUnknownAndUnchecked() error = %v", err)
	}
	if refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", refreshed)
	}
}

func TestRefreshScanned_SplitsResetAndCheck(t *testing.T) {
	r, m := newReconciler(t)
	ctx := context.Background()

	expectMarkerCycle(m, "scanned_refresh_drop-1")

	// 90s game: abandoned means quiet for 2min + 90s
	m.drops.EXPECT().GetByID(ctx, "drop-1").
		Return(&models.Drop{ID: "drop-1", Game: models.GameConfig{DurationSeconds: 90}}, nil)

	abandoned := &models.Code{
		ID:                "abandoned",
		RemoteCheckCount:  3,
		LastRemoteCheckAt: testNow.Add(-4 * time.Minute),
		UpdatedAt:         testNow.Add(-4 * time.Minute),
	}
	// Same quiet period but too few checks to conclude anything
	underChecked := &models.Code{
		ID:                "under-checked",
		RemoteCheckCount:  2,
		LastRemoteCheckAt: testNow.Add(-4 * time.Minute),
		UpdatedAt:         testNow.Add(-4 * time.Minute),
	}
	// Touched moments ago, inside the recheck cooldown
	justChecked := &models.Code{
		ID:               "just-checked",
		RemoteCheckCount: 1,
		UpdatedAt:        testNow.Add(-5 * time.Second),
	}
	m.codes.EXPECT().ScannedUnclaimed(ctx, "drop-1").
		Return([]*models.Code{abandoned, underChecked, justChecked}, nil)

	m.codes.EXPECT().ResetScanned(gomock.Any(), "abandoned").Return(nil)
	m.ledger.EXPECT().CheckStatus(gomock.Any(), "under-checked").Return(&ledger.Status{}, nil)
	m.codes.EXPECT().ApplyRemoteStatus(gomock.Any(), "under-checked", false).Return(nil)

	checked, reset, err := r.RefreshScanned(ctx, "drop-1")
	if err != nil {
		t.Fatalf("RefreshScanned() error = %v", err)
	}
	if checked != 1 || reset != 1 {
		t.Errorf("RefreshScanned() = (checked %d, reset %d), want (1, 1)", checked, reset)
	}
}

func TestRefreshScanned_Debounce(t *testing.T) {
	r, m := newReconciler(t)
	ctx := context.Background()

	m.markers.EXPECT().Get(ctx, "scanned_refresh_drop-1").
		Return(&models.JobMarker{ID: "scanned_refresh_drop-1", StartedAt: testNow.Add(-time.Second)}, nil)

	_, _, err := r.RefreshScanned(ctx, "drop-1")
	if !errors.Is(err, ErrDebounced) {
		t.Errorf("RefreshScanned() error = %v, want ErrDebounced", err)
	}
}

func TestUpdateCodeStatus(t *testing.T) {
	transportErr := errors.New("dial tcp: connection refused")

	tests := []struct {
		name    string
		setup   func(m reconcilerMocks)
		wantErr bool
	}{
		{
			name: "transport failure recorded and surfaced for retry",
			setup: func(m reconcilerMocks) {
				m.ledger.EXPECT().CheckStatus(gomock.Any(), "code-a").Return(nil, transportErr)
				m.codes.EXPECT().RecordCheckError(gomock.Any(), "code-a", transportErr.Error()).Return(nil)
			},
			wantErr: true,
		},
		{
			name: "api error recorded and struck but swallowed",
			setup: func(m reconcilerMocks) {
				status := &ledger.Status{Error: "not_found", Message: "code does not exist"}
				m.ledger.EXPECT().CheckStatus(gomock.Any(), "code-a").Return(status, nil)
				m.codes.EXPECT().RecordCheckError(gomock.Any(), "code-a", status.Readable()).Return(nil)
				m.strikes.EXPECT().StrikeCode(gomock.Any(), "code-a", "not_found").Return(nil)
				m.strikes.EXPECT().StrikeRemote(gomock.Any(), "not_found", "code does not exist").Return(nil)
			},
		},
		{
			name: "claimed answer applied",
			setup: func(m reconcilerMocks) {
				m.ledger.EXPECT().CheckStatus(gomock.Any(), "code-a").Return(&ledger.Status{Claimed: true}, nil)
				m.codes.EXPECT().ApplyRemoteStatus(gomock.Any(), "code-a", true).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, m := newReconciler(t)
			tt.setup(m)

			err := r.UpdateCodeStatus(context.Background(), "code-a")
			if (err != nil) != tt.wantErr {
				t.Errorf("UpdateCodeStatus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
