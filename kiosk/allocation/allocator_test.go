package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/allocation/mock"
	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/dropkiosk/dropkiosk/kiosk/database/repositories"
	"github.com/dropkiosk/dropkiosk/kiosk/ledger"
	"go.uber.org/mock/gomock"
)

type allocatorMocks struct {
	drops      *mock.MockDropStore
	codes      *mock.MockCodeStore
	challenges *mock.MockChallengeStore
	proofs     *mock.MockProofStore
	ledger     *mock.MockLedger
}

func newAllocator(t *testing.T) (*Allocator, allocatorMocks) {
	ctrl := gomock.NewController(t)
	m := allocatorMocks{
		drops:      mock.NewMockDropStore(ctrl),
		codes:      mock.NewMockCodeStore(ctrl),
		challenges: mock.NewMockChallengeStore(ctrl),
		proofs:     mock.NewMockProofStore(ctrl),
		ledger:     mock.NewMockLedger(ctrl),
	}
	a := NewAllocator(m.drops, m.codes, m.challenges, m.proofs, m.ledger)
	a.now = func() time.Time { return testNow }
	return a, m
}

func liveChallenge() *models.Challenge {
	return &models.Challenge{
		Token:     "chal-1",
		DropID:    "drop-1",
		Kinds:     []string{models.KindNaive},
		ExpiresAt: testNow.Add(time.Minute),
	}
}

func TestAllocate_Success(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	m.challenges.EXPECT().GetByToken(ctx, "chal-1").Return(liveChallenge(), nil)
	m.drops.EXPECT().GetByID(ctx, "drop-1").Return(&models.Drop{ID: "drop-1"}, nil)
	m.codes.EXPECT().OldestAvailable(ctx, "drop-1").Return(&models.Code{ID: "code-a"}, nil)
	m.codes.EXPECT().Reserve(ctx, "drop-1", "code-a").Return(true, nil)
	m.ledger.EXPECT().CheckStatus(ctx, "code-a").Return(&ledger.Status{Claimed: false}, nil)
	m.challenges.EXPECT().Delete(ctx, "chal-1").Return(nil)

	got, err := a.Allocate(ctx, "chal-1", "")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if got != "code-a" {
		t.Errorf("Allocate() = %q, want %q", got, "code-a")
	}
}

func TestAllocate_ConsumedChallengeRejected(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	m.challenges.EXPECT().GetByToken(ctx, "chal-1").
		Return(nil, repositories.ErrChallengeNotFound)

	_, err := a.Allocate(ctx, "chal-1", "")
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("Allocate() error = %v, want ErrChallengeNotFound", err)
	}
}

func TestAllocate_ExpiredChallenge(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	// Expired past the 30s allocation grace
	challenge := liveChallenge()
	challenge.ExpiresAt = testNow.Add(-31 * time.Second)
	m.challenges.EXPECT().GetByToken(ctx, "chal-1").Return(challenge, nil)

	_, err := a.Allocate(ctx, "chal-1", "")
	if !errors.Is(err, ErrChallengeExpired) {
		t.Errorf("Allocate() error = %v, want ErrChallengeExpired", err)
	}
}

func TestAllocate_ProofExtendsGrace(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	m.proofs.EXPECT().GetByToken(ctx, "proof-1").
		Return(&models.Proof{Token: "proof-1", Valid: true, ExpiresAt: testNow.Add(time.Minute)}, nil)

	// 2 minutes past expiry: dead without a proof, alive within the
	// proof-extended window
	challenge := liveChallenge()
	challenge.Kinds = []string{models.KindGame}
	challenge.ExpiresAt = testNow.Add(-2 * time.Minute)
	m.challenges.EXPECT().GetByToken(ctx, "chal-1").Return(challenge, nil)
	m.drops.EXPECT().GetByID(ctx, "drop-1").Return(&models.Drop{ID: "drop-1"}, nil)
	m.codes.EXPECT().OldestAvailable(ctx, "drop-1").Return(&models.Code{ID: "code-a"}, nil)
	m.codes.EXPECT().Reserve(ctx, "drop-1", "code-a").Return(true, nil)
	m.ledger.EXPECT().CheckStatus(ctx, "code-a").Return(&ledger.Status{}, nil)
	m.challenges.EXPECT().Delete(ctx, "chal-1").Return(nil)
	m.proofs.EXPECT().Delete(ctx, "proof-1").Return(nil)

	got, err := a.Allocate(ctx, "chal-1", "proof-1")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if got != "code-a" {
		t.Errorf("Allocate() = %q, want %q", got, "code-a")
	}
}

func TestAllocate_ProofFailures(t *testing.T) {
	tests := []struct {
		name    string
		proof   *models.Proof
		getErr  error
		wantErr error
	}{
		{
			name:    "unknown proof",
			getErr:  repositories.ErrProofNotFound,
			wantErr: ErrProofInvalid,
		},
		{
			name:    "rejected proof",
			proof:   &models.Proof{Token: "proof-1", Valid: false, ExpiresAt: testNow.Add(time.Minute)},
			wantErr: ErrProofInvalid,
		},
		{
			name:    "expired proof",
			proof:   &models.Proof{Token: "proof-1", Valid: true, ExpiresAt: testNow.Add(-time.Second)},
			wantErr: ErrProofExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, m := newAllocator(t)
			ctx := context.Background()

			m.proofs.EXPECT().GetByToken(ctx, "proof-1").Return(tt.proof, tt.getErr)

			_, err := a.Allocate(ctx, "chal-1", "proof-1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Allocate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAllocate_ProofRequiredForVerifiedDrops(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	// Game-kind drop, no proof supplied: the challenge alone is not enough
	challenge := liveChallenge()
	challenge.Kinds = []string{models.KindGame}
	m.challenges.EXPECT().GetByToken(ctx, "chal-1").Return(challenge, nil)

	_, err := a.Allocate(ctx, "chal-1", "")
	if !errors.Is(err, ErrProofRequired) {
		t.Errorf("Allocate() error = %v, want ErrProofRequired", err)
	}
}

func TestAllocate_PoolExhausted(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	m.challenges.EXPECT().GetByToken(ctx, "chal-1").Return(liveChallenge(), nil)
	m.drops.EXPECT().GetByID(ctx, "drop-1").Return(&models.Drop{ID: "drop-1"}, nil)
	m.codes.EXPECT().OldestAvailable(ctx, "drop-1").Return(nil, nil)

	_, err := a.Allocate(ctx, "chal-1", "")
	if !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("Allocate() error = %v, want ErrPoolExhausted", err)
	}
}

func TestAllocate_SkipsLedgerClaimedCandidate(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	m.challenges.EXPECT().GetByToken(ctx, "chal-1").Return(liveChallenge(), nil)
	m.drops.EXPECT().GetByID(ctx, "drop-1").Return(&models.Drop{ID: "drop-1"}, nil)

	gomock.InOrder(
		m.codes.EXPECT().OldestAvailable(ctx, "drop-1").Return(&models.Code{ID: "code-stale"}, nil),
		m.codes.EXPECT().OldestAvailable(ctx, "drop-1").Return(&models.Code{ID: "code-fresh"}, nil),
	)
	m.codes.EXPECT().Reserve(ctx, "drop-1", "code-stale").Return(true, nil)
	m.codes.EXPECT().Reserve(ctx, "drop-1", "code-fresh").Return(true, nil)

	// The ledger says the first candidate was already redeemed elsewhere
	m.ledger.EXPECT().CheckStatus(ctx, "code-stale").Return(&ledger.Status{Claimed: true}, nil)
	m.ledger.EXPECT().CheckStatus(ctx, "code-fresh").Return(&ledger.Status{Claimed: false}, nil)

	m.challenges.EXPECT().Delete(ctx, "chal-1").Return(nil)

	got, err := a.Allocate(ctx, "chal-1", "")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if got != "code-fresh" {
		t.Errorf("Allocate() = %q, want %q", got, "code-fresh")
	}
}

func TestAllocate_LostReservationMovesOn(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	m.challenges.EXPECT().GetByToken(ctx, "chal-1").Return(liveChallenge(), nil)
	m.drops.EXPECT().GetByID(ctx, "drop-1").Return(&models.Drop{ID: "drop-1"}, nil)

	gomock.InOrder(
		m.codes.EXPECT().OldestAvailable(ctx, "drop-1").Return(&models.Code{ID: "code-contested"}, nil),
		m.codes.EXPECT().OldestAvailable(ctx, "drop-1").Return(&models.Code{ID: "code-b"}, nil),
	)

	// Another requester wins the first candidate
	m.codes.EXPECT().Reserve(ctx, "drop-1", "code-contested").Return(false, nil)
	m.codes.EXPECT().Reserve(ctx, "drop-1", "code-b").Return(true, nil)
	m.ledger.EXPECT().CheckStatus(ctx, "code-b").Return(&ledger.Status{}, nil)
	m.challenges.EXPECT().Delete(ctx, "chal-1").Return(nil)

	got, err := a.Allocate(ctx, "chal-1", "")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if got != "code-b" {
		t.Errorf("Allocate() = %q, want %q", got, "code-b")
	}
}

func TestAllocate_DeletedDropInvalidatesChallenge(t *testing.T) {
	a, m := newAllocator(t)
	ctx := context.Background()

	m.challenges.EXPECT().GetByToken(ctx, "chal-1").Return(liveChallenge(), nil)
	m.drops.EXPECT().GetByID(ctx, "drop-1").Return(nil, repositories.ErrDropNotFound)

	_, err := a.Allocate(ctx, "chal-1", "")
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("Allocate() error = %v, want ErrChallengeNotFound", err)
	}
}
