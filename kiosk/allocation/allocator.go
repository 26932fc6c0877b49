package allocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/dropkiosk/dropkiosk/kiosk/database/repositories"
)

const (
	// allocationGrace tops up the challenge window so a claim submitted just
	// after expiry still goes through.
	allocationGrace = 30 * time.Second
	// proofGraceBonus extends the grace further when a human-verification
	// proof was supplied; the verification step itself takes time.
	proofGraceBonus = 3 * time.Minute
)

// Allocator hands out one verified-available code per consumed challenge.
type Allocator struct {
	drops      DropStore
	codes      CodeStore
	challenges ChallengeStore
	proofs     ProofStore
	ledger     Ledger
	now        func() time.Time
}

func NewAllocator(drops DropStore, codes CodeStore, challenges ChallengeStore, proofs ProofStore, lg Ledger) *Allocator {
	return &Allocator{
		drops:      drops,
		codes:      codes,
		challenges: challenges,
		proofs:     proofs,
		ledger:     lg,
		now:        time.Now,
	}
}

// Allocate validates the challenge (and optional proof), then repeatedly
// picks the oldest locally-unclaimed code, reserves it provisionally and
// verifies the reservation against the ledger. Only a ledger-confirmed
// unclaimed code is returned; rejected candidates stay in unknown state for
// the reconciler to sort out.
func (a *Allocator) Allocate(ctx context.Context, challengeToken, proofToken string) (string, error) {
	grace := allocationGrace

	if proofToken != "" {
		proof, err := a.proofs.GetByToken(ctx, proofToken)
		if errors.Is(err, repositories.ErrProofNotFound) {
			return "", ErrProofInvalid
		}
		if err != nil {
			return "", fmt.Errorf("failed to load proof: %w", err)
		}
		if !proof.Valid {
			return "", ErrProofInvalid
		}
		if proof.ExpiresAt.Before(a.now()) {
			return "", ErrProofExpired
		}
		grace += proofGraceBonus
	}

	challenge, err := a.challenges.GetByToken(ctx, challengeToken)
	if errors.Is(err, repositories.ErrChallengeNotFound) {
		return "", ErrChallengeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load challenge: %w", err)
	}

	// Only naive drops opted out of anti-bot gating; everything else must
	// present a completed verification proof.
	if proofToken == "" && !challenge.HasKind(models.KindNaive) {
		return "", ErrProofRequired
	}

	if challenge.ExpiresAt.Before(a.now().Add(-grace)) {
		slog.Debug("Challenge expired",
			slog.String("type", "alloc"),
			slog.String("drop_id", challenge.DropID),
			slog.Duration("past_expiry", a.now().Sub(challenge.ExpiresAt)))
		return "", ErrChallengeExpired
	}

	if _, err := a.drops.GetByID(ctx, challenge.DropID); err != nil {
		if errors.Is(err, repositories.ErrDropNotFound) {
			// Drop deleted underneath an outstanding challenge
			return "", ErrChallengeNotFound
		}
		return "", fmt.Errorf("failed to load drop: %w", err)
	}

	winner, err := a.findVerifiedCode(ctx, challenge.DropID)
	if err != nil {
		return "", err
	}

	// Single-use enforcement: the challenge dies with the successful
	// allocation. A concurrent consumer may have beaten us to the delete;
	// the allocation already happened, so that race is logged and accepted.
	if err := a.challenges.Delete(ctx, challengeToken); err != nil &&
		!errors.Is(err, repositories.ErrChallengeNotFound) {
		return "", fmt.Errorf("failed to consume challenge: %w", err)
	}

	if proofToken != "" {
		if err := a.proofs.Delete(ctx, proofToken); err != nil {
			slog.Warn("Failed to delete consumed proof",
				slog.String("type", "alloc"),
				slog.Any("error", err))
		}
	}

	slog.Info("Allocated code",
		slog.String("type", "alloc"),
		slog.String("drop_id", challenge.DropID),
		slog.String("code", winner))
	return winner, nil
}

func (a *Allocator) findVerifiedCode(ctx context.Context, dropID string) (string, error) {
	for {
		candidate, err := a.codes.OldestAvailable(ctx, dropID)
		if err != nil {
			return "", fmt.Errorf("failed to query available codes: %w", err)
		}
		if candidate == nil {
			return "", ErrPoolExhausted
		}

		// Reserve as early as possible so concurrent requesters stop
		// seeing this candidate. The guard loses when another attempt
		// already flipped it off unclaimed.
		won, err := a.codes.Reserve(ctx, dropID, candidate.ID)
		if err != nil {
			return "", err
		}
		if !won {
			continue
		}

		status, err := a.ledger.CheckStatus(ctx, candidate.ID)
		if err != nil || status.Errored() || status.Claimed {
			// Discard and move on; the reconciler corrects the
			// candidate's unknown state later.
			if err != nil {
				slog.Warn("Ledger check failed during allocation",
					slog.String("type", "alloc"),
					slog.String("code", candidate.ID),
					slog.Any("error", err))
			}
			continue
		}

		return candidate.ID, nil
	}
}
