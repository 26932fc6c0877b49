// Package allocation implements the code allocation and reconciliation
// engine: rotating access tokens, single-use challenges, ledger-verified
// code allocation and the background jobs that keep the local claim cache
// honest.
package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
	"github.com/dropkiosk/dropkiosk/kiosk/ledger"
	"github.com/google/uuid"
)

// Typed allocation failures. The HTTP layer maps these onto the stable
// user-facing message strings.
var (
	ErrPoolExhausted     = errors.New("no ledger-confirmed available code remains")
	ErrChallengeExpired  = errors.New("challenge expired")
	ErrChallengeNotFound = errors.New("challenge not found or already used")
	ErrProofRequired     = errors.New("verification proof required")
	ErrProofInvalid      = errors.New("verification proof invalid")
	ErrProofExpired      = errors.New("verification proof expired")
)

// DropStore is the slice of drop persistence the engine needs.
type DropStore interface {
	GetByID(ctx context.Context, id string) (*models.Drop, error)
	ListIDs(ctx context.Context) ([]string, error)
	SetAccessTokens(ctx context.Context, id string, current, previous models.AccessToken) error
}

type CodeStore interface {
	OldestAvailable(ctx context.Context, dropID string) (*models.Code, error)
	Reserve(ctx context.Context, dropID, codeID string) (bool, error)
	ApplyRemoteStatus(ctx context.Context, codeID string, claimed bool) error
	RecordCheckError(ctx context.Context, codeID, msg string) error
	ResetScanned(ctx context.Context, codeID string) error
	UnknownSince(ctx context.Context, dropID string, cutoff time.Time) ([]*models.Code, error)
	Unchecked(ctx context.Context, dropID string) ([]*models.Code, error)
	ScannedUnclaimed(ctx context.Context, dropID string) ([]*models.Code, error)
}

type ChallengeStore interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	GetByToken(ctx context.Context, token string) (*models.Challenge, error)
	Delete(ctx context.Context, token string) error
}

type ProofStore interface {
	GetByToken(ctx context.Context, token string) (*models.Proof, error)
	Delete(ctx context.Context, token string) error
}

type MarkerStore interface {
	Get(ctx context.Context, id string) (*models.JobMarker, error)
	Start(ctx context.Context, id string, at time.Time) error
	Finish(ctx context.Context, id string, at time.Time) error
}

// ErrorSink receives best-effort failure bookkeeping from reconciliation.
type ErrorSink interface {
	StrikeCode(ctx context.Context, codeID, errMsg string) error
	StrikeRemote(ctx context.Context, errKey, message string) error
}

// Ledger is the authoritative external record of code redemption.
type Ledger interface {
	CheckStatus(ctx context.Context, code string) (*ledger.Status, error)
}

// NewAccessToken mints one half of a drop's rotating token pair. Test drops
// get a recognizable prefix so grace windows can be shortened for CI.
func NewAccessToken(now time.Time, validityMinutes float64, isTest bool) models.AccessToken {
	return models.AccessToken{
		Token:           newToken(isTest),
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(validityMinutes * float64(time.Minute))),
		ValidityMinutes: validityMinutes,
	}
}

func newToken(isTest bool) string {
	token := uuid.NewString()
	if isTest {
		return "testing-" + token
	}
	return token
}
