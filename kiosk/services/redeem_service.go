package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/dropkiosk/dropkiosk/kiosk/ledger"
)

var (
	ErrInvalidAddress     = errors.New("invalid email or wallet address")
	ErrCodeAlreadyClaimed = errors.New("code already claimed")
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	walletPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	ensPattern     = regexp.MustCompile(`(?i)^[a-z0-9-]+\.eth$`)
	plusTagPattern = regexp.MustCompile(`\+[^@]*@`)
)

// RedeemLedger is the slice of the ledger client redemption needs.
type RedeemLedger interface {
	CheckStatus(ctx context.Context, code string) (*ledger.Status, error)
	Claim(ctx context.Context, code, address, secret string, sendEmail bool) error
}

// RedeemService pushes an allocated code through the ledger's claim
// endpoint on behalf of a kiosk user.
type RedeemService struct {
	ledger RedeemLedger
}

func NewRedeemService(lg RedeemLedger) *RedeemService {
	return &RedeemService{ledger: lg}
}

// Redeem claims a code to an email address, wallet or ENS name. The status
// lookup supplies the claim secret and doubles as the already-claimed gate;
// the local code state catches up through reconciliation.
func (s *RedeemService) Redeem(ctx context.Context, code, address string) error {
	isWallet := walletPattern.MatchString(address)
	if !isWallet && !ensPattern.MatchString(address) && !emailPattern.MatchString(address) {
		return ErrInvalidAddress
	}

	// Plus-tagged inboxes make one person look like many
	if !isWallet {
		address = plusTagPattern.ReplaceAllString(address, "@")
	}

	status, err := s.ledger.CheckStatus(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to check code status: %w", err)
	}
	if status.Errored() {
		return fmt.Errorf("ledger rejected code: %s", status.Readable())
	}
	if status.Claimed {
		return ErrCodeAlreadyClaimed
	}

	return s.ledger.Claim(ctx, code, address, status.Secret, true)
}
