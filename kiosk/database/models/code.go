package models

import (
	"time"

	"github.com/uptrace/bun"
)

// ClaimStatus is the tri-state local view of a code's redemption status.
// Only the external ledger can confirm a transition out of unknown.
type ClaimStatus string

const (
	ClaimStatusUnclaimed ClaimStatus = "false"
	ClaimStatusClaimed   ClaimStatus = "true"
	ClaimStatusUnknown   ClaimStatus = "unknown"
)

// ClaimStatusFromBool maps a ledger-confirmed boolean onto the tri-state.
func ClaimStatusFromBool(claimed bool) ClaimStatus {
	if claimed {
		return ClaimStatusClaimed
	}
	return ClaimStatusUnclaimed
}

// Code is a single redemption code. Its ID is the code string itself and is
// globally unique across drops.
type Code struct {
	bun.BaseModel `bun:"table:codes,alias:c"`

	ID                string      `bun:"id,pk"`
	DropID            string      `bun:"drop_id,notnull"`
	Claimed           ClaimStatus `bun:"claimed,notnull,default:'false'"`
	Scanned           bool        `bun:"scanned,notnull,default:false"`
	RemoteCheckCount  int         `bun:"remote_check_count,notnull,default:0"`
	LastRemoteCheckAt time.Time   `bun:"last_remote_check_at,nullzero"`
	Error             string      `bun:"error,nullzero"`
	ExpiresAt         time.Time   `bun:"expires_at,nullzero"`
	CreatedAt         time.Time   `bun:"created_at,notnull"`
	UpdatedAt         time.Time   `bun:"updated_at,notnull"`
}
