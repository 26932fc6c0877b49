// Package counter maintains each drop's advertised available-code count
// incrementally, from the claim-status transition of every code write,
// instead of rescanning the pool.
package counter

import "github.com/dropkiosk/dropkiosk/kiosk/database/models"

// Delta returns the change to a drop's available_count when a code's claim
// status moves from old to new.
//
// A move into unknown is pessimistic: the code leaves the advertised pool
// immediately, and only a ledger-confirmed unclaimed result puts it back.
//
//	false   -> unknown : -1
//	false   -> true    : -1
//	unknown -> true    :  0
//	true    -> false   : +1
//	unknown -> false   : +1
func Delta(old, new models.ClaimStatus) int {
	if old == new {
		return 0
	}

	if old == models.ClaimStatusUnclaimed &&
		(new == models.ClaimStatusUnknown || new == models.ClaimStatusClaimed) {
		return -1
	}

	if (old == models.ClaimStatusClaimed || old == models.ClaimStatusUnknown) &&
		new == models.ClaimStatusUnclaimed {
		return 1
	}

	return 0
}
