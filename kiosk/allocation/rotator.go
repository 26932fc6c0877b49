package allocation

import (
	"context"
	"log/slog"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
)

const defaultValidityMinutes = 2

// Classification is the verdict on a presented access token, with the
// individual sub-checks kept for the diagnostic flag trail.
type Classification struct {
	CurrentValid        bool
	PreviousValid       bool
	PreviousWithinGrace bool
}

// CompletelyInvalid means the token matches neither half of the pair.
func (c Classification) CompletelyInvalid() bool {
	return !c.CurrentValid && !c.PreviousValid
}

// OutsideGrace means the token is the previous one but the rotation grace
// window has passed.
func (c Classification) OutsideGrace() bool {
	return c.PreviousValid && !c.PreviousWithinGrace
}

// Valid reports whether the requester may proceed to a challenge.
func (c Classification) Valid() bool {
	return !c.CompletelyInvalid() && !c.OutsideGrace()
}

// Trail encodes all sub-checks in a fixed order for bot-detection redirect
// URLs. Operational debugging depends on this exact encoding.
func (c Classification) Trail() string {
	trail := ""
	trail += pick(c.CompletelyInvalid(), "compinv_", "ncompinv_")
	trail += pick(c.OutsideGrace(), "outgr_", "noutgr_")
	trail += pick(c.CurrentValid, "valpub_", "nvalpub_")
	trail += pick(c.PreviousValid, "valprev_", "nvalprev_")
	trail += pick(c.PreviousWithinGrace, "previngr_", "nprevingr_")
	return trail
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

// Rotator classifies presented access tokens against a drop's rotating pair
// and rotates the pair when the current token has expired.
type Rotator struct {
	drops     DropStore
	grace     time.Duration
	testGrace time.Duration
	now       func() time.Time
}

func NewRotator(drops DropStore, grace, testGrace time.Duration) *Rotator {
	if grace <= 0 {
		grace = 30 * time.Second
	}
	if testGrace <= 0 {
		testGrace = 5 * time.Second
	}
	return &Rotator{
		drops:     drops,
		grace:     grace,
		testGrace: testGrace,
		now:       time.Now,
	}
}

// Classify checks a presented token against the drop's current and previous
// access tokens. The grace window is measured from the current token's
// creation: the previous token stays acceptable only while the current one
// is younger than the grace duration.
func (r *Rotator) Classify(drop *models.Drop, token string) Classification {
	grace := r.grace
	if drop.IsTest() {
		grace = r.testGrace
	}

	var c Classification
	if token != "" {
		c.CurrentValid = drop.CurrentAccess.Token == token
		c.PreviousValid = drop.PreviousAccess.Token == token
	}
	c.PreviousWithinGrace = drop.CurrentAccess.CreatedAt.After(r.now().Add(-grace))
	return c
}

// RotateIfExpired promotes a freshly minted token to current and demotes the
// old current to previous, keeping the old token's validity as the new
// current token's lifetime. Rotation happens after the triggering requester
// was let through, never before.
func (r *Rotator) RotateIfExpired(ctx context.Context, drop *models.Drop) (bool, error) {
	if !drop.CurrentAccess.Expired(r.now()) {
		return false, nil
	}

	validity := drop.PreviousAccess.ValidityMinutes
	if validity <= 0 {
		validity = defaultValidityMinutes
	}

	next := NewAccessToken(r.now(), validity, drop.IsTest())
	if err := r.drops.SetAccessTokens(ctx, drop.ID, next, drop.CurrentAccess); err != nil {
		return false, err
	}

	slog.Info("Rotated access token",
		slog.String("type", "alloc"),
		slog.String("drop_id", drop.ID),
		slog.Time("next_expiry", next.ExpiresAt))
	return true, nil
}
