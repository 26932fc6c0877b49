package allocation

import (
	"context"
	"log/slog"
	"time"

	"github.com/dropkiosk/dropkiosk/kiosk/database/models"
)

// challengeBaseWindow is how long a challenge lives before the drop's game
// duration is added on top.
const challengeBaseWindow = time.Minute

var defaultGame = models.GameConfig{DurationSeconds: 30, TargetScore: 5}

// Issuer mints single-use challenges for requesters whose access token
// classified as valid.
type Issuer struct {
	challenges ChallengeStore
	now        func() time.Time
}

func NewIssuer(challenges ChallengeStore) *Issuer {
	return &Issuer{challenges: challenges, now: time.Now}
}

// Issue creates and persists a challenge bound to the drop. Its expiry is
// the base window plus the configured game duration, so slow players are
// not timed out mid-game.
func (i *Issuer) Issue(ctx context.Context, drop *models.Drop) (*models.Challenge, error) {
	expiresIn := challengeBaseWindow
	if drop.Game.DurationSeconds > 0 {
		expiresIn += time.Duration(drop.Game.DurationSeconds) * time.Second
	}

	kinds := drop.Kinds
	if len(kinds) == 0 {
		kinds = []string{models.KindGame}
	}
	game := drop.Game
	if game.DurationSeconds == 0 {
		game = defaultGame
	}

	challenge := &models.Challenge{
		Token:     newToken(drop.IsTest()),
		DropID:    drop.ID,
		Kinds:     kinds,
		Game:      game,
		ExpiresAt: i.now().Add(expiresIn),
	}

	if err := i.challenges.Create(ctx, challenge); err != nil {
		return nil, err
	}

	slog.Debug("Issued challenge",
		slog.String("type", "alloc"),
		slog.String("drop_id", drop.ID),
		slog.Time("expires_at", challenge.ExpiresAt))
	return challenge, nil
}

// Bypass reports whether the drop opted out of client-side verification, in
// which case the caller allocates server-side right after issuing. This path
// must never be reachable from normal client requests.
func (i *Issuer) Bypass(drop *models.Drop) bool {
	return drop.HasKind(models.KindNaive)
}
