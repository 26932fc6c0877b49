package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Challenge binds one verified requester to one allocation attempt. It is
// keyed by its own token and consumed exactly once.
type Challenge struct {
	bun.BaseModel `bun:"table:challenges,alias:ch"`

	Token     string     `bun:"token,pk"`
	DropID    string     `bun:"drop_id,notnull"`
	Kinds     []string   `bun:"kinds,array"`
	Game      GameConfig `bun:"embed:game_"`
	ExpiresAt time.Time  `bun:"expires_at,notnull"`
	CreatedAt time.Time  `bun:"created_at,notnull"`
}

// HasKind reports whether the challenge was minted for a drop with the
// given verification kind enabled.
func (c *Challenge) HasKind(kind string) bool {
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Proof is a stored human-verification result the allocator checks before
// extending the challenge grace window.
type Proof struct {
	bun.BaseModel `bun:"table:proofs,alias:p"`

	Token     string    `bun:"token,pk"`
	Valid     bool      `bun:"valid,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
