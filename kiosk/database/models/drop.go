package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Verification-challenge kinds a drop can enable. The naive kind opts the
// drop out of client-side anti-bot gating entirely.
const (
	KindGame  = "game"
	KindNaive = "naive"
)

// AccessToken is one half of a drop's rotating token pair.
type AccessToken struct {
	Token           string    `bun:"token"`
	CreatedAt       time.Time `bun:"created_at,nullzero"`
	ExpiresAt       time.Time `bun:"expires_at,nullzero"`
	ValidityMinutes float64   `bun:"validity_minutes"`
}

func (t AccessToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && t.ExpiresAt.Before(now)
}

// IsTest reports whether this token belongs to a CI/test drop.
func (t AccessToken) IsTest() bool {
	return strings.HasPrefix(t.Token, "testing-")
}

// GameConfig is the human-verification minigame configuration a drop carries.
// The engine only forwards it; the game itself runs client-side.
type GameConfig struct {
	DurationSeconds int `bun:"duration_seconds"`
	TargetScore     int `bun:"target_score"`
}

type Drop struct {
	bun.BaseModel `bun:"table:drops,alias:d"`

	ID             string      `bun:"id,pk"`
	Name           string      `bun:"name,notnull"`
	Email          string      `bun:"email,notnull"`
	CodeCount      int         `bun:"code_count,notnull"`
	AvailableCount int         `bun:"available_count,notnull"`
	AdminToken     string      `bun:"admin_token,notnull"`
	Kinds          []string    `bun:"kinds,array"`
	Game           GameConfig  `bun:"embed:game_"`
	CurrentAccess  AccessToken `bun:"embed:current_access_"`
	PreviousAccess AccessToken `bun:"embed:previous_access_"`
	ExpiresAt      time.Time   `bun:"expires_at,nullzero"`
	CreatedAt      time.Time   `bun:"created_at,notnull"`
	UpdatedAt      time.Time   `bun:"updated_at,notnull"`
}

// HasKind reports whether the drop enables the given verification kind.
func (d *Drop) HasKind(kind string) bool {
	for _, k := range d.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsTest reports whether the drop was registered with CI testing codes.
func (d *Drop) IsTest() bool {
	return d.CurrentAccess.IsTest() || d.PreviousAccess.IsTest()
}
