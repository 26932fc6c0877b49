package models

import (
	"time"

	"github.com/uptrace/bun"
)

// JobMarker debounces one reconciliation job per drop. Its ID is
// "<job>_<dropID>". A marker present and younger than the debounce window
// means a run is in progress.
type JobMarker struct {
	bun.BaseModel `bun:"table:job_markers,alias:jm"`

	ID        string    `bun:"id,pk"`
	StartedAt time.Time `bun:"started_at,notnull"`
	EndedAt   time.Time `bun:"ended_at,nullzero"`
}

// CodeError tracks per-code remote check failures for operational triage.
type CodeError struct {
	bun.BaseModel `bun:"table:code_errors,alias:ce"`

	CodeID    string    `bun:"code_id,pk"`
	Error     string    `bun:"error,notnull"`
	Strikes   int       `bun:"strikes,notnull,default:0"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// RemoteError aggregates ledger failures by error message.
type RemoteError struct {
	bun.BaseModel `bun:"table:remote_errors,alias:re"`

	Error     string    `bun:"error,pk"`
	Message   string    `bun:"message"`
	Strikes   int       `bun:"strikes,notnull,default:0"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}
