// Package ownership implements the database-mediated single-writer
// election: an acquire/heartbeat/release lease with liveness probing, so
// cooperating processes agree on exactly one owner at a time.
package ownership

import (
	"syscall"
	"time"

	"github.com/DeusData/ts-codebase-index/internal/codeerr"
	"github.com/DeusData/ts-codebase-index/internal/store"
)

// Role is the outcome of Acquire: either the caller becomes the owner, or
// it is told to act as a read-only reader.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleReader Role = "reader"
)

// DefaultStaleAfter is the heartbeat age at or past which an owner is considered
// dead even if its process still exists.
const DefaultStaleAfter = 90 * time.Second

// IsAliveFunc probes whether pid still holds its process. The default
// implementation (IsAlive) sends signal 0 and classifies ESRCH as dead,
// EPERM as alive, and any other error as alive (never steal on doubt).
type IsAliveFunc func(pid int) bool

// Lease wraps a Store's watcher_owner row with acquire/heartbeat/release.
type Lease struct {
	store       *store.Store
	pid         int
	isAlive     IsAliveFunc
	staleAfter  time.Duration
	nowFunc     func() time.Time
	timeFormat  string
	releaseOnce bool
}

// Options configures a Lease. Zero values fall back to sane defaults:
// IsAlive probes the OS, StaleAfter is DefaultStaleAfter, Now is
// time.Now.
type Options struct {
	PID        int
	IsAlive    IsAliveFunc
	StaleAfter time.Duration
	Now        func() time.Time
}

// New creates a Lease for the given store and options.
func New(s *store.Store, opts Options) *Lease {
	if opts.IsAlive == nil {
		opts.IsAlive = IsAlive
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Lease{
		store:      s,
		pid:        opts.PID,
		isAlive:    opts.IsAlive,
		staleAfter: opts.StaleAfter,
		nowFunc:    opts.Now,
		timeFormat: time.RFC3339Nano,
	}
}

// IsAlive is the default liveness probe: signal 0 via kill(2). ESRCH means
// the process is gone; EPERM means it exists but we lack permission
// (treated as alive); any other error is conservatively treated as alive
// so a live-but-unprobable owner is never stolen from.
func IsAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	if err == nil {
		return true
	}
	if err == syscall.ESRCH {
		return false
	}
	return true
}

// Acquire attempts to become the owner. Runs inside a BEGIN IMMEDIATE
// transaction so two concurrent candidates never both observe an empty
// row. Returns RoleOwner if there was no row, the existing row's
// heartbeat is stale (age >= threshold, boundary inclusive), its
// heartbeat timestamp fails to parse, or its pid is no longer alive.
// Otherwise returns RoleReader.
func (l *Lease) Acquire() (Role, error) {
	var role Role
	err := l.store.WithImmediateTransaction(func(tx *store.Store) error {
		owner, err := tx.GetOwner()
		if err != nil {
			return codeerr.Wrap(codeerr.Store, "get owner", err)
		}

		now := l.nowFunc()
		if owner == nil {
			role = RoleOwner
			return wrapStore(tx.InsertOwner(l.pid, now.Format(l.timeFormat)))
		}

		hb, parseErr := time.Parse(l.timeFormat, owner.HeartbeatAt)
		stale := parseErr != nil
		if !stale {
			age := now.Sub(hb)
			stale = age >= l.staleAfter
		}
		dead := !l.isAlive(owner.PID)

		if stale || dead {
			role = RoleOwner
			return wrapStore(tx.ReplaceOwner(l.pid, now.Format(l.timeFormat)))
		}

		role = RoleReader
		return nil
	})
	if err != nil {
		return "", err
	}
	return role, nil
}

// UpdateHeartbeat refreshes the heartbeat timestamp. A no-op when this
// lease's pid is not the current owner.
func (l *Lease) UpdateHeartbeat() error {
	return wrapStore(l.store.UpdateHeartbeat(l.pid, l.nowFunc().Format(l.timeFormat)))
}

// Release deletes the owner row for this lease's pid (graceful release).
// A no-op when this pid does not hold the row.
func (l *Lease) Release() error {
	return wrapStore(l.store.DeleteOwner(l.pid))
}

func wrapStore(err error) error {
	if err == nil {
		return nil
	}
	return codeerr.Wrap(codeerr.Store, "ownership store op", err)
}
