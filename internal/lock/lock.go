// Package lock decides whether a day's record may be edited.
//
// State is never persisted. It is computed from the date key, today's date
// key and the (possibly absent) record on every query, so Evaluate is a pure
// function. Submit and Unlock are the only legitimate ways to change the
// lock-relevant fields of a record.
package lock

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/logger"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/utils"
)

type State string

const (
	Blocked  State = "BLOCKED"
	Editable State = "EDITABLE"
	Locked   State = "LOCKED"
	Unlocked State = "UNLOCKED"
)

// CanEdit reports whether tasks and habits may be changed in this state.
func CanEdit(s State) bool {
	return s == Editable || s == Unlocked
}

// Evaluate maps a date key and its record onto a lock state.
// A nil record means no record exists for the day.
func Evaluate(dateKey, today string, record *models.DayRecord) State {
	class := utils.Classify(dateKey, today)
	if class == utils.Future {
		return Blocked
	}

	if record == nil {
		if class == utils.Present {
			return Editable
		}
		// Untouched history is closed by default
		return Locked
	}

	if record.Locked {
		return Locked
	}
	if len(record.UnlockHistory) > 0 {
		return Unlocked
	}
	return Editable
}

// UnlockPolicy decides whether past days may be reopened.
type UnlockPolicy int

const (
	// AllowPastUnlock lets past days be unlocked with an audited reason.
	AllowPastUnlock UnlockPolicy = iota
	// ForbidPastUnlock refuses unlocks for any day before today.
	ForbidPastUnlock
)

// Manager applies lock transitions against a fresh "today" on every call.
type Manager struct {
	clock  utils.Clock
	loc    *time.Location
	policy UnlockPolicy
}

type Option func(*Manager)

func WithClock(clock utils.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

func WithLocation(loc *time.Location) Option {
	return func(m *Manager) { m.loc = loc }
}

func WithPolicy(policy UnlockPolicy) Option {
	return func(m *Manager) { m.policy = policy }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		clock:  utils.SystemClock,
		loc:    time.Local,
		policy: AllowPastUnlock,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Today returns the current date key. It is never cached.
func (m *Manager) Today() string {
	return utils.DateKeyOf(m.clock(), m.loc)
}

// Evaluate computes the lock state of a record against the current day.
func (m *Manager) Evaluate(dateKey string, record *models.DayRecord) State {
	return Evaluate(dateKey, m.Today(), record)
}

// Submit marks the day complete and locks it. Submitting an already locked
// record succeeds without changing it.
func (m *Manager) Submit(record models.DayRecord, actorID string) (models.DayRecord, error) {
	if utils.Classify(record.DateKey, m.Today()) == utils.Future {
		return record, fmt.Errorf("submit %s: %w", record.DateKey, apperrors.ErrFutureAccessDenied)
	}
	if record.Locked {
		return record, nil
	}

	out := record.Clone()
	out.Submitted = true
	out.Locked = true
	logger.Debug("Day submitted", "date", record.DateKey, "actor", actorID)
	return out, nil
}

// Unlock reopens a locked day and appends an audit event. Submitted is left
// as is, so a day can be both submitted and unlocked while it is corrected.
func (m *Manager) Unlock(record models.DayRecord, reason, actorID string) (models.DayRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return record, apperrors.ErrEmptyUnlockReason
	}

	now := m.clock()
	switch utils.Classify(record.DateKey, utils.DateKeyOf(now, m.loc)) {
	case utils.Future:
		return record, fmt.Errorf("unlock %s: %w", record.DateKey, apperrors.ErrFutureAccessDenied)
	case utils.Past:
		if m.policy == ForbidPastUnlock {
			return record, fmt.Errorf("%w: unlocking past day %s is not allowed", apperrors.ErrPolicyViolation, record.DateKey)
		}
	}

	out := record.Clone()
	out.Locked = false
	out.UnlockHistory = append(out.UnlockHistory, models.UnlockEvent{
		Reason:    reason,
		Timestamp: now,
		ActorID:   actorID,
	})
	logger.Info("Day unlocked", "date", record.DateKey, "actor", actorID, "reason", reason)
	return out, nil
}
