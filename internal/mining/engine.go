// Package mining derives the state of a mining cycle from its start time.
// Nothing here is persisted: the stored start timestamp plus the config is
// enough to rebuild the state at any moment.
package mining

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusClaimable Status = "claimable"
)

// State is the view of one cycle at a given instant.
type State struct {
	Status Status `json:"status"`
	// Whole seconds since the start, never negative.
	Elapsed   int64 `json:"elapsed"`
	Remaining int64 `json:"remaining"`
	Duration  int64 `json:"duration"`
	// Fraction of the cycle done, in [0, 1].
	Progress decimal.Decimal `json:"progress"`
	// Prorated reward shown while running, the full rate once claimable.
	Earnings decimal.Decimal `json:"earnings"`
}

func (s State) Claimable() bool {
	return s.Status == StatusClaimable
}

// Evaluate computes the cycle state. start is nil while idle; duration is in seconds.
// A start in the future (clock skew) is reported as running with the full
// duration remaining.
func Evaluate(start *time.Time, now time.Time, duration int64, rate decimal.Decimal) State {
	if duration < 0 {
		duration = 0
	}
	st := State{
		Status:    StatusIdle,
		Duration:  duration,
		Remaining: duration,
		Progress:  decimal.Zero,
		Earnings:  decimal.Zero,
	}
	if start == nil {
		return st
	}

	elapsed := int64(now.Sub(*start) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	st.Elapsed = elapsed
	st.Remaining = duration - elapsed

	if st.Remaining <= 0 {
		st.Status = StatusClaimable
		st.Remaining = 0
		st.Progress = decimal.NewFromInt(1)
		st.Earnings = rate
		return st
	}

	st.Status = StatusRunning
	e := decimal.NewFromInt(elapsed)
	d := decimal.NewFromInt(duration)
	st.Progress = e.Div(d)
	st.Earnings = rate.Mul(e).Div(d)
	return st
}

// FormatCountdown renders seconds as m:ss (minutes are not wrapped into hours).
func FormatCountdown(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
