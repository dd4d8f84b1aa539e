package plan

import (
	"math"
	"strconv"
)

// UnlimitedRemaining is the marker returned for remaining capacity on an
// unlimited metric. It is a plain non-negative value so callers doing
// arithmetic or comparisons never see a negative or wrapped result.
const UnlimitedRemaining = int64(math.MaxInt64)

// unlimitedWire is the wire encoding for an unlimited ceiling.
const unlimitedWire = int64(-1)

// Limit is a metric ceiling. The unlimited case is carried explicitly
// instead of as a magic negative number, so every arithmetic path is
// guarded the same way.
type Limit struct {
	ceiling   int64
	unlimited bool
}

// LimitOf builds a finite ceiling. Negative input is clamped to zero.
func LimitOf(n int64) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{ceiling: n}
}

// Unlimited builds a ceiling with no cap.
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// IsUnlimited reports whether the limit has no cap.
func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// Ceiling returns the finite ceiling and true, or 0 and false when unlimited.
func (l Limit) Ceiling() (int64, bool) {
	if l.unlimited {
		return 0, false
	}
	return l.ceiling, true
}

// Allows reports whether one more unit may be consumed at the given current
// count. The comparison is strictly current < ceiling: reaching the ceiling
// already blocks the action.
func (l Limit) Allows(current int64) bool {
	if l.unlimited {
		return true
	}
	return current < l.ceiling
}

// Remaining returns how much capacity is left, never negative. Unlimited
// ceilings report UnlimitedRemaining.
func (l Limit) Remaining(current int64) int64 {
	if l.unlimited {
		return UnlimitedRemaining
	}
	if current >= l.ceiling {
		return 0
	}
	return l.ceiling - current
}

// Percent returns consumed capacity as a percentage clamped to [0,100].
// Unlimited and zero ceilings short-circuit to 0.
func (l Limit) Percent(current int64) float64 {
	if l.unlimited || l.ceiling == 0 {
		return 0
	}
	if current <= 0 {
		return 0
	}
	p := float64(current) / float64(l.ceiling) * 100
	if p > 100 {
		return 100
	}
	return p
}

// MarshalJSON keeps the legacy wire form: -1 for unlimited, the ceiling
// otherwise.
func (l Limit) MarshalJSON() ([]byte, error) {
	if l.unlimited {
		return strconv.AppendInt(nil, unlimitedWire, 10), nil
	}
	return strconv.AppendInt(nil, l.ceiling, 10), nil
}

// UnmarshalJSON accepts the wire form; any negative value means unlimited.
func (l *Limit) UnmarshalJSON(data []byte) error {
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return err
	}
	if n < 0 {
		*l = Unlimited()
		return nil
	}
	*l = LimitOf(n)
	return nil
}

func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(l.ceiling, 10)
}
